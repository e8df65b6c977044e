// Package api contains the HTTP contract of the reconciliation service.
// Version v1 represents the current stable API version.
package api

import (
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// PaginationRequest represents common pagination parameters
type PaginationRequest struct {
	Page     int `json:"page" form:"page" validate:"omitempty,min=1"`
	PageSize int `json:"page_size" form:"page_size" validate:"omitempty,min=1,max=1000"`
}

// DefaultPageSize applies when a request leaves page_size unset
const DefaultPageSize = 100

// Normalize fills unset fields with their defaults
func (p PaginationRequest) Normalize() PaginationRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// Bounds returns the half-open slice range of the page within total items.
// Pages past the end yield the empty range [total, total) without
// multiplying out page and page size.
func (p PaginationRequest) Bounds(total int) (int, int) {
	if total <= 0 {
		return 0, 0
	}
	p = p.Normalize()
	if p.Page-1 > total/p.PageSize {
		return total, total
	}
	start := (p.Page - 1) * p.PageSize
	if start > total {
		start = total
	}
	end := total
	if p.PageSize < total-start {
		end = start + p.PageSize
	}
	return start, end
}

// ReconcileRequest holds the form fields of POST /api/reconcile.
// File counts are filled by the handler from the multipart parts so the
// "both uploads required" rule is checked with the other fields.
type ReconcileRequest struct {
	SourceMode    string `form:"source_mode" validate:"omitempty,oneof=archive flat"`
	Alignment     string `form:"alignment" validate:"omitempty,oneof=positional period-key"`
	RequireVolume string `form:"require_volume" validate:"omitempty,oneof=true false 1 0 on off"`
	Year          int    `form:"year" validate:"omitempty,gte=2000,lte=9999"`
	Month         int    `form:"month" validate:"omitempty,gte=1,lte=12"`

	TakasFiles int `form:"takas" validate:"required"`
	AKDFiles   int `form:"akd" validate:"required"`
	HacimFiles int `form:"hacim"`
}

// RequiresVolume interprets the require_volume form value
func (r ReconcileRequest) RequiresVolume() (bool, bool) {
	switch r.RequireVolume {
	case "true", "1", "on":
		return true, true
	case "false", "0", "off":
		return false, true
	}
	return false, false
}

// Options overrides the defaults with every field the request sets
func (r ReconcileRequest) Options(defaults domain.RunOptions) domain.RunOptions {
	opts := defaults
	if r.SourceMode != "" {
		opts.SourceMode = domain.SourceMode(r.SourceMode)
	}
	if r.Alignment != "" {
		opts.Alignment = domain.AlignmentStrategy(r.Alignment)
	}
	if v, ok := r.RequiresVolume(); ok {
		opts.RequireVolume = v
	}
	if r.Year != 0 {
		opts.DefaultYear = r.Year
	}
	if r.Month != 0 {
		opts.DefaultMonth = r.Month
	}
	return opts
}

// SummaryQuery holds the query of GET /api/runs/{id}/summary
type SummaryQuery struct {
	Threshold string `form:"threshold" validate:"omitempty,nonneg_decimal"`
}
