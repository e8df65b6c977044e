package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// RunCounts summarizes the size of a run
type RunCounts struct {
	TakasSources  int `json:"takas_sources"`
	AKDSources    int `json:"akd_sources"`
	VolumeSources int `json:"volume_sources"`
	Periods       int `json:"periods"`
	Rows          int `json:"rows"`
	Institutions  int `json:"institutions"`
	Unbalanced    int `json:"unbalanced"`
	Skipped       int `json:"skipped"`
}

// RunResponse is the run overview returned by POST /api/reconcile and GET /api/runs/{id}
type RunResponse struct {
	RunID         string                   `json:"run_id"`
	GeneratedAt   time.Time                `json:"generated_at"`
	ExpiresAt     *time.Time               `json:"expires_at,omitempty"`
	Options       domain.RunOptions        `json:"options"`
	Counts        RunCounts                `json:"counts"`
	Periods       []string                 `json:"periods"`
	TotalResidual decimal.Decimal          `json:"total_residual"`
	TakasSources  []domain.SourceRef       `json:"takas_sources"`
	AKDSources    []domain.SourceRef       `json:"akd_sources"`
	VolumeSources []domain.SourceRef       `json:"volume_sources,omitempty"`
	Skipped       []domain.SkippedItem     `json:"skipped"`
	Unmatched     []domain.UnmatchedPeriod `json:"unmatched"`
	Links         map[string]string        `json:"links"`
}

// NewRunResponse builds the overview of a finished run
func NewRunResponse(result *domain.Result) RunResponse {
	base := "/api/runs/" + result.RunID
	links := map[string]string{
		"self":    base,
		"rows":    base + "/rows",
		"summary": base + "/summary",
		"export":  base + "/export/summary.xlsx",
	}
	if result.HasVolume() {
		links["volume"] = base + "/volume"
	}

	periods := result.Periods()
	return RunResponse{
		RunID:       result.RunID,
		GeneratedAt: result.GeneratedAt,
		Options:     result.Options,
		Counts: RunCounts{
			TakasSources:  len(result.TakasSources),
			AKDSources:    len(result.AKDSources),
			VolumeSources: len(result.VolumeSources),
			Periods:       len(periods),
			Rows:          len(result.Rows),
			Institutions:  len(result.Summaries),
			Unbalanced:    len(result.Unbalanced()),
			Skipped:       len(result.Skipped),
		},
		Periods:       nonNil(periods),
		TotalResidual: result.TotalResidual,
		TakasSources:  nonNil(result.TakasSources),
		AKDSources:    nonNil(result.AKDSources),
		VolumeSources: result.VolumeSources,
		Skipped:       nonNil(result.Skipped),
		Unmatched:     nonNil(result.Unmatched),
		Links:         links,
	}
}

// RowsResponse is one page of reconciled rows
type RowsResponse struct {
	RunID    string                 `json:"run_id"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Total    int                    `json:"total"`
	Rows     []domain.ReconciledRow `json:"rows"`
}

// SummaryResponse is the institution control table after threshold filtering
type SummaryResponse struct {
	RunID         string                      `json:"run_id"`
	Threshold     decimal.Decimal             `json:"threshold"`
	Total         int                         `json:"total"`
	Unbalanced    int                         `json:"unbalanced"`
	TotalResidual decimal.Decimal             `json:"total_residual"`
	Institutions  []domain.InstitutionSummary `json:"institutions"`
}

// VolumeResponse is the per period volume distribution
type VolumeResponse struct {
	RunID   string                 `json:"run_id"`
	Periods []string               `json:"periods"`
	Volume  []domain.VolumeSummary `json:"volume"`
}

// VersionResponse is returned by GET /api/version
type VersionResponse struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	API       string `json:"api_version"`
}

// nonNil keeps empty lists as [] in JSON
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
