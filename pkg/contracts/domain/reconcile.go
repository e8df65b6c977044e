package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllInstitutions is the synthetic institution of the per-period volume total row
const AllInstitutions = "ALL"

// AlignmentStrategy selects how computed periods are paired with AKD sources
type AlignmentStrategy string

const (
	// AlignmentPositional pairs the i-th period with the i-th AKD source.
	// Periods beyond the last AKD source produce no rows.
	AlignmentPositional AlignmentStrategy = "positional"
	// AlignmentPeriodKey pairs a period with the first unused AKD source whose
	// start key falls in [previous snapshot, current snapshot).
	AlignmentPeriodKey AlignmentStrategy = "period-key"
)

// Valid reports whether a is a known alignment strategy
func (a AlignmentStrategy) Valid() bool {
	return a == AlignmentPositional || a == AlignmentPeriodKey
}

// Columns names the header cells read from each source kind
type Columns struct {
	Institution string `json:"institution" yaml:"institution" envconfig:"INSTITUTION" validate:"required"`
	Balance     string `json:"balance" yaml:"balance" envconfig:"BALANCE" validate:"required"`
	Net         string `json:"net" yaml:"net" envconfig:"NET" validate:"required"`
	Volume      string `json:"volume" yaml:"volume" envconfig:"VOLUME" validate:"required"`
}

// DefaultColumns returns the column names used by the exchange's exports
func DefaultColumns() Columns {
	return Columns{
		Institution: "Kurum",
		Balance:     "Takas",
		Net:         "Net",
		Volume:      "Hacim",
	}
}

// RunOptions configures one reconciliation run
type RunOptions struct {
	SourceMode    SourceMode        `json:"source_mode" validate:"required,oneof=archive flat"`
	RequireVolume bool              `json:"require_volume"`
	Alignment     AlignmentStrategy `json:"alignment" validate:"required,oneof=positional period-key"`
	DefaultYear   int               `json:"default_year" validate:"gte=2000,lte=9999"`
	DefaultMonth  int               `json:"default_month" validate:"gte=1,lte=12"`
	Columns       Columns           `json:"columns"`
	Tolerance     decimal.Decimal   `json:"tolerance"`
}

// DefaultRunOptions returns positional alignment over dated archive folders
func DefaultRunOptions() RunOptions {
	return RunOptions{
		SourceMode:   SourceModeArchive,
		Alignment:    AlignmentPositional,
		DefaultYear:  2024,
		DefaultMonth: 1,
		Columns:      DefaultColumns(),
		Tolerance:    decimal.NewFromFloat(0.01),
	}
}

// BalanceRecord is one institution's balance in one Takas snapshot
type BalanceRecord struct {
	Institution string          `json:"institution"`
	Balance     decimal.Decimal `json:"balance"`
}

// PeriodDelta is one institution's balance movement between two consecutive snapshots
type PeriodDelta struct {
	Institution     string          `json:"institution"`
	BalanceCurrent  decimal.Decimal `json:"balance_current"`
	BalancePrevious decimal.Decimal `json:"balance_previous"`
	Delta           decimal.Decimal `json:"delta"`
	Period          string          `json:"period"`
}

// ReconciledRow joins a period delta with the reported net transfer (Virman = residual)
type ReconciledRow struct {
	Institution     string          `json:"institution"`
	Period          string          `json:"period"`
	AKDLabel        string          `json:"akd_label"`
	BalanceCurrent  decimal.Decimal `json:"balance_current"`
	BalancePrevious decimal.Decimal `json:"balance_previous"`
	Delta           decimal.Decimal `json:"delta"`
	ReportedNet     decimal.Decimal `json:"reported_net"`
	Residual        decimal.Decimal `json:"residual"`
}

// InstitutionSummary aggregates an institution across every reconciled period.
// Control is the balance change not covered by reported net transfers; it is
// zero when every period's net equals its delta.
type InstitutionSummary struct {
	Institution      string          `json:"institution"`
	FirstBalance     decimal.Decimal `json:"first_balance"`
	LastBalance      decimal.Decimal `json:"last_balance"`
	NetChange        decimal.Decimal `json:"net_change"`
	TotalReportedNet decimal.Decimal `json:"total_reported_net"`
	TotalResidual    decimal.Decimal `json:"total_residual"`
	Control          decimal.Decimal `json:"control"`
	Balanced         bool            `json:"balanced"`
}

// VolumeSummary is one institution's share of a period's trading volume
type VolumeSummary struct {
	Institution string          `json:"institution"`
	PeriodTotal decimal.Decimal `json:"period_total"`
	SharePct    decimal.Decimal `json:"share_pct"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Period      string          `json:"period"`
}

// UnmatchedPeriod is a computed period that produced no reconciled rows
type UnmatchedPeriod struct {
	Period string `json:"period"`
	Reason string `json:"reason"`
}

// Result is the immutable outcome of one reconciliation run
type Result struct {
	RunID         string               `json:"run_id"`
	Options       RunOptions           `json:"options"`
	TakasSources  []SourceRef          `json:"takas_sources"`
	AKDSources    []SourceRef          `json:"akd_sources"`
	VolumeSources []SourceRef          `json:"volume_sources,omitempty"`
	Skipped       []SkippedItem        `json:"skipped,omitempty"`
	Deltas        []PeriodDelta        `json:"-"`
	Rows          []ReconciledRow      `json:"-"`
	Summaries     []InstitutionSummary `json:"-"`
	Volume        []VolumeSummary      `json:"-"`
	Unmatched     []UnmatchedPeriod    `json:"unmatched,omitempty"`
	TotalResidual decimal.Decimal      `json:"total_residual"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// HasVolume reports whether the run aggregated any volume sources
func (r *Result) HasVolume() bool {
	return r != nil && len(r.VolumeSources) > 0
}

// Periods returns the distinct reconciled period labels in table order
func (r *Result) Periods() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool)
	var periods []string
	for _, row := range r.Rows {
		if !seen[row.Period] {
			seen[row.Period] = true
			periods = append(periods, row.Period)
		}
	}
	return periods
}

// Unbalanced returns the summaries whose control exceeds the run tolerance
func (r *Result) Unbalanced() []InstitutionSummary {
	if r == nil {
		return nil
	}
	var out []InstitutionSummary
	for _, s := range r.Summaries {
		if !s.Balanced {
			out = append(out, s)
		}
	}
	return out
}
