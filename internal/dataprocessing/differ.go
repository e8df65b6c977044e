package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Period is one pair of consecutive Takas snapshots
type Period struct {
	Label    string           `json:"label"`
	Previous domain.SourceRef `json:"previous"`
	Current  domain.SourceRef `json:"current"`
}

// DiffResult is the Snapshot Differ output: every period plus the concatenated delta table
type DiffResult struct {
	Periods []Period
	Deltas  []domain.PeriodDelta
}

// Period looks up a period by label
func (d *DiffResult) Period(label string) (Period, bool) {
	for _, p := range d.Periods {
		if p.Label == label {
			return p, true
		}
	}
	return Period{}, false
}

// PeriodLabels returns the distinct labels of the delta table in first-encountered order
func (d *DiffResult) PeriodLabels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, row := range d.Deltas {
		if !seen[row.Period] {
			seen[row.Period] = true
			labels = append(labels, row.Period)
		}
	}
	return labels
}

// SnapshotDiffer computes per-institution balance movement between consecutive Takas snapshots
type SnapshotDiffer struct {
	columns domain.Columns
	logger  *slog.Logger
}

// NewSnapshotDiffer creates a differ reading the given columns
func NewSnapshotDiffer(columns domain.Columns, logger *slog.Logger) *SnapshotDiffer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotDiffer{
		columns: columns,
		logger:  logger.With(slog.String("component", "snapshot_differ")),
	}
}

// Diff walks the chronologically sorted snapshots pairwise. An institution
// missing from one side of a pair counts as a zero balance on that side.
func (d *SnapshotDiffer) Diff(ctx context.Context, snapshots []domain.DatedSource) (*DiffResult, error) {
	if len(snapshots) < 2 {
		return nil, domain.NewInsufficientPeriodsError(len(snapshots))
	}

	balances := make([]*orderedAmounts, len(snapshots))
	for i, src := range snapshots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		amounts, err := amountsByInstitution(src, d.columns.Institution, d.columns.Balance, Normalize)
		if err != nil {
			return nil, err
		}
		balances[i] = amounts
	}

	labels := uniquePeriodLabels(snapshots)
	result := &DiffResult{}
	for i := 1; i < len(snapshots); i++ {
		prev, curr := balances[i-1], balances[i]
		period := Period{
			Label:    labels[i-1],
			Previous: snapshots[i-1].Ref(),
			Current:  snapshots[i].Ref(),
		}
		result.Periods = append(result.Periods, period)

		for _, institution := range outerKeys(curr.order, prev.order) {
			current, _ := curr.get(institution)
			previous, _ := prev.get(institution)
			result.Deltas = append(result.Deltas, domain.PeriodDelta{
				Institution:     institution,
				BalanceCurrent:  current,
				BalancePrevious: previous,
				Delta:           current.Sub(previous),
				Period:          period.Label,
			})
		}

		d.logger.DebugContext(ctx, "Period differenced",
			slog.String("period", period.Label),
			slog.Int("institutions_previous", len(prev.order)),
			slog.Int("institutions_current", len(curr.order)))
	}

	d.logger.InfoContext(ctx, "Snapshot differencing complete",
		slog.Int("snapshots", len(snapshots)),
		slog.Int("periods", len(result.Periods)),
		slog.Int("rows", len(result.Deltas)))

	return result, nil
}

// uniquePeriodLabels builds "{prev} - {curr}" labels for each adjacent pair.
// Labels are join keys downstream, so repeats get a " #n" suffix.
func uniquePeriodLabels(snapshots []domain.DatedSource) []string {
	labels := make([]string, 0, len(snapshots)-1)
	counts := make(map[string]int)
	for i := 1; i < len(snapshots); i++ {
		label := fmt.Sprintf("%s - %s", snapshots[i-1].Label, snapshots[i].Label)
		counts[label]++
		if n := counts[label]; n > 1 {
			label = fmt.Sprintf("%s #%d", label, n)
		}
		labels = append(labels, label)
	}
	return labels
}
