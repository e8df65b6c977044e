package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Reconciliation is the Transfer Reconciler output
type Reconciliation struct {
	Rows      []domain.ReconciledRow
	Matches   []PeriodMatch
	Unmatched []domain.UnmatchedPeriod
}

// TransferReconciler joins period deltas with reported AKD net transfers and
// derives the residual (Virman) per institution and period.
type TransferReconciler struct {
	columns domain.Columns
	aligner Aligner
	logger  *slog.Logger
}

// NewTransferReconciler creates a reconciler using the given alignment strategy
func NewTransferReconciler(columns domain.Columns, strategy domain.AlignmentStrategy, logger *slog.Logger) *TransferReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferReconciler{
		columns: columns,
		aligner: NewAligner(strategy),
		logger:  logger.With(slog.String("component", "transfer_reconciler")),
	}
}

// Reconcile aligns the differ's periods with AKD sources and computes
// residual = delta - reported net over the outer join of both institution sets.
func (r *TransferReconciler) Reconcile(ctx context.Context, diff *DiffResult, akd []domain.DatedSource) (*Reconciliation, error) {
	if len(akd) == 0 {
		return nil, domain.NewNoMatchingSourcesError(domain.SourceKindAKD)
	}

	labels := diff.PeriodLabels()
	periods := make([]Period, 0, len(labels))
	for _, label := range labels {
		if p, ok := diff.Period(label); ok {
			periods = append(periods, p)
		}
	}

	matches, unmatched := r.aligner.Align(periods, akd)
	for _, u := range unmatched {
		r.logger.WarnContext(ctx, "Period dropped without akd match",
			slog.String("period", u.Period),
			slog.String("reason", u.Reason))
	}
	if len(matches) == 0 {
		return nil, domain.NewNoAlignedPeriodsError(len(periods), len(akd))
	}

	deltasByPeriod := make(map[string][]domain.PeriodDelta)
	for _, d := range diff.Deltas {
		deltasByPeriod[d.Period] = append(deltasByPeriod[d.Period], d)
	}

	result := &Reconciliation{Matches: matches, Unmatched: unmatched}
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nets, err := amountsByInstitution(m.AKD, r.columns.Institution, r.columns.Net, NormalizeNet)
		if err != nil {
			return nil, err
		}

		deltas := make(map[string]domain.PeriodDelta)
		var deltaOrder []string
		for _, d := range deltasByPeriod[m.Period.Label] {
			deltas[d.Institution] = d
			deltaOrder = append(deltaOrder, d.Institution)
		}

		for _, institution := range outerKeys(nets.order, deltaOrder) {
			net, _ := nets.get(institution)
			d := deltas[institution]
			result.Rows = append(result.Rows, domain.ReconciledRow{
				Institution:     institution,
				Period:          m.Period.Label,
				AKDLabel:        m.AKD.Label,
				BalanceCurrent:  d.BalanceCurrent,
				BalancePrevious: d.BalancePrevious,
				Delta:           d.Delta,
				ReportedNet:     net,
				Residual:        d.Delta.Sub(net),
			})
		}

		r.logger.DebugContext(ctx, "Period reconciled",
			slog.String("period", m.Period.Label),
			slog.String("akd", m.AKD.Label),
			slog.Int("institutions", len(nets.order)))
	}

	r.logger.InfoContext(ctx, "Transfer reconciliation complete",
		slog.Int("periods_matched", len(matches)),
		slog.Int("periods_unmatched", len(unmatched)),
		slog.Int("rows", len(result.Rows)))

	return result, nil
}
