package operations

import (
	"context"
	"log/slog"

	"github.com/MMucahit/borsa/internal/dataprocessing"
	"github.com/MMucahit/borsa/internal/files"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// LocateStep dates and orders the raw items of every source kind
type LocateStep struct {
	BaseStage
	logger *slog.Logger
}

// NewLocateStep creates the locate step
func NewLocateStep(logger *slog.Logger) *LocateStep {
	return &LocateStep{
		BaseStage: NewBaseStage(StepLocate, "Dataset Locator"),
		logger:    logger,
	}
}

// Execute implements Step. Takas and AKD must both yield sources; Hacim
// only when the run requires volume.
func (s *LocateStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request
	opts := req.Options
	locator := files.NewLocator(files.LocatorOptions{
		Mode:         opts.SourceMode,
		DefaultYear:  opts.DefaultYear,
		DefaultMonth: opts.DefaultMonth,
	}, s.logger)

	inputs := []struct {
		kind     domain.SourceKind
		items    []domain.RawItem
		required bool
	}{
		{domain.SourceKindTakas, req.Takas, true},
		{domain.SourceKindAKD, req.AKD, true},
		{domain.SourceKindHacim, req.Hacim, opts.RequireVolume},
	}

	stage := state.GetStage(s.ID())
	for _, in := range inputs {
		located := locator.Locate(in.kind, in.items)
		state.SetLocated(in.kind, located)

		stage.SetMetadata(string(in.kind)+"_sources", len(located.Sources))
		stage.SetMetadata(string(in.kind)+"_skipped", len(located.Skipped))
		s.logger.InfoContext(ctx, "Sources located",
			slog.String("kind", string(in.kind)),
			slog.Int("items", len(in.items)),
			slog.Int("sources", len(located.Sources)),
			slog.Int("skipped", len(located.Skipped)))

		if in.required && located.Empty() {
			return domain.NewNoMatchingSourcesError(in.kind)
		}
	}
	return nil
}

// DiffStep computes period deltas between consecutive Takas snapshots
type DiffStep struct {
	BaseStage
	logger *slog.Logger
}

// NewDiffStep creates the diff step
func NewDiffStep(logger *slog.Logger) *DiffStep {
	return &DiffStep{
		BaseStage: NewBaseStage(StepDiff, "Snapshot Differ", StepLocate),
		logger:    logger,
	}
}

// Execute implements Step
func (s *DiffStep) Execute(ctx context.Context, state *OperationState) error {
	differ := dataprocessing.NewSnapshotDiffer(state.Request.Options.Columns, s.logger)
	diff, err := differ.Diff(ctx, state.Located(domain.SourceKindTakas).Sources)
	if err != nil {
		return err
	}
	state.SetDiff(diff)

	stage := state.GetStage(s.ID())
	stage.SetMetadata("periods", len(diff.Periods))
	stage.SetMetadata("deltas", len(diff.Deltas))
	return nil
}

// ReconcileStep aligns periods with AKD sources and derives residuals
type ReconcileStep struct {
	BaseStage
	logger *slog.Logger
}

// NewReconcileStep creates the reconcile step
func NewReconcileStep(logger *slog.Logger) *ReconcileStep {
	return &ReconcileStep{
		BaseStage: NewBaseStage(StepReconcile, "Transfer Reconciler", StepDiff),
		logger:    logger,
	}
}

// Execute implements Step
func (s *ReconcileStep) Execute(ctx context.Context, state *OperationState) error {
	opts := state.Request.Options
	reconciler := dataprocessing.NewTransferReconciler(opts.Columns, opts.Alignment, s.logger)

	rec, err := reconciler.Reconcile(ctx, state.Diff(), state.Located(domain.SourceKindAKD).Sources)
	if err != nil {
		return err
	}
	state.SetReconciliation(rec)

	stage := state.GetStage(s.ID())
	stage.SetMetadata("rows", len(rec.Rows))
	stage.SetMetadata("matched_periods", len(rec.Matches))
	stage.SetMetadata("unmatched_periods", len(rec.Unmatched))
	return nil
}

// VolumeStep aggregates Hacim sources. It needs only the locator output and
// runs alongside the diff step.
type VolumeStep struct {
	BaseStage
	logger *slog.Logger
}

// NewVolumeStep creates the volume step
func NewVolumeStep(logger *slog.Logger) *VolumeStep {
	return &VolumeStep{
		BaseStage: NewBaseStage(StepVolume, "Volume Aggregator", StepLocate),
		logger:    logger,
	}
}

// Execute implements Step
func (s *VolumeStep) Execute(ctx context.Context, state *OperationState) error {
	sources := state.Located(domain.SourceKindHacim).Sources
	if len(sources) == 0 {
		return errSkipStep("no hacim sources")
	}

	aggregator := dataprocessing.NewVolumeAggregator(state.Request.Options.Columns, s.logger)
	volume, err := aggregator.Aggregate(ctx, sources)
	if err != nil {
		return err
	}
	state.SetVolume(volume)
	state.GetStage(s.ID()).SetMetadata("rows", len(volume))
	return nil
}

// SummarizeStep builds per-institution summaries and the control check
type SummarizeStep struct {
	BaseStage
	logger *slog.Logger
}

// NewSummarizeStep creates the summarize step
func NewSummarizeStep(logger *slog.Logger) *SummarizeStep {
	return &SummarizeStep{
		BaseStage: NewBaseStage(StepSummarize, "Institution Summary Builder", StepReconcile),
		logger:    logger,
	}
}

// Execute implements Step
func (s *SummarizeStep) Execute(ctx context.Context, state *OperationState) error {
	summaries := dataprocessing.SummarizeInstitutions(state.Reconciliation().Rows, state.Request.Options.Tolerance)
	state.SetSummaries(summaries)

	unbalanced := 0
	for _, sum := range summaries {
		if !sum.Balanced {
			unbalanced++
		}
	}
	stage := state.GetStage(s.ID())
	stage.SetMetadata("institutions", len(summaries))
	stage.SetMetadata("unbalanced", unbalanced)

	if unbalanced > 0 {
		s.logger.WarnContext(ctx, "Control check found unbalanced institutions",
			slog.Int("unbalanced", unbalanced),
			slog.Int("institutions", len(summaries)))
	}
	return nil
}

// skipStep is returned by a step that had nothing to do
type skipStep struct {
	reason string
}

func (e skipStep) Error() string { return e.reason }

func errSkipStep(reason string) error { return skipStep{reason: reason} }
