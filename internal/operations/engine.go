package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MMucahit/borsa/internal/dataprocessing"
	"github.com/MMucahit/borsa/internal/files"
	"github.com/MMucahit/borsa/internal/infrastructure"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Request is the input of one run: undated items per source kind plus options.
// An empty RunID is replaced by a fresh UUID.
type Request struct {
	RunID   string
	Options domain.RunOptions
	Takas   []domain.RawItem
	AKD     []domain.RawItem
	Hacim   []domain.RawItem
}

// EngineOptions configures an Engine. Every field is optional.
type EngineOptions struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *infrastructure.Metrics
	Clock   func() time.Time
}

// Engine runs the reconciliation steps for one request at a time per call.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	registry *Registry
	levels   [][]Step
	tracer   *OperationTracer
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine registers the pipeline steps and resolves their execution levels
func NewEngine(opts EngineOptions) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "engine")

	tracer, err := NewOperationTracer(opts.Tracer, opts.Metrics)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	for _, step := range []Step{
		NewLocateStep(logger),
		NewDiffStep(logger),
		NewReconcileStep(logger),
		NewVolumeStep(logger),
		NewSummarizeStep(logger),
	} {
		if err := registry.Register(step); err != nil {
			return nil, fmt.Errorf("register step: %w", err)
		}
	}

	levels, err := registry.Levels()
	if err != nil {
		return nil, fmt.Errorf("resolve step order: %w", err)
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Engine{
		registry: registry,
		levels:   levels,
		tracer:   tracer,
		validate: validator.New(),
		logger:   logger,
		now:      now,
	}, nil
}

// Run executes every step and returns the immutable result of the run
func (e *Engine) Run(ctx context.Context, req Request) (*domain.Result, error) {
	result, _, err := e.Execute(ctx, req)
	return result, err
}

// Execute is Run that also returns the run state with per-step timings.
// The state is returned even when the run fails.
func (e *Engine) Execute(ctx context.Context, req Request) (*domain.Result, *OperationState, error) {
	if req.RunID == "" {
		req.RunID = uuid.New().String()
	}
	state := NewOperationState(req.RunID, req)
	for _, step := range e.registry.List() {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := e.tracer.TraceRun(ctx, req.RunID, req.Options)
	defer span.End()

	logger := e.logger.With(slog.String("run_id", req.RunID))
	start := e.now()

	result, err := e.execute(ctx, state, logger)
	duration := e.now().Sub(start)
	e.tracer.RecordRunCompletion(ctx, span, result, duration, err)

	if err != nil {
		if IsCancellation(err) {
			state.Cancel(err)
		} else {
			state.Fail(err)
		}
		logger.ErrorContext(ctx, "Run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, state, err
	}

	state.Complete()
	logger.InfoContext(ctx, "Run completed",
		slog.Int("rows", len(result.Rows)),
		slog.Int("institutions", len(result.Summaries)),
		slog.Int("unbalanced", len(result.Unbalanced())),
		slog.Int("skipped", len(result.Skipped)),
		slog.String("total_residual", result.TotalResidual.String()),
		slog.Duration("duration", duration))
	return result, state, nil
}

func (e *Engine) execute(ctx context.Context, state *OperationState, logger *slog.Logger) (*domain.Result, error) {
	if err := e.validate.Struct(state.Request.Options); err != nil {
		return nil, &OperationError{
			Type:    ErrorTypeValidation,
			Message: "invalid run options",
			Cause:   err,
		}
	}

	state.Start()
	for i, level := range e.levels {
		if err := ctx.Err(); err != nil {
			e.abortRemaining(state, i)
			return nil, NewCancellationError(level[0].ID(), err)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, step := range level {
			g.Go(func() error {
				return e.runStep(gctx, step, state, logger)
			})
		}
		if err := g.Wait(); err != nil {
			e.abortRemaining(state, i+1)
			return nil, err
		}
	}

	return e.buildResult(state), nil
}

func (e *Engine) runStep(ctx context.Context, step Step, state *OperationState, logger *slog.Logger) error {
	stepState := state.GetStage(step.ID())
	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return err
	}

	ctx, span := e.tracer.TraceStep(ctx, state.ID, step.ID())
	defer span.End()

	stepState.Start()
	logger.DebugContext(ctx, "Step started", slog.String("step", step.ID()))

	err := step.Execute(ctx, state)

	var skip skipStep
	switch {
	case errors.As(err, &skip):
		stepState.Skip(skip.reason)
		e.tracer.RecordStepCompletion(ctx, span, step.ID(), StepStatusSkipped, stepState.Duration(), nil)
		logger.DebugContext(ctx, "Step skipped",
			slog.String("step", step.ID()),
			slog.String("reason", skip.reason))
		return nil
	case err != nil:
		stepState.Fail(err)
		e.tracer.RecordStepCompletion(ctx, span, step.ID(), StepStatusFailed, stepState.Duration(), err)
		return NewExecutionError(step.ID(), err)
	}

	stepState.Complete()
	e.tracer.RecordStepCompletion(ctx, span, step.ID(), StepStatusCompleted, stepState.Duration(), nil)
	logger.DebugContext(ctx, "Step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", stepState.Duration()))
	return nil
}

// abortRemaining marks every still pending step from level onwards as skipped
func (e *Engine) abortRemaining(state *OperationState, from int) {
	for _, level := range e.levels[from:] {
		for _, step := range level {
			if st := state.GetStage(step.ID()); st.GetStatus() == StepStatusPending {
				st.Skip("run aborted")
			}
		}
	}
}

func (e *Engine) buildResult(state *OperationState) *domain.Result {
	takas := state.Located(domain.SourceKindTakas)
	akd := state.Located(domain.SourceKindAKD)
	hacim := state.Located(domain.SourceKindHacim)

	var skipped []domain.SkippedItem
	for _, l := range []*files.Located{takas, akd, hacim} {
		skipped = append(skipped, l.Skipped...)
	}

	rec := state.Reconciliation()
	summaries := state.Summaries()
	diff := state.Diff()

	return &domain.Result{
		RunID:         state.ID,
		Options:       state.Request.Options,
		TakasSources:  refs(takas.Sources),
		AKDSources:    refs(akd.Sources),
		VolumeSources: refs(hacim.Sources),
		Skipped:       skipped,
		Deltas:        diff.Deltas,
		Rows:          rec.Rows,
		Summaries:     summaries,
		Volume:        state.Volume(),
		Unmatched:     rec.Unmatched,
		TotalResidual: dataprocessing.TotalResidual(summaries),
		GeneratedAt:   e.now().UTC(),
	}
}

func refs(sources []domain.DatedSource) []domain.SourceRef {
	if len(sources) == 0 {
		return nil
	}
	out := make([]domain.SourceRef, len(sources))
	for i, src := range sources {
		out[i] = src.Ref()
	}
	return out
}
