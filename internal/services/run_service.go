package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/internal/config"
	"github.com/MMucahit/borsa/internal/dataprocessing"
	apierrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/internal/exporter"
	"github.com/MMucahit/borsa/internal/files"
	"github.com/MMucahit/borsa/internal/infrastructure"
	"github.com/MMucahit/borsa/internal/operations"
	api "github.com/MMucahit/borsa/pkg/contracts/api/v1"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Upload is one uploaded part: a zip archive or a single xlsx/csv file
type Upload struct {
	Name    string
	Payload []byte
}

// IsArchive reports whether the upload is a zip archive
func (u Upload) IsArchive() bool {
	return strings.EqualFold(filepath.Ext(u.Name), ".zip")
}

// ReconcileInput is one reconciliation request
type ReconcileInput struct {
	Options domain.RunOptions
	Takas   []Upload
	AKD     []Upload
	Hacim   []Upload
}

// Runner executes one reconciliation run
type Runner interface {
	Run(ctx context.Context, req operations.Request) (*domain.Result, error)
}

// RunServiceOptions configures a RunService
type RunServiceOptions struct {
	WorkspaceDir     string
	RunTimeout       time.Duration
	TTL              time.Duration
	CleanupInterval  time.Duration
	DefaultThreshold decimal.Decimal
	Metrics          *infrastructure.Metrics
}

// RunServiceOptionsFromConfig maps the application configuration onto service options
func RunServiceOptionsFromConfig(cfg *config.Config, metrics *infrastructure.Metrics) RunServiceOptions {
	return RunServiceOptions{
		WorkspaceDir:     cfg.Server.WorkspaceDir,
		RunTimeout:       cfg.Server.RunTimeout,
		TTL:              cfg.Cache.TTL,
		CleanupInterval:  cfg.Cache.CleanupInterval,
		DefaultThreshold: cfg.Reconcile.ThresholdDecimal(),
		Metrics:          metrics,
	}
}

// RunService runs the engine per request and keeps finished results for a while
type RunService struct {
	runner   Runner
	results  *cache.Cache
	exporter *exporter.Exporter
	opts     RunServiceOptions
	logger   *slog.Logger
}

// NewRunService creates a run service around the engine
func NewRunService(runner Runner, opts RunServiceOptions, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "run_service")

	if opts.TTL <= 0 {
		opts.TTL = config.DefaultCacheTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = config.DefaultCacheCleanup
	}

	s := &RunService{
		runner:   runner,
		results:  cache.New(opts.TTL, opts.CleanupInterval),
		exporter: exporter.New("", logger),
		opts:     opts,
		logger:   logger,
	}
	if opts.Metrics != nil {
		s.results.OnEvicted(func(key string, _ any) {
			opts.Metrics.CachedRuns.Add(context.Background(), -1)
			logger.Debug("Run evicted", slog.String("run_id", key))
		})
	}

	logger.Info("RunService initialized",
		slog.String("workspace_dir", opts.WorkspaceDir),
		slog.Duration("ttl", opts.TTL),
		slog.Duration("run_timeout", opts.RunTimeout))
	return s
}

// Reconcile stages the uploads in a fresh workspace, runs the engine and
// caches the result under its run id
func (s *RunService) Reconcile(ctx context.Context, in ReconcileInput) (*domain.Result, error) {
	runID := uuid.New().String()
	logger := infrastructure.LoggerWithContext(ctx).With(slog.String("run_id", runID))

	ws, err := files.NewWorkspace(s.opts.WorkspaceDir, runID, logger)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to create run workspace", err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("Workspace cleanup failed", slog.String("error", err.Error()))
		}
	}()

	req := operations.Request{RunID: runID, Options: in.Options}
	var duplicates []domain.SkippedItem
	for _, st := range []struct {
		kind    domain.SourceKind
		uploads []Upload
		items   *[]domain.RawItem
	}{
		{domain.SourceKindTakas, in.Takas, &req.Takas},
		{domain.SourceKindAKD, in.AKD, &req.AKD},
		{domain.SourceKindHacim, in.Hacim, &req.Hacim},
	} {
		items, skipped, err := s.stage(ws, st.kind, st.uploads)
		if err != nil {
			return nil, err
		}
		*st.items = items
		duplicates = append(duplicates, skipped...)
	}

	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, translateRunError(err)
	}
	if len(duplicates) > 0 {
		result.Skipped = append(duplicates, result.Skipped...)
	}

	s.results.SetDefault(result.RunID, result)
	if s.opts.Metrics != nil {
		s.opts.Metrics.CachedRuns.Add(ctx, 1)
	}
	logger.Info("Run cached",
		slog.Int("rows", len(result.Rows)),
		slog.Int("cached_runs", s.results.ItemCount()))
	return result, nil
}

// stage extracts every upload of one kind below the workspace and collects
// the extracted folder, so archive folder names keep their year/month meaning.
// Uploads that collide on a path are returned as skipped.
func (s *RunService) stage(ws *files.Workspace, kind domain.SourceKind, uploads []Upload) ([]domain.RawItem, []domain.SkippedItem, error) {
	if len(uploads) == 0 {
		return nil, nil, nil
	}

	var items []domain.RawItem
	for _, u := range uploads {
		if u.IsArchive() {
			entries, err := files.OpenArchive(u.Name, u.Payload)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, entries...)
			continue
		}
		items = append(items, domain.RawItem{Path: filepath.Base(u.Name), Payload: u.Payload})
	}

	dir, skipped, err := ws.Extract(kind, items)
	if err != nil {
		return nil, nil, apierrors.NewStorageError("failed to stage "+string(kind)+" uploads", err)
	}
	collected, err := files.NewDiscovery("", s.logger).CollectFolder(dir)
	if err != nil {
		return nil, nil, apierrors.NewStorageError("failed to collect "+string(kind)+" uploads", err)
	}
	return collected, skipped, nil
}

// Get returns a cached run
func (s *RunService) Get(ctx context.Context, runID string) (*domain.Result, error) {
	v, found := s.results.Get(runID)
	if !found {
		return nil, apierrors.RunNotFoundError(runID)
	}
	return v.(*domain.Result), nil
}

// ExpiresAt returns when a cached run will be dropped
func (s *RunService) ExpiresAt(runID string) (time.Time, bool) {
	_, expiration, found := s.results.GetWithExpiration(runID)
	if !found || expiration.IsZero() {
		return time.Time{}, false
	}
	return expiration, true
}

// Rows returns one page of reconciled rows
func (s *RunService) Rows(ctx context.Context, runID string, page api.PaginationRequest) (*api.RowsResponse, error) {
	result, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()
	start, end := page.Bounds(len(result.Rows))
	rows := make([]domain.ReconciledRow, 0, end-start)
	rows = append(rows, result.Rows[start:end]...)
	return &api.RowsResponse{
		RunID:    runID,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    len(result.Rows),
		Rows:     rows,
	}, nil
}

// Summary returns the institutions whose |control| exceeds the threshold.
// A nil threshold uses the configured default; zero disables the filter.
func (s *RunService) Summary(ctx context.Context, runID string, threshold *decimal.Decimal) (*api.SummaryResponse, error) {
	result, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	t := s.opts.DefaultThreshold
	if threshold != nil {
		t = *threshold
	}
	filtered, err := dataprocessing.FilterByControl(result.Summaries, t)
	if err != nil {
		return nil, apierrors.ErrValidation("threshold", err.Error())
	}

	unbalanced := 0
	for _, sum := range filtered {
		if !sum.Balanced {
			unbalanced++
		}
	}
	return &api.SummaryResponse{
		RunID:         runID,
		Threshold:     t,
		Total:         len(filtered),
		Unbalanced:    unbalanced,
		TotalResidual: result.TotalResidual,
		Institutions:  filtered,
	}, nil
}

// Volume returns the volume distribution of a run; runs without hacim input yield an empty list
func (s *RunService) Volume(ctx context.Context, runID string) (*api.VolumeResponse, error) {
	result, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	resp := &api.VolumeResponse{
		RunID:   runID,
		Periods: []string{},
		Volume:  []domain.VolumeSummary{},
	}
	seen := make(map[string]bool)
	for _, v := range result.Volume {
		if !seen[v.Period] {
			seen[v.Period] = true
			resp.Periods = append(resp.Periods, v.Period)
		}
		resp.Volume = append(resp.Volume, v)
	}
	return resp, nil
}

// Export writes one table of a cached run to w
func (s *RunService) Export(ctx context.Context, runID string, table exporter.TableName, format exporter.Format, w io.Writer) error {
	result, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}
	t, err := exporter.BuildTable(result, table)
	if err != nil {
		return err
	}
	return s.exporter.Write(w, format, t)
}

// CachedRuns returns the number of runs held in the cache, expired ones included until cleanup
func (s *RunService) CachedRuns() int {
	return s.results.ItemCount()
}

// translateRunError maps option validation failures onto API validation errors;
// everything else keeps its chain for the error handler
func translateRunError(err error) error {
	opErr, ok := operations.AsOperationError(err)
	if !ok || opErr.Type != operations.ErrorTypeValidation {
		return err
	}
	var verrs validator.ValidationErrors
	if errors.As(opErr.Cause, &verrs) {
		return apierrors.FromValidator(verrs)
	}
	return apierrors.InvalidRequestWithError(fmt.Errorf("%s", opErr.Message))
}
