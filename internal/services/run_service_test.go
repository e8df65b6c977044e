package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/internal/exporter"
	"github.com/MMucahit/borsa/internal/operations"
	"github.com/MMucahit/borsa/internal/shared/testutil"
	api "github.com/MMucahit/borsa/pkg/contracts/api/v1"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

func newTestService(t *testing.T, opts RunServiceOptions) *RunService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	engine, err := operations.NewEngine(operations.EngineOptions{Logger: logger})
	require.NoError(t, err)
	if opts.WorkspaceDir == "" {
		opts.WorkspaceDir = t.TempDir()
	}
	return NewRunService(engine, opts, logger)
}

func fixtureInput(t *testing.T, withVolume bool) ReconcileInput {
	t.Helper()
	takas, akd := testutil.ReconcileArchives(t)
	in := ReconcileInput{
		Options: domain.DefaultRunOptions(),
		Takas:   []Upload{{Name: "takas.zip", Payload: takas}},
		AKD:     []Upload{{Name: "akd.zip", Payload: akd}},
	}
	if withVolume {
		in.Hacim = []Upload{{Name: "hacim.zip", Payload: testutil.VolumeArchive(t)}}
	}
	return in
}

func requireAPIStatus(t *testing.T, err error, status int) *apierrors.APIError {
	t.Helper()
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T: %v", err, err)
	assert.Equal(t, status, apiErr.StatusCode)
	return apiErr
}

func TestRunService_Reconcile(t *testing.T) {
	workspace := t.TempDir()
	svc := newTestService(t, RunServiceOptions{WorkspaceDir: workspace})
	ctx := context.Background()

	result, err := svc.Reconcile(ctx, fixtureInput(t, true))
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	assert.Len(t, result.Rows, 4)
	assert.True(t, result.TotalResidual.Equal(decimal.NewFromInt(-5)))
	assert.Equal(t, 1, svc.CachedRuns())

	cached, err := svc.Get(ctx, result.RunID)
	require.NoError(t, err)
	assert.Same(t, result, cached)

	expires, ok := svc.ExpiresAt(result.RunID)
	assert.True(t, ok)
	assert.True(t, expires.After(time.Now()))

	entries, err := os.ReadDir(workspace)
	require.NoError(t, err)
	assert.Empty(t, entries, "run workspace is removed after the run")
}

func TestRunService_FlatUploads(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{})

	opts := domain.DefaultRunOptions()
	opts.SourceMode = domain.SourceModeFlat
	opts.DefaultYear = 2024

	in := ReconcileInput{
		Options: opts,
		Takas: []Upload{
			{Name: "9 09.csv", Payload: []byte("Kurum,Takas\nA,150\n")},
			{Name: "2 09.csv", Payload: []byte("Kurum,Takas\nA,100\n")},
		},
		AKD: []Upload{
			{Name: "2-6 09.csv", Payload: []byte("Kurum,Net\nA,50\n")},
			{Name: "~$2-6 09.csv", Payload: []byte("lock")},
		},
	}

	result, err := svc.Reconcile(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "2.9.2024 - 9.9.2024", result.Rows[0].Period)
	assert.True(t, result.Rows[0].Residual.IsZero())
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "~$2-6 09.csv", result.Skipped[0].Path)
}

func TestRunService_DuplicateUploadNames(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{})

	opts := domain.DefaultRunOptions()
	opts.SourceMode = domain.SourceModeFlat
	opts.DefaultYear = 2024

	in := ReconcileInput{
		Options: opts,
		Takas: []Upload{
			{Name: "2 09.csv", Payload: []byte("Kurum,Takas\nA,100\n")},
			{Name: "9 09.csv", Payload: []byte("Kurum,Takas\nA,150\n")},
			{Name: "other/9 09.csv", Payload: []byte("Kurum,Takas\nA,999\n")},
		},
		AKD: []Upload{
			{Name: "2-6 09.csv", Payload: []byte("Kurum,Net\nA,50\n")},
		},
	}

	result, err := svc.Reconcile(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.True(t, result.Rows[0].BalanceCurrent.Equal(decimal.NewFromInt(150)), "first upload wins")

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "9 09.csv", result.Skipped[0].Path)
	assert.Equal(t, domain.SourceKindTakas, result.Skipped[0].Kind)
	assert.Contains(t, result.Skipped[0].Reason, "duplicate")
}

func TestRunService_ReconcileErrors(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{})
	ctx := context.Background()

	t.Run("invalid archive", func(t *testing.T) {
		in := fixtureInput(t, false)
		in.Takas = []Upload{{Name: "takas.zip", Payload: []byte("not a zip")}}
		_, err := svc.Reconcile(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidArchive)
	})

	t.Run("no akd sources", func(t *testing.T) {
		in := fixtureInput(t, false)
		in.AKD = []Upload{{Name: "readme.txt", Payload: []byte("x")}}
		_, err := svc.Reconcile(ctx, in)
		assert.ErrorIs(t, err, domain.ErrNoMatchingSources)
	})

	t.Run("invalid options become validation errors", func(t *testing.T) {
		in := fixtureInput(t, false)
		in.Options.Alignment = "nearest"
		_, err := svc.Reconcile(ctx, in)
		apiErr := requireAPIStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, apierrors.CodeValidationFailed, apiErr.ErrorCode)
	})

	assert.Zero(t, svc.CachedRuns())
}

func TestRunService_Timeout(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{RunTimeout: time.Nanosecond})

	_, err := svc.Reconcile(context.Background(), fixtureInput(t, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunService_Queries(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{})
	ctx := context.Background()

	result, err := svc.Reconcile(ctx, fixtureInput(t, true))
	require.NoError(t, err)
	id := result.RunID

	t.Run("rows paginated", func(t *testing.T) {
		page, err := svc.Rows(ctx, id, api.PaginationRequest{Page: 2, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, result.Rows[3], page.Rows[0])

		page, err = svc.Rows(ctx, id, api.PaginationRequest{Page: 9})
		require.NoError(t, err)
		assert.NotNil(t, page.Rows)
		assert.Empty(t, page.Rows)

		page, err = svc.Rows(ctx, id, api.PaginationRequest{Page: 92233720368547760, PageSize: 100})
		require.NoError(t, err)
		assert.Empty(t, page.Rows)
		assert.Equal(t, 4, page.Total)
	})

	t.Run("summary thresholds", func(t *testing.T) {
		zero := decimal.Zero
		all, err := svc.Summary(ctx, id, &zero)
		require.NoError(t, err)
		assert.Equal(t, 2, all.Total)
		assert.Equal(t, 1, all.Unbalanced)

		four := decimal.NewFromInt(4)
		filtered, err := svc.Summary(ctx, id, &four)
		require.NoError(t, err)
		require.Len(t, filtered.Institutions, 1)
		assert.Equal(t, "B", filtered.Institutions[0].Institution)

		five := decimal.NewFromInt(5)
		none, err := svc.Summary(ctx, id, &five)
		require.NoError(t, err)
		assert.Empty(t, none.Institutions)

		defaulted, err := svc.Summary(ctx, id, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, defaulted.Total)
	})

	t.Run("negative threshold", func(t *testing.T) {
		neg := decimal.NewFromInt(-1)
		_, err := svc.Summary(ctx, id, &neg)
		requireAPIStatus(t, err, http.StatusBadRequest)
	})

	t.Run("volume", func(t *testing.T) {
		vol, err := svc.Volume(ctx, id)
		require.NoError(t, err)
		assert.Len(t, vol.Volume, 6)
		assert.Equal(t, []string{"2-6.9.2024", "9-13.9.2024"}, vol.Periods)
	})

	t.Run("export", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, svc.Export(ctx, id, exporter.TableSummary, exporter.FormatXLSX, &buf))

		f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(exporter.SheetSummary)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := svc.Rows(ctx, "missing", api.PaginationRequest{})
		requireAPIStatus(t, err, http.StatusNotFound)
	})
}

func TestRunService_Expiry(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{TTL: 50 * time.Millisecond, CleanupInterval: 10 * time.Millisecond})
	ctx := context.Background()

	result, err := svc.Reconcile(ctx, fixtureInput(t, false))
	require.NoError(t, err)

	_, err = svc.Get(ctx, result.RunID)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)

	_, err = svc.Get(ctx, result.RunID)
	apiErr := requireAPIStatus(t, err, http.StatusNotFound)
	assert.Equal(t, apierrors.CodeRunNotFound, apiErr.ErrorCode)
}

func TestHealthService(t *testing.T) {
	svc := newTestService(t, RunServiceOptions{})
	health := NewHealthService(svc, t.TempDir(), nil)

	status := health.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "ok", status.Services["workspace"].Status)
	assert.Equal(t, "0 cached runs", status.Services["cache"].Message)

	assert.NotEmpty(t, health.Version().Version)

	degraded := NewHealthService(nil, t.TempDir(), nil).HealthCheck(context.Background())
	assert.Equal(t, "degraded", degraded.Status)
}
