package http

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/internal/exporter"
	"github.com/MMucahit/borsa/internal/services"
	api "github.com/MMucahit/borsa/pkg/contracts/api/v1"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// RunServiceInterface defines what the reconcile handler needs from the run service
type RunServiceInterface interface {
	Reconcile(ctx context.Context, in services.ReconcileInput) (*domain.Result, error)
	Get(ctx context.Context, runID string) (*domain.Result, error)
	ExpiresAt(runID string) (time.Time, bool)
	Rows(ctx context.Context, runID string, page api.PaginationRequest) (*api.RowsResponse, error)
	Summary(ctx context.Context, runID string, threshold *decimal.Decimal) (*api.SummaryResponse, error)
	Volume(ctx context.Context, runID string) (*api.VolumeResponse, error)
	Export(ctx context.Context, runID string, table exporter.TableName, format exporter.Format, w io.Writer) error
}

var _ RunServiceInterface = (*services.RunService)(nil)
