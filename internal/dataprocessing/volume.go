package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

var hundred = decimal.NewFromInt(100)

// VolumeAggregator computes each institution's share of a period's trading volume
type VolumeAggregator struct {
	columns domain.Columns
	logger  *slog.Logger
}

// NewVolumeAggregator creates an aggregator reading the given columns
func NewVolumeAggregator(columns domain.Columns, logger *slog.Logger) *VolumeAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &VolumeAggregator{
		columns: columns,
		logger:  logger.With(slog.String("component", "volume_aggregator")),
	}
}

// Aggregate sums volume by institution for every source independently and
// appends one ALL row per period. Shares are rounded to 2 decimals.
func (a *VolumeAggregator) Aggregate(ctx context.Context, sources []domain.DatedSource) ([]domain.VolumeSummary, error) {
	var out []domain.VolumeSummary
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		volumes, err := amountsByInstitution(src, a.columns.Institution, a.columns.Volume, Normalize)
		if err != nil {
			return nil, err
		}

		grand := decimal.Zero
		for _, institution := range volumes.order {
			v, _ := volumes.get(institution)
			grand = grand.Add(v)
		}

		for _, institution := range volumes.order {
			total, _ := volumes.get(institution)
			out = append(out, domain.VolumeSummary{
				Institution: institution,
				PeriodTotal: total,
				SharePct:    share(total, grand),
				GrandTotal:  grand,
				Period:      src.Label,
			})
		}
		out = append(out, domain.VolumeSummary{
			Institution: domain.AllInstitutions,
			PeriodTotal: grand,
			SharePct:    hundred,
			GrandTotal:  grand,
			Period:      src.Label,
		})

		a.logger.DebugContext(ctx, "Volume period aggregated",
			slog.String("period", src.Label),
			slog.Int("institutions", len(volumes.order)),
			slog.String("grand_total", grand.String()))
	}
	return out, nil
}

// share is 0 for an empty period instead of a division by zero
func share(total, grand decimal.Decimal) decimal.Decimal {
	if grand.IsZero() {
		return decimal.Zero
	}
	return total.Mul(hundred).Div(grand).Round(2)
}
