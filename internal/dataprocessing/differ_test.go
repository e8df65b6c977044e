package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

func TestSnapshotDiffer_Diff(t *testing.T) {
	differ := NewSnapshotDiffer(domain.DefaultColumns(), nil)

	diff, err := differ.Diff(context.Background(), []domain.DatedSource{
		takas(5, "B,50", "A,100", "C,\"1.000,5\""),
		takas(12, "A,150", "B,50", "D,10"),
	})
	require.NoError(t, err)

	require.Len(t, diff.Periods, 1)
	period := diff.Periods[0]
	assert.Equal(t, "5.9.2024 - 12.9.2024", period.Label)
	assert.Equal(t, 5, period.Previous.Key.Day)
	assert.Equal(t, 12, period.Current.Key.Day)

	require.Len(t, diff.Deltas, 4)
	want := map[string][3]string{
		"A": {"100", "150", "50"},
		"B": {"50", "50", "0"},
		"C": {"1000.5", "0", "-1000.5"},
		"D": {"0", "10", "10"},
	}
	var order []string
	for _, d := range diff.Deltas {
		order = append(order, d.Institution)
		w := want[d.Institution]
		assert.True(t, dec(w[0]).Equal(d.BalancePrevious), "%s previous", d.Institution)
		assert.True(t, dec(w[1]).Equal(d.BalanceCurrent), "%s current", d.Institution)
		assert.True(t, dec(w[2]).Equal(d.Delta), "%s delta", d.Institution)
		assert.True(t, d.BalanceCurrent.Sub(d.BalancePrevious).Equal(d.Delta))
		assert.Equal(t, period.Label, d.Period)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, order)
}

func TestSnapshotDiffer_SumsDuplicatesAndSkipsBlankInstitutions(t *testing.T) {
	differ := NewSnapshotDiffer(domain.DefaultColumns(), nil)

	diff, err := differ.Diff(context.Background(), []domain.DatedSource{
		takas(1, "A,10", "A,5", ",99"),
		takas(2, "A,20"),
	})
	require.NoError(t, err)
	require.Len(t, diff.Deltas, 1)
	assert.True(t, dec("15").Equal(diff.Deltas[0].BalancePrevious))
	assert.True(t, dec("5").Equal(diff.Deltas[0].Delta))
}

func TestSnapshotDiffer_MultiplePeriods(t *testing.T) {
	differ := NewSnapshotDiffer(domain.DefaultColumns(), nil)

	diff, err := differ.Diff(context.Background(), []domain.DatedSource{
		takas(1, "A,10"),
		takas(8, "A,30"),
		takas(15, "A,25"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.9.2024 - 8.9.2024", "8.9.2024 - 15.9.2024"}, diff.PeriodLabels())

	p, ok := diff.Period("8.9.2024 - 15.9.2024")
	require.True(t, ok)
	assert.Equal(t, 15, p.Current.Key.Day)

	_, ok = diff.Period("missing")
	assert.False(t, ok)
}

func TestSnapshotDiffer_Errors(t *testing.T) {
	differ := NewSnapshotDiffer(domain.DefaultColumns(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		sources []domain.DatedSource
		want    error
	}{
		{"no snapshots", nil, domain.ErrInsufficientPeriods},
		{"single snapshot", []domain.DatedSource{takas(1, "A,1")}, domain.ErrInsufficientPeriods},
		{
			"missing balance column",
			[]domain.DatedSource{takas(1, "A,1"), csvSource(domain.SourceKindTakas, 2, "Kurum,Bakiye", "A,2")},
			domain.ErrMissingColumn,
		},
		{
			"unreadable workbook",
			[]domain.DatedSource{takas(1, "A,1"), {Name: "2 09.xlsx", Path: "2 09.xlsx", Payload: []byte("nope")}},
			domain.ErrUnreadableSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := differ.Diff(ctx, tt.sources)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSnapshotDiffer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSnapshotDiffer(domain.DefaultColumns(), nil).Diff(ctx, []domain.DatedSource{takas(1, "A,1"), takas(2, "A,2")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUniquePeriodLabels(t *testing.T) {
	src := func(label string) domain.DatedSource { return domain.DatedSource{Label: label} }

	labels := uniquePeriodLabels([]domain.DatedSource{
		src("5.9.2024"), src("5.9.2024"), src("5.9.2024"), src("12.9.2024"),
	})

	assert.Equal(t, []string{
		"5.9.2024 - 5.9.2024",
		"5.9.2024 - 5.9.2024 #2",
		"5.9.2024 - 12.9.2024",
	}, labels)
}
