package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

func row(institution, period, prev, curr, net string) domain.ReconciledRow {
	p, c, n := dec(prev), dec(curr), dec(net)
	return domain.ReconciledRow{
		Institution:     institution,
		Period:          period,
		BalancePrevious: p,
		BalanceCurrent:  c,
		Delta:           c.Sub(p),
		ReportedNet:     n,
		Residual:        c.Sub(p).Sub(n),
	}
}

func TestSummarizeInstitutions(t *testing.T) {
	rows := []domain.ReconciledRow{
		row("B", "p1", "10", "20", "10"),
		row("A", "p1", "100", "150", "30"),
		row("10", "p1", "0", "5", "5"),
		row("B", "p2", "20", "25", "5"),
		row("A", "p2", "150", "140", "-10"),
	}

	summaries := SummarizeInstitutions(rows, dec("0.01"))
	require.Len(t, summaries, 3)
	assert.Equal(t, "10", summaries[0].Institution)
	assert.Equal(t, "A", summaries[1].Institution)
	assert.Equal(t, "B", summaries[2].Institution)

	a := summaries[1]
	assert.True(t, dec("100").Equal(a.FirstBalance))
	assert.True(t, dec("140").Equal(a.LastBalance))
	assert.True(t, dec("40").Equal(a.NetChange))
	assert.True(t, dec("20").Equal(a.TotalReportedNet))
	assert.True(t, dec("20").Equal(a.TotalResidual))
	assert.True(t, dec("20").Equal(a.Control))
	assert.False(t, a.Balanced)

	b := summaries[2]
	assert.True(t, b.Control.IsZero())
	assert.True(t, b.Balanced)

	assert.True(t, dec("20").Equal(TotalResidual(summaries)))
}

func TestSummarizeInstitutions_Tolerance(t *testing.T) {
	summaries := SummarizeInstitutions([]domain.ReconciledRow{
		row("A", "p1", "0", "1.005", "1"),
		row("B", "p1", "0", "1.02", "1"),
	}, dec("0.01"))

	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Balanced)
	assert.False(t, summaries[1].Balanced)
}

func TestSummarizeInstitutions_Empty(t *testing.T) {
	assert.Empty(t, SummarizeInstitutions(nil, dec("0.01")))
}

func TestFilterByControl(t *testing.T) {
	summaries := []domain.InstitutionSummary{
		{Institution: "A", Control: dec("0")},
		{Institution: "B", Control: dec("-150")},
		{Institution: "C", Control: dec("100")},
		{Institution: "D", Control: dec("100.01")},
	}

	tests := []struct {
		name      string
		threshold string
		want      []string
	}{
		{"zero keeps all", "0", []string{"A", "B", "C", "D"}},
		{"strictly greater", "100", []string{"B", "D"}},
		{"uses magnitude", "120", []string{"B"}},
		{"nothing left", "1000", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered, err := FilterByControl(summaries, dec(tt.threshold))
			require.NoError(t, err)
			var got []string
			for _, s := range filtered {
				got = append(got, s.Institution)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FilterByControl(summaries, dec("-1"))
	assert.Error(t, err)
}
