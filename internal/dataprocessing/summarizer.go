package dataprocessing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// SummarizeInstitutions builds one summary per institution from the reconciled
// table. Rows are taken in table order, which the pipeline keeps chronological.
// Control is the net balance change minus the reported net transfers; over
// contiguous periods this equals the summed residual. The dashboard's "Fark"
// figure, the summed AKD net, is TotalReportedNet (exported as "Toplam Net");
// Control, exported as "Fark (Kontrol)", subtracts it from NetChange rather
// than from the summed residual.
func SummarizeInstitutions(rows []domain.ReconciledRow, tolerance decimal.Decimal) []domain.InstitutionSummary {
	byInstitution := make(map[string][]domain.ReconciledRow)
	for _, row := range rows {
		byInstitution[row.Institution] = append(byInstitution[row.Institution], row)
	}

	institutions := make([]string, 0, len(byInstitution))
	for institution := range byInstitution {
		institutions = append(institutions, institution)
	}
	sort.Strings(institutions)

	summaries := make([]domain.InstitutionSummary, 0, len(institutions))
	for _, institution := range institutions {
		group := byInstitution[institution]
		if len(group) == 0 {
			continue
		}
		first := group[0].BalancePrevious
		last := group[len(group)-1].BalanceCurrent

		totalResidual, totalNet := decimal.Zero, decimal.Zero
		for _, row := range group {
			totalResidual = totalResidual.Add(row.Residual)
			totalNet = totalNet.Add(row.ReportedNet)
		}

		netChange := last.Sub(first)
		control := netChange.Sub(totalNet)
		summaries = append(summaries, domain.InstitutionSummary{
			Institution:      institution,
			FirstBalance:     first,
			LastBalance:      last,
			NetChange:        netChange,
			TotalReportedNet: totalNet,
			TotalResidual:    totalResidual,
			Control:          control,
			Balanced:         control.Abs().LessThanOrEqual(tolerance.Abs()),
		})
	}
	return summaries
}

// FilterByControl keeps summaries with abs(control) > threshold. A zero
// threshold keeps everything; a negative one is rejected.
func FilterByControl(summaries []domain.InstitutionSummary, threshold decimal.Decimal) ([]domain.InstitutionSummary, error) {
	if threshold.IsNegative() {
		return nil, fmt.Errorf("control threshold must not be negative: %s", threshold)
	}
	if threshold.IsZero() {
		return summaries, nil
	}
	filtered := make([]domain.InstitutionSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Control.Abs().GreaterThan(threshold) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// TotalResidual sums the residual over every summary
func TotalResidual(summaries []domain.InstitutionSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(s.TotalResidual)
	}
	return total
}
