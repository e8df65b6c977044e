package dataprocessing

import (
	"fmt"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// PeriodMatch pairs a computed period with the AKD source that reports its transfers
type PeriodMatch struct {
	Period Period
	AKD    domain.DatedSource
}

// Aligner associates the sorted period sequence with the sorted AKD sequence
type Aligner interface {
	Align(periods []Period, akd []domain.DatedSource) ([]PeriodMatch, []domain.UnmatchedPeriod)
}

// NewAligner returns the aligner for a strategy, defaulting to positional
func NewAligner(strategy domain.AlignmentStrategy) Aligner {
	if strategy == domain.AlignmentPeriodKey {
		return periodKeyAligner{}
	}
	return positionalAligner{}
}

// positionalAligner matches by ordinal index. A missing AKD file shifts every
// later match; periods beyond the last AKD source are dropped and reported.
type positionalAligner struct{}

func (positionalAligner) Align(periods []Period, akd []domain.DatedSource) ([]PeriodMatch, []domain.UnmatchedPeriod) {
	var matches []PeriodMatch
	var unmatched []domain.UnmatchedPeriod
	for i, p := range periods {
		if i < len(akd) {
			matches = append(matches, PeriodMatch{Period: p, AKD: akd[i]})
			continue
		}
		unmatched = append(unmatched, domain.UnmatchedPeriod{
			Period: p.Label,
			Reason: fmt.Sprintf("period %d has no akd file at the same position (%d akd files)", i+1, len(akd)),
		})
	}
	return matches, unmatched
}

// periodKeyAligner matches a period to the first unused AKD source whose
// start key lies in [previous snapshot key, current snapshot key).
type periodKeyAligner struct{}

func (periodKeyAligner) Align(periods []Period, akd []domain.DatedSource) ([]PeriodMatch, []domain.UnmatchedPeriod) {
	used := make([]bool, len(akd))
	var matches []PeriodMatch
	var unmatched []domain.UnmatchedPeriod
	for _, p := range periods {
		found := -1
		for j, src := range akd {
			if used[j] {
				continue
			}
			if !src.Key.Before(p.Previous.Key) && src.Key.Before(p.Current.Key) {
				found = j
				break
			}
		}
		if found < 0 {
			unmatched = append(unmatched, domain.UnmatchedPeriod{
				Period: p.Label,
				Reason: fmt.Sprintf("no akd file starts between %s and %s", p.Previous.Key, p.Current.Key),
			})
			continue
		}
		used[found] = true
		matches = append(matches, PeriodMatch{Period: p, AKD: akd[found]})
	}
	return matches, unmatched
}
