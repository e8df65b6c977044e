package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// amountsByInstitution reads an institution column and an amount column from
// a source, summing repeated institutions in order of first appearance.
// Rows without an institution are ignored.
func amountsByInstitution(src domain.DatedSource, institutionCol, amountCol string, convert func(any) decimal.Decimal) (*orderedAmounts, error) {
	table, err := ReadTable(src.Name, src.Payload)
	if err != nil {
		return nil, domain.NewUnreadableSourceError(src.Path, err)
	}
	table.Name = src.Path

	idx, err := table.RequireColumns(institutionCol, amountCol)
	if err != nil {
		return nil, err
	}

	amounts := newOrderedAmounts()
	for r := range table.Rows {
		institution := table.String(r, idx[0])
		if institution == "" {
			continue
		}
		amounts.add(institution, convert(table.Value(r, idx[1])))
	}
	return amounts, nil
}

// orderedAmounts is a per-institution sum that remembers insertion order
type orderedAmounts struct {
	order  []string
	values map[string]decimal.Decimal
}

func newOrderedAmounts() *orderedAmounts {
	return &orderedAmounts{values: make(map[string]decimal.Decimal)}
}

func (o *orderedAmounts) add(institution string, amount decimal.Decimal) {
	current, ok := o.values[institution]
	if !ok {
		o.order = append(o.order, institution)
	}
	o.values[institution] = current.Add(amount)
}

// get returns the amount and whether the institution was present
func (o *orderedAmounts) get(institution string) (decimal.Decimal, bool) {
	v, ok := o.values[institution]
	return v, ok
}

// outerKeys returns the union of institutions from every set, sorted
// lexicographically like a full outer join on the institution key.
func outerKeys(sets ...[]string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, set := range sets {
		for _, k := range set {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
