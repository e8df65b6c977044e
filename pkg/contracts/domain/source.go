package domain

import (
	"fmt"
)

// SourceKind identifies which input family a tabular file belongs to
type SourceKind string

const (
	// SourceKindTakas is a settlement balance snapshot, named "<day> <month>.xlsx"
	SourceKindTakas SourceKind = "takas"
	// SourceKindAKD is a reported net transfer file, named "<start>-<end> <month>.xlsx"
	SourceKindAKD SourceKind = "akd"
	// SourceKindHacim is a trading volume file, named like AKD files
	SourceKindHacim SourceKind = "hacim"
)

// IsRange reports whether file names of this kind carry a day range instead of a single day
func (k SourceKind) IsRange() bool {
	return k == SourceKindAKD || k == SourceKindHacim
}

// Valid reports whether k is a known source kind
func (k SourceKind) Valid() bool {
	switch k {
	case SourceKindTakas, SourceKindAKD, SourceKindHacim:
		return true
	}
	return false
}

// SourceMode selects how period metadata is inferred from item paths
type SourceMode string

const (
	// SourceModeArchive reads year and month from folder segments
	SourceModeArchive SourceMode = "archive"
	// SourceModeFlat reads the month from the file name's trailing token
	SourceModeFlat SourceMode = "flat"
)

// PeriodKey orders dated sources chronologically
type PeriodKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Compare returns -1, 0 or +1 depending on whether k sorts before, equal to or after other
func (k PeriodKey) Compare(other PeriodKey) int {
	switch {
	case k.Year != other.Year:
		return cmpInt(k.Year, other.Year)
	case k.Month != other.Month:
		return cmpInt(k.Month, other.Month)
	default:
		return cmpInt(k.Day, other.Day)
	}
}

// Before reports whether k sorts strictly before other
func (k PeriodKey) Before(other PeriodKey) bool {
	return k.Compare(other) < 0
}

func (k PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// DatedSource is a located tabular input with its chronological key.
// It is immutable once produced by the locator.
type DatedSource struct {
	Key     PeriodKey  `json:"key"`
	EndDay  int        `json:"end_day"`
	Label   string     `json:"label"`
	Name    string     `json:"name"`
	Path    string     `json:"path"`
	Kind    SourceKind `json:"kind"`
	Payload []byte     `json:"-"`
}

// Ref returns the payload-free description of the source
func (s DatedSource) Ref() SourceRef {
	return SourceRef{
		Key:   s.Key,
		Label: s.Label,
		Path:  s.Path,
		Kind:  s.Kind,
	}
}

// SourceRef describes a source in results without carrying its payload
type SourceRef struct {
	Key   PeriodKey  `json:"key"`
	Label string     `json:"label"`
	Path  string     `json:"path"`
	Kind  SourceKind `json:"kind"`
}

// SkippedItem records an input the locator dropped and why
type SkippedItem struct {
	Path   string     `json:"path"`
	Kind   SourceKind `json:"kind"`
	Reason string     `json:"reason"`
}

// RawItem is an undated input: a relative path and its bytes
type RawItem struct {
	Path    string
	Payload []byte
}
