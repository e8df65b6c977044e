package files

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

const macOSMetadataDir = "__MACOSX"

// LocatorOptions controls how period metadata is inferred from item paths
type LocatorOptions struct {
	Mode         domain.SourceMode
	DefaultYear  int
	DefaultMonth int
}

// Located is the Dataset Locator output for one source kind
type Located struct {
	Kind    domain.SourceKind
	Sources []domain.DatedSource
	Skipped []domain.SkippedItem
}

// Empty reports whether no item could be dated
func (l *Located) Empty() bool {
	return l == nil || len(l.Sources) == 0
}

// Locator dates raw items from folder and file names and sorts them chronologically
type Locator struct {
	opts   LocatorOptions
	logger *slog.Logger
}

// NewLocator creates a locator; zero defaults fall back to January 2024
func NewLocator(opts LocatorOptions, logger *slog.Logger) *Locator {
	if opts.Mode == "" {
		opts.Mode = domain.SourceModeArchive
	}
	if opts.DefaultYear == 0 {
		opts.DefaultYear = 2024
	}
	if opts.DefaultMonth == 0 {
		opts.DefaultMonth = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		opts:   opts,
		logger: logger.With(slog.String("component", "dataset_locator")),
	}
}

// Locate dates every item of the given kind. Items whose names cannot be
// parsed are skipped with a reason instead of failing the run. The result is
// sorted by (year, month, day), keeping discovery order for equal keys.
func (l *Locator) Locate(kind domain.SourceKind, items []domain.RawItem) *Located {
	located := &Located{Kind: kind}
	for _, item := range items {
		src, reason := l.date(kind, item)
		if reason != "" {
			located.Skipped = append(located.Skipped, domain.SkippedItem{
				Path:   item.Path,
				Kind:   kind,
				Reason: reason,
			})
			l.logger.Debug("Item skipped",
				slog.String("kind", string(kind)),
				slog.String("path", item.Path),
				slog.String("reason", reason))
			continue
		}
		located.Sources = append(located.Sources, src)
	}

	sort.SliceStable(located.Sources, func(i, j int) bool {
		return located.Sources[i].Key.Before(located.Sources[j].Key)
	})

	l.logger.Info("Sources located",
		slog.String("kind", string(kind)),
		slog.String("mode", string(l.opts.Mode)),
		slog.Int("located", len(located.Sources)),
		slog.Int("skipped", len(located.Skipped)))

	return located
}

func (l *Locator) date(kind domain.SourceKind, item domain.RawItem) (domain.DatedSource, string) {
	rel := filepath.ToSlash(item.Path)
	dir, name := path.Split(rel)
	segments := splitSegments(dir)

	for _, seg := range segments {
		if seg == macOSMetadataDir {
			return domain.DatedSource{}, "macOS metadata entry"
		}
	}
	if strings.HasPrefix(name, "~$") {
		return domain.DatedSource{}, "temporary office file"
	}
	ext := strings.ToLower(path.Ext(name))
	if ext != ".xlsx" && ext != ".csv" {
		return domain.DatedSource{}, fmt.Sprintf("unsupported extension %q", path.Ext(name))
	}

	tokens := strings.Fields(strings.TrimSuffix(name, path.Ext(name)))
	if len(tokens) == 0 {
		return domain.DatedSource{}, "empty file name"
	}

	year, month := l.opts.DefaultYear, l.opts.DefaultMonth
	switch l.opts.Mode {
	case domain.SourceModeFlat:
		m, ok := trailingMonth(tokens)
		if !ok {
			return domain.DatedSource{}, "file name has no trailing month token"
		}
		month = m
	default:
		year, month = yearMonthFromSegments(segments, year, month)
	}

	src := domain.DatedSource{
		Name:    name,
		Path:    item.Path,
		Kind:    kind,
		Payload: item.Payload,
	}

	if kind.IsRange() {
		start, end, ok := parseDayRange(tokens[0])
		if !ok {
			return domain.DatedSource{}, fmt.Sprintf("day range %q is not numeric", tokens[0])
		}
		src.Key = domain.PeriodKey{Year: year, Month: month, Day: start}
		src.EndDay = end
		src.Label = fmt.Sprintf("%s.%d.%d", tokens[0], month, year)
		return src, ""
	}

	day, ok := parseDigits(tokens[0])
	if !ok {
		return domain.DatedSource{}, fmt.Sprintf("day %q is not numeric", tokens[0])
	}
	src.Key = domain.PeriodKey{Year: year, Month: month, Day: day}
	src.EndDay = day
	src.Label = fmt.Sprintf("%d.%d.%d", day, month, year)
	return src, ""
}

func splitSegments(dir string) []string {
	var segments []string
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && seg != "." {
			segments = append(segments, seg)
		}
	}
	return segments
}

// yearMonthFromSegments applies every purely numeric folder name in order:
// values above 2000 are years, values in 1..12 are months. Later segments win.
func yearMonthFromSegments(segments []string, year, month int) (int, int) {
	for _, seg := range segments {
		v, ok := parseDigits(seg)
		if !ok {
			continue
		}
		switch {
		case v > 2000:
			year = v
		case v >= 1 && v <= 12:
			month = v
		}
	}
	return year, month
}

// trailingMonth reads a 1-2 digit month from the last name token ("05 09" -> 9)
func trailingMonth(tokens []string) (int, bool) {
	if len(tokens) < 2 {
		return 0, false
	}
	last := tokens[len(tokens)-1]
	if len(last) > 2 {
		return 0, false
	}
	m, ok := parseDigits(last)
	if !ok || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

// parseDayRange reads "start-end"; a token without a dash is a one-day range
func parseDayRange(token string) (int, int, bool) {
	startTok, endTok, hasEnd := strings.Cut(token, "-")
	start, ok := parseDigits(startTok)
	if !ok {
		return 0, 0, false
	}
	end := start
	if hasEnd {
		if e, ok := parseDigits(endTok); ok {
			end = e
		}
	}
	return start, end, true
}

func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
