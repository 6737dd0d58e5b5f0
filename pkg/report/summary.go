package report

import (
	"sort"
	"strings"

	"github.com/ripixel/fitglue-csv-verify/pkg/workouts"
)

const (
	// UnmappedSampleSize caps how many unmapped names are listed.
	UnmappedSampleSize = 20
	// MappedSampleSize caps how many resolved names are listed.
	MappedSampleSize = 10
)

// MappedName is an export name together with the canonical id it resolved to.
type MappedName struct {
	Name string
	ID   string
}

// Summary is the derived view of a scan that the report prints.
type Summary struct {
	Total        int
	Mapped       int
	Unmapped     int
	WorkoutDates int

	// HasPercentages is false when Total is zero; the percentages are then
	// meaningless and left at zero.
	HasPercentages  bool
	MappedPercent   float64
	UnmappedPercent float64

	UnmappedSample    []string
	UnmappedRemaining int
	MappedSample      []MappedName

	// CaseFoldedTotal counts distinct names after lower-casing. It differs
	// from Total when the export spells one exercise with different casing.
	CaseFoldedTotal int
}

// AllMapped reports whether every exercise name resolved.
func (s Summary) AllMapped() bool {
	return s.Unmapped == 0
}

// Summarize derives counts and samples from a scan. Samples are ordered by
// byte-wise string comparison, so upper case sorts before lower case.
func Summarize(scan *workouts.ScanResult, resolver workouts.Resolver) Summary {
	s := Summary{
		Total:        len(scan.ExerciseNames),
		Unmapped:     len(scan.Unmapped),
		WorkoutDates: len(scan.Workouts),
	}
	s.Mapped = s.Total - s.Unmapped

	if s.Total > 0 {
		s.HasPercentages = true
		s.MappedPercent = float64(s.Mapped) / float64(s.Total) * 100
		s.UnmappedPercent = float64(s.Unmapped) / float64(s.Total) * 100
	}

	unmapped := make([]string, 0, len(scan.Unmapped))
	for name := range scan.Unmapped {
		unmapped = append(unmapped, name)
	}
	sort.Strings(unmapped)
	if len(unmapped) > UnmappedSampleSize {
		s.UnmappedRemaining = len(unmapped) - UnmappedSampleSize
		unmapped = unmapped[:UnmappedSampleSize]
	}
	s.UnmappedSample = unmapped

	mapped := scan.Mapped()
	sort.Strings(mapped)
	if len(mapped) > MappedSampleSize {
		mapped = mapped[:MappedSampleSize]
	}
	for _, name := range mapped {
		id, _ := resolver.Lookup(name)
		s.MappedSample = append(s.MappedSample, MappedName{Name: name, ID: id})
	}

	folded := make(map[string]struct{}, len(scan.ExerciseNames))
	for name := range scan.ExerciseNames {
		folded[strings.ToLower(name)] = struct{}{}
	}
	s.CaseFoldedTotal = len(folded)

	return s
}

// ResolvedIDs returns the distinct canonical ids behind every mapped name,
// sorted.
func ResolvedIDs(scan *workouts.ScanResult, resolver workouts.Resolver) []string {
	seen := make(map[string]struct{})
	for _, name := range scan.Mapped() {
		if id, ok := resolver.Lookup(name); ok {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
