// Package report renders the human-readable mapping verification report.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ripixel/fitglue-csv-verify/pkg/verify"
)

var rule = strings.Repeat("=", 60)

// Reporter writes report sections to w. Write errors are sticky: after the
// first failure nothing more is written and Err returns it.
type Reporter struct {
	w   io.Writer
	err error
}

// New creates a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error {
	return r.err
}

func (r *Reporter) printf(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *Reporter) heading(title string) {
	r.printf("%s\n%s\n%s\n", rule, title, rule)
}

// Banner prints the tool title.
func (r *Reporter) Banner() {
	r.printf("🔍 CSV to Firebase Verification Tool\n\n")
}

// LoadingMapping announces the mapping document being read.
func (r *Reporter) LoadingMapping(path string) {
	r.printf("📥 Loading %s...\n", path)
}

// MappingLoaded reports how many exercise records the document held.
func (r *Reporter) MappingLoaded(path string, records int) {
	r.printf("✅ Loaded %d exercises from %s\n\n", records, path)
}

// ReadingExport announces the workout export being read.
func (r *Reporter) ReadingExport(path string) {
	r.printf("📥 Reading %s...\n", path)
}

// ExportScanned reports distinct exercise names and workout dates.
func (r *Reporter) ExportScanned(s Summary) {
	r.printf("✅ Found %d unique exercises in CSV\n", s.Total)
	r.printf("✅ Found %d unique workout dates in CSV\n\n", s.WorkoutDates)
}

// Verification prints mapped/unmapped counts and the unmapped sample.
func (r *Reporter) Verification(s Summary) {
	r.heading("📊 EXERCISE MAPPING VERIFICATION")
	r.printf("✅ Mapped exercises: %d/%d\n", s.Mapped, s.Total)
	r.printf("❌ Unmapped exercises: %d/%d\n", s.Unmapped, s.Total)

	if s.AllMapped() {
		r.printf("\n🎉 All exercises in CSV have been mapped to unique IDs!\n")
		return
	}

	r.printf("\n⚠️  WARNING: %d exercises in CSV have no mapping:\n", s.Unmapped)
	for _, name := range s.UnmappedSample {
		r.printf("   - %s\n", name)
	}
	if s.UnmappedRemaining > 0 {
		r.printf("   ... and %d more\n", s.UnmappedRemaining)
	}
}

// Summary prints totals and percentages. Percentages are omitted when the
// export had no exercises.
func (r *Reporter) Summary(s Summary) {
	r.printf("\n")
	r.heading("📊 SUMMARY")
	r.printf("Total unique exercises in CSV: %d\n", s.Total)
	if s.CaseFoldedTotal != s.Total {
		r.printf("Distinct ignoring case: %d\n", s.CaseFoldedTotal)
	}
	if s.HasPercentages {
		r.printf("Successfully mapped: %d (%.1f%%)\n", s.Mapped, s.MappedPercent)
		r.printf("Missing mappings: %d (%.1f%%)\n", s.Unmapped, s.UnmappedPercent)
	} else {
		r.printf("Successfully mapped: %d\n", s.Mapped)
		r.printf("Missing mappings: %d\n", s.Unmapped)
	}
	r.printf("Total workout dates: %d\n", s.WorkoutDates)

	if s.Mapped > 0 {
		r.printf("\n✅ Sample of successfully mapped exercises:\n")
		for _, m := range s.MappedSample {
			r.printf("   %s → %s\n", m.Name, m.ID)
		}
	}
}

// Remote prints the result of comparing the export against Firestore.
func (r *Reporter) Remote(c verify.Comparison) {
	r.printf("\n")
	r.heading("🔥 FIREBASE VERIFICATION")
	r.printf("User: %s\n", c.UserID)
	r.printf("Workout dates in CSV: %d\n", c.CSVDates)
	r.printf("Workout dates in Firebase: %d\n", c.RemoteDates)

	if len(c.MissingDates) > 0 {
		r.printf("\n❌ %d workout dates from CSV are missing in Firebase:\n", len(c.MissingDates))
		r.list(c.MissingDates, UnmappedSampleSize)
	}
	if len(c.ExtraDates) > 0 {
		r.printf("\nℹ️  %d workout dates in Firebase are not in the CSV:\n", len(c.ExtraDates))
		r.list(c.ExtraDates, UnmappedSampleSize)
	}
	if len(c.MissingIDs) > 0 {
		r.printf("\n❌ %d of %d mapped exercise IDs are missing in Firebase:\n", len(c.MissingIDs), c.CheckedIDs)
		r.list(c.MissingIDs, UnmappedSampleSize)
	}
	if c.Consistent() {
		r.printf("\n🎉 Firebase contains every workout date and exercise ID from the CSV!\n")
	}
}

func (r *Reporter) list(items []string, limit int) {
	for i, item := range items {
		if i == limit {
			r.printf("   ... and %d more\n", len(items)-limit)
			return
		}
		r.printf("   - %s\n", item)
	}
}

// NextSteps prints follow-up instructions. remoteChecked is true when the
// Firebase comparison already ran in this invocation.
func (r *Reporter) NextSteps(s Summary, remoteChecked bool) {
	r.printf("\n")
	r.heading("💡 NEXT STEPS")
	if !s.AllMapped() {
		r.printf("To fix unmapped exercises:\n")
		r.printf("1. Add missing exercises to exercises.json\n")
		r.printf("2. Re-run this verification script\n")
		r.printf("3. Once all mapped, you can verify against Firebase\n")
		return
	}
	if remoteChecked {
		r.printf("✅ All exercises mapped and checked against Firebase.\n")
		return
	}
	r.printf("✅ All exercises mapped! Your CSV data is ready for Firebase verification.\n")
	r.printf("   Run with --firestore-project and --user-id to verify data integrity.\n")
}
