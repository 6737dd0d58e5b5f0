package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ripixel/fitglue-csv-verify/pkg/verify"
)

func render(s Summary, remote *verify.Comparison) string {
	var b strings.Builder
	r := New(&b)
	r.Verification(s)
	r.Summary(s)
	if remote != nil {
		r.Remote(*remote)
	}
	r.NextSteps(s, remote != nil)
	return b.String()
}

func TestReporter_PartiallyMapped(t *testing.T) {
	result, idx := scan(t, `{"ex-1": {"name": "Bench Press"}}`, exportHeader+
		"Bench Press,2024-01-01,5,60,false\n"+
		"Squat,2024-01-02,5,100,false\n"+
		"Lunge,2024-01-02,10,20,false\n")

	got := render(Summarize(result, idx), nil)

	want := `============================================================
📊 EXERCISE MAPPING VERIFICATION
============================================================
✅ Mapped exercises: 1/3
❌ Unmapped exercises: 2/3

⚠️  WARNING: 2 exercises in CSV have no mapping:
   - Lunge
   - Squat

============================================================
📊 SUMMARY
============================================================
Total unique exercises in CSV: 3
Successfully mapped: 1 (33.3%)
Missing mappings: 2 (66.7%)
Total workout dates: 2

✅ Sample of successfully mapped exercises:
   Bench Press → ex-1

============================================================
💡 NEXT STEPS
============================================================
To fix unmapped exercises:
1. Add missing exercises to exercises.json
2. Re-run this verification script
3. Once all mapped, you can verify against Firebase
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestReporter_AllMapped(t *testing.T) {
	result, idx := scan(t, `{"1": {"name": "Bench Press"}}`, exportHeader+
		"bench press,2024-01-01,5,60,false\n"+
		"Bench Press,2024-01-02,5,60,false\n")

	got := render(Summarize(result, idx), nil)

	for _, line := range []string{
		"🎉 All exercises in CSV have been mapped to unique IDs!\n",
		"Total unique exercises in CSV: 2\nDistinct ignoring case: 1\n",
		"Successfully mapped: 2 (100.0%)\n",
		"Missing mappings: 0 (0.0%)\n",
		"   Bench Press → 1\n   bench press → 1\n",
		"✅ All exercises mapped! Your CSV data is ready for Firebase verification.\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("report missing %q\n---\n%s", line, got)
		}
	}
	if strings.Contains(got, "WARNING") {
		t.Error("all-mapped report should not warn")
	}
}

func TestReporter_TruncatesUnmappedList(t *testing.T) {
	var b strings.Builder
	b.WriteString(exportHeader)
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "Exercise %02d,2024-01-01,5,10,false\n", i)
	}
	result, idx := scan(t, `{}`, b.String())

	got := render(Summarize(result, idx), nil)

	if !strings.Contains(got, "   - Exercise 20\n   ... and 5 more\n") {
		t.Errorf("expected 20 entries followed by truncation notice, got:\n%s", got)
	}
	if strings.Contains(got, "Exercise 21") {
		t.Error("entries past the first 20 must not be listed")
	}
	if strings.Contains(got, "Sample of successfully mapped") {
		t.Error("mapped sample should be skipped when nothing mapped")
	}
}

func TestReporter_NoExercisesSkipsPercentages(t *testing.T) {
	result, idx := scan(t, `{}`, exportHeader)

	got := render(Summarize(result, idx), nil)

	if strings.Contains(got, "%") {
		t.Errorf("expected no percentages, got:\n%s", got)
	}
	if !strings.Contains(got, "Successfully mapped: 0\nMissing mappings: 0\n") {
		t.Errorf("expected bare counts, got:\n%s", got)
	}
}

func TestReporter_Preamble(t *testing.T) {
	var b strings.Builder
	r := New(&b)
	r.Banner()
	r.LoadingMapping("exercises.json")
	r.MappingLoaded("exercises.json", 42)
	r.ReadingExport("WorkoutExport.csv")
	r.ExportScanned(Summary{Total: 7, WorkoutDates: 3})

	want := "🔍 CSV to Firebase Verification Tool\n\n" +
		"📥 Loading exercises.json...\n" +
		"✅ Loaded 42 exercises from exercises.json\n\n" +
		"📥 Reading WorkoutExport.csv...\n" +
		"✅ Found 7 unique exercises in CSV\n" +
		"✅ Found 3 unique workout dates in CSV\n\n"
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("preamble mismatch (-want +got):\n%s", diff)
	}
}

func TestReporter_Remote(t *testing.T) {
	s := Summary{Total: 1, Mapped: 1, HasPercentages: true, MappedPercent: 100, CaseFoldedTotal: 1}

	inconsistent := &verify.Comparison{
		UserID:       "user-1",
		CSVDates:     3,
		RemoteDates:  2,
		MissingDates: []string{"2024-01-03"},
		ExtraDates:   []string{"2023-12-31"},
		CheckedIDs:   2,
		MissingIDs:   []string{"ex-row"},
	}
	got := render(s, inconsistent)
	for _, line := range []string{
		"🔥 FIREBASE VERIFICATION\n",
		"User: user-1\n",
		"❌ 1 workout dates from CSV are missing in Firebase:\n   - 2024-01-03\n",
		"ℹ️  1 workout dates in Firebase are not in the CSV:\n   - 2023-12-31\n",
		"❌ 1 of 2 mapped exercise IDs are missing in Firebase:\n   - ex-row\n",
		"✅ All exercises mapped and checked against Firebase.\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("report missing %q\n---\n%s", line, got)
		}
	}
	if strings.Contains(got, "🎉 Firebase contains") {
		t.Error("inconsistent comparison must not claim success")
	}

	consistent := &verify.Comparison{UserID: "user-1", CSVDates: 1, RemoteDates: 1, CheckedIDs: 1}
	if got := render(s, consistent); !strings.Contains(got, "🎉 Firebase contains every workout date and exercise ID from the CSV!") {
		t.Errorf("expected success line, got:\n%s", got)
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestReporter_StickyWriteError(t *testing.T) {
	w := &failingWriter{}
	r := New(w)
	r.Banner()
	r.Verification(Summary{})
	r.NextSteps(Summary{}, false)

	if r.Err() == nil {
		t.Fatal("expected write error")
	}
	if w.writes != 1 {
		t.Errorf("expected writing to stop after first failure, got %d writes", w.writes)
	}
}
