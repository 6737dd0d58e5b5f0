package mapping

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

func TestLoad_BuildsIndexFromNamesAndExportNames(t *testing.T) {
	doc := `{
		"ex-bench": {"name": "Bench Press", "exportName": "Bench Press (Barbell)", "category": "chest"},
		"ex-squat": {"name": "  Squat  "},
		"ex-curl":  {"name": "Bicep Curl", "exportName": "bicep curl"}
	}`

	cat, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantRecords := []ExerciseRecord{
		{ID: "ex-bench", Name: "Bench Press", ExportName: "Bench Press (Barbell)"},
		{ID: "ex-squat", Name: "  Squat  "},
		{ID: "ex-curl", Name: "Bicep Curl", ExportName: "bicep curl"},
	}
	if diff := cmp.Diff(wantRecords, cat.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		input  string
		wantID string
		wantOK bool
	}{
		{"Bench Press", "ex-bench", true},
		{"BENCH PRESS", "ex-bench", true},
		{"bench press (barbell)", "ex-bench", true},
		{"squat", "ex-squat", true},
		{"Bicep Curl", "ex-curl", true},
		{"Deadlift", "", false},
		// Lookup folds case only; surrounding whitespace is the caller's job.
		{" squat", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, ok := cat.Index.Lookup(tt.input)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.input, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestBuildIndex_ExportNameEqualToNameIsNotDuplicated(t *testing.T) {
	idx := BuildIndex([]ExerciseRecord{
		{ID: "1", Name: "Bench Press", ExportName: "BENCH PRESS "},
	})
	if idx.Len() != 1 {
		t.Errorf("expected exactly one key, got %d", idx.Len())
	}
	if id, ok := idx.Lookup("bench press"); !ok || id != "1" {
		t.Errorf("Lookup = (%q, %v), want (\"1\", true)", id, ok)
	}
}

func TestBuildIndex_LastWriteWins(t *testing.T) {
	idx := BuildIndex([]ExerciseRecord{
		{ID: "first", Name: "Row"},
		{ID: "second", Name: "Rowing", ExportName: "row"},
	})
	if id, _ := idx.Lookup("row"); id != "second" {
		t.Errorf("expected later record to win, got %q", id)
	}
}

func TestLoad_DuplicateIDKeepsLastValue(t *testing.T) {
	cat, err := Load(strings.NewReader(`{"1": {"name": "Old"}, "2": {"name": "Dip"}, "1": {"name": "New"}}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []ExerciseRecord{{ID: "1", Name: "New"}, {ID: "2", Name: "Dip"}}
	if diff := cmp.Diff(want, cat.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if _, ok := cat.Index.Lookup("old"); ok {
		t.Error("overwritten record should not be indexed")
	}
}

func TestLoad_EmptyDocument(t *testing.T) {
	cat, err := Load(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cat.Records) != 0 || cat.Index.Len() != 0 {
		t.Errorf("expected empty catalog, got %d records / %d keys", len(cat.Records), cat.Index.Len())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantCode verrors.ErrorCode
	}{
		{"not json", `not json`, verrors.CodeInvalidJSON},
		{"array document", `[{"name": "Squat"}]`, verrors.CodeInvalidJSON},
		{"truncated", `{"1": {"name": "Squat"}`, verrors.CodeInvalidJSON},
		{"trailing data", `{"1": {"name": "Squat"}} {}`, verrors.CodeInvalidJSON},
		{"name wrong type", `{"1": {"name": 42}}`, verrors.CodeInvalidJSON},
		{"missing name", `{"1": {"exportName": "Squat"}}`, verrors.CodeInvalidMapping},
		{"null name", `{"1": {"name": null}}`, verrors.CodeInvalidMapping},
		{"invalid utf-8 in name", "{\"1\": {\"name\": \"Caf\xe9 Squat\"}}", verrors.CodeInvalidJSON},
		{"invalid utf-8 in id", "{\"\xff\": {\"name\": \"Squat\"}}", verrors.CodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := verrors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestLoad_InvalidUTF8DoesNotCollide(t *testing.T) {
	// Latin-1 bytes would both decode to U+FFFD and match each other.
	_, err := Load(strings.NewReader("{\"1\": {\"name\": \"Caf\xe9 Squat\"}}"))
	if !errors.Is(err, verrors.ErrInvalidJSON) {
		t.Fatalf("expected INVALID_JSON, got %v", err)
	}
	if !strings.Contains(err.Error(), "byte 0xe9 at offset 19") {
		t.Errorf("error should locate the bad byte: %v", err)
	}

	cat, err := Load(strings.NewReader(`{"1": {"name": "Café Squat"}}`))
	if err != nil {
		t.Fatalf("valid UTF-8 should load: %v", err)
	}
	if id, ok := cat.Index.Lookup("CAFÉ SQUAT"); !ok || id != "1" {
		t.Errorf("Lookup(CAFÉ SQUAT) = %q, %v", id, ok)
	}
}

func TestLookup_NilIndex(t *testing.T) {
	var idx *NameIndex
	if _, ok := idx.Lookup("squat"); ok {
		t.Error("nil index should never match")
	}
	if idx.Len() != 0 {
		t.Error("nil index should be empty")
	}
}
