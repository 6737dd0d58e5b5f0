// Package workouts scans a workout log export (WorkoutExport.csv) and
// classifies each distinct exercise name against a mapping index.
package workouts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

// Required export columns. Header names are matched exactly.
const (
	ColumnExercise = "Exercise"
	ColumnDate     = "Date"
	ColumnReps     = "Reps"
	ColumnWeight   = "Weight(kg)"
	ColumnIsWarmup = "isWarmup"
)

// RequiredColumns lists the header names a workout export must carry.
var RequiredColumns = []string{ColumnExercise, ColumnDate, ColumnReps, ColumnWeight, ColumnIsWarmup}

const utf8BOM = "\ufeff"

// Resolver resolves an exercise name to its canonical id.
type Resolver interface {
	Lookup(name string) (string, bool)
}

// LogRow is a single logged set. Reps, Weight and IsWarmup are kept exactly
// as exported; Exercise is trimmed.
type LogRow struct {
	Exercise string
	Date     string
	Reps     string
	Weight   string
	IsWarmup string
}

// ScanResult holds everything collected in one pass over the export.
//
// ExerciseNames keeps literal spellings, so "Squat" and "squat" are two
// entries even though both resolve through the same case-insensitive key.
type ScanResult struct {
	ExerciseNames map[string]struct{}
	Unmapped      map[string]struct{}
	Workouts      map[string][]LogRow
	Dates         []string // first-seen order of Workouts keys
	Rows          int
}

func newScanResult() *ScanResult {
	return &ScanResult{
		ExerciseNames: make(map[string]struct{}),
		Unmapped:      make(map[string]struct{}),
		Workouts:      make(map[string][]LogRow),
	}
}

// Mapped returns the exercise names that resolved, unsorted.
func (s *ScanResult) Mapped() []string {
	names := make([]string, 0, len(s.ExerciseNames)-len(s.Unmapped))
	for name := range s.ExerciseNames {
		if _, missing := s.Unmapped[name]; !missing {
			names = append(names, name)
		}
	}
	return names
}

type columnIndex map[string]int

// Scan reads the export, requiring every column in RequiredColumns, and
// resolves each row's trimmed exercise name against resolver.
func Scan(r io.Reader, resolver Resolver) (*ScanResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, verrors.ErrCSVMissingColumn.
			WithMessage("workout export is empty, expected header: " + strings.Join(RequiredColumns, ", "))
	}
	if err != nil {
		return nil, verrors.ErrCSVMalformed.WithCause(fmt.Errorf("read header: %w", err))
	}

	if err := checkUTF8(header, 1); err != nil {
		return nil, err
	}
	cols, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	result := newScanResult()
	record := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		record++
		if err != nil {
			return nil, verrors.ErrCSVMalformed.
				WithCause(fmt.Errorf("read record %d: %w", record, err)).
				WithMetadata("record", strconv.Itoa(record))
		}

		if err := checkUTF8(fields, record); err != nil {
			return nil, err
		}
		row, err := cols.row(fields, record)
		if err != nil {
			return nil, err
		}
		result.add(row, resolver)
	}

	return result, nil
}

func (s *ScanResult) add(row LogRow, resolver Resolver) {
	s.Rows++
	s.ExerciseNames[row.Exercise] = struct{}{}

	if _, seen := s.Workouts[row.Date]; !seen {
		s.Dates = append(s.Dates, row.Date)
	}
	s.Workouts[row.Date] = append(s.Workouts[row.Date], row)

	if _, ok := resolver.Lookup(row.Exercise); !ok {
		s.Unmapped[row.Exercise] = struct{}{}
	}
}

// checkUTF8 rejects records with bytes that are not UTF-8. Lower-casing such
// a name maps the bad bytes to U+FFFD, so distinct names could resolve alike.
func checkUTF8(fields []string, record int) error {
	for i, f := range fields {
		if !utf8.ValidString(f) {
			return verrors.ErrCSVMalformed.
				WithMessage(fmt.Sprintf("record %d field %d is not valid UTF-8", record, i+1)).
				WithMetadata("record", strconv.Itoa(record))
		}
	}
	return nil
}

func indexHeader(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		// Duplicate headers resolve to the last occurrence.
		cols[name] = i
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, verrors.ErrCSVMissingColumn.
			WithMessage("workout export is missing required columns: " + strings.Join(missing, ", ")).
			WithMetadata("missing", strings.Join(missing, ","))
	}
	return cols, nil
}

// field fails instead of defaulting when a short record lacks the column.
func (c columnIndex) field(fields []string, name string, record int) (string, error) {
	i := c[name]
	if i >= len(fields) {
		return "", verrors.ErrCSVMalformed.
			WithMessage(fmt.Sprintf("record %d has no value for column %q", record, name)).
			WithMetadata("record", strconv.Itoa(record)).
			WithMetadata("column", name)
	}
	return fields[i], nil
}

func (c columnIndex) row(fields []string, record int) (LogRow, error) {
	var values [5]string
	for i, name := range RequiredColumns {
		v, err := c.field(fields, name, record)
		if err != nil {
			return LogRow{}, err
		}
		values[i] = v
	}
	return LogRow{
		Exercise: strings.TrimSpace(values[0]),
		Date:     strings.TrimSpace(values[1]),
		Reps:     values[2],
		Weight:   values[3],
		IsWarmup: values[4],
	}, nil
}
