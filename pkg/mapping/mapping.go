// Package mapping loads the exercise mapping document and builds the
// case-insensitive name index used to resolve workout export names to
// canonical exercise ids.
package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

// ExerciseRecord is one entry of the mapping document.
type ExerciseRecord struct {
	ID         string
	Name       string
	ExportName string // empty when the document has none
}

// exerciseDocument is the on-disk shape; unknown fields are ignored.
type exerciseDocument struct {
	Name       *string `json:"name"`
	ExportName *string `json:"exportName"`
}

// NameIndex maps a normalized exercise name or alias to its canonical id.
type NameIndex struct {
	ids map[string]string
}

// Catalog is the loaded mapping document and the index built from it.
type Catalog struct {
	Records []ExerciseRecord // document order
	Index   *NameIndex
}

// Normalize lower-cases and trims a name the way index keys are stored.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load decodes a mapping document of the form {id: {name, exportName?, ...}}
// and builds its NameIndex. Records keep document order so that
// last-write-wins between colliding names follows the file.
func Load(r io.Reader) (*Catalog, error) {
	records, err := decodeRecords(r)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		Records: records,
		Index:   BuildIndex(records),
	}, nil
}

// BuildIndex inserts every record's normalized name, plus its export name
// when present and different once normalized. Later records overwrite
// earlier ones on collision.
func BuildIndex(records []ExerciseRecord) *NameIndex {
	idx := &NameIndex{ids: make(map[string]string, len(records)*2)}
	for _, rec := range records {
		name := Normalize(rec.Name)
		idx.ids[name] = rec.ID

		if rec.ExportName == "" {
			continue
		}
		if export := Normalize(rec.ExportName); export != name {
			idx.ids[export] = rec.ID
		}
	}
	return idx
}

// Lookup resolves an export name. Only case is folded: the caller is
// expected to have trimmed the name already.
func (idx *NameIndex) Lookup(name string) (string, bool) {
	if idx == nil {
		return "", false
	}
	id, ok := idx.ids[strings.ToLower(name)]
	return id, ok
}

// Len returns the number of distinct keys (names and aliases).
func (idx *NameIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.ids)
}

// invalidUTF8 returns the offset of the first byte that is not part of a
// valid UTF-8 sequence, or -1.
func invalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

func decodeRecords(r io.Reader) ([]ExerciseRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, verrors.ErrFileRead.WithCause(err)
	}
	// The decoder would silently turn bad bytes into U+FFFD, letting distinct
	// names collide in the index.
	if off := invalidUTF8(data); off >= 0 {
		return nil, verrors.ErrInvalidJSON.
			WithMessage(fmt.Sprintf("mapping document is not valid UTF-8 (byte 0x%02x at offset %d)", data[off], off)).
			WithMetadata("offset", strconv.Itoa(off))
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, verrors.ErrInvalidJSON.WithCause(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, verrors.ErrInvalidJSON.WithMessage("mapping document must be a JSON object keyed by exercise id")
	}

	var records []ExerciseRecord
	positions := make(map[string]int)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, verrors.ErrInvalidJSON.WithCause(err)
		}
		id, _ := keyTok.(string)

		var doc exerciseDocument
		if err := dec.Decode(&doc); err != nil {
			return nil, verrors.ErrInvalidJSON.
				WithCause(fmt.Errorf("exercise %q: %w", id, err)).
				WithMetadata("exercise_id", id)
		}
		if doc.Name == nil {
			return nil, verrors.ErrInvalidMapping.
				WithMessage(fmt.Sprintf("exercise %q has no name", id)).
				WithMetadata("exercise_id", id)
		}

		rec := ExerciseRecord{ID: id, Name: *doc.Name}
		if doc.ExportName != nil {
			rec.ExportName = *doc.ExportName
		}

		// Duplicate keys keep their first position but take the last value.
		if pos, seen := positions[id]; seen {
			records[pos] = rec
			continue
		}
		positions[id] = len(records)
		records = append(records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, verrors.ErrInvalidJSON.WithCause(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, verrors.ErrInvalidJSON.WithMessage("unexpected data after mapping document")
	}
	return records, nil
}
