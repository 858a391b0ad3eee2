// Package normalize folds heterogeneous stored shapes into canonical
// lifecycle records. Persisted collections accumulated three formats over
// time: bare id strings, partial objects carrying at least an id, and fully
// populated records. All three are upgraded against the reference catalog.
//
// The package is pure: no I/O, deterministic for a given catalog snapshot.
package normalize

import (
	"encoding/json"

	"insightboard/internal/catalog"
	"insightboard/pkg/models"
)

// Records normalizes every raw element and drops the ones that cannot be
// rendered (no catalog entry and no self-contained name/sourceHandle).
func Records(raw []json.RawMessage, cat *catalog.Catalog) []models.Record {
	out := make([]models.Record, 0, len(raw))
	for _, elem := range raw {
		rec, ok := Record(elem, cat)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Record normalizes a single raw element. The second return value is false
// when the element is unparseable or unrenderable.
func Record(raw json.RawMessage, cat *catalog.Catalog) (models.Record, bool) {
	rec, ok := classify(raw)
	if !ok {
		return models.Record{}, false
	}
	return Fold(rec, cat)
}

// classify parses a raw element into a partially filled record. Bare strings
// are the legacy format and carry only the id.
func classify(raw json.RawMessage) (models.Record, bool) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return models.Record{ID: id}, id != ""
	}

	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Record{}, false
	}
	return rec, rec.ID != ""
}

// Fold completes a record against the catalog. A field supplied by the
// stored record wins; the catalog fills the gaps; question and
// requiredCapabilities default to their empty values.
func Fold(rec models.Record, cat *catalog.Catalog) (models.Record, bool) {
	def, known := cat.Lookup(rec.ID)
	if known {
		if rec.Name == "" {
			rec.Name = def.Name
		}
		if rec.SourceHandle == "" {
			rec.SourceHandle = def.SourceHandle
		}
		if rec.Description == "" {
			rec.Description = def.Description
		}
	}

	if !known && (rec.Name == "" || rec.SourceHandle == "") {
		return models.Record{}, false
	}

	if rec.RequiredCapabilities == nil {
		rec.RequiredCapabilities = []string{}
	}
	return rec, true
}

// Find returns the record with the given id and its presence.
func Find(records []models.Record, id string) (models.Record, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return models.Record{}, false
}

// Upsert replaces the record with a matching id in place, preserving its
// position, or appends when absent. Insertion order is kept for stable
// display only; it carries no semantic meaning.
func Upsert(records []models.Record, rec models.Record) []models.Record {
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
			return records
		}
	}
	return append(records, rec)
}

// Remove drops the record with the given id, reporting whether it was found.
func Remove(records []models.Record, id string) ([]models.Record, bool) {
	for i := range records {
		if records[i].ID == id {
			return append(records[:i:i], records[i+1:]...), true
		}
	}
	return records, false
}
