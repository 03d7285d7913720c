package employee

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("employee not found")

// Directory is a read-only, id-indexed view over employee records.
type Directory struct {
	records []Record
	byID    map[int]int
}

// NewDirectory indexes records by id and keeps them in load order. A
// repeated id replaces the earlier record in its original position.
func NewDirectory(records []Record) *Directory {
	d := &Directory{byID: make(map[int]int, len(records))}
	for _, rec := range records {
		if idx, ok := d.byID[rec.ID]; ok {
			d.records[idx] = rec
			continue
		}
		d.byID[rec.ID] = len(d.records)
		d.records = append(d.records, rec)
	}
	return d
}

func (d *Directory) Find(id int) (Record, error) {
	if d == nil {
		return Record{}, ErrNotFound
	}
	idx, ok := d.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return d.records[idx], nil
}

func (d *Directory) All() []Record {
	if d == nil {
		return nil
	}
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Search matches query case-insensitively against name and position.
// An empty query returns everyone.
func (d *Directory) Search(query string) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d.All()
	}
	out := []Record{}
	if d == nil {
		return out
	}
	for _, rec := range d.records {
		haystack := strings.ToLower(rec.FirstName + " " + rec.LastName + " " + rec.Position)
		if strings.Contains(haystack, query) {
			out = append(out, rec)
		}
	}
	return out
}
