package papers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/citeworthy/paperdex/internal/db"
	"github.com/citeworthy/paperdex/internal/domain/paper"
)

// ReturnFields are the hash fields needed to rebuild a paper record
// (everything but the vector bytes).
var ReturnFields = []string{
	db.FieldID, db.FieldTitle, db.FieldAbstract, db.FieldAuthors,
	db.FieldCategories, db.FieldPublished, db.FieldUpdated,
}

// buildHashFields converts a paper plus its embedding into a flat hash map.
// A nil vector writes no vector field: the paper stays findable by keyword
// but is "not yet indexed" for similarity.
func buildHashFields(p paper.Paper, vector []float32) map[string]string {
	authors, _ := json.Marshal(p.Authors())

	m := map[string]string{
		db.FieldID:         p.ID(),
		db.FieldTitle:      p.Title(),
		db.FieldAbstract:   p.Abstract(),
		db.FieldAuthors:    string(authors),
		db.FieldCategories: strings.Join(p.Categories(), db.CategorySeparator),
		db.FieldPublished:  strconv.FormatInt(p.Published().Unix(), 10),
	}
	if !p.Updated().IsZero() {
		m[db.FieldUpdated] = strconv.FormatInt(p.Updated().Unix(), 10)
	}
	if vector != nil {
		m[db.FieldVector] = db.VectorToBytes(vector)
	}
	return m
}

// ParseFields converts a flat hash map back into a Paper.
func ParseFields(id string, m map[string]string) paper.Paper {
	if v, ok := m[db.FieldID]; ok && v != "" {
		id = v
	}

	var authors []string
	if raw := m[db.FieldAuthors]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &authors)
	}

	var categories []string
	if raw := m[db.FieldCategories]; raw != "" {
		categories = strings.Split(raw, db.CategorySeparator)
	}

	return paper.Reconstruct(
		id,
		m[db.FieldTitle],
		authors,
		categories,
		unixTime(m[db.FieldPublished]),
		unixTime(m[db.FieldUpdated]),
		m[db.FieldAbstract],
	)
}

func unixTime(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
