// Package vote holds the voting domain: the fixed category set, the
// session record, the reply classifier, and the tally renderer.
package vote

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies one votable opinion class. The set is closed;
// values double as the serialized field names of the session record.
type Category string

const (
	CategoryUnpopular Category = "opiniaoImpopular"
	CategoryPopular   Category = "opiniaoPopular"
	CategorySpecific  Category = "opiniaoEspecifica"
)

// Categories lists every category in legend order.
var Categories = []Category{CategoryUnpopular, CategoryPopular, CategorySpecific}

// markers maps each category to the text token a reply must contain to
// cast a vote for it. Matching is case-sensitive substring containment.
var markers = map[Category]string{
	CategoryUnpopular: "O/I",
	CategoryPopular:   "O/P",
	CategorySpecific:  "O/E",
}

// labels maps each category to its display name.
var labels = map[Category]string{
	CategoryUnpopular: "Opinião Impopular",
	CategoryPopular:   "Opinião Popular",
	CategorySpecific:  "Opinião Específica",
}

// Marker returns the vote token for a category.
func (c Category) Marker() string { return markers[c] }

// Label returns the display name for a category.
func (c Category) Label() string { return labels[c] }

// ValidateTables checks that every category has a marker and a label
// and that no marker is a substring of another (which would make every
// reply carrying the longer marker ambiguous). Called once at startup.
func ValidateTables() error {
	for _, c := range Categories {
		if markers[c] == "" {
			return fmt.Errorf("category %s has no marker", c)
		}
		if labels[c] == "" {
			return fmt.Errorf("category %s has no label", c)
		}
	}
	for _, a := range Categories {
		for _, b := range Categories {
			if a != b && strings.Contains(markers[b], markers[a]) {
				return fmt.Errorf("marker %q is contained in marker %q", markers[a], markers[b])
			}
		}
	}
	return nil
}

// Record is the durable state of one voting session, keyed by the root
// thread id. The JSON layout matches the store's historical wire format.
type Record struct {
	Unpopular  int       `json:"opiniaoImpopular"`
	Popular    int       `json:"opiniaoPopular"`
	Specific   int       `json:"opiniaoEspecifica"`
	Total      int       `json:"total"`
	WindowEnd  time.Time `json:"checkDate"`
	SummaryRef string    `json:"commentId"`
}

// NewRecord creates a zero-tally record whose voting window starts at
// createdAt and stays open for the given period. summaryRef is the id
// of the distinguished summary comment and never changes afterwards.
func NewRecord(createdAt time.Time, period time.Duration, summaryRef string) Record {
	return Record{
		WindowEnd:  createdAt.Add(period),
		SummaryRef: summaryRef,
	}
}

// Count returns the tally for one category.
func (r *Record) Count(c Category) int {
	switch c {
	case CategoryUnpopular:
		return r.Unpopular
	case CategoryPopular:
		return r.Popular
	case CategorySpecific:
		return r.Specific
	}
	return 0
}

// Increment adds one vote to a category and to the running total.
func (r *Record) Increment(c Category) {
	switch c {
	case CategoryUnpopular:
		r.Unpopular++
	case CategoryPopular:
		r.Popular++
	case CategorySpecific:
		r.Specific++
	default:
		return
	}
	r.Total++
}

// Consistent reports whether the total equals the sum of the per
// category counts.
func (r *Record) Consistent() bool {
	sum := 0
	for _, c := range Categories {
		sum += r.Count(c)
	}
	return r.Total == sum
}

// Open reports whether the record still accepts a vote cast at t.
func (r *Record) Open(t time.Time) bool {
	return t.Before(r.WindowEnd)
}

// Classify maps a reply body to the single category whose marker it
// contains. Replies with zero or more than one distinct marker carry no
// vote; ok is false and the reply is discarded without error.
func Classify(body string) (Category, bool) {
	var found Category
	n := 0
	for _, c := range Categories {
		if strings.Contains(body, markers[c]) {
			found = c
			n++
		}
	}
	if n != 1 {
		return "", false
	}
	return found, true
}
