package verification

import (
	"github.com/congo-pay/admin_console/internal/document"
)

// Entry is one displayed attribute. Value is masked when the field is
// sensitive.
type Entry struct {
	CanonicalField
	Value string `json:"value"`
}

// Section groups the entries of one category.
type Section struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Entries  []Entry  `json:"fields"`
}

// Normalize groups the populated attributes of raw into the sections that
// apply to t. Keys keep their response order inside a section; keys outside
// the applicable categories are left out, as are sections with no entries.
func Normalize(t document.Type, raw RawData) []Section {
	buckets := make(map[Category][]Entry)
	for _, entry := range entries(t, raw) {
		if !appliesTo(t, entry.Category) {
			continue
		}
		buckets[entry.Category] = append(buckets[entry.Category], entry)
	}

	var sections []Section
	for _, c := range applicable[t] {
		if len(buckets[c]) == 0 {
			continue
		}
		sections = append(sections, Section{Category: c, Title: c.Title(), Entries: buckets[c]})
	}
	return sections
}

// entries resolves every populated attribute of raw, in response order,
// including keys the taxonomy does not know.
func entries(t document.Type, raw RawData) []Entry {
	out := make([]Entry, 0, raw.Len())
	for _, key := range raw.keys {
		value := raw.values[key]
		if value.Empty() {
			continue
		}
		field := Resolve(t, key)
		display := value.String()
		if field.Sensitive {
			display = Mask(display)
		}
		out = append(out, Entry{CanonicalField: field, Value: display})
	}
	return out
}
