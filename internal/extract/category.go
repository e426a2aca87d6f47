package extract

import "strings"

// CategoryTable is the immutable, ordered category keyword table. Build it
// once and inject it into the pipeline.
type CategoryTable struct {
	entries []CategoryEntry
}

// NewCategoryTable copies the entries so callers cannot mutate the table
// after construction.
func NewCategoryTable(entries []CategoryEntry) *CategoryTable {
	copied := make([]CategoryEntry, len(entries))
	for i, e := range entries {
		copied[i] = CategoryEntry{
			Category: e.Category,
			Keywords: append([]string(nil), e.Keywords...),
		}
	}
	return &CategoryTable{entries: copied}
}

// Categorize runs a single pass over the table; the first category with any
// keyword found in vendor, concept or the full text wins.
func (t *CategoryTable) Categorize(vendor, concept, fullText string) Category {
	combined := strings.ToLower(fullText + " " + vendor + " " + concept)
	for _, entry := range t.entries {
		for _, kw := range entry.Keywords {
			if strings.Contains(combined, kw) {
				return entry.Category
			}
		}
	}
	return CategoryMiscellaneous
}
