// Package repo — partial-update descriptors.
//
// The REST surface exposes PATCH semantics: only the fields present in the
// request change. Patch is the explicit builder that turns "field → new
// value" pairs into the column map GORM applies, keeping the store's wire
// format (column names, the updated_at stamp) isolated here instead of
// being string-built at every call site.
package repo

import "time"

// Patch accumulates column updates for a partial-update write. The zero
// value is ready to use. An empty Patch applies nothing; callers should
// reject requests that patch no fields before reaching the store.
type Patch struct {
	cols map[string]any
}

// Set records a new value for a column. Calling Set twice for the same
// column keeps the later value.
func (p *Patch) Set(column string, value any) *Patch {
	if p.cols == nil {
		p.cols = make(map[string]any, 4)
	}
	p.cols[column] = value
	return p
}

// Empty reports whether the patch contains no column updates.
func (p *Patch) Empty() bool { return len(p.cols) == 0 }

// Columns returns the column map to hand to GORM's Updates, stamping
// updated_at with the current time in Unix milliseconds. The returned map
// is the Patch's own storage; build a fresh Patch per write.
func (p *Patch) Columns() map[string]any {
	if p.cols == nil {
		p.cols = make(map[string]any, 1)
	}
	p.cols["updated_at"] = time.Now().UnixMilli()
	return p.cols
}
