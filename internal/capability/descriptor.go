package capability

import (
	"sort"
)

// Descriptor is an immutable set of capability facts. The zero value and a
// nil *Descriptor both describe a platform with no capabilities.
type Descriptor struct {
	entries map[Name]Entry
	absent  map[Name]Origin
}

// IsDefined reports whether name was established for this build. Unknown and
// unset names report false.
func (d *Descriptor) IsDefined(name Name) bool {
	if d == nil {
		return false
	}
	_, ok := d.entries[name]
	return ok
}

// ValueOf returns the value of name. Flags defined the usual way carry 1.
func (d *Descriptor) ValueOf(name Name) (int64, bool) {
	if d == nil {
		return 0, false
	}
	e, ok := d.entries[name]
	if !ok {
		return 0, false
	}
	return e.Value, true
}

// Entry returns the full definition of name, including its origin.
func (d *Descriptor) Entry(name Name) (Entry, bool) {
	if d == nil {
		return Entry{}, false
	}
	e, ok := d.entries[name]
	return e, ok
}

// AbsentOrigin returns where absence of name was asserted, if anywhere.
func (d *Descriptor) AbsentOrigin(name Name) (Origin, bool) {
	if d == nil {
		return Origin{}, false
	}
	o, ok := d.absent[name]
	return o, ok
}

// Probed reports whether name was either defined or explicitly asserted
// absent.
func (d *Descriptor) Probed(name Name) bool {
	if d == nil {
		return false
	}
	if _, ok := d.entries[name]; ok {
		return true
	}
	_, ok := d.absent[name]
	return ok
}

// Entries returns the defined capabilities in canonical order.
func (d *Descriptor) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[j].Name) })
	return out
}

// Names returns every catalogued name followed by any other defined or
// absent name, in canonical order.
func (d *Descriptor) Names() []Name {
	seen := make(map[Name]struct{}, len(catalogue))
	out := make([]Name, 0, len(catalogue))
	for i := range catalogue {
		seen[catalogue[i].Name] = struct{}{}
		out = append(out, catalogue[i].Name)
	}
	if d == nil {
		return out
	}
	extra := make([]Name, 0)
	for n := range d.entries {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			extra = append(extra, n)
		}
	}
	for n := range d.absent {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			extra = append(extra, n)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Len returns the number of defined capabilities.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Require fails with an *Error of kind ErrMissing naming every capability in
// names that is not defined.
func (d *Descriptor) Require(names ...Name) error {
	var missing []Name
	for _, n := range names {
		if !d.IsDefined(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &Error{Kind: ErrMissing, Name: missing[0], Names: missing}
}

// Equal reports whether d and other define the same names with the same
// values. Origins are ignored.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d.Len() != other.Len() {
		return false
	}
	if d == nil || other == nil {
		return true
	}
	for n, e := range d.entries {
		o, ok := other.entries[n]
		if !ok || o.Value != e.Value {
			return false
		}
	}
	return true
}
