package capability

import (
	"fmt"
)

// Origin identifies where a definition came from: a header line, the
// manifest, a probe, or the command line.
type Origin struct {
	Source string
	Line   int
}

func (o Origin) String() string {
	switch {
	case o.Source == "":
		return "<unknown>"
	case o.Line > 0:
		return fmt.Sprintf("%s:%d", o.Source, o.Line)
	default:
		return o.Source
	}
}

// Entry is a single defined capability.
type Entry struct {
	Name   Name
	Value  int64
	Origin Origin
}

// Builder collects capability definitions before they are frozen into a
// Descriptor. A Builder is not safe for concurrent use.
type Builder struct {
	entries map[Name]Entry
	absent  map[Name]Origin
	// strict holds absences asserted by DefineAbsent.
	strict map[Name]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: make(map[Name]Entry, len(catalogue)),
		absent:  make(map[Name]Origin, len(catalogue)),
		strict:  make(map[Name]bool),
	}
}

func (b *Builder) init() {
	if b.entries == nil {
		b.entries = make(map[Name]Entry, len(catalogue))
	}
	if b.absent == nil {
		b.absent = make(map[Name]Origin, len(catalogue))
	}
	if b.strict == nil {
		b.strict = make(map[Name]bool)
	}
}

// Define records name=value unguarded. Redefinition with the same value is a
// no-op; a different value, or a name asserted absent by DefineAbsent, yields
// an *Error of kind ErrConflict and leaves the first fact in place.
func (b *Builder) Define(name Name, value int64, origin Origin) error {
	b.init()
	if err := validate(name, value, origin); err != nil {
		return err
	}
	if b.strict[name] {
		return &Error{Kind: ErrConflict, Name: name, Value: value, Origin: origin,
			Prev: Entry{Name: name, Origin: b.absent[name]}, PrevAbsent: true}
	}
	if prev, ok := b.entries[name]; ok {
		if prev.Value == value {
			return nil
		}
		return &Error{Kind: ErrConflict, Name: name, Value: value, Origin: origin, Prev: prev}
	}
	b.entries[name] = Entry{Name: name, Value: value, Origin: origin}
	return nil
}

// DefineGuarded records name=value only if name is neither defined nor
// asserted absent by DefineAbsent. It reports whether the definition was
// applied.
func (b *Builder) DefineGuarded(name Name, value int64, origin Origin) (bool, error) {
	b.init()
	if err := validate(name, value, origin); err != nil {
		return false, err
	}
	if _, ok := b.entries[name]; ok || b.strict[name] {
		return false, nil
	}
	b.entries[name] = Entry{Name: name, Value: value, Origin: origin}
	return true, nil
}

// MarkAbsent records that a probe asserted the capability is not present.
// An existing definition is kept; the first absence marker wins.
func (b *Builder) MarkAbsent(name Name, origin Origin) error {
	b.init()
	if !name.Valid() {
		return &Error{Kind: ErrMalformed, Name: name, Origin: origin, Reason: "invalid capability name"}
	}
	if _, ok := b.absent[name]; !ok {
		b.absent[name] = origin
	}
	return nil
}

// DefineAbsent is the unguarded form of MarkAbsent: it asserts that name is
// not present and fails with ErrConflict if name is already defined. Later
// unguarded definitions of name conflict with the assertion.
func (b *Builder) DefineAbsent(name Name, origin Origin) error {
	b.init()
	if !name.Valid() {
		return &Error{Kind: ErrMalformed, Name: name, Origin: origin, Reason: "invalid capability name"}
	}
	if prev, ok := b.entries[name]; ok {
		return &Error{Kind: ErrConflict, Name: name, Origin: origin, Prev: prev, Absent: true}
	}
	if !b.strict[name] {
		b.strict[name] = true
		b.absent[name] = origin
	}
	return nil
}

// Lookup returns the current definition of name, if any.
func (b *Builder) Lookup(name Name) (Entry, bool) {
	if b == nil || b.entries == nil {
		return Entry{}, false
	}
	e, ok := b.entries[name]
	return e, ok
}

// Len returns the number of defined capabilities.
func (b *Builder) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Build freezes the collected facts into a Descriptor. The Builder may keep
// collecting afterwards without affecting the returned Descriptor.
func (b *Builder) Build() (*Descriptor, error) {
	b.init()
	d := &Descriptor{
		entries: make(map[Name]Entry, len(b.entries)),
		absent:  make(map[Name]Origin, len(b.absent)),
	}
	for n, e := range b.entries {
		if err := validate(n, e.Value, e.Origin); err != nil {
			return nil, err
		}
		d.entries[n] = e
	}
	for n, o := range b.absent {
		if _, ok := d.entries[n]; ok {
			continue
		}
		d.absent[n] = o
	}
	return d, nil
}

func validate(name Name, value int64, origin Origin) error {
	if !name.Valid() {
		return &Error{Kind: ErrMalformed, Name: name, Value: value, Origin: origin, Reason: "invalid capability name"}
	}
	if name.Kind() != KindNumeric {
		return nil
	}
	if value <= 0 {
		return &Error{Kind: ErrMalformed, Name: name, Value: value, Origin: origin,
			Reason: fmt.Sprintf("value %d must be positive", value)}
	}
	if name == SizeofLong {
		switch value {
		case 4, 8, 16:
		default:
			return &Error{Kind: ErrMalformed, Name: name, Value: value, Origin: origin,
				Reason: fmt.Sprintf("value %d is not a supported long width", value)}
		}
	}
	return nil
}
