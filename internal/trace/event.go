package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
	// KindError is an instant event emitted for failures; it passes every
	// level except LevelOff.
	KindError
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeTool covers command-level phases.
	ScopeTool Scope = iota + 1
	// ScopeProbe covers a single probe (one header, one type fact).
	ScopeProbe
	// ScopeCapability covers individual capability decisions.
	ScopeCapability
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeTool:
		return "tool"
	case ScopeProbe:
		return "probe"
	case ScopeCapability:
		return "capability"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Extra    map[string]string
}
