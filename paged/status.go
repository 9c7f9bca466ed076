package paged

// Status is the load state of a Buffer.
//
//	NoInit -> Inited -> {Empty | Consistent | Unconsistent}
//
// Consistent means the view is a dense run from offset 0 whose length is
// CurrentPage*PageSize, or Total when the collection is exhausted.
// Unconsistent means the view has a gap or does not start at offset 0.
type Status int

const (
	StatusNoInit Status = iota
	StatusInited
	StatusEmpty
	StatusConsistent
	StatusUnconsistent
)

func (s Status) String() string {
	switch s {
	case StatusNoInit:
		return "no_init"
	case StatusInited:
		return "inited"
	case StatusEmpty:
		return "empty"
	case StatusConsistent:
		return "consistent"
	case StatusUnconsistent:
		return "unconsistent"
	default:
		return "unknown"
	}
}
