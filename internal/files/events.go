package files

import "fmt"

// EventKind classifies a change to a single path.
type EventKind int

const (
	Created EventKind = iota
	Removed
	Modified
	Renamed
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	case Renamed:
		return "renamed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a change to one path in the watched directory. OldPath is set for
// a rename whose source is known.
type Event struct {
	Kind    EventKind
	Path    string
	OldPath string
}

func (e Event) String() string {
	if e.OldPath != "" {
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.OldPath, e.Path)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path)
}
