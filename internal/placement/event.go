package placement

import "github.com/piwi3910/TruckLoad/internal/model"

// EventKind classifies a store change notification.
type EventKind int

const (
	EventAdded    EventKind = iota // Unit entered active by insert
	EventRemoved                   // Unit moved from active to removed
	EventRestored                  // Unit moved from removed to active
	EventMoved                     // Position or orientation changed
	EventChanged                   // Flags or selection changed
	EventReset                     // Whole arrangement replaced
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventRestored:
		return "restored"
	case EventMoved:
		return "moved"
	case EventChanged:
		return "changed"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a mutation has been applied.
// Unit is a copy; UnitID is empty for EventReset.
type Event struct {
	Kind    EventKind
	UnitID  string
	Unit    model.Unit
	Version uint64
}
