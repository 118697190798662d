package order

import "errors"

// Status is the lifecycle state of an order. It only ever advances forward
// through new -> in-progress -> ready -> completed.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
)

var ErrInvalidStatus = errors.New("invalid order status")

func (s Status) String() string {
	return string(s)
}

// Next returns the status that follows s in the kitchen lifecycle.
// The second return value is false when s is terminal.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusNew:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusReady, true
	case StatusReady:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition exists from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusInProgress, StatusReady, StatusCompleted:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}
