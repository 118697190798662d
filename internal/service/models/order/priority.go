package order

import "errors"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

var ErrInvalidPriority = errors.New("invalid order priority")

func (p Priority) String() string {
	return string(p)
}

// Rank maps a priority to its sort weight: high > normal > low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return Priority(s), nil
	default:
		return "", ErrInvalidPriority
	}
}
