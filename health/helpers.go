package health

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status values
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

func newStatus(component, state, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == StateHealthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy creates a new healthy status
func NewHealthy(component, message string) Status {
	return newStatus(component, StateHealthy, message)
}

// NewUnhealthy creates a new unhealthy status
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StateUnhealthy, message)
}

// NewDegraded creates a new degraded status
func NewDegraded(component, message string) Status {
	return newStatus(component, StateDegraded, message)
}

// Aggregate reports the worst sub-status: unhealthy beats degraded beats
// healthy. The message names the components at that level. Sub-statuses
// are copied and sorted by component.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No components registered")
	}

	subs := slices.Clone(subStatuses)
	slices.SortStableFunc(subs, func(a, b Status) int {
		return strings.Compare(a.Component, b.Component)
	})

	var unhealthy, degraded []string
	for _, sub := range subs {
		switch {
		case sub.IsUnhealthy():
			unhealthy = append(unhealthy, sub.Component)
		case sub.IsDegraded():
			degraded = append(degraded, sub.Component)
		}
	}

	var status Status
	switch {
	case len(unhealthy) > 0:
		status = NewUnhealthy(component, fmt.Sprintf("unhealthy: %s", strings.Join(unhealthy, ", ")))
	case len(degraded) > 0:
		status = NewDegraded(component, fmt.Sprintf("degraded: %s", strings.Join(degraded, ", ")))
	default:
		status = NewHealthy(component, fmt.Sprintf("%d components healthy", len(subs)))
	}
	status.SubStatuses = subs
	return status
}
