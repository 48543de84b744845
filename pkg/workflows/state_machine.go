package workflows

import "strings"

// Review actions a reviewer can take on an uploaded document.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionExpire  = "expire"
	ActionReopen  = "reopen"
)

// StateMachine enforces reviewer transitions between normalized document statuses
type StateMachine struct {
	allowedTransitions map[string][]string
	actionTargets      map[string]string
}

// NewStateMachine creates a new state machine with allowed transitions
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"not-uploaded": {},
			"pending":      {"approved", "rejected"},
			"approved":     {"expired", "rejected"},
			"rejected":     {"pending", "approved"},
			"expired":      {"pending"},
		},
		actionTargets: map[string]string{
			ActionApprove: "approved",
			ActionReject:  "rejected",
			ActionExpire:  "expired",
			ActionReopen:  "pending",
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// TargetFor resolves a reviewer action to the status it produces.
func (sm *StateMachine) TargetFor(action string) (string, bool) {
	target, ok := sm.actionTargets[strings.ToLower(strings.TrimSpace(action))]
	return target, ok
}
