// Package policy holds the single authorization decision table used by every
// program and report operation.
package policy

import (
	"errors"
	"fmt"

	"github.com/2beens/rehabtracker/internal/auth"
)

// ErrUnauthorized means the principal lacks the capability for the action/owner combination.
var ErrUnauthorized = errors.New("unauthorized")

// SelfToken can be sent instead of a patient id to mean "the caller".
const SelfToken = "CURRENT_USER_ID"

type Action string

const (
	ActionAssign           Action = "assign"
	ActionModifyProgram    Action = "modifyProgram"
	ActionDeleteProgram    Action = "deleteProgram"
	ActionViewProgram      Action = "viewProgram"
	ActionReportView       Action = "reportView"
	ActionUpdateCompletion Action = "updateCompletion"
)

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Decide is a pure function of its inputs. ownerID is the patient owning the
// target entries and is ignored by the therapist-only actions.
func Decide(p auth.Principal, action Action, ownerID string) Decision {
	switch action {
	case ActionAssign, ActionModifyProgram, ActionDeleteProgram:
		return Decision(p.IsTherapist())
	case ActionViewProgram, ActionReportView:
		if p.IsTherapist() {
			return Allow
		}
		return Decision(p.IsPatient() && p.ID != "" && ownerID == p.ID)
	case ActionUpdateCompletion:
		// TODO: not checked by role or owner; waiting on product to decide whether
		// patients may only edit their own completion state.
		return Allow
	default:
		return Deny
	}
}

// Authorize is Decide in error form: ErrUnauthorized on deny.
func Authorize(p auth.Principal, action Action, ownerID string) error {
	if Decide(p, action, ownerID) == Deny {
		return fmt.Errorf("%w: %s cannot %s for owner %q", ErrUnauthorized, p.Role, action, ownerID)
	}
	return nil
}

// ResolveOwner replaces the self token with the caller's id.
// Must run before Decide for the view actions.
func ResolveOwner(p auth.Principal, ownerID string) string {
	if ownerID == SelfToken {
		return p.ID
	}
	return ownerID
}
