package quote

import (
	"fmt"
	"strings"

	"github.com/erp/quotedesk/internal/domain/shared"
)

// Action is a lifecycle operation a user may request on a quote
type Action string

const (
	ActionEdit    Action = "edit"
	ActionVersion Action = "version"
	ActionClone   Action = "clone"
	ActionConvert Action = "convert"
	ActionView    Action = "view"
	ActionRender  Action = "render"
)

// actionOrder is the canonical presentation order of actions
var actionOrder = []Action{ActionEdit, ActionVersion, ActionConvert, ActionClone, ActionView, ActionRender}

// allowedActions is the central status -> actions table. A status missing
// from the table only allows viewing.
var allowedActions = map[Status]map[Action]bool{
	StatusDraft:     {ActionEdit: true, ActionVersion: true, ActionClone: true, ActionView: true, ActionRender: true},
	StatusSent:      {ActionEdit: true, ActionVersion: true, ActionClone: true, ActionView: true, ActionRender: true},
	StatusPending:   {ActionEdit: true, ActionVersion: true, ActionClone: true, ActionView: true, ActionRender: true},
	StatusApproved:  {ActionConvert: true, ActionClone: true, ActionView: true, ActionRender: true},
	StatusDeclined:  {ActionClone: true, ActionView: true, ActionRender: true},
	StatusExpired:   {ActionClone: true, ActionView: true, ActionRender: true},
	StatusConverted: {ActionClone: true, ActionView: true, ActionRender: true},
}

// CanPerform checks whether action is allowed for a quote in status
func CanPerform(status Status, action Action) bool {
	actions, ok := allowedActions[status]
	if !ok {
		return action == ActionView
	}
	return actions[action]
}

// AllowedActions returns the actions allowed in status, in canonical order
func AllowedActions(status Status) []Action {
	result := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if CanPerform(status, a) {
			result = append(result, a)
		}
	}
	return result
}

// StatusesAllowing returns the known statuses in which action is allowed
func StatusesAllowing(action Action) []Status {
	var result []Status
	for _, s := range AllStatuses {
		if CanPerform(s, action) {
			result = append(result, s)
		}
	}
	return result
}

var actionVerbs = map[Action]string{
	ActionEdit:    "edited",
	ActionVersion: "versioned",
	ActionClone:   "cloned",
	ActionConvert: "converted to an order",
	ActionView:    "viewed",
	ActionRender:  "rendered",
}

// NewActionError builds the INVALID_STATE error returned when action is not
// allowed. The message names the current status and the statuses that would
// allow the action.
func NewActionError(q *Quote, action Action) *shared.DomainError {
	verb, ok := actionVerbs[action]
	if !ok {
		verb = string(action)
	}

	allowed := StatusesAllowing(action)
	labels := make([]string, 0, len(allowed))
	for _, s := range allowed {
		labels = append(labels, s.Label())
	}

	msg := fmt.Sprintf("Quote %s cannot be %s while its status is %s", q.DisplayReference(), verb, q.Status.Label())
	if len(labels) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(labels, ", "))
	}
	return shared.NewDomainError("INVALID_STATE", msg)
}
