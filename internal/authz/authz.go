// Package authz maps roles to the operations they may perform. The
// check is a pure table lookup with no side effects.
package authz

import "github.com/arnavgupta/campus-events-api/internal/model"

// Action identifies an operation subject to role checks.
type Action string

const (
	ActionReserve               Action = "reserve"
	ActionCancel                Action = "cancel"
	ActionListOwnReservations   Action = "list-own-reservations"
	ActionCreateEvent           Action = "create-event"
	ActionEditEvent             Action = "edit-event"
	ActionDeleteEvent           Action = "delete-event"
	ActionListEventReservations Action = "list-event-reservations"
	ActionDisableUser           Action = "disable-user"
)

var memberActions = []Action{
	ActionReserve,
	ActionCancel,
	ActionListOwnReservations,
}

var adminActions = append([]Action{
	ActionCreateEvent,
	ActionEditEvent,
	ActionDeleteEvent,
	ActionListEventReservations,
	ActionDisableUser,
}, memberActions...)

var permissions = map[model.Role]map[Action]bool{
	model.RoleMember: actionSet(memberActions),
	model.RoleAdmin:  actionSet(adminActions),
}

func actionSet(actions []Action) map[Action]bool {
	set := make(map[Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return set
}

// Can reports whether role is allowed to perform action. Unknown roles
// and unknown actions are always denied.
func Can(role model.Role, action Action) bool {
	return permissions[role][action]
}
