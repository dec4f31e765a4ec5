package service

import "github.com/UniM0cha/gilton-system/internal/model"

// Action is a kind of participant-originated event subject to authorization.
type Action string

const (
	ActionCommand       Action = "command"
	ActionSheetChange   Action = "sheet-change"
	ActionDrawingUpdate Action = "drawing-update"
)

// CanSend decides whether a role may originate an action. Commands are
// restricted to leaders and pastors; sheet changes and drawing are open to
// everyone, which keeps presentation control and annotation collaborative.
// Denied actions are dropped silently, the sender gets no error.
func CanSend(role model.Role, action Action) bool {
	switch action {
	case ActionCommand:
		return role == model.RoleLeader || role == model.RolePastor
	case ActionSheetChange, ActionDrawingUpdate:
		return true
	}
	return false
}
