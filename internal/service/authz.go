package service

import (
	"github.com/ParkerJahn/sweatsheet-web/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the authenticated caller, as established by the token
// middleware. Services receive it instead of re-reading the user record.
type Principal struct {
	ID   primitive.ObjectID
	Role domain.Role
}

// IsCoach reports whether the principal holds a coach-privileged role.
func (p Principal) IsCoach() bool {
	return p.Role == domain.RolePro || p.Role == domain.RoleTeamMember
}

// Visibility and mutation predicates for the sheet tree and messaging graph.
// Every service path composes these instead of re-deriving role logic inline,
// so the rules cannot drift between endpoints.

// CanSeeSheet: a coach sees sheets they created, everyone sees templates,
// an athlete sees sheets assigned to them.
func CanSeeSheet(p Principal, sheet *domain.SweatSheet) bool {
	if p.IsCoach() && sheet.CreatorID == p.ID {
		return true
	}
	if sheet.IsTemplate {
		return true
	}
	return sheet.IsAssignedTo(p.ID)
}

// CanMutateSheet: only the coach who created a sheet may change or delete it.
func CanMutateSheet(p Principal, sheet *domain.SweatSheet) bool {
	return p.IsCoach() && sheet.CreatorID == p.ID
}

// CanEditSheetContent: phases, sections, exercises and completion state may
// be written by the owning coach or the assigned athlete. Templates are
// readable by everyone but their content is only editable by the owner.
func CanEditSheetContent(p Principal, sheet *domain.SweatSheet) bool {
	if p.IsCoach() && sheet.CreatorID == p.ID {
		return true
	}
	return sheet.IsAssignedTo(p.ID)
}

// CanSeeConversation: participants of active conversations only.
func CanSeeConversation(p Principal, conv *domain.Conversation) bool {
	return conv.IsActive && conv.HasParticipant(p.ID)
}

// CanMutateMessage: only the original sender may edit or delete a message.
func CanMutateMessage(p Principal, msg *domain.Message) bool {
	return msg.SenderID == p.ID
}
