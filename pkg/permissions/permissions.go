// Package permissions answers whether an actor may perform an action. Every function is pure; callers surface a
// false result as entities.ErrPermissionDenied.
package permissions

import (
	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

const (
	// Administrator is the administrator permission bit.
	Administrator int64 = discordgo.PermissionAdministrator

	// ManageGuild is the manage server permission bit.
	ManageGuild int64 = discordgo.PermissionManageServer
)

// Actor is a guild member attempting an action.
type Actor struct {
	UserID string

	// Roles are the IDs of the roles the member holds.
	Roles []string

	// Permissions is the member's computed permission bitmask.
	Permissions int64
}

// NewActor builds an actor from an interaction member.
func NewActor(m *discordgo.Member) Actor {
	if m == nil || m.User == nil {
		return Actor{}
	}
	return Actor{
		UserID:      m.User.ID,
		Roles:       m.Roles,
		Permissions: m.Permissions,
	}
}

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles []string) bool {
	for _, held := range a.Roles {
		for _, r := range roles {
			if held == r {
				return true
			}
		}
	}
	return false
}

func IsAdministrator(actor Actor) bool {
	return actor.Permissions&Administrator == Administrator
}

// CanManageGuild reports whether the permission bitmask allows configuring the guild from the dashboard.
func CanManageGuild(perms int64) bool {
	return perms&Administrator == Administrator || perms&ManageGuild == ManageGuild
}

func IsSupport(actor Actor, guild *entities.Guild) bool {
	if IsAdministrator(actor) {
		return true
	}
	return guild != nil && actor.HasRole(guild.SupportRoles)
}

// CanManageTicket reports whether the actor can close, rename or change the members of a ticket.
func CanManageTicket(actor Actor, guild *entities.Guild, ticket *entities.Ticket) bool {
	if IsSupport(actor, guild) {
		return true
	}
	return ticket != nil && actor.UserID != "" && ticket.UserID == actor.UserID
}

func CanClaimTicket(actor Actor, guild *entities.Guild, ticket *entities.Ticket) bool {
	if !IsSupport(actor, guild) {
		return false
	}
	return !ticket.IsClaimed() || ticket.ClaimedBy == actor.UserID || IsAdministrator(actor)
}

func CanUnclaimTicket(actor Actor, ticket *entities.Ticket) bool {
	return IsAdministrator(actor) || (ticket.IsClaimed() && ticket.ClaimedBy == actor.UserID)
}

func CanReviewApplication(actor Actor, appType *entities.ApplicationType) bool {
	if IsAdministrator(actor) {
		return true
	}
	return appType != nil && actor.HasRole(appType.ReviewRoles)
}

// CanBotManageRole reports whether the bot can grant or remove a role. Discord only allows roles strictly below the
// bot's own highest role.
func CanBotManageRole(rolePosition, botHighest int) bool {
	return rolePosition < botHighest
}

// CanActorManageRole reports whether a member may hand out a role through the bot. The guild owner can manage any
// role.
func CanActorManageRole(rolePosition, actorHighest int, isOwner bool) bool {
	return isOwner || rolePosition < actorHighest
}
