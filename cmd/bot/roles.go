package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
)

// roleCmd gives or removes a role on behalf of a member. Both the bot and the member must sit above the role.
func roleCmd(a IApp, i *discordgo.InteractionCreate) error {
	actor := actorOf(i)
	if !permissions.IsAdministrator(actor) && actor.Permissions&manageRoles != manageRoles {
		return entities.ErrPermissionDenied
	}

	ctx := context.Background()
	sub, opts := commandOptions(i)
	userID, roleID, reason := opts.String(optUser), opts.String(optRole), opts.String(optReason)

	h, err := a.Platform().RolePositions(ctx, i.GuildID)
	if err != nil {
		return err
	}
	pos, ok := h.Positions[roleID]
	if !ok {
		return entities.NewNotFoundError("role")
	}
	if !permissions.CanBotManageRole(pos, h.BotHighest) {
		return entities.NewValidationError("role", "is at or above the bot's highest role")
	}

	isOwner := false
	if g, err := a.Session().State.Guild(i.GuildID); err == nil {
		isOwner = g.OwnerID == actor.UserID
	}
	if !permissions.CanActorManageRole(pos, h.Highest(actor.Roles), isOwner) {
		return entities.NewValidationError("role", "is at or above your highest role")
	}

	var reply string
	switch sub {
	case "give":
		err = a.Platform().AddMemberRole(ctx, i.GuildID, userID, roleID)
		reply = fmt.Sprintf("Gave %s to %s.", messages.Role(roleID), messages.User(userID))
	case "remove":
		err = a.Platform().RemoveMemberRole(ctx, i.GuildID, userID, roleID)
		reply = fmt.Sprintf("Removed %s from %s.", messages.Role(roleID), messages.User(userID))
	default:
		return fmt.Errorf("unhandled sub command %s", sub)
	}
	if err != nil {
		return err
	}

	a.Log().Info("Member role changed",
		slog.String(logging.KeyGuild, i.GuildID),
		slog.String(logging.KeyUser, userID),
		slog.String("role", roleID),
		slog.String("action", sub),
		slog.String("by", actor.UserID),
		slog.String("reason", reason),
	)
	if reason != "" {
		reply += "\nReason: " + reason
	}
	return respondEmbed(a, i, false, messages.Success(reply))
}
