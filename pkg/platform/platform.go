// Package platform is the contract the bot needs from the chat platform.
package platform

import (
	"context"
	"errors"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
)

// Client is the set of chat platform operations used by the engines.
type Client interface {
	// CreateChannel creates a text channel under parentID, which may be empty.
	CreateChannel(ctx context.Context, guildID, name, parentID string, overwrites []*discordgo.PermissionOverwrite) (*discordgo.Channel, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)

	// SetMemberOverwrite replaces the overwrite for a single member on a channel.
	SetMemberOverwrite(ctx context.Context, channelID, userID string, allow, deny int64) error
	DeleteOverwrite(ctx context.Context, channelID, targetID string) error

	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	DirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) error

	// ChannelMessages returns up to limit messages older than before, newest first. An empty before starts at the
	// latest message.
	ChannelMessages(ctx context.Context, channelID, before string, limit int) ([]*discordgo.Message, error)

	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error

	// RolePositions returns the position of every role in the guild and the highest position the bot holds.
	RolePositions(ctx context.Context, guildID string) (*RoleHierarchy, error)

	BotUserID() string
}

// ErrUnknownResource is returned when the platform reports that a channel, message, member or role does not exist.
var ErrUnknownResource = errors.New("unknown resource")

// CheckGuildChannel verifies that channelID belongs to guildID. An empty ID passes so a setting can be cleared.
func CheckGuildChannel(ctx context.Context, c Client, guildID, field, channelID string) error {
	if channelID == "" {
		return nil
	}

	ch, err := c.Channel(ctx, channelID)
	switch {
	case errors.Is(err, ErrUnknownResource):
		return entities.NewValidationError(field, "channel %s does not exist", channelID)
	case err != nil:
		return entities.NewExternalError("getting channel", err)
	case ch.GuildID != guildID:
		return entities.NewValidationError(field, "channel %s is not in this server", channelID)
	}
	return nil
}

// RoleHierarchy is a snapshot of a guild's role ordering.
type RoleHierarchy struct {
	Positions  map[string]int
	BotHighest int
}

// Highest returns the highest position held across roles.
func (h *RoleHierarchy) Highest(roles []string) int {
	highest := 0
	for _, r := range roles {
		if p, ok := h.Positions[r]; ok && p > highest {
			highest = p
		}
	}
	return highest
}

// Manageable splits roles into the ones the bot may assign and the ones it must skip. Unknown roles are skipped.
func (h *RoleHierarchy) Manageable(roles []string) (allowed, skipped []string) {
	for _, r := range roles {
		pos, ok := h.Positions[r]
		if ok && permissions.CanBotManageRole(pos, h.BotHighest) {
			allowed = append(allowed, r)
			continue
		}
		skipped = append(skipped, r)
	}
	return allowed, skipped
}
