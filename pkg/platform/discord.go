package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
)

// Discord implements Client on a gateway session.
type Discord struct {
	s *discordgo.Session
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

// wrap converts unknown resource responses to ErrUnknownResource.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	restErr := new(discordgo.RESTError)
	if errors.As(err, &restErr) {
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("error %s: %w: %w", op, ErrUnknownResource, err)
		}
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownRole, discordgo.ErrCodeUnknownUser:
				return fmt.Errorf("error %s: %w: %w", op, ErrUnknownResource, err)
			}
		}
	}
	return fmt.Errorf("error %s: %w", op, err)
}

func (d *Discord) CreateChannel(ctx context.Context, guildID, name, parentID string, overwrites []*discordgo.PermissionOverwrite) (*discordgo.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := d.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return nil, wrap("creating channel", err)
	}
	return ch, nil
}

func (d *Discord) RenameChannel(ctx context.Context, channelID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := d.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		Name: name,
	})
	return wrap("renaming channel", err)
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := d.s.ChannelDelete(channelID)
	return wrap("deleting channel", err)
}

func (d *Discord) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := d.s.Channel(channelID)
	if err != nil {
		return nil, wrap("getting channel", err)
	}
	return ch, nil
}

func (d *Discord) SetMemberOverwrite(ctx context.Context, channelID, userID string, allow, deny int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := d.s.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember, allow, deny)
	return wrap("setting channel permission", err)
}

func (d *Discord) DeleteOverwrite(ctx context.Context, channelID, targetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return wrap("deleting channel permission", d.s.ChannelPermissionDelete(channelID, targetID))
}

func (d *Discord) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := d.s.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return nil, wrap("sending message", err)
	}
	return m, nil
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return wrap("deleting message", d.s.ChannelMessageDelete(channelID, messageID))
}

func (d *Discord) DirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := d.s.UserChannelCreate(userID)
	if err != nil {
		return wrap("opening direct message channel", err)
	}

	_, err = d.s.ChannelMessageSendComplex(ch.ID, msg)
	return wrap("sending direct message", err)
}

func (d *Discord) ChannelMessages(ctx context.Context, channelID, before string, limit int) ([]*discordgo.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs, err := d.s.ChannelMessages(channelID, limit, before, "", "")
	if err != nil {
		return nil, wrap("getting channel messages", err)
	}
	return msgs, nil
}

func (d *Discord) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := d.s.GuildMember(guildID, userID)
	if err != nil {
		return nil, wrap("getting member", err)
	}
	return m.Roles, nil
}

func (d *Discord) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return wrap("adding member role", d.s.GuildMemberRoleAdd(guildID, userID, roleID))
}

func (d *Discord) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return wrap("removing member role", d.s.GuildMemberRoleRemove(guildID, userID, roleID))
}

func (d *Discord) RolePositions(ctx context.Context, guildID string) (*RoleHierarchy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roles, err := d.s.GuildRoles(guildID)
	if err != nil {
		return nil, wrap("getting guild roles", err)
	}

	h := &RoleHierarchy{
		Positions: make(map[string]int, len(roles)),
	}
	for _, r := range roles {
		h.Positions[r.ID] = r.Position
	}

	botRoles, err := d.MemberRoles(ctx, guildID, d.BotUserID())
	if err != nil {
		return nil, err
	}
	h.BotHighest = h.Highest(botRoles)

	return h, nil
}

func (d *Discord) BotUserID() string {
	if d.s.State == nil || d.s.State.User == nil {
		return ""
	}
	return d.s.State.User.ID
}
