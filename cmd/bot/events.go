package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
)

const (
	commandPrefix = "$"

	// prefixReplyTTL is how long prefix command replies stay in the channel.
	prefixReplyTTL = 5 * time.Second
)

// prefixCommand runs a $ command inside a ticket channel.
type prefixCommand func(ctx context.Context, a IApp, m *discordgo.MessageCreate, actor permissions.Actor, args string) error

var prefixCommands = map[string]prefixCommand{
	"rename": renamePrefixCmd,
	"close":  closePrefixCmd,
	"delete": deletePrefixCmd,
}

// recoverEvent logs a panic raised by a gateway handler. Handlers run on their own goroutines, so an unrecovered
// panic stops the bot. onPanic may be nil.
func recoverEvent(a IApp, event string, onPanic func()) {
	rec := recover()
	if rec == nil {
		return
	}
	a.Log().Error("Panic handling event",
		slog.String("event", event),
		slog.String(logging.KeyError, fmt.Sprint(rec)),
		slog.String("stack", string(debug.Stack())),
	)
	if onPanic != nil {
		onPanic()
	}
}

func guildJoinedHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		defer recoverEvent(a, "guild_create", nil)

		l := a.Log().With(slog.String(logging.KeyGuild, g.ID))
		l.Info(fmt.Sprintf("Joined guild %s", g.Name))

		TotalDiscordGuilds.Set(float64(len(s.State.Guilds)))

		if _, err := a.Store().Guilds().GetOrCreateGuild(context.Background(), g.ID); err != nil {
			l.Error("Error creating guild", slog.String(logging.KeyError, err.Error()))
		}
		if err := registerCommands(a, g.ID); err != nil {
			l.Error("Error registering commands", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func guildLeaveHandler(a IApp) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(s *discordgo.Session, g *discordgo.GuildDelete) {
		defer recoverEvent(a, "guild_delete", nil)

		a.Log().Info("Left guild", slog.String(logging.KeyGuild, g.ID))
		TotalDiscordGuilds.Set(float64(len(s.State.Guilds)))
	}
}

// memberJoinedHandler gives new members the guild's auto roles.
func memberJoinedHandler(a IApp) func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		defer recoverEvent(a, "guild_member_add", nil)

		if m.User == nil || m.User.Bot {
			return
		}

		ctx := context.Background()
		l := a.Log().With(
			slog.String(logging.KeyGuild, m.GuildID),
			slog.String(logging.KeyUser, m.User.ID),
		)

		g, err := a.Store().Guilds().GetGuild(ctx, m.GuildID)
		switch {
		case errors.Is(err, dataaccess.ErrNotFound):
			return
		case err != nil:
			l.Error("Error getting guild", slog.String(logging.KeyError, err.Error()))
			return
		case len(g.AutoRoles) == 0:
			return
		}

		h, err := a.Platform().RolePositions(ctx, m.GuildID)
		if err != nil {
			l.Error("Error getting role positions", slog.String(logging.KeyError, err.Error()))
			return
		}

		allowed, skipped := h.Manageable(g.AutoRoles)
		if len(skipped) > 0 {
			l.Warn("Skipping auto roles above the bot", slog.Any("roles", skipped))
		}
		for _, roleID := range allowed {
			if err := a.Platform().AddMemberRole(ctx, m.GuildID, m.User.ID, roleID); err != nil {
				l.Error("Error giving auto role",
					slog.String("role", roleID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
		}
	}
}

// messageCreateHandler keeps ticket activity fresh and runs the $ commands.
func messageCreateHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		defer recoverEvent(a, "message_create", nil)

		if m.GuildID == "" || m.Author == nil || m.Author.Bot {
			return
		}

		ctx := context.Background()
		if err := a.Tickets().Touch(ctx, m.ChannelID, time.Now()); err != nil {
			a.Log().Error("Error updating ticket activity",
				slog.String(logging.KeyChannel, m.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}

		if strings.HasPrefix(m.Content, commandPrefix) {
			runPrefixCommand(ctx, a, m, messageActor(s, m))
		}
	}
}

// runPrefixCommand runs the $ command in the message. Messages outside of ticket channels are left alone.
func runPrefixCommand(ctx context.Context, a IApp, m *discordgo.MessageCreate, actor permissions.Actor) {
	name, args, _ := strings.Cut(strings.TrimPrefix(m.Content, commandPrefix), " ")
	cmd, ok := prefixCommands[strings.ToLower(name)]
	if !ok {
		return
	}

	l := a.Log().With(
		slog.String(logging.KeyCommand, commandPrefix+name),
		slog.String(logging.KeyGuild, m.GuildID),
		slog.String(logging.KeyChannel, m.ChannelID),
		slog.String(logging.KeyUser, m.Author.ID),
	)
	defer recoverEvent(a, "prefix_command", func() {
		replyTemporary(a, m.ChannelID, messages.Error(messages.ErrUserErrorProcessing))
	})

	_, err := a.Tickets().Get(ctx, m.ChannelID)
	if errors.Is(err, entities.ErrNotFound) {
		return
	}

	if delErr := a.Platform().DeleteMessage(ctx, m.ChannelID, m.ID); delErr != nil {
		l.Debug("Error deleting command message", slog.String(logging.KeyError, delErr.Error()))
	}

	if err == nil {
		err = cmd(ctx, a, m, actor, strings.TrimSpace(args))
	}
	if err != nil {
		text, isDomain := messages.ForError(err)
		if isDomain {
			l.Debug("Prefix command rejected", slog.String(logging.KeyError, err.Error()))
		} else {
			l.Error("Error running prefix command", slog.String(logging.KeyError, err.Error()))
		}
		replyTemporary(a, m.ChannelID, messages.Error(text))
	}
}

// messageActor builds the actor for a message author. Permissions come from the state cache and are zero if the
// channel is not cached.
func messageActor(s *discordgo.Session, m *discordgo.MessageCreate) permissions.Actor {
	actor := permissions.Actor{UserID: m.Author.ID}
	if m.Member != nil {
		actor.Roles = m.Member.Roles
	}
	if s != nil && s.State != nil {
		if perms, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
			actor.Permissions = perms
		}
	}
	return actor
}

// replyTemporary sends an embed that deletes itself after prefixReplyTTL.
func replyTemporary(a IApp, channelID string, embed *discordgo.MessageEmbed) {
	msg, err := a.Platform().SendMessage(context.Background(), channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		a.Log().Error("Error sending reply",
			slog.String(logging.KeyChannel, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	time.AfterFunc(prefixReplyTTL, func() {
		// The channel may already be gone if the reply was to $delete.
		_ = a.Platform().DeleteMessage(context.Background(), channelID, msg.ID)
	})
}

func renamePrefixCmd(ctx context.Context, a IApp, m *discordgo.MessageCreate, actor permissions.Actor, args string) error {
	if args == "" {
		return entities.NewValidationError("name", "is required. Usage: %srename <name>", commandPrefix)
	}
	name, err := a.Tickets().Rename(ctx, m.ChannelID, args, actor)
	if err != nil {
		return err
	}
	replyTemporary(a, m.ChannelID, messages.Success(fmt.Sprintf("Ticket renamed to **%s**.", name)))
	return nil
}

func closePrefixCmd(ctx context.Context, a IApp, m *discordgo.MessageCreate, actor permissions.Actor, args string) error {
	res, err := a.Tickets().Close(ctx, m.ChannelID, actor, args)
	if err != nil {
		return err
	}

	// The closed message holds the rating controls so it is not removed.
	if _, err := a.Platform().SendMessage(ctx, m.ChannelID, closedMessage(res, actor.UserID, args)); err != nil {
		return err
	}
	return nil
}

func deletePrefixCmd(ctx context.Context, a IApp, m *discordgo.MessageCreate, actor permissions.Actor, _ string) error {
	if _, err := a.Tickets().Delete(ctx, m.ChannelID, actor); err != nil {
		return err
	}
	replyTemporary(a, m.ChannelID, messages.Warning("This ticket will be deleted in a few seconds."))
	return nil
}
