// Package notify posts best-effort notifications. Failures are logged and never returned.
package notify

import (
	"context"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
)

type Sink struct {
	l      *slog.Logger
	client platform.Client
}

func NewSink(l *slog.Logger, client platform.Client) *Sink {
	return &Sink{
		l:      l,
		client: client,
	}
}

// TicketAction posts a ticket log entry to the guild's log channel, if one is set.
func (s *Sink) TicketAction(ctx context.Context, guild *entities.Guild, action string, t *entities.Ticket, actorID string, extra ...messages.LogField) {
	if guild == nil || guild.LogChannelID == "" {
		return
	}

	s.send(ctx, guild.LogChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{messages.TicketLog(action, t, actorID, extra...)},
	})
}

// TicketTranscript posts a transcript to the guild's transcript channel, if one is set.
func (s *Sink) TicketTranscript(ctx context.Context, guild *entities.Guild, action string, t *entities.Ticket, actorID, reason string, file *transcript.File) {
	if guild == nil || guild.TranscriptChannelID == "" || file == nil {
		return
	}

	s.send(ctx, guild.TranscriptChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			messages.TicketLog(action, t, actorID, messages.LogField{Name: "Reason", Value: reason}),
		},
		Files: []*discordgo.File{TranscriptAttachment(file)},
	})
}

// ApplicationAction posts to the application type's log channel, if one is set.
func (s *Sink) ApplicationAction(ctx context.Context, at *entities.ApplicationType, embed *discordgo.MessageEmbed) {
	if at == nil || at.LogChannelID == "" {
		return
	}

	s.send(ctx, at.LogChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

// DirectMessage sends a message to a user. Users with closed DMs are common, so the failure is only a warning.
func (s *Sink) DirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) {
	if err := s.client.DirectMessage(ctx, userID, msg); err != nil {
		s.l.Warn("Could not direct message user",
			slog.String(logging.KeyUser, userID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func (s *Sink) send(ctx context.Context, channelID string, msg *discordgo.MessageSend) {
	if _, err := s.client.SendMessage(ctx, channelID, msg); err != nil {
		s.l.Error("Error sending notification",
			slog.String(logging.KeyChannel, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// TranscriptAttachment wraps a transcript as a message file. Each call returns a fresh reader.
func TranscriptAttachment(file *transcript.File) *discordgo.File {
	return &discordgo.File{
		Name:        file.Name,
		ContentType: "text/html",
		Reader:      file.Reader(),
	}
}
