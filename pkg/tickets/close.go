package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
)

// CloseResult is the outcome of closing a ticket.
type CloseResult struct {
	Ticket *entities.Ticket

	// Transcript is nil when TranscriptErr is set.
	Transcript    *transcript.File
	TranscriptErr error
}

// Close closes the ticket. The ticket is marked closed even when the transcript could not be generated.
func (s *Service) Close(ctx context.Context, channelID string, actor permissions.Actor, reason string) (*CloseResult, error) {
	ticket, guild, err := s.closable(ctx, channelID, actor)
	if err != nil {
		return nil, err
	}
	return s.close(ctx, ticket, guild, actor.UserID, reason, triggerManual)
}

// CheckClose returns the error Close would reject the actor with, without closing anything.
func (s *Service) CheckClose(ctx context.Context, channelID string, actor permissions.Actor) error {
	_, _, err := s.closable(ctx, channelID, actor)
	return err
}

func (s *Service) closable(ctx context.Context, channelID string, actor permissions.Actor) (*entities.Ticket, *entities.Guild, error) {
	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	if !ticket.IsOpen() {
		return nil, nil, entities.ErrAlreadyClosed
	}
	if !permissions.CanManageTicket(actor, guild, ticket) {
		return nil, nil, entities.ErrPermissionDenied
	}
	return ticket, guild, nil
}

func (s *Service) close(ctx context.Context, ticket *entities.Ticket, guild *entities.Guild, actorID, reason, trigger string) (*CloseResult, error) {
	res := &CloseResult{Ticket: ticket}
	res.Transcript, res.TranscriptErr = s.transcript(ctx, ticket)

	closure := &entities.TicketClose{
		ClosedBy: actorID,
		Reason:   reason,
		ClosedAt: custom.NewDatetime(s.timestamp()),
	}
	if res.Transcript != nil {
		closure.TranscriptPath = res.Transcript.Path
	}

	if err := s.store.Tickets().CloseTicket(ctx, ticket.ChannelID, closure); errors.Is(err, dataaccess.ErrNoMatch) {
		return nil, entities.ErrAlreadyClosed
	} else if err != nil {
		return nil, external("closing ticket", err)
	}

	ticket.Status = entities.TicketStatusClosed
	ticket.ClosedBy = closure.ClosedBy
	ticket.CloseReason = closure.Reason
	ticket.ClosedAt = closure.ClosedAt
	ticket.TranscriptPath = closure.TranscriptPath

	s.bestEffort(ticket, "Error revoking creator write access",
		s.client.SetMemberOverwrite(ctx, ticket.ChannelID, ticket.UserID, permissions.TicketReadOnlyAllow, permissions.TicketReadOnlyDeny),
	)

	s.sink.TicketTranscript(ctx, guild, "Closed", ticket, actorID, reason, res.Transcript)
	s.sink.DirectMessage(ctx, ticket.UserID, closedMessage(actorID, reason, res.Transcript))

	TicketsClosed.WithLabelValues(trigger).Inc()
	s.logger(ticket).Info("Ticket closed",
		slog.String(logging.KeyUser, actorID),
		slog.String("trigger", trigger),
	)
	s.sink.TicketAction(ctx, guild, "Closed", ticket, actorID,
		messages.LogField{Name: "Reason", Value: reason},
	)

	return res, nil
}

// transcript generates the ticket's transcript, logging any failure.
func (s *Service) transcript(ctx context.Context, ticket *entities.Ticket) (*transcript.File, error) {
	name := ticket.ChannelName()
	if ch, err := s.client.Channel(ctx, ticket.ChannelID); err == nil {
		name = ch.Name
	}

	file, err := s.transcripts.Generate(ctx, ticket, name)
	if err != nil {
		s.bestEffort(ticket, "Error generating transcript", err)
		return nil, fmt.Errorf("error generating transcript: %w", err)
	}
	return file, nil
}

func closedMessage(actorID, reason string, file *transcript.File) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{messages.TicketClosed(actorID, reason)},
	}
	if file != nil {
		msg.Files = []*discordgo.File{notify.TranscriptAttachment(file)}
	}
	return msg
}

// Rate records the creator's rating. The last rating wins.
func (s *Service) Rate(ctx context.Context, channelID string, rating int, feedback string) (*entities.Ticket, error) {
	update := &entities.TicketUpdate{Rating: &rating}
	if feedback != "" {
		update.Feedback = &feedback
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	ticket, _, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Tickets().UpdateTicket(ctx, channelID, update); err != nil {
		return nil, external("rating ticket", err)
	}
	ticket.Apply(update)

	s.logger(ticket).Info("Ticket rated", slog.Int("rating", rating))
	return ticket, nil
}

// Delete closes the ticket if needed and removes its channel after the delete delay.
func (s *Service) Delete(ctx context.Context, channelID string, actor permissions.Actor) (*entities.Ticket, error) {
	ticket, guild, err := s.deletable(ctx, channelID, actor)
	if err != nil {
		return nil, err
	}

	file, _ := s.transcript(ctx, ticket)

	if ticket.IsOpen() {
		closure := &entities.TicketClose{
			ClosedBy: actor.UserID,
			Reason:   DeleteReason,
			ClosedAt: custom.NewDatetime(s.timestamp()),
		}
		if file != nil {
			closure.TranscriptPath = file.Path
		}

		err := s.store.Tickets().CloseTicket(ctx, channelID, closure)
		switch {
		case err == nil:
			ticket.Status = entities.TicketStatusClosed
			ticket.ClosedBy = closure.ClosedBy
			ticket.CloseReason = closure.Reason
			ticket.ClosedAt = closure.ClosedAt
			TicketsClosed.WithLabelValues(triggerDelete).Inc()
		case errors.Is(err, dataaccess.ErrNoMatch):
			// Closed in the meantime.
		default:
			return nil, external("closing deleted ticket", err)
		}
	}

	s.sink.TicketTranscript(ctx, guild, "Deleted", ticket, actor.UserID, DeleteReason, file)
	s.sink.DirectMessage(ctx, ticket.UserID, closedMessage(actor.UserID, DeleteReason, file))
	s.sink.TicketAction(ctx, guild, "Deleted", ticket, actor.UserID)

	s.logger(ticket).Info("Ticket deleted", slog.String(logging.KeyUser, actor.UserID))

	s.afterFunc(s.deleteDelay, func() {
		// The request context is gone by the time this runs.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.bestEffort(ticket, "Error deleting ticket channel", s.client.DeleteChannel(ctx, channelID))
	})

	return ticket, nil
}

// CheckDelete returns the error Delete would reject the actor with.
func (s *Service) CheckDelete(ctx context.Context, channelID string, actor permissions.Actor) error {
	_, _, err := s.deletable(ctx, channelID, actor)
	return err
}

func (s *Service) deletable(ctx context.Context, channelID string, actor permissions.Actor) (*entities.Ticket, *entities.Guild, error) {
	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	if !permissions.IsSupport(actor, guild) {
		return nil, nil, entities.ErrPermissionDenied
	}
	return ticket, guild, nil
}

// Transcript generates a transcript of the ticket on demand.
func (s *Service) Transcript(ctx context.Context, channelID string, actor permissions.Actor) (*transcript.File, error) {
	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanManageTicket(actor, guild, ticket) {
		return nil, entities.ErrPermissionDenied
	}

	file, err := s.transcript(ctx, ticket)
	if err != nil {
		return nil, external("generating transcript", err)
	}
	return file, nil
}

// Touch records activity in a channel. Channels that are not tickets are ignored.
func (s *Service) Touch(ctx context.Context, channelID string, at time.Time) error {
	ts := custom.NewDatetime(at)
	err := s.store.Tickets().UpdateTicket(ctx, channelID, &entities.TicketUpdate{LastActivityAt: &ts})
	if err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
		return external("recording ticket activity", err)
	}
	return nil
}

// CloseInactive closes the open tickets of a guild that have been inactive for longer than the guild's auto close
// hours. It returns the number of tickets closed.
func (s *Service) CloseInactive(ctx context.Context, guildID string, now time.Time) (int, error) {
	guild, err := s.store.Guilds().GetOrCreateGuild(ctx, guildID)
	if err != nil {
		return 0, external("getting guild", err)
	}
	if guild.AutoCloseHours <= 0 {
		return 0, nil
	}

	before := now.Add(-time.Duration(guild.AutoCloseHours) * time.Hour)
	stale, err := s.store.Tickets().ListInactiveTickets(ctx, guildID, before)
	if err != nil {
		return 0, external("listing inactive tickets", err)
	}

	closed := 0
	for _, t := range stale {
		if _, err := s.close(ctx, t, guild, s.botActor().UserID, AutoCloseReason, triggerAuto); err != nil {
			if !errors.Is(err, entities.ErrAlreadyClosed) {
				s.bestEffort(t, "Error auto closing ticket", err)
			}
			continue
		}
		s.announceAutoClose(ctx, t)
		closed++
	}
	return closed, nil
}

func (s *Service) announceAutoClose(ctx context.Context, t *entities.Ticket) {
	_, err := s.client.SendMessage(ctx, t.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{messages.TicketClosed(s.botActor().UserID, AutoCloseReason)},
		Components: messages.DeleteControls(),
	})
	s.bestEffort(t, "Error announcing auto close", err)
}

// CloseAllInactive runs CloseInactive for every guild with auto close enabled.
func (s *Service) CloseAllInactive(ctx context.Context) error {
	guilds, err := s.store.Guilds().ListAutoCloseGuilds(ctx)
	if err != nil {
		return external("listing auto close guilds", err)
	}

	now := s.timestamp()
	for _, g := range guilds {
		n, err := s.CloseInactive(ctx, g.ID, now)
		if err != nil {
			s.l.Error("Error closing inactive tickets",
				slog.String(logging.KeyGuild, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
			continue
		}
		if n > 0 {
			s.l.Info("Closed inactive tickets", slog.String(logging.KeyGuild, g.ID), slog.Int("count", n))
		}
	}
	return nil
}
