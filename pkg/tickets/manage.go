package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
)

// Claim assigns the ticket to the actor. Only one of several concurrent claims can succeed.
func (s *Service) Claim(ctx context.Context, channelID string, actor permissions.Actor) (*entities.Ticket, error) {
	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if !ticket.IsOpen() {
		return nil, entities.ErrAlreadyClosed
	}
	if !permissions.IsSupport(actor, guild) {
		return nil, entities.ErrPermissionDenied
	}
	if !permissions.CanClaimTicket(actor, guild, ticket) || ticket.IsClaimed() {
		return nil, &entities.ClaimedError{ClaimedBy: ticket.ClaimedBy}
	}

	if err := s.store.Tickets().ClaimTicket(ctx, channelID, actor.UserID); errors.Is(err, dataaccess.ErrNoMatch) {
		// Someone else got there first.
		current, _, lerr := s.load(ctx, channelID)
		if lerr != nil {
			return nil, lerr
		}
		if !current.IsOpen() {
			return nil, entities.ErrAlreadyClosed
		}
		return nil, &entities.ClaimedError{ClaimedBy: current.ClaimedBy}
	} else if err != nil {
		return nil, external("claiming ticket", err)
	}
	ticket.ClaimedBy = actor.UserID

	s.bestEffort(ticket, "Error renaming claimed ticket", s.client.RenameChannel(ctx, channelID, ticket.ClaimedChannelName()))

	s.logger(ticket).Info("Ticket claimed", slog.String(logging.KeyUser, actor.UserID))
	s.sink.TicketAction(ctx, guild, "Claimed", ticket, actor.UserID)
	return ticket, nil
}

// Unclaim releases the claim on a ticket. Only the claimant or an administrator can do so.
func (s *Service) Unclaim(ctx context.Context, channelID string, actor permissions.Actor) (*entities.Ticket, error) {
	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if !ticket.IsOpen() {
		return nil, entities.ErrAlreadyClosed
	}
	if !ticket.IsClaimed() {
		return nil, entities.ErrNotClaimed
	}
	if !permissions.CanUnclaimTicket(actor, ticket) {
		return nil, entities.ErrPermissionDenied
	}

	if err := s.store.Tickets().UnclaimTicket(ctx, channelID); errors.Is(err, dataaccess.ErrNoMatch) {
		return nil, entities.ErrNotClaimed
	} else if err != nil {
		return nil, external("unclaiming ticket", err)
	}
	previous := ticket.ClaimedBy
	ticket.ClaimedBy = ""

	s.bestEffort(ticket, "Error renaming unclaimed ticket", s.client.RenameChannel(ctx, channelID, ticket.ChannelName()))

	s.logger(ticket).Info("Ticket unclaimed", slog.String(logging.KeyUser, actor.UserID))
	s.sink.TicketAction(ctx, guild, "Unclaimed", ticket, actor.UserID,
		messages.LogField{Name: "Previously Claimed By", Value: messages.User(previous), Inline: true},
	)
	return ticket, nil
}

// SetPriority changes the priority of a ticket and returns the previous priority.
func (s *Service) SetPriority(ctx context.Context, channelID string, level entities.Priority, actor permissions.Actor) (entities.Priority, error) {
	if !level.Valid() {
		return "", entities.NewValidationError("priority", "unknown priority %q", level)
	}

	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return "", err
	}
	if !permissions.IsSupport(actor, guild) {
		return "", entities.ErrPermissionDenied
	}

	old := ticket.Priority
	if err := s.store.Tickets().UpdateTicket(ctx, channelID, &entities.TicketUpdate{Priority: &level}); err != nil {
		return "", external("updating ticket priority", err)
	}
	ticket.Priority = level

	s.sink.TicketAction(ctx, guild, "Priority Changed", ticket, actor.UserID,
		messages.LogField{Name: "Priority", Value: fmt.Sprintf("%s → %s", messages.PriorityLabel(old), messages.PriorityLabel(level))},
	)
	return old, nil
}

// Rename renames the ticket channel. The name is reduced to lower case letters, digits and dashes.
func (s *Service) Rename(ctx context.Context, channelID, name string, actor permissions.Actor) (string, error) {
	ticket, guild, err := s.load(ctx, channelID)
	if err != nil {
		return "", err
	}

	if !ticket.IsOpen() {
		return "", entities.ErrAlreadyClosed
	}
	if !permissions.CanManageTicket(actor, guild, ticket) {
		return "", entities.ErrPermissionDenied
	}

	slug := entities.Slugify(name)
	if slug == "" {
		return "", entities.NewValidationError("name", "please provide a new name")
	}
	if len(slug) > entities.MaxChannelNameLength {
		return "", entities.NewValidationError("name", "channel name must be %d characters or less", entities.MaxChannelNameLength)
	}

	if err := s.client.RenameChannel(ctx, channelID, slug); err != nil {
		return "", external("renaming ticket channel", err)
	}

	s.sink.TicketAction(ctx, guild, "Renamed", ticket, actor.UserID,
		messages.LogField{Name: "Name", Value: slug, Inline: true},
	)
	return slug, nil
}

// AddMember gives a user access to the ticket.
func (s *Service) AddMember(ctx context.Context, channelID, userID string, actor permissions.Actor) error {
	ticket, guild, err := s.memberChange(ctx, channelID, actor)
	if err != nil {
		return err
	}

	if err := s.client.SetMemberOverwrite(ctx, channelID, userID, permissions.TicketMemberAllow, 0); err != nil {
		return external("adding member to ticket", err)
	}

	s.sink.TicketAction(ctx, guild, "Member Added", ticket, actor.UserID,
		messages.LogField{Name: "Member", Value: messages.User(userID), Inline: true},
	)
	return nil
}

// RemoveMember takes away a user's access to the ticket. The creator cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, channelID, userID string, actor permissions.Actor) error {
	ticket, guild, err := s.memberChange(ctx, channelID, actor)
	if err != nil {
		return err
	}

	if userID == ticket.UserID {
		return entities.NewValidationError("user", "the ticket creator cannot be removed")
	}

	if err := s.client.DeleteOverwrite(ctx, channelID, userID); err != nil {
		return external("removing member from ticket", err)
	}

	s.sink.TicketAction(ctx, guild, "Member Removed", ticket, actor.UserID,
		messages.LogField{Name: "Member", Value: messages.User(userID), Inline: true},
	)
	return nil
}

func (s *Service) memberChange(ctx context.Context, channelID string, actor permissions.Actor) (*entities.Ticket, *entities.Guild, error) {
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
