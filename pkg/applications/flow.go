package applications

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
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/google/uuid"
)

// Start returns the form an applicant fills in.
func (s *Service) Start(ctx context.Context, guildID, typeID, applicantID string) (*messages.Form, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, err
	}
	if !at.Active {
		return nil, entities.ErrInactive
	}
	if len(at.Questions) == 0 {
		return nil, entities.ErrNoQuestions
	}
	if err := s.checkCooldown(ctx, at, applicantID); err != nil {
		return nil, err
	}

	form := &messages.Form{
		CustomID: messages.ApplicationSubmitID(at.ID),
		Title:    entities.Truncate(at.Name, entities.ModalTextMaxLength),
	}
	for _, q := range at.SortedQuestions() {
		if len(form.Fields) == entities.MaxQuestions {
			break
		}
		form.Fields = append(form.Fields, messages.FormField{
			QuestionID: q.ID,
			Label:      entities.Truncate(q.Text, entities.ModalTextMaxLength),
			Paragraph:  q.Type == entities.QuestionParagraph,
			Required:   q.Required,
			MaxLength:  q.Type.MaxAnswerLength(),
		})
	}
	return form, nil
}

// checkCooldown rejects an applicant whose latest application is younger than the cooldown. Exactly the cooldown
// having passed is enough.
func (s *Service) checkCooldown(ctx context.Context, at *entities.ApplicationType, applicantID string) error {
	if at.CooldownHours <= 0 {
		return nil
	}

	latest, err := s.store.Applications().GetLatestApplication(ctx, at.GuildID, applicantID, at.ID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil
	} else if err != nil {
		return entities.NewExternalError("getting latest application", err)
	}

	cooldown := time.Duration(at.CooldownHours) * time.Hour
	elapsed := s.timestamp().Sub(latest.CreatedAt.Time())
	if elapsed >= cooldown {
		return nil
	}

	remaining := cooldown - elapsed
	hours := int(remaining / time.Hour)
	if remaining%time.Hour != 0 {
		hours++
	}
	return &entities.CooldownError{RemainingHours: hours}
}

// SubmitRequest is a filled in application form.
type SubmitRequest struct {
	GuildID     string
	TypeID      string
	ApplicantID string

	// Answers are keyed by question ID.
	Answers map[string]string
}

// Submit records an application, opening a ticket for it when the type asks for one.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*entities.Application, error) {
	at, err := s.GetType(ctx, req.GuildID, req.TypeID)
	if err != nil {
		return nil, err
	}

	app := &entities.Application{
		ID:                uuid.New().String(),
		GuildID:           req.GuildID,
		ApplicationTypeID: at.ID,
		UserID:            req.ApplicantID,
		Answers:           make(map[string]string, len(at.Questions)),
		Status:            entities.ApplicationPending,
		CreatedAt:         custom.NewDatetime(s.timestamp()),
	}
	for _, q := range at.Questions {
		if answer, ok := req.Answers[q.ID]; ok {
			app.Answers[q.ID] = entities.Truncate(answer, q.Type.MaxAnswerLength())
		}
	}

	if at.CreateTicket {
		ticket, err := s.openTicket(ctx, at, app)
		switch {
		case err == nil:
			app.TicketChannelID = ticket.ChannelID
		case entities.IsDomainError(err):
			return nil, err
		default:
			// The application still stands without its ticket.
			s.logger(at).Error("Error creating application ticket",
				slog.String(logging.KeyUser, app.UserID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	if err := s.store.Applications().CreateApplication(ctx, app); err != nil {
		return nil, entities.NewExternalError("saving application", err)
	}

	s.applyRoles(ctx, at, app.UserID, at.PendingRoles, nil)

	ApplicationsSubmitted.Inc()
	s.logger(at).Info("Application submitted",
		slog.String(logging.KeyUser, app.UserID),
		slog.String(logging.KeyChannel, app.TicketChannelID),
	)
	s.sink.ApplicationAction(ctx, at, messages.ApplicationSubmission(at, app))

	return app, nil
}

func (s *Service) openTicket(ctx context.Context, at *entities.ApplicationType, app *entities.Application) (*entities.Ticket, error) {
	return s.tickets.Create(ctx, &tickets.CreateRequest{
		GuildID:    app.GuildID,
		CreatorID:  app.UserID,
		TicketType: "application-" + at.Name,
		NamePrefix: "app-" + entities.Slugify(at.Name),
		ExtraRoles: at.ReviewRoles,
		Welcome: func(t *entities.Ticket) *discordgo.MessageSend {
			return &discordgo.MessageSend{
				Content:    messages.User(app.UserID) + " submitted an application!",
				Embeds:     []*discordgo.MessageEmbed{messages.ApplicationSubmission(at, app)},
				Components: messages.ReviewControls(at.ID),
			}
		},
	})
}

// Accept accepts the pending application linked to a ticket channel.
func (s *Service) Accept(ctx context.Context, guildID, typeID string, reviewer permissions.Actor, channelID, reason string) (*entities.Application, error) {
	return s.review(ctx, guildID, typeID, reviewer, channelID, reason, entities.ApplicationAccepted)
}

// Deny denies the pending application linked to a ticket channel.
func (s *Service) Deny(ctx context.Context, guildID, typeID string, reviewer permissions.Actor, channelID, reason string) (*entities.Application, error) {
	return s.review(ctx, guildID, typeID, reviewer, channelID, reason, entities.ApplicationDenied)
}

// CheckReview returns the error Accept or Deny would reject the reviewer with, without reviewing anything.
func (s *Service) CheckReview(ctx context.Context, guildID, typeID string, reviewer permissions.Actor, channelID string) error {
	_, _, err := s.reviewable(ctx, guildID, typeID, reviewer, channelID)
	return err
}

func (s *Service) reviewable(ctx context.Context, guildID, typeID string, reviewer permissions.Actor, channelID string) (*entities.ApplicationType, *entities.Application, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, nil, err
	}
	if !permissions.CanReviewApplication(reviewer, at) {
		return nil, nil, entities.ErrPermissionDenied
	}

	app, err := s.store.Applications().GetApplicationByChannel(ctx, channelID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, nil, entities.NewNotFoundError("application")
	} else if err != nil {
		return nil, nil, entities.NewExternalError("getting application", err)
	}
	if app.ApplicationTypeID != at.ID {
		return nil, nil, entities.NewNotFoundError("application")
	}
	if app.Status != entities.ApplicationPending {
		return nil, nil, entities.ErrAlreadyReviewed
	}
	return at, app, nil
}

func (s *Service) review(ctx context.Context, guildID, typeID string, reviewer permissions.Actor, channelID, reason string, status entities.ApplicationStatus) (*entities.Application, error) {
	at, app, err := s.reviewable(ctx, guildID, typeID, reviewer, channelID)
	if err != nil {
		return nil, err
	}

	review := &entities.ApplicationReview{
		Status:     status,
		ReviewedBy: reviewer.UserID,
		Reason:     reason,
		ReviewedAt: custom.NewDatetime(s.timestamp()),
	}
	err = s.store.Applications().ReviewApplication(ctx, app.ID, review)
	if errors.Is(err, dataaccess.ErrNoMatch) {
		return nil, entities.ErrAlreadyReviewed
	} else if err != nil {
		return nil, entities.NewExternalError("reviewing application", err)
	}

	app.Status = review.Status
	app.ReviewedBy = review.ReviewedBy
	app.ReviewReason = review.Reason
	app.ReviewedAt = review.ReviewedAt

	s.applyRoles(ctx, at, app.UserID, at.OutcomeRoles(status), at.PendingRoles)

	result := messages.ApplicationResult(at, app)
	s.sink.DirectMessage(ctx, app.UserID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{result}})
	s.sink.ApplicationAction(ctx, at, result)

	ApplicationsReviewed.WithLabelValues(string(status)).Inc()
	s.logger(at).Info(fmt.Sprintf("Application %s", status),
		slog.String(logging.KeyUser, app.UserID),
		slog.String("reviewer", reviewer.UserID),
	)
	return app, nil
}

// applyRoles grants add and removes the held roles of remove, skipping any role the bot cannot manage. Failures are
// logged and never fail the caller.
func (s *Service) applyRoles(ctx context.Context, at *entities.ApplicationType, userID string, add, remove []string) {
	if len(add) == 0 && len(remove) == 0 {
		return
	}

	l := s.logger(at).With(slog.String(logging.KeyUser, userID))

	hierarchy, err := s.client.RolePositions(ctx, at.GuildID)
	if err != nil {
		l.Error("Error getting role positions", slog.String(logging.KeyError, err.Error()))
		return
	}

	if len(remove) > 0 {
		held, err := s.client.MemberRoles(ctx, at.GuildID, userID)
		if err != nil {
			l.Error("Error getting member roles", slog.String(logging.KeyError, err.Error()))
		}

		var drop []string
		for _, r := range remove {
			if custom.Snowflakes(held).Contains(r) {
				drop = append(drop, r)
			}
		}

		allowed, skipped := hierarchy.Manageable(drop)
		s.skipped(l, skipped)
		for _, r := range allowed {
			if err := s.client.RemoveMemberRole(ctx, at.GuildID, userID, r); err != nil {
				l.Error("Error removing role", slog.String("role_id", r), slog.String(logging.KeyError, err.Error()))
			}
		}
	}

	allowed, skipped := hierarchy.Manageable(add)
	s.skipped(l, skipped)
	for _, r := range allowed {
		if err := s.client.AddMemberRole(ctx, at.GuildID, userID, r); err != nil {
			l.Error("Error adding role", slog.String("role_id", r), slog.String(logging.KeyError, err.Error()))
		}
	}
}

func (s *Service) skipped(l *slog.Logger, roles []string) {
	if len(roles) == 0 {
		return
	}
	RoleChangesSkipped.Add(float64(len(roles)))
	l.Warn("Skipping roles above the bot", slog.Any("roles", roles))
}
