package applications

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/google/uuid"
)

// questionWriteAttempts is how many times a question write is retried when another write got there first.
const questionWriteAttempts = 3

// CreateType creates an active application type with the default settings.
func (s *Service) CreateType(ctx context.Context, guildID, name, description string) (*entities.ApplicationType, error) {
	if err := entities.ValidateApplicationName(name); err != nil {
		return nil, err
	}

	at := &entities.ApplicationType{
		ID:            uuid.New().String(),
		GuildID:       guildID,
		Name:          strings.TrimSpace(name),
		Description:   strings.TrimSpace(description),
		Questions:     []entities.Question{},
		ReviewRoles:   custom.Snowflakes{},
		CooldownHours: entities.DefaultCooldownHours,
		CreateTicket:  true,
		Active:        true,
		PendingRoles:  custom.Snowflakes{},
		AcceptedRoles: custom.Snowflakes{},
		DeniedRoles:   custom.Snowflakes{},
		CreatedAt:     custom.NewDatetime(s.timestamp()),
	}

	err := s.store.ApplicationTypes().CreateApplicationType(ctx, at)
	if errors.Is(err, dataaccess.ErrDuplicate) {
		return nil, duplicateName(at.Name)
	} else if err != nil {
		return nil, entities.NewExternalError("creating application type", err)
	}

	s.logger(at).Info("Application type created")
	return at, nil
}

func duplicateName(name string) error {
	return entities.NewValidationError("name", "an application type named %q already exists", name)
}

// UpdateType applies the update to an application type of the guild.
func (s *Service) UpdateType(ctx context.Context, guildID, typeID string, update *entities.ApplicationTypeUpdate) (*entities.ApplicationType, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return at, nil
	}
	if update.LogChannelID != nil {
		if err := platform.CheckGuildChannel(ctx, s.client, guildID, "log_channel_id", *update.LogChannelID); err != nil {
			return nil, err
		}
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}

	updated, err := s.store.ApplicationTypes().UpdateApplicationType(ctx, typeID, update)
	switch {
	case errors.Is(err, dataaccess.ErrDuplicate):
		return nil, duplicateName(*update.Name)
	case errors.Is(err, dataaccess.ErrNotFound):
		return nil, entities.NewNotFoundError("application type")
	case err != nil:
		return nil, entities.NewExternalError("updating application type", err)
	}
	return updated, nil
}

// ToggleType flips whether an application type accepts new submissions.
func (s *Service) ToggleType(ctx context.Context, guildID, typeID string) (*entities.ApplicationType, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, err
	}
	active := !at.Active
	return s.UpdateType(ctx, guildID, typeID, &entities.ApplicationTypeUpdate{Active: &active})
}

// DeleteType removes an application type. A type with pending applications is deactivated instead so that they can
// still be reviewed; the returned bool reports whether the type was removed.
func (s *Service) DeleteType(ctx context.Context, guildID, typeID string) (bool, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return false, err
	}

	pending, err := s.store.Applications().CountApplications(ctx, entities.ApplicationFilter{
		GuildID:           guildID,
		ApplicationTypeID: typeID,
		Status:            entities.ApplicationPending,
	})
	if err != nil {
		return false, entities.NewExternalError("counting pending applications", err)
	}

	if pending > 0 {
		inactive := false
		if _, err := s.UpdateType(ctx, guildID, typeID, &entities.ApplicationTypeUpdate{Active: &inactive}); err != nil {
			return false, err
		}
		s.logger(at).Info("Application type deactivated", slog.Int64("pending", pending))
		return false, nil
	}

	if err := s.store.ApplicationTypes().DeleteApplicationType(ctx, typeID); err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
		return false, entities.NewExternalError("deleting application type", err)
	}
	s.logger(at).Info("Application type deleted")
	return true, nil
}

// AddReviewRole adds a review role. The bool is false if the role was already present.
func (s *Service) AddReviewRole(ctx context.Context, guildID, typeID, roleID string) (*entities.ApplicationType, bool, error) {
	return s.changeReviewRoles(ctx, guildID, typeID, func(roles custom.Snowflakes) (custom.Snowflakes, bool) {
		return roles.Add(roleID)
	})
}

// RemoveReviewRole removes a review role. The bool is false if the role was not present.
func (s *Service) RemoveReviewRole(ctx context.Context, guildID, typeID, roleID string) (*entities.ApplicationType, bool, error) {
	return s.changeReviewRoles(ctx, guildID, typeID, func(roles custom.Snowflakes) (custom.Snowflakes, bool) {
		return roles.Remove(roleID)
	})
}

func (s *Service) changeReviewRoles(ctx context.Context, guildID, typeID string, change func(custom.Snowflakes) (custom.Snowflakes, bool)) (*entities.ApplicationType, bool, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, false, err
	}

	roles, changed := change(at.ReviewRoles)
	if !changed {
		return at, false, nil
	}

	updated, err := s.UpdateType(ctx, guildID, typeID, &entities.ApplicationTypeUpdate{ReviewRoles: &roles})
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// AddQuestion appends a question to the end of the form.
func (s *Service) AddQuestion(ctx context.Context, guildID, typeID, text string, qType entities.QuestionType, required bool) (*entities.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, entities.NewValidationError("question", "is required")
	}
	if len([]rune(text)) > entities.ModalTextMaxLength {
		return nil, entities.NewValidationError("question", "must be at most %d characters", entities.ModalTextMaxLength)
	}
	if qType == "" {
		qType = entities.QuestionShort
	}
	if !qType.Valid() {
		return nil, entities.NewValidationError("type", "must be %q or %q", entities.QuestionShort, entities.QuestionParagraph)
	}

	for attempt := 0; attempt < questionWriteAttempts; attempt++ {
		at, err := s.GetType(ctx, guildID, typeID)
		if err != nil {
			return nil, err
		}
		if len(at.Questions) >= entities.MaxQuestions {
			return nil, entities.NewValidationError("questions", "an application can have at most %d questions", entities.MaxQuestions)
		}

		q := entities.Question{
			ID:       uuid.New().String(),
			Text:     text,
			Type:     qType,
			Required: required,
			Order:    len(at.Questions) + 1,
		}

		err = s.store.ApplicationTypes().AddQuestion(ctx, typeID, q, len(at.Questions))
		if errors.Is(err, dataaccess.ErrNoMatch) {
			continue
		} else if err != nil {
			return nil, entities.NewExternalError("adding question", err)
		}
		return &q, nil
	}
	return nil, entities.NewExternalError("adding question", dataaccess.ErrNoMatch)
}

// RemoveQuestion removes the question at the 1-based order and renumbers the rest.
func (s *Service) RemoveQuestion(ctx context.Context, guildID, typeID string, order int) (*entities.Question, error) {
	for attempt := 0; attempt < questionWriteAttempts; attempt++ {
		at, err := s.GetType(ctx, guildID, typeID)
		if err != nil {
			return nil, err
		}

		removed, rest, ok := withoutQuestion(at.SortedQuestions(), order)
		if !ok {
			return nil, entities.NewNotFoundError("question")
		}

		err = s.store.ApplicationTypes().ReplaceQuestions(ctx, typeID, rest, len(at.Questions))
		if errors.Is(err, dataaccess.ErrNoMatch) {
			continue
		} else if err != nil {
			return nil, entities.NewExternalError("removing question", err)
		}
		return &removed, nil
	}
	return nil, entities.NewExternalError("removing question", dataaccess.ErrNoMatch)
}

// withoutQuestion drops the question at order from the sorted questions and renumbers the rest from 1.
func withoutQuestion(sorted []entities.Question, order int) (entities.Question, []entities.Question, bool) {
	idx := -1
	for i, q := range sorted {
		if q.Order == order {
			idx = i
			break
		}
	}
	if idx < 0 {
		return entities.Question{}, nil, false
	}

	removed := sorted[idx]
	rest := make([]entities.Question, 0, len(sorted)-1)
	rest = append(rest, sorted[:idx]...)
	rest = append(rest, sorted[idx+1:]...)
	for i := range rest {
		rest[i].Order = i + 1
	}
	return removed, rest, true
}

// ListQuestions returns the questions of an application type in order.
func (s *Service) ListQuestions(ctx context.Context, guildID, typeID string) ([]entities.Question, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, err
	}
	return at.SortedQuestions(), nil
}

// DeployPanel posts the apply panel of an application type to a channel and remembers where it was posted.
func (s *Service) DeployPanel(ctx context.Context, guildID, typeID, channelID string) (*entities.ApplicationType, error) {
	at, err := s.GetType(ctx, guildID, typeID)
	if err != nil {
		return nil, err
	}
	if len(at.Questions) == 0 {
		return nil, entities.ErrNoQuestions
	}

	msg, err := s.client.SendMessage(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{messages.ApplicationPanel(at)},
		Components: messages.ApplyControls(at.ID),
	})
	if err != nil {
		return nil, entities.NewExternalError("posting application panel", err)
	}

	updated, err := s.UpdateType(ctx, guildID, typeID, &entities.ApplicationTypeUpdate{
		PanelChannelID: &channelID,
		PanelMessageID: &msg.ID,
	})
	if err != nil {
		return nil, err
	}

	s.logger(at).Info("Application panel deployed", slog.String(logging.KeyChannel, channelID))
	return updated, nil
}
