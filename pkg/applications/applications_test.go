package applications

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/dataaccesstest"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
	"github.com/stretchr/testify/require"
)

type noTranscripts struct{}

func (noTranscripts) Generate(context.Context, *entities.Ticket, string) (*transcript.File, error) {
	return nil, errors.New("not used")
}

type failingOpener struct{ err error }

func (f failingOpener) Create(context.Context, *tickets.CreateRequest) (*entities.Ticket, error) {
	return nil, f.err
}

type harness struct {
	ctx    context.Context
	now    time.Time
	store  *dataaccesstest.Store
	client *platformtest.Client
	svc    *Service
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		ctx:    context.Background(),
		now:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		store:  dataaccesstest.NewStore(),
		client: platformtest.NewClient(),
	}
	h.client.Hierarchy.Positions = map[string]int{
		"pending":  1,
		"member":   2,
		"denied":   3,
		"reviewer": 4,
		"owner":    2000,
	}

	sink := notify.NewSink(slog.Default(), h.client)
	clock := func() time.Time { return h.now }
	opener := tickets.NewService(slog.Default(), h.store, h.client, noTranscripts{}, sink, tickets.WithClock(clock))
	h.svc = NewService(slog.Default(), h.store, h.client, opener, sink, WithClock(clock))
	return h
}

// newType creates a type with two questions, reviewed by the reviewer role.
func (h *harness) newType(t *testing.T) *entities.ApplicationType {
	at, err := h.svc.CreateType(h.ctx, "g1", "Staff", "Join the team")
	require.NoError(t, err)

	_, err = h.svc.AddQuestion(h.ctx, "g1", at.ID, "Why?", entities.QuestionParagraph, true)
	require.NoError(t, err)
	_, err = h.svc.AddQuestion(h.ctx, "g1", at.ID, "Age?", entities.QuestionShort, false)
	require.NoError(t, err)

	at, _, err = h.svc.AddReviewRole(h.ctx, "g1", at.ID, "reviewer")
	require.NoError(t, err)
	return at
}

var reviewer = permissions.Actor{UserID: "rev", Roles: []string{"reviewer"}}

func TestCreateType(t *testing.T) {
	h := newHarness(t)

	at, err := h.svc.CreateType(h.ctx, "g1", "  Staff ", "")
	require.NoError(t, err)
	require.Equal(t, "Staff", at.Name)
	require.True(t, at.Active)
	require.True(t, at.CreateTicket)
	require.Equal(t, entities.DefaultCooldownHours, at.CooldownHours)

	_, err = h.svc.CreateType(h.ctx, "g1", "Staff", "")
	require.ErrorIs(t, err, entities.ErrValidation)

	_, err = h.svc.CreateType(h.ctx, "g1", " ", "")
	require.ErrorIs(t, err, entities.ErrValidation)

	// Names are unique per guild only.
	_, err = h.svc.CreateType(h.ctx, "g2", "Staff", "")
	require.NoError(t, err)

	_, err = h.svc.GetType(h.ctx, "g2", at.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestUpdateType_OutcomeRoleLimit(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	roles := custom.Snowflakes{"a", "b", "c"}
	_, err := h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{AcceptedRoles: &roles})
	require.ErrorIs(t, err, entities.ErrValidation)

	roles = roles[:2]
	updated, err := h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{AcceptedRoles: &roles})
	require.NoError(t, err)
	require.Equal(t, custom.Snowflakes{"a", "b"}, updated.AcceptedRoles)
}

func TestUpdateType_LogChannel(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)
	h.client.AddChannel("g1", "app-logs")
	h.client.AddChannel("g2", "elsewhere")

	foreign := "elsewhere"
	_, err := h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{LogChannelID: &foreign})
	require.ErrorIs(t, err, entities.ErrValidation)

	got, err := h.svc.GetType(h.ctx, "g1", at.ID)
	require.NoError(t, err)
	require.Empty(t, got.LogChannelID)

	local := "app-logs"
	updated, err := h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{LogChannelID: &local})
	require.NoError(t, err)
	require.Equal(t, "app-logs", updated.LogChannelID)

	cleared := ""
	updated, err = h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{LogChannelID: &cleared})
	require.NoError(t, err)
	require.Empty(t, updated.LogChannelID)
}

func TestToggleType(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	toggled, err := h.svc.ToggleType(h.ctx, "g1", at.ID)
	require.NoError(t, err)
	require.False(t, toggled.Active)

	_, err = h.svc.Start(h.ctx, "g1", at.ID, "u1")
	require.ErrorIs(t, err, entities.ErrInactive)
}

func TestQuestions(t *testing.T) {
	h := newHarness(t)
	at, err := h.svc.CreateType(h.ctx, "g1", "Staff", "")
	require.NoError(t, err)

	_, err = h.svc.Start(h.ctx, "g1", at.ID, "u1")
	require.ErrorIs(t, err, entities.ErrNoQuestions)

	_, err = h.svc.AddQuestion(h.ctx, "g1", at.ID, "This question is far too long to fit in a modal label", entities.QuestionShort, true)
	require.ErrorIs(t, err, entities.ErrValidation)

	for _, text := range []string{"A", "B", "C", "D", "E"} {
		_, err := h.svc.AddQuestion(h.ctx, "g1", at.ID, text, "", true)
		require.NoError(t, err)
	}
	_, err = h.svc.AddQuestion(h.ctx, "g1", at.ID, "F", entities.QuestionShort, true)
	require.ErrorIs(t, err, entities.ErrValidation)

	removed, err := h.svc.RemoveQuestion(h.ctx, "g1", at.ID, 2)
	require.NoError(t, err)
	require.Equal(t, "B", removed.Text)

	qs, err := h.svc.ListQuestions(h.ctx, "g1", at.ID)
	require.NoError(t, err)
	require.Len(t, qs, 4)
	for i, q := range qs {
		require.Equal(t, i+1, q.Order)
	}
	require.Equal(t, []string{"A", "C", "D", "E"}, []string{qs[0].Text, qs[1].Text, qs[2].Text, qs[3].Text})

	_, err = h.svc.RemoveQuestion(h.ctx, "g1", at.ID, 9)
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestWithoutQuestion(t *testing.T) {
	sorted := []entities.Question{{ID: "a", Order: 1}, {ID: "b", Order: 2}, {ID: "c", Order: 3}}

	removed, rest, ok := withoutQuestion(sorted, 1)
	require.True(t, ok)
	require.Equal(t, "a", removed.ID)
	require.Equal(t, []entities.Question{{ID: "b", Order: 1}, {ID: "c", Order: 2}}, rest)

	// The input is left alone.
	require.Equal(t, 2, sorted[1].Order)
}

func TestStart_Form(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	form, err := h.svc.Start(h.ctx, "g1", at.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, "Staff", form.Title)
	require.Len(t, form.Fields, 2)
	require.True(t, form.Fields[0].Paragraph)
	require.Equal(t, entities.ParagraphAnswerMaxLength, form.Fields[0].MaxLength)
	require.Equal(t, entities.ShortAnswerMaxLength, form.Fields[1].MaxLength)
	require.False(t, form.Fields[1].Required)
}

func TestStart_CooldownBoundary(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	h.store.PutApplication(&entities.Application{
		ID:                "a1",
		GuildID:           "g1",
		ApplicationTypeID: at.ID,
		UserID:            "u1",
		Status:            entities.ApplicationDenied,
		CreatedAt:         custom.NewDatetime(h.now.Add(-23*time.Hour - 30*time.Minute)),
	})

	_, err := h.svc.Start(h.ctx, "g1", at.ID, "u1")
	var cooldown *entities.CooldownError
	require.ErrorAs(t, err, &cooldown)
	require.Equal(t, 1, cooldown.RemainingHours)

	h.now = h.now.Add(-10 * time.Hour)
	_, err = h.svc.Start(h.ctx, "g1", at.ID, "u1")
	require.ErrorAs(t, err, &cooldown)
	require.Equal(t, 11, cooldown.RemainingHours)

	// Exactly the cooldown later is allowed.
	h.now = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	_, err = h.svc.Start(h.ctx, "g1", at.ID, "u1")
	require.NoError(t, err)

	// Other users are unaffected.
	h.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = h.svc.Start(h.ctx, "g1", at.ID, "u2")
	require.NoError(t, err)
}

func TestSubmitAndAccept(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	pending, accepted := custom.Snowflakes{"pending"}, custom.Snowflakes{"member", "owner"}
	_, err := h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{
		PendingRoles:  &pending,
		AcceptedRoles: &accepted,
	})
	require.NoError(t, err)

	qs, err := h.svc.ListQuestions(h.ctx, "g1", at.ID)
	require.NoError(t, err)

	app, err := h.svc.Submit(h.ctx, &SubmitRequest{
		GuildID:     "g1",
		TypeID:      at.ID,
		ApplicantID: "u1",
		Answers:     map[string]string{qs[0].ID: "Because", "unknown": "dropped"},
	})
	require.NoError(t, err)
	require.Equal(t, entities.ApplicationPending, app.Status)
	require.NotEmpty(t, app.TicketChannelID)
	require.Equal(t, map[string]string{qs[0].ID: "Because"}, app.Answers)

	ch, err := h.client.Channel(h.ctx, app.TicketChannelID)
	require.NoError(t, err)
	require.Equal(t, "app-staff-1", ch.Name)
	require.Equal(t, []string{"pending"}, h.client.Roles["g1/u1"])

	_, err = h.svc.Accept(h.ctx, "g1", at.ID, permissions.Actor{UserID: "u2"}, app.TicketChannelID, "")
	require.ErrorIs(t, err, entities.ErrPermissionDenied)

	reviewed, err := h.svc.Accept(h.ctx, "g1", at.ID, reviewer, app.TicketChannelID, "welcome")
	require.NoError(t, err)
	require.Equal(t, entities.ApplicationAccepted, reviewed.Status)
	require.Equal(t, "rev", reviewed.ReviewedBy)

	// The pending role is gone and the owner role sits above the bot.
	require.Equal(t, []string{"member"}, h.client.Roles["g1/u1"])
	require.Len(t, h.client.DirectMessages("u1"), 1)

	_, err = h.svc.Deny(h.ctx, "g1", at.ID, reviewer, app.TicketChannelID, "")
	require.ErrorIs(t, err, entities.ErrAlreadyReviewed)
}

func TestCheckReview(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	app, err := h.svc.Submit(h.ctx, &SubmitRequest{GuildID: "g1", TypeID: at.ID, ApplicantID: "u1"})
	require.NoError(t, err)

	require.ErrorIs(t, h.svc.CheckReview(h.ctx, "g1", at.ID, permissions.Actor{UserID: "u2"}, app.TicketChannelID), entities.ErrPermissionDenied)
	require.ErrorIs(t, h.svc.CheckReview(h.ctx, "g1", at.ID, reviewer, "general"), entities.ErrNotFound)
	require.NoError(t, h.svc.CheckReview(h.ctx, "g1", at.ID, reviewer, app.TicketChannelID))

	// Checking changes nothing.
	_, err = h.svc.Deny(h.ctx, "g1", at.ID, reviewer, app.TicketChannelID, "")
	require.NoError(t, err)
	require.ErrorIs(t, h.svc.CheckReview(h.ctx, "g1", at.ID, reviewer, app.TicketChannelID), entities.ErrAlreadyReviewed)
}

func TestSubmit_WithoutTicket(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	no := false
	_, err := h.svc.UpdateType(h.ctx, "g1", at.ID, &entities.ApplicationTypeUpdate{CreateTicket: &no})
	require.NoError(t, err)

	app, err := h.svc.Submit(h.ctx, &SubmitRequest{GuildID: "g1", TypeID: at.ID, ApplicantID: "u1"})
	require.NoError(t, err)
	require.Empty(t, app.TicketChannelID)
	require.Empty(t, h.client.Channels)
}

func TestSubmit_TicketFailure(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	h.svc.tickets = failingOpener{err: entities.NewExternalError("creating ticket channel", errors.New("missing access"))}
	app, err := h.svc.Submit(h.ctx, &SubmitRequest{GuildID: "g1", TypeID: at.ID, ApplicantID: "u1"})
	require.NoError(t, err)
	require.Empty(t, app.TicketChannelID)

	h.svc.tickets = failingOpener{err: &entities.BlacklistedError{Reason: "spam"}}
	_, err = h.svc.Submit(h.ctx, &SubmitRequest{GuildID: "g1", TypeID: at.ID, ApplicantID: "u2"})
	require.ErrorIs(t, err, entities.ErrBlacklisted)
}

func TestDeny_WrongChannel(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	_, err := h.svc.Deny(h.ctx, "g1", at.ID, reviewer, "general", "")
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestDeleteType(t *testing.T) {
	h := newHarness(t)
	at := h.newType(t)

	_, err := h.svc.Submit(h.ctx, &SubmitRequest{GuildID: "g1", TypeID: at.ID, ApplicantID: "u1"})
	require.NoError(t, err)

	deleted, err := h.svc.DeleteType(h.ctx, "g1", at.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	kept, err := h.svc.GetType(h.ctx, "g1", at.ID)
	require.NoError(t, err)
	require.False(t, kept.Active)

	other, err := h.svc.CreateType(h.ctx, "g1", "Other", "")
	require.NoError(t, err)
	deleted, err = h.svc.DeleteType(h.ctx, "g1", other.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = h.svc.GetType(h.ctx, "g1", other.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestDeployPanel(t *testing.T) {
	h := newHarness(t)

	empty, err := h.svc.CreateType(h.ctx, "g1", "Empty", "")
	require.NoError(t, err)
	_, err = h.svc.DeployPanel(h.ctx, "g1", empty.ID, "apply")
	require.ErrorIs(t, err, entities.ErrNoQuestions)

	at := h.newType(t)
	deployed, err := h.svc.DeployPanel(h.ctx, "g1", at.ID, "apply")
	require.NoError(t, err)
	require.Equal(t, "apply", deployed.PanelChannelID)

	sent := h.client.Sent("apply")
	require.Len(t, sent, 1)
	require.Equal(t, sent[0].ID, deployed.PanelMessageID)
}
