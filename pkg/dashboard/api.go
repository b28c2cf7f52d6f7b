package dashboard

import (
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/request"
	"github.com/gorilla/mux"
)

// recentTickets is how many tickets the stats summary includes.
const recentTickets = 5

// writeError maps an error to a status code and writes it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		request.Encode(s.l, w, http.StatusNotFound, request.NewMessage(err.Error()))
	case errors.Is(err, entities.ErrPermissionDenied):
		request.Encode(s.l, w, http.StatusForbidden, request.NewMessage(request.ErrForbidden.Error()))
	case errors.Is(err, entities.ErrValidation):
		request.Encode(s.l, w, http.StatusBadRequest, request.NewMessageError("Invalid request", err))
	case entities.IsDomainError(err):
		request.Encode(s.l, w, http.StatusBadRequest, request.NewMessage(err.Error()))
	default:
		s.l.Error("Error handling dashboard request",
			slog.String("path", r.URL.Path),
			slog.String(logging.KeyError, err.Error()),
		)
		request.Encode(s.l, w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := request.Decode(r, v); err != nil {
		request.Encode(s.l, w, http.StatusBadRequest, request.NewMessageError("Invalid request body", err))
		return false
	}
	return true
}

// clean strips markup from free text typed into the dashboard.
func (s *Server) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

type guildResponse struct {
	Guild
	CanManage  bool `json:"can_manage"`
	BotInGuild bool `json:"bot_in_guild"`
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	request.Encode(s.l, w, http.StatusOK, map[string]any{
		"user":   session.User,
		"guilds": session.Guilds,
	})
}

// guilds lists the guilds the user can manage.
func (s *Server) guilds(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	out := make([]guildResponse, 0, len(session.Guilds))
	for _, g := range session.Guilds {
		if !permissions.CanManageGuild(g.Permissions) {
			continue
		}
		out = append(out, guildResponse{
			Guild:      g,
			CanManage:  true,
			BotInGuild: s.inGuild != nil && s.inGuild(g.ID),
		})
	}
	request.Encode(s.l, w, http.StatusOK, out)
}

type statsResponse struct {
	OpenTickets         int64              `json:"open_tickets"`
	ClosedTickets       int64              `json:"closed_tickets"`
	TotalTickets        int                `json:"total_tickets"`
	AverageRating       *float64           `json:"average_rating"`
	PendingApplications int64              `json:"pending_applications"`
	RecentTickets       []*entities.Ticket `json:"recent_tickets"`
}

func (s *Server) guild(w http.ResponseWriter, r *http.Request) (*entities.Guild, bool) {
	g, err := s.store.Guilds().GetGuild(r.Context(), mux.Vars(r)["guildID"])
	if errors.Is(err, dataaccess.ErrNotFound) {
		s.writeError(w, r, entities.NewNotFoundError("guild"))
		return nil, false
	} else if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return g, true
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guild(w, r)
	if !ok {
		return
	}

	stats, err := s.store.Tickets().TicketStats(r.Context(), g.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pending, err := s.store.Applications().CountApplications(r.Context(), entities.ApplicationFilter{
		GuildID: g.ID,
		Status:  entities.ApplicationPending,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recent, _, err := s.store.Tickets().ListTickets(r.Context(), entities.TicketFilter{GuildID: g.ID}, entities.Page{Number: 1, Size: recentTickets})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := &statsResponse{
		OpenTickets:         stats.Open,
		ClosedTickets:       stats.Closed,
		TotalTickets:        g.TicketCounter,
		PendingApplications: pending,
		RecentTickets:       recent,
	}
	if stats.Rated > 0 {
		avg := stats.AverageRating
		resp.AverageRating = &avg
	}
	request.Encode(s.l, w, http.StatusOK, resp)
}

type pageResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
}

func page(r *http.Request) entities.Page {
	return entities.Page{
		Number: request.QueryInt(r, "page", 1),
		Size:   request.QueryInt(r, "limit", entities.DefaultPageSize),
	}.Normalise()
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	filter := entities.TicketFilter{
		GuildID: mux.Vars(r)["guildID"],
		Status:  entities.TicketStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.writeError(w, r, entities.NewValidationError("status", "unknown status %q", filter.Status))
		return
	}

	p := page(r)
	tickets, total, err := s.store.Tickets().ListTickets(r.Context(), filter, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, &pageResponse[*entities.Ticket]{
		Items:      tickets,
		Total:      total,
		Page:       p.Number,
		TotalPages: p.TotalPages(total),
	})
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	filter := entities.ApplicationFilter{
		GuildID: mux.Vars(r)["guildID"],
		Status:  entities.ApplicationStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.writeError(w, r, entities.NewValidationError("status", "unknown status %q", filter.Status))
		return
	}

	p := page(r)
	apps, total, err := s.store.Applications().ListApplications(r.Context(), filter, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, &pageResponse[*entities.Application]{
		Items:      apps,
		Total:      total,
		Page:       p.Number,
		TotalPages: p.TotalPages(total),
	})
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	g, ok := s.guild(w, r)
	if !ok {
		return
	}
	request.Encode(s.l, w, http.StatusOK, g)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	update := new(entities.GuildUpdate)
	if !s.decode(w, r, update) {
		return
	}
	if err := update.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	guildID := mux.Vars(r)["guildID"]
	channels := []struct {
		field string
		id    *string
	}{
		{field: "log_channel_id", id: update.LogChannelID},
		{field: "transcript_channel_id", id: update.TranscriptChannelID},
		{field: "category_id", id: update.CategoryID},
	}
	for _, c := range channels {
		if c.id == nil {
			continue
		}
		if err := platform.CheckGuildChannel(r.Context(), s.client, guildID, c.field, *c.id); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	g, err := s.store.Guilds().UpdateGuild(r.Context(), guildID, update)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, g)
}

type applicationTypeSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Active        bool   `json:"active"`
	CooldownHours int    `json:"cooldown_hours"`
	CreateTicket  bool   `json:"create_ticket"`
	QuestionCount int    `json:"question_count"`
}

func (s *Server) listApplicationTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.apps.ListTypes(r.Context(), mux.Vars(r)["guildID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]applicationTypeSummary, 0, len(types))
	for _, at := range types {
		out = append(out, applicationTypeSummary{
			ID:            at.ID,
			Name:          at.Name,
			Description:   at.Description,
			Active:        at.Active,
			CooldownHours: at.CooldownHours,
			CreateTicket:  at.CreateTicket,
			QuestionCount: len(at.Questions),
		})
	}
	request.Encode(s.l, w, http.StatusOK, out)
}

type createApplicationTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createApplicationType(w http.ResponseWriter, r *http.Request) {
	body := new(createApplicationTypeRequest)
	if !s.decode(w, r, body) {
		return
	}

	at, err := s.apps.CreateType(r.Context(), mux.Vars(r)["guildID"], s.clean(body.Name), s.clean(body.Description))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusCreated, at)
}

func (s *Server) updateApplicationType(w http.ResponseWriter, r *http.Request) {
	update := new(entities.ApplicationTypeUpdate)
	if !s.decode(w, r, update) {
		return
	}
	if update.Name != nil {
		name := s.clean(*update.Name)
		update.Name = &name
	}
	if update.Description != nil {
		desc := s.clean(*update.Description)
		update.Description = &desc
	}

	vars := mux.Vars(r)
	at, err := s.apps.UpdateType(r.Context(), vars["guildID"], vars["typeID"], update)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, at)
}

func (s *Server) deleteApplicationType(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deleted, err := s.apps.DeleteType(r.Context(), vars["guildID"], vars["typeID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, map[string]bool{"deleted": deleted})
}

type addQuestionRequest struct {
	Text     string                `json:"text"`
	Type     entities.QuestionType `json:"type"`
	Required bool                  `json:"required"`
}

func (s *Server) addQuestion(w http.ResponseWriter, r *http.Request) {
	body := new(addQuestionRequest)
	if !s.decode(w, r, body) {
		return
	}

	vars := mux.Vars(r)
	q, err := s.apps.AddQuestion(r.Context(), vars["guildID"], vars["typeID"], s.clean(body.Text), body.Type, body.Required)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusCreated, q)
}

func (s *Server) removeQuestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	order, err := strconv.Atoi(vars["order"])
	if err != nil || order < 1 {
		s.writeError(w, r, entities.NewValidationError("order", "must be a positive number"))
		return
	}

	q, err := s.apps.RemoveQuestion(r.Context(), vars["guildID"], vars["typeID"], order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, q)
}

func (s *Server) listPanels(w http.ResponseWriter, r *http.Request) {
	list, err := s.panels.List(r.Context(), mux.Vars(r)["guildID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, list)
}

func (s *Server) createPanel(w http.ResponseWriter, r *http.Request) {
	body := new(panels.Request)
	if !s.decode(w, r, body) {
		return
	}
	body.GuildID = mux.Vars(r)["guildID"]
	body.Title = s.clean(body.Title)
	body.Description = s.clean(body.Description)

	p, err := s.panels.Create(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusCreated, p)
}

func (s *Server) deletePanel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.panels.Delete(r.Context(), vars["guildID"], vars["panelID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, request.NewMessage("Panel deleted"))
}

func (s *Server) listBlacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Blacklist().ListBlacklist(r.Context(), mux.Vars(r)["guildID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, entries)
}

type blacklistRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

func (s *Server) addBlacklist(w http.ResponseWriter, r *http.Request) {
	body := new(blacklistRequest)
	if !s.decode(w, r, body) {
		return
	}
	if !isSnowflake(body.UserID) {
		s.writeError(w, r, entities.NewValidationError("user_id", "must be a Discord user ID"))
		return
	}

	entry := &entities.BlacklistEntry{
		GuildID: mux.Vars(r)["guildID"],
		UserID:  body.UserID,
		Reason:  s.clean(body.Reason),
		AddedBy: sessionFrom(r.Context()).User.ID,
		AddedAt: custom.NewDatetime(s.now().UTC()),
	}
	if err := s.store.Blacklist().AddBlacklistEntry(r.Context(), entry); err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusCreated, entry)
}

func (s *Server) removeBlacklist(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := s.store.Blacklist().RemoveBlacklistEntry(r.Context(), vars["guildID"], vars["userID"])
	if errors.Is(err, dataaccess.ErrNotFound) {
		s.writeError(w, r, entities.NewNotFoundError("blacklist entry"))
		return
	} else if err != nil {
		s.writeError(w, r, err)
		return
	}
	request.Encode(s.l, w, http.StatusOK, request.NewMessage("User removed from the blacklist"))
}

func isSnowflake(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
