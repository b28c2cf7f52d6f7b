// Package dataaccesstest provides an in-memory dataaccess.Store for tests.
package dataaccesstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

// Store is an in-memory implementation of every data access layer. It follows the same conditional write rules as
// the mongo implementation. Records are copied in and out so callers cannot mutate stored state.
type Store struct {
	mu sync.Mutex

	guilds           map[string]*entities.Guild
	tickets          map[string]*entities.Ticket // keyed by channel
	applicationTypes map[string]*entities.ApplicationType
	applications     map[string]*entities.Application
	panels           map[string]*entities.Panel
	blacklist        map[string]*entities.BlacklistEntry // keyed by guild/user

	// Err, when set, is returned from every call.
	Err error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		guilds:           make(map[string]*entities.Guild),
		tickets:          make(map[string]*entities.Ticket),
		applicationTypes: make(map[string]*entities.ApplicationType),
		applications:     make(map[string]*entities.Application),
		panels:           make(map[string]*entities.Panel),
		blacklist:        make(map[string]*entities.BlacklistEntry),
	}
}

func (s *Store) Guilds() dataaccess.GuildDal                     { return (*guildDal)(s) }
func (s *Store) Tickets() dataaccess.TicketDal                   { return (*ticketDal)(s) }
func (s *Store) ApplicationTypes() dataaccess.ApplicationTypeDal { return (*applicationTypeDal)(s) }
func (s *Store) Applications() dataaccess.ApplicationDal         { return (*applicationDal)(s) }
func (s *Store) Panels() dataaccess.PanelDal                     { return (*panelDal)(s) }
func (s *Store) Blacklist() dataaccess.BlacklistDal              { return (*blacklistDal)(s) }

// PutGuild stores a guild directly.
func (s *Store) PutGuild(g *entities.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[g.ID] = copyGuild(g)
}

// PutTicket stores a ticket directly.
func (s *Store) PutTicket(t *entities.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ChannelID] = copyTicket(t)
}

// PutApplication stores an application directly.
func (s *Store) PutApplication(a *entities.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[a.ID] = copyApplication(a)
}

// PutApplicationType stores an application type directly.
func (s *Store) PutApplicationType(a *entities.ApplicationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applicationTypes[a.ID] = copyApplicationType(a)
}

func blacklistKey(guildID, userID string) string {
	return guildID + "/" + userID
}

func copyGuild(g *entities.Guild) *entities.Guild {
	c := *g
	c.SupportRoles = append(custom.Snowflakes{}, g.SupportRoles...)
	c.AutoRoles = append(custom.Snowflakes{}, g.AutoRoles...)
	return &c
}

func copyTicket(t *entities.Ticket) *entities.Ticket {
	c := *t
	if t.Rating != nil {
		r := *t.Rating
		c.Rating = &r
	}
	return &c
}

func copyApplicationType(a *entities.ApplicationType) *entities.ApplicationType {
	c := *a
	c.Questions = append([]entities.Question{}, a.Questions...)
	c.ReviewRoles = append(custom.Snowflakes{}, a.ReviewRoles...)
	c.PendingRoles = append(custom.Snowflakes{}, a.PendingRoles...)
	c.AcceptedRoles = append(custom.Snowflakes{}, a.AcceptedRoles...)
	c.DeniedRoles = append(custom.Snowflakes{}, a.DeniedRoles...)
	return &c
}

func copyApplication(a *entities.Application) *entities.Application {
	c := *a
	c.Answers = make(map[string]string, len(a.Answers))
	for k, v := range a.Answers {
		c.Answers[k] = v
	}
	return &c
}

func copyPanel(p *entities.Panel) *entities.Panel {
	c := *p
	c.TicketTypes = append([]entities.TicketType{}, p.TicketTypes...)
	return &c
}

type guildDal Store

func (d *guildDal) GetGuild(_ context.Context, guildID string) (*entities.Guild, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	g, ok := d.guilds[guildID]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return copyGuild(g), nil
}

// getOrCreate must be called with the lock held.
func (d *guildDal) getOrCreate(guildID string) *entities.Guild {
	g, ok := d.guilds[guildID]
	if !ok {
		g = entities.NewGuild(guildID)
		d.guilds[guildID] = g
	}
	return g
}

func (d *guildDal) GetOrCreateGuild(_ context.Context, guildID string) (*entities.Guild, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return copyGuild(d.getOrCreate(guildID)), nil
}

func (d *guildDal) UpdateGuild(_ context.Context, guildID string, update *entities.GuildUpdate) (*entities.Guild, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	g := d.getOrCreate(guildID)
	g.Apply(update)
	return copyGuild(g), nil
}

func (d *guildDal) AddGuildRole(_ context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}

	g := d.getOrCreate(guildID)
	roles, added := g.Roles(set).Add(roleID)
	g.SetRoles(set, roles)
	return added, nil
}

func (d *guildDal) RemoveGuildRole(_ context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}

	g, ok := d.guilds[guildID]
	if !ok {
		return false, nil
	}
	roles, removed := g.Roles(set).Remove(roleID)
	g.SetRoles(set, roles)
	return removed, nil
}

func (d *guildDal) IncrementTicketCounter(_ context.Context, guildID string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}

	g := d.getOrCreate(guildID)
	g.TicketCounter++
	return g.TicketCounter, nil
}

func (d *guildDal) ListAutoCloseGuilds(_ context.Context) ([]*entities.Guild, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	out := make([]*entities.Guild, 0)
	for _, g := range d.guilds {
		if g.AutoCloseHours > 0 {
			out = append(out, copyGuild(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type ticketDal Store

func (d *ticketDal) CreateTicket(_ context.Context, ticket *entities.Ticket) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	if _, ok := d.tickets[ticket.ChannelID]; ok {
		return dataaccess.ErrDuplicate
	}
	for _, t := range d.tickets {
		if t.GuildID == ticket.GuildID && t.Number == ticket.Number {
			return dataaccess.ErrDuplicate
		}
	}
	d.tickets[ticket.ChannelID] = copyTicket(ticket)
	return nil
}

func (d *ticketDal) GetTicketByChannel(_ context.Context, channelID string) (*entities.Ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	t, ok := d.tickets[channelID]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return copyTicket(t), nil
}

func (d *ticketDal) CountOpenTickets(_ context.Context, guildID, userID string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}

	var n int64
	for _, t := range d.tickets {
		if t.GuildID == guildID && t.UserID == userID && t.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (d *ticketDal) ClaimTicket(_ context.Context, channelID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	t, ok := d.tickets[channelID]
	if !ok || !t.IsOpen() || t.IsClaimed() {
		return dataaccess.ErrNoMatch
	}
	t.ClaimedBy = userID
	return nil
}

func (d *ticketDal) UnclaimTicket(_ context.Context, channelID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	t, ok := d.tickets[channelID]
	if !ok || !t.IsOpen() || !t.IsClaimed() {
		return dataaccess.ErrNoMatch
	}
	t.ClaimedBy = ""
	return nil
}

func (d *ticketDal) CloseTicket(_ context.Context, channelID string, close *entities.TicketClose) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	t, ok := d.tickets[channelID]
	if !ok || !t.IsOpen() {
		return dataaccess.ErrNoMatch
	}
	t.Status = entities.TicketStatusClosed
	t.ClosedBy = close.ClosedBy
	t.CloseReason = close.Reason
	t.TranscriptPath = close.TranscriptPath
	t.ClosedAt = close.ClosedAt
	return nil
}

func (d *ticketDal) UpdateTicket(_ context.Context, channelID string, update *entities.TicketUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	t, ok := d.tickets[channelID]
	if !ok {
		return dataaccess.ErrNotFound
	}
	t.Apply(update)
	return nil
}

func (d *ticketDal) ListTickets(_ context.Context, filter entities.TicketFilter, page entities.Page) ([]*entities.Ticket, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}

	matched := make([]*entities.Ticket, 0)
	for _, t := range d.tickets {
		if t.GuildID != filter.GuildID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		matched = append(matched, copyTicket(t))
	}

	// Newest first, falling back to the sequence number for tickets created in the same millisecond.
	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].CreatedAt.Time(), matched[j].CreatedAt.Time()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matched[i].Number > matched[j].Number
	})

	return paginate(matched, page), int64(len(matched)), nil
}

func (d *ticketDal) TicketStats(_ context.Context, guildID string) (*entities.TicketStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	stats := new(entities.TicketStats)
	var sum int
	for _, t := range d.tickets {
		if t.GuildID != guildID {
			continue
		}
		if t.IsOpen() {
			stats.Open++
		} else {
			stats.Closed++
		}
		if t.Rating != nil {
			sum += *t.Rating
			stats.Rated++
		}
	}
	if stats.Rated > 0 {
		stats.AverageRating = dataaccess.RoundRating(float64(sum) / float64(stats.Rated))
	}
	return stats, nil
}

func (d *ticketDal) ListInactiveTickets(_ context.Context, guildID string, before time.Time) ([]*entities.Ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	out := make([]*entities.Ticket, 0)
	for _, t := range d.tickets {
		if t.GuildID == guildID && t.IsOpen() && t.LastActivityAt.Time().Before(before) {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type applicationTypeDal Store

func (d *applicationTypeDal) CreateApplicationType(_ context.Context, appType *entities.ApplicationType) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	for _, at := range d.applicationTypes {
		if at.GuildID == appType.GuildID && at.Name == appType.Name {
			return dataaccess.ErrDuplicate
		}
	}
	if appType.Questions == nil {
		appType.Questions = []entities.Question{}
	}
	d.applicationTypes[appType.ID] = copyApplicationType(appType)
	return nil
}

func (d *applicationTypeDal) GetApplicationType(_ context.Context, id string) (*entities.ApplicationType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	at, ok := d.applicationTypes[id]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return copyApplicationType(at), nil
}

func (d *applicationTypeDal) GetApplicationTypeByName(_ context.Context, guildID, name string) (*entities.ApplicationType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	for _, at := range d.applicationTypes {
		if at.GuildID == guildID && at.Name == name {
			return copyApplicationType(at), nil
		}
	}
	return nil, dataaccess.ErrNotFound
}

func (d *applicationTypeDal) ListApplicationTypes(_ context.Context, guildID string) ([]*entities.ApplicationType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	out := make([]*entities.ApplicationType, 0)
	for _, at := range d.applicationTypes {
		if at.GuildID == guildID {
			out = append(out, copyApplicationType(at))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *applicationTypeDal) UpdateApplicationType(_ context.Context, id string, update *entities.ApplicationTypeUpdate) (*entities.ApplicationType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	at, ok := d.applicationTypes[id]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	if update.Name != nil {
		for _, other := range d.applicationTypes {
			if other.ID != id && other.GuildID == at.GuildID && other.Name == *update.Name {
				return nil, dataaccess.ErrDuplicate
			}
		}
	}
	at.Apply(update)
	return copyApplicationType(at), nil
}

func (d *applicationTypeDal) DeleteApplicationType(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	if _, ok := d.applicationTypes[id]; !ok {
		return dataaccess.ErrNotFound
	}
	delete(d.applicationTypes, id)
	return nil
}

func (d *applicationTypeDal) AddQuestion(_ context.Context, id string, question entities.Question, expectedCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	at, ok := d.applicationTypes[id]
	if !ok || len(at.Questions) != expectedCount {
		return dataaccess.ErrNoMatch
	}
	at.Questions = append(at.Questions, question)
	return nil
}

func (d *applicationTypeDal) ReplaceQuestions(_ context.Context, id string, questions []entities.Question, expectedCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	at, ok := d.applicationTypes[id]
	if !ok || len(at.Questions) != expectedCount {
		return dataaccess.ErrNoMatch
	}
	at.Questions = append([]entities.Question{}, questions...)
	return nil
}

type applicationDal Store

func (d *applicationDal) CreateApplication(_ context.Context, app *entities.Application) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	if _, ok := d.applications[app.ID]; ok {
		return dataaccess.ErrDuplicate
	}
	d.applications[app.ID] = copyApplication(app)
	return nil
}

func (d *applicationDal) GetApplication(_ context.Context, id string) (*entities.Application, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	a, ok := d.applications[id]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return copyApplication(a), nil
}

func (d *applicationDal) GetLatestApplication(_ context.Context, guildID, userID, appTypeID string) (*entities.Application, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	var latest *entities.Application
	for _, a := range d.applications {
		if a.GuildID != guildID || a.UserID != userID || a.ApplicationTypeID != appTypeID {
			continue
		}
		if latest == nil || a.CreatedAt.Time().After(latest.CreatedAt.Time()) {
			latest = a
		}
	}
	if latest == nil {
		return nil, dataaccess.ErrNotFound
	}
	return copyApplication(latest), nil
}

func (d *applicationDal) GetApplicationByChannel(_ context.Context, channelID string) (*entities.Application, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	for _, a := range d.applications {
		if channelID != "" && a.TicketChannelID == channelID {
			return copyApplication(a), nil
		}
	}
	return nil, dataaccess.ErrNotFound
}

func (d *applicationDal) ReviewApplication(_ context.Context, id string, review *entities.ApplicationReview) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	a, ok := d.applications[id]
	if !ok || a.Status != entities.ApplicationPending {
		return dataaccess.ErrNoMatch
	}
	a.Status = review.Status
	a.ReviewedBy = review.ReviewedBy
	a.ReviewReason = review.Reason
	a.ReviewedAt = review.ReviewedAt
	return nil
}

func (d *applicationDal) matches(a *entities.Application, f entities.ApplicationFilter) bool {
	if a.GuildID != f.GuildID {
		return false
	}
	if f.ApplicationTypeID != "" && a.ApplicationTypeID != f.ApplicationTypeID {
		return false
	}
	return f.Status == "" || a.Status == f.Status
}

func (d *applicationDal) ListApplications(_ context.Context, filter entities.ApplicationFilter, page entities.Page) ([]*entities.Application, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, 0, d.Err
	}

	matched := make([]*entities.Application, 0)
	for _, a := range d.applications {
		if d.matches(a, filter) {
			matched = append(matched, copyApplication(a))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Time().After(matched[j].CreatedAt.Time())
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (d *applicationDal) CountApplications(_ context.Context, filter entities.ApplicationFilter) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}

	var n int64
	for _, a := range d.applications {
		if d.matches(a, filter) {
			n++
		}
	}
	return n, nil
}

type panelDal Store

func (d *panelDal) CreatePanel(_ context.Context, panel *entities.Panel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	d.panels[panel.ID] = copyPanel(panel)
	return nil
}

func (d *panelDal) GetPanel(_ context.Context, id string) (*entities.Panel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	p, ok := d.panels[id]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return copyPanel(p), nil
}

func (d *panelDal) GetPanelByMessage(_ context.Context, messageID string) (*entities.Panel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	for _, p := range d.panels {
		if p.MessageID == messageID {
			return copyPanel(p), nil
		}
	}
	return nil, dataaccess.ErrNotFound
}

func (d *panelDal) ListPanels(_ context.Context, guildID string) ([]*entities.Panel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	out := make([]*entities.Panel, 0)
	for _, p := range d.panels {
		if p.GuildID == guildID {
			out = append(out, copyPanel(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time().Before(out[j].CreatedAt.Time()) })
	return out, nil
}

func (d *panelDal) DeletePanel(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	if _, ok := d.panels[id]; !ok {
		return dataaccess.ErrNotFound
	}
	delete(d.panels, id)
	return nil
}

type blacklistDal Store

func (d *blacklistDal) GetBlacklistEntry(_ context.Context, guildID, userID string) (*entities.BlacklistEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	e, ok := d.blacklist[blacklistKey(guildID, userID)]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (d *blacklistDal) AddBlacklistEntry(_ context.Context, entry *entities.BlacklistEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	c := *entry
	d.blacklist[blacklistKey(entry.GuildID, entry.UserID)] = &c
	return nil
}

func (d *blacklistDal) RemoveBlacklistEntry(_ context.Context, guildID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}

	key := blacklistKey(guildID, userID)
	if _, ok := d.blacklist[key]; !ok {
		return dataaccess.ErrNotFound
	}
	delete(d.blacklist, key)
	return nil
}

func (d *blacklistDal) ListBlacklist(_ context.Context, guildID string) ([]*entities.BlacklistEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}

	out := make([]*entities.BlacklistEntry, 0)
	for _, e := range d.blacklist {
		if e.GuildID == guildID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func paginate[T any](items []T, page entities.Page) []T {
	page = page.Normalise()
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
