// Package platformtest provides a recording fake of platform.Client.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
)

// BotID is the user ID the fake reports for the bot.
const BotID = "bot"

// Client is an in-memory chat platform. Every method can be made to fail by setting Errs[<method name>].
type Client struct {
	mu sync.Mutex

	nextID int

	Channels   map[string]*discordgo.Channel
	Overwrites map[string]map[string][2]int64 // channel -> member -> allow/deny
	Messages   map[string][]*discordgo.Message // channel -> oldest first
	DMs        map[string][]*discordgo.MessageSend
	Roles      map[string][]string // guild/user -> roles
	Hierarchy  *platform.RoleHierarchy

	DeletedChannels []string
	DeletedMessages []string

	Errs map[string]error
}

// NewClient creates an empty fake. The bot sits above every role unless Hierarchy is replaced.
func NewClient() *Client {
	return &Client{
		Channels:   make(map[string]*discordgo.Channel),
		Overwrites: make(map[string]map[string][2]int64),
		Messages:   make(map[string][]*discordgo.Message),
		DMs:        make(map[string][]*discordgo.MessageSend),
		Roles:      make(map[string][]string),
		Hierarchy: &platform.RoleHierarchy{
			Positions:  map[string]int{},
			BotHighest: 1000,
		},
		Errs: make(map[string]error),
	}
}

var _ platform.Client = (*Client)(nil)

func (c *Client) id(prefix string) string {
	c.nextID++
	return fmt.Sprintf("%s-%d", prefix, c.nextID)
}

func memberKey(guildID, userID string) string {
	return guildID + "/" + userID
}

// Sent returns the messages sent to a channel, oldest first.
func (c *Client) Sent(channelID string) []*discordgo.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*discordgo.Message{}, c.Messages[channelID]...)
}

// DirectMessages returns the direct messages sent to a user.
func (c *Client) DirectMessages(userID string) []*discordgo.MessageSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*discordgo.MessageSend{}, c.DMs[userID]...)
}

// MemberOverwrite returns the allow and deny bits set for a member on a channel.
func (c *Client) MemberOverwrite(channelID, userID string) (allow, deny int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ow, ok := c.Overwrites[channelID][userID]
	return ow[0], ow[1], ok
}

// SetRoles sets the roles a member holds.
func (c *Client) SetRoles(guildID, userID string, roles ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Roles[memberKey(guildID, userID)] = roles
}

// AddChannel registers an existing text channel in a guild.
func (c *Client) AddChannel(guildID, channelID string) *discordgo.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := &discordgo.Channel{
		ID:      channelID,
		GuildID: guildID,
		Type:    discordgo.ChannelTypeGuildText,
	}
	c.Channels[channelID] = ch
	return ch
}

// AddMessage appends a message to a channel's history.
func (c *Client) AddMessage(channelID string, m *discordgo.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.ID == "" {
		m.ID = c.id("msg")
	}
	m.ChannelID = channelID
	c.Messages[channelID] = append(c.Messages[channelID], m)
}

func (c *Client) CreateChannel(_ context.Context, guildID, name, parentID string, overwrites []*discordgo.PermissionOverwrite) (*discordgo.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["CreateChannel"]; err != nil {
		return nil, err
	}

	ch := &discordgo.Channel{
		ID:                   c.id("chan"),
		GuildID:              guildID,
		Name:                 name,
		ParentID:             parentID,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: overwrites,
	}
	c.Channels[ch.ID] = ch
	return ch, nil
}

func (c *Client) RenameChannel(_ context.Context, channelID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["RenameChannel"]; err != nil {
		return err
	}

	ch, ok := c.Channels[channelID]
	if !ok {
		return platform.ErrUnknownResource
	}
	ch.Name = name
	return nil
}

func (c *Client) DeleteChannel(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["DeleteChannel"]; err != nil {
		return err
	}

	delete(c.Channels, channelID)
	c.DeletedChannels = append(c.DeletedChannels, channelID)
	return nil
}

func (c *Client) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["Channel"]; err != nil {
		return nil, err
	}

	ch, ok := c.Channels[channelID]
	if !ok {
		return nil, platform.ErrUnknownResource
	}
	cp := *ch
	return &cp, nil
}

func (c *Client) SetMemberOverwrite(_ context.Context, channelID, userID string, allow, deny int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["SetMemberOverwrite"]; err != nil {
		return err
	}

	if c.Overwrites[channelID] == nil {
		c.Overwrites[channelID] = make(map[string][2]int64)
	}
	c.Overwrites[channelID][userID] = [2]int64{allow, deny}
	return nil
}

func (c *Client) DeleteOverwrite(_ context.Context, channelID, targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["DeleteOverwrite"]; err != nil {
		return err
	}

	delete(c.Overwrites[channelID], targetID)
	return nil
}

func (c *Client) SendMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["SendMessage"]; err != nil {
		return nil, err
	}

	m := &discordgo.Message{
		ID:         c.id("msg"),
		ChannelID:  channelID,
		Content:    msg.Content,
		Embeds:     msg.Embeds,
		Components: msg.Components,
		Author:     &discordgo.User{ID: BotID, Bot: true},
	}
	for _, f := range msg.Files {
		m.Attachments = append(m.Attachments, &discordgo.MessageAttachment{Filename: f.Name})
	}
	c.Messages[channelID] = append(c.Messages[channelID], m)
	return m, nil
}

func (c *Client) DeleteMessage(_ context.Context, channelID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["DeleteMessage"]; err != nil {
		return err
	}

	c.DeletedMessages = append(c.DeletedMessages, messageID)
	return nil
}

func (c *Client) DirectMessage(_ context.Context, userID string, msg *discordgo.MessageSend) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["DirectMessage"]; err != nil {
		return err
	}

	c.DMs[userID] = append(c.DMs[userID], msg)
	return nil
}

func (c *Client) ChannelMessages(_ context.Context, channelID, before string, limit int) ([]*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["ChannelMessages"]; err != nil {
		return nil, err
	}

	history := c.Messages[channelID]
	end := len(history)
	if before != "" {
		end = -1
		for i, m := range history {
			if m.ID == before {
				end = i
				break
			}
		}
		if end < 0 {
			return []*discordgo.Message{}, nil
		}
	}

	out := make([]*discordgo.Message, 0, limit)
	for i := end - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (c *Client) MemberRoles(_ context.Context, guildID, userID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["MemberRoles"]; err != nil {
		return nil, err
	}

	return append([]string{}, c.Roles[memberKey(guildID, userID)]...), nil
}

func (c *Client) AddMemberRole(_ context.Context, guildID, userID, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["AddMemberRole"]; err != nil {
		return err
	}

	key := memberKey(guildID, userID)
	for _, r := range c.Roles[key] {
		if r == roleID {
			return nil
		}
	}
	c.Roles[key] = append(c.Roles[key], roleID)
	return nil
}

func (c *Client) RemoveMemberRole(_ context.Context, guildID, userID, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["RemoveMemberRole"]; err != nil {
		return err
	}

	key := memberKey(guildID, userID)
	kept := make([]string, 0, len(c.Roles[key]))
	for _, r := range c.Roles[key] {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	c.Roles[key] = kept
	return nil
}

func (c *Client) RolePositions(_ context.Context, _ string) (*platform.RoleHierarchy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["RolePositions"]; err != nil {
		return nil, err
	}

	h := &platform.RoleHierarchy{
		Positions:  make(map[string]int, len(c.Hierarchy.Positions)),
		BotHighest: c.Hierarchy.BotHighest,
	}
	for k, v := range c.Hierarchy.Positions {
		h.Positions[k] = v
	}
	return h, nil
}

func (c *Client) BotUserID() string {
	return BotID
}
