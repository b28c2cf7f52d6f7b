package main

import (
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
)

func respondSlashEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondEmbed replies with the embeds, visible only to the user when ephemeral is set.
func respondEmbed(a IApp, i *discordgo.InteractionCreate, ephemeral bool, embeds ...*discordgo.MessageEmbed) error {
	data := &discordgo.InteractionResponseData{Embeds: embeds}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// deferReply acknowledges the interaction so that work taking longer than the response window can finish. The result
// is sent with followup.
func deferReply(a IApp, i *discordgo.InteractionCreate, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := a.Session().InteractionRespond(i.Interaction, resp); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}
	return nil
}

func followup(a IApp, i *discordgo.InteractionCreate, params *discordgo.WebhookParams) error {
	if _, err := a.Session().FollowupMessageCreate(i.Interaction, true, params); err != nil {
		return fmt.Errorf("error sending followup: %w", err)
	}
	return nil
}

func followupEmbed(a IApp, i *discordgo.InteractionCreate, embeds ...*discordgo.MessageEmbed) error {
	return followup(a, i, &discordgo.WebhookParams{Embeds: embeds})
}

// replyError shows text to the user. Interactions that were already acknowledged get a followup instead.
func replyError(a IApp, i *discordgo.InteractionCreate, text string) {
	embed := messages.Error(text)
	if err := respondEmbed(a, i, true, embed); err == nil {
		return
	}
	err := followup(a, i, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}

func actorOf(i *discordgo.InteractionCreate) permissions.Actor {
	return permissions.NewActor(i.Member)
}

// requireManageGuild rejects members without the administrator or manage server permission.
func requireManageGuild(i *discordgo.InteractionCreate) error {
	if !permissions.CanManageGuild(i.Member.Permissions) {
		return entities.ErrPermissionDenied
	}
	return nil
}

// options indexes command options by name.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	o := make(options, len(opts))
	for _, opt := range opts {
		o[opt.Name] = opt
	}
	return o
}

// commandOptions returns the options of the command. When the command was invoked through a sub command its name is
// returned along with the sub command's options.
func commandOptions(i *discordgo.InteractionCreate) (string, options) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 1 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return data.Options[0].Name, newOptions(data.Options[0].Options)
	}
	return "", newOptions(data.Options)
}

// String returns the string value of the option. User, role and channel options hold the ID.
func (o options) String(name string) string {
	opt, ok := o[name]
	if !ok || opt.Value == nil {
		return ""
	}
	if v, ok := opt.Value.(string); ok {
		return v
	}
	return fmt.Sprint(opt.Value)
}

func (o options) Int(name string) (int, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	switch v := opt.Value.(type) {
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func (o options) Bool(name string) (bool, bool) {
	opt, ok := o[name]
	if !ok {
		return false, false
	}
	v, ok := opt.Value.(bool)
	return v, ok
}

// modalValues returns the text input values of a submitted modal keyed by custom ID.
func modalValues(i *discordgo.InteractionCreate) map[string]string {
	values := make(map[string]string)
	for _, c := range i.ModalSubmitData().Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if input, ok := rc.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}
