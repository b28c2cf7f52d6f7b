package main

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
)

const (
	claimCmdName          = "claim"
	unclaimCmdName        = "unclaim"
	closeCmdName          = "close"
	addCmdName            = "add"
	removeCmdName         = "remove"
	priorityCmdName       = "priority"
	renameCmdName         = "rename"
	transcriptCmdName     = "transcript"
	panelCmdName          = "panel"
	ticketSettingsCmdName = "ticketsettings"
	appSetupCmdName       = "appsetup"
	appQuestionsCmdName   = "appquestions"
	appSettingsCmdName    = "appsettings"
	roleCmdName           = "role"
)

// Option names shared by several commands.
const (
	optUser        = "user"
	optRole        = "role"
	optChannel     = "channel"
	optReason      = "reason"
	optApplication = "application"
)

var (
	manageGuild = permissions.ManageGuild
	manageRoles = int64(discordgo.PermissionManageRoles)
)

func floatPtr(f float64) *float64 {
	return &f
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        optUser,
		Type:        discordgo.ApplicationCommandOptionUser,
		Description: description,
		Required:    true,
	}
}

func roleOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        optRole,
		Type:        discordgo.ApplicationCommandOptionRole,
		Description: description,
		Required:    true,
	}
}

func textChannelOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:         name,
		Type:         discordgo.ApplicationCommandOptionChannel,
		Description:  description,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		Required:     required,
	}
}

func reasonOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        optReason,
		Type:        discordgo.ApplicationCommandOptionString,
		Description: description,
	}
}

func applicationOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        optApplication,
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "Application type name",
		Required:    true,
	}
}

func subCommand(name, description string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Description: description,
		Options:     opts,
	}
}

var ticketCommands = []*discordgo.ApplicationCommand{
	{
		Name:        claimCmdName,
		Description: "Claim the current ticket",
	},
	{
		Name:        unclaimCmdName,
		Description: "Release your claim on the current ticket",
	},
	{
		Name:        closeCmdName,
		Description: "Close the current ticket",
		Options:     []*discordgo.ApplicationCommandOption{reasonOption("Reason for closing")},
	},
	{
		Name:        addCmdName,
		Description: "Add a user to the current ticket",
		Options:     []*discordgo.ApplicationCommandOption{userOption("User to add")},
	},
	{
		Name:        removeCmdName,
		Description: "Remove a user from the current ticket",
		Options:     []*discordgo.ApplicationCommandOption{userOption("User to remove")},
	},
	{
		Name:        priorityCmdName,
		Description: "Set the priority of the current ticket",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "level",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Priority level",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Low", Value: string(entities.PriorityLow)},
					{Name: "Normal", Value: string(entities.PriorityNormal)},
					{Name: "High", Value: string(entities.PriorityHigh)},
					{Name: "Urgent", Value: string(entities.PriorityUrgent)},
				},
			},
		},
	},
	{
		Name:        renameCmdName,
		Description: "Rename the current ticket",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "name",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "New channel name",
				Required:    true,
				MaxLength:   entities.MaxChannelNameLength,
			},
		},
	},
	{
		Name:        transcriptCmdName,
		Description: "Generate a transcript of the current ticket",
	},
	{
		Name:                     panelCmdName,
		Description:              "Post a ticket panel in this channel",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "type",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Ticket type name (e.g. support, report)",
				Required:    true,
			},
			{
				Name:        "title",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Panel title",
				Required:    true,
			},
			{
				Name:        "description",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Panel description",
				Required:    true,
			},
			{
				Name:        "button_label",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Button text",
				MaxLength:   entities.MaxPanelLabelLength,
			},
			{
				Name:        "button_color",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Button color",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Blue", Value: string(entities.ButtonPrimary)},
					{Name: "Grey", Value: string(entities.ButtonSecondary)},
					{Name: "Green", Value: string(entities.ButtonSuccess)},
					{Name: "Red", Value: string(entities.ButtonDanger)},
				},
			},
			{
				Name:         "category",
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Category for tickets of this type",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
			},
		},
	},
	{
		Name:                     ticketSettingsCmdName,
		Description:              "Configure the ticket system",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			subCommand("view", "View the current settings"),
			subCommand("logs", "Set the ticket log channel", textChannelOption(optChannel, "Log channel", true)),
			subCommand("transcripts", "Set the transcript channel", textChannelOption(optChannel, "Transcript channel", true)),
			subCommand("category", "Set the category new tickets are created in", &discordgo.ApplicationCommandOption{
				Name:         "category",
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Ticket category",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
				Required:     true,
			}),
			subCommand("limit", "Set how many open tickets a user can have", &discordgo.ApplicationCommandOption{
				Name:        "limit",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "Maximum open tickets per user",
				MinValue:    floatPtr(entities.MinTicketLimit),
				MaxValue:    entities.MaxTicketLimit,
				Required:    true,
			}),
			subCommand("autoclose", "Close tickets after a period of inactivity", &discordgo.ApplicationCommandOption{
				Name:        "hours",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "Hours of inactivity (0 disables)",
				MinValue:    floatPtr(0),
				MaxValue:    entities.MaxAutoCloseHours,
				Required:    true,
			}),
			subCommand("addrole", "Add a support role", roleOption("Support role")),
			subCommand("removerole", "Remove a support role", roleOption("Support role")),
			subCommand("autorole", "Add a role given to new members", roleOption("Role")),
			subCommand("removeautorole", "Stop giving a role to new members", roleOption("Role")),
			subCommand("blacklist", "Stop a user from opening tickets", userOption("User to blacklist"), reasonOption("Reason")),
			subCommand("unblacklist", "Allow a user to open tickets again", userOption("User to remove from the blacklist")),
		},
	},
}

var applicationCommands = []*discordgo.ApplicationCommand{
	{
		Name:                     appSetupCmdName,
		Description:              "Create a new application type",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "name",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Name of the application (e.g. Staff, Moderator)",
				Required:    true,
				MaxLength:   entities.MaxApplicationNameLength,
			},
			{
				Name:        "description",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Description shown on the application panel",
				Required:    true,
			},
			textChannelOption("log_channel", "Channel for application logs", false),
			{
				Name:        "cooldown",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: fmt.Sprintf("Hours between applications (default: %d)", entities.DefaultCooldownHours),
				MinValue:    floatPtr(0),
				MaxValue:    entities.MaxCooldownHours,
			},
			{
				Name:        "create_ticket",
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Description: "Create a ticket on submission (default: true)",
			},
		},
	},
	{
		Name:                     appQuestionsCmdName,
		Description:              "Manage application questions",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			subCommand("add", "Add a question to an application",
				applicationOption(),
				&discordgo.ApplicationCommandOption{
					Name:        "question",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The question to ask",
					Required:    true,
					MaxLength:   entities.ModalTextMaxLength,
				},
				&discordgo.ApplicationCommandOption{
					Name:        "type",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Question type",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Short answer", Value: string(entities.QuestionShort)},
						{Name: "Paragraph", Value: string(entities.QuestionParagraph)},
					},
				},
				&discordgo.ApplicationCommandOption{
					Name:        "required",
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Description: "Is this question required? (default: true)",
				},
			),
			subCommand("remove", "Remove a question from an application",
				applicationOption(),
				&discordgo.ApplicationCommandOption{
					Name:        "number",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Description: "Question number to remove",
					Required:    true,
					MinValue:    floatPtr(1),
					MaxValue:    entities.MaxQuestions,
				},
			),
			subCommand("list", "List all questions for an application", applicationOption()),
		},
	},
	{
		Name:                     appSettingsCmdName,
		Description:              "Manage application settings",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			subCommand("list", "List all application types"),
			subCommand("view", "View settings for an application", applicationOption()),
			subCommand("panel", "Deploy an application panel in this channel", applicationOption()),
			subCommand("addrole", "Add a review role", applicationOption(), roleOption("Role that can review applications")),
			subCommand("removerole", "Remove a review role", applicationOption(), roleOption("Role to remove")),
			subCommand("outcome", "Set the roles given at each stage of an application",
				applicationOption(),
				&discordgo.ApplicationCommandOption{
					Name:        "stage",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Application stage",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Pending", Value: string(entities.ApplicationPending)},
						{Name: "Accepted", Value: string(entities.ApplicationAccepted)},
						{Name: "Denied", Value: string(entities.ApplicationDenied)},
					},
				},
				&discordgo.ApplicationCommandOption{
					Name:        "role",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "Role to give (leave empty to clear)",
				},
				&discordgo.ApplicationCommandOption{
					Name:        "second_role",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "A second role to give",
				},
			),
			subCommand("logs", "Set the log channel of an application", applicationOption(), textChannelOption(optChannel, "Log channel", true)),
			subCommand("toggle", "Enable or disable an application", applicationOption()),
			subCommand("delete", "Delete an application type", applicationOption()),
		},
	},
}

var roleCommand = &discordgo.ApplicationCommand{
	Name:                     roleCmdName,
	Description:              "Manage roles for users",
	DefaultMemberPermissions: &manageRoles,
	Options: []*discordgo.ApplicationCommandOption{
		subCommand("give", "Give a role to a user", userOption("The user to give the role to"), roleOption("The role to give"), reasonOption("Reason for giving the role")),
		subCommand("remove", "Remove a role from a user", userOption("The user to remove the role from"), roleOption("The role to remove"), reasonOption("Reason for removing the role")),
	},
}

// slashCommands are every command registered in a guild.
func slashCommands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(ticketCommands)+len(applicationCommands)+1)
	cmds = append(cmds, ticketCommands...)
	cmds = append(cmds, applicationCommands...)
	cmds = append(cmds, roleCommand)
	for _, c := range cmds {
		c.Type = discordgo.ChatApplicationCommand
	}
	return cmds
}

// registerCommands replaces the guild's commands with the current set.
func registerCommands(a IApp, guildID string) error {
	if _, err := a.Session().ApplicationCommandBulkOverwrite(a.Config().ApplicationId, guildID, slashCommands()); err != nil {
		return fmt.Errorf("error registering commands for guild %s: %w", guildID, err)
	}
	return nil
}

// newRouter maps every command and component to its processor.
func newRouter() *router {
	return &router{
		commands: map[string]interactionProcessor{
			claimCmdName:          claimCmd,
			unclaimCmdName:        unclaimCmd,
			closeCmdName:          closeCmd,
			addCmdName:            addMemberCmd,
			removeCmdName:         removeMemberCmd,
			priorityCmdName:       priorityCmd,
			renameCmdName:         renameCmd,
			transcriptCmdName:     transcriptCmd,
			panelCmdName:          panelCmd,
			ticketSettingsCmdName: ticketSettingsCmd,
			appSetupCmdName:       appSetupCmd,
			appQuestionsCmdName:   appQuestionsCmd,
			appSettingsCmdName:    appSettingsCmd,
			roleCmdName:           roleCmd,
		},
		components: map[string]interactionProcessor{
			messages.TicketCloseID:  closeButton,
			messages.TicketClaimID:  claimButton,
			messages.TicketDeleteID: deleteButton,
			messages.TicketSelectID: ticketSelect,
		},
		prefixes: []prefixRoute{
			{prefix: messages.CreateTicketPrefix, processor: ticketButton},
			{prefix: messages.FeedbackPrefix, processor: feedbackButton},
			{prefix: messages.ApplicationStartPrefix, processor: applyButton},
			{prefix: messages.AcceptPrefix, processor: acceptButton},
			{prefix: messages.DenyPrefix, processor: denyButton},
		},
		modals: []prefixRoute{
			{prefix: messages.ApplicationSubmitPrefix, processor: applicationModal},
		},
	}
}
