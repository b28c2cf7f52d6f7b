package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
)

func appSetupCmd(a IApp, i *discordgo.InteractionCreate) error {
	if err := requireManageGuild(i); err != nil {
		return err
	}

	ctx := context.Background()
	_, opts := commandOptions(i)

	at, err := a.Applications().CreateType(ctx, i.GuildID, opts.String("name"), opts.String("description"))
	if err != nil {
		return err
	}

	update := new(entities.ApplicationTypeUpdate)
	if channel := opts.String("log_channel"); channel != "" {
		update.LogChannelID = &channel
	}
	if cooldown, ok := opts.Int("cooldown"); ok {
		update.CooldownHours = &cooldown
	}
	if createTicket, ok := opts.Bool("create_ticket"); ok {
		update.CreateTicket = &createTicket
	}
	if !update.IsEmpty() {
		at, err = a.Applications().UpdateType(ctx, i.GuildID, at.ID, update)
		if err != nil {
			return err
		}
	}

	return respondEmbed(a, i, true,
		messages.Success(fmt.Sprintf("Application **%s** created. Add questions with `/%s add` then deploy it with `/%s panel`.",
			at.Name, appQuestionsCmdName, appSettingsCmdName)),
		messages.ApplicationTypeInfo(at),
	)
}

// applicationByName resolves the application option of a sub command.
func applicationByName(ctx context.Context, a IApp, i *discordgo.InteractionCreate, opts options) (*entities.ApplicationType, error) {
	return a.Applications().GetTypeByName(ctx, i.GuildID, opts.String(optApplication))
}

func appQuestionsCmd(a IApp, i *discordgo.InteractionCreate) error {
	if err := requireManageGuild(i); err != nil {
		return err
	}

	ctx := context.Background()
	sub, opts := commandOptions(i)
	apps := a.Applications()

	at, err := applicationByName(ctx, a, i, opts)
	if err != nil {
		return err
	}

	switch sub {
	case "add":
		required, ok := opts.Bool("required")
		if !ok {
			required = true
		}
		q, err := apps.AddQuestion(ctx, i.GuildID, at.ID, opts.String("question"), entities.QuestionType(opts.String("type")), required)
		if err != nil {
			return err
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("Question %d added to **%s**.", q.Order, at.Name)))
	case "remove":
		number, _ := opts.Int("number")
		q, err := apps.RemoveQuestion(ctx, i.GuildID, at.ID, number)
		if err != nil {
			return err
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("Removed question: %s", q.Text)))
	case "list":
		qs, err := apps.ListQuestions(ctx, i.GuildID, at.ID)
		if err != nil {
			return err
		}
		at.Questions = qs
		return respondEmbed(a, i, true, messages.QuestionList(at))
	default:
		return fmt.Errorf("unhandled sub command %s", sub)
	}
}

func appSettingsCmd(a IApp, i *discordgo.InteractionCreate) error {
	if err := requireManageGuild(i); err != nil {
		return err
	}

	ctx := context.Background()
	sub, opts := commandOptions(i)
	apps := a.Applications()

	if sub == "list" {
		types, err := apps.ListTypes(ctx, i.GuildID)
		if err != nil {
			return err
		}
		return respondEmbed(a, i, true, messages.ApplicationTypeList(types))
	}

	at, err := applicationByName(ctx, a, i, opts)
	if err != nil {
		return err
	}

	switch sub {
	case "view":
		return respondEmbed(a, i, true, messages.ApplicationTypeInfo(at))
	case "panel":
		if err := deferReply(a, i, true); err != nil {
			return err
		}
		if _, err := apps.DeployPanel(ctx, i.GuildID, at.ID, i.ChannelID); err != nil {
			return err
		}
		return followup(a, i, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{messages.Success(fmt.Sprintf("Application panel for **%s** deployed.", at.Name))},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	case "addrole":
		roleID := opts.String(optRole)
		_, added, err := apps.AddReviewRole(ctx, i.GuildID, at.ID, roleID)
		if err != nil {
			return err
		}
		if !added {
			return respondEmbed(a, i, true, messages.Info(fmt.Sprintf("%s can already review **%s**.", messages.Role(roleID), at.Name)))
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("%s can now review **%s**.", messages.Role(roleID), at.Name)))
	case "removerole":
		roleID := opts.String(optRole)
		_, removed, err := apps.RemoveReviewRole(ctx, i.GuildID, at.ID, roleID)
		if err != nil {
			return err
		}
		if !removed {
			return respondEmbed(a, i, true, messages.Info(fmt.Sprintf("%s was not a review role.", messages.Role(roleID))))
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("%s can no longer review **%s**.", messages.Role(roleID), at.Name)))
	case "outcome":
		return outcomeCmd(ctx, a, i, at, opts)
	case "logs":
		channel := opts.String(optChannel)
		if _, err := apps.UpdateType(ctx, i.GuildID, at.ID, &entities.ApplicationTypeUpdate{LogChannelID: &channel}); err != nil {
			return err
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("Logs for **%s** will be sent to %s.", at.Name, messages.Channel(channel))))
	case "toggle":
		updated, err := apps.ToggleType(ctx, i.GuildID, at.ID)
		if err != nil {
			return err
		}
		state := "disabled"
		if updated.Active {
			state = "enabled"
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("**%s** is now %s.", at.Name, state)))
	case "delete":
		deleted, err := apps.DeleteType(ctx, i.GuildID, at.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return respondEmbed(a, i, true, messages.Warning(fmt.Sprintf("**%s** has pending applications so it has been disabled instead.", at.Name)))
		}
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("**%s** has been deleted.", at.Name)))
	default:
		return fmt.Errorf("unhandled sub command %s", sub)
	}
}

// outcomeCmd sets the roles given when an application reaches a stage. Giving no role clears the stage.
func outcomeCmd(ctx context.Context, a IApp, i *discordgo.InteractionCreate, at *entities.ApplicationType, opts options) error {
	roles := custom.Snowflakes{}
	roles, _ = roles.Add(opts.String(optRole))
	roles, _ = roles.Add(opts.String("second_role"))

	update := new(entities.ApplicationTypeUpdate)
	stage := entities.ApplicationStatus(opts.String("stage"))
	switch stage {
	case entities.ApplicationPending:
		update.PendingRoles = &roles
	case entities.ApplicationAccepted:
		update.AcceptedRoles = &roles
	case entities.ApplicationDenied:
		update.DeniedRoles = &roles
	default:
		return entities.NewValidationError("stage", "must be pending, accepted or denied")
	}

	if _, err := a.Applications().UpdateType(ctx, i.GuildID, at.ID, update); err != nil {
		return err
	}
	if len(roles) == 0 {
		return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("No roles will be given for %s **%s** applications.", stage, at.Name)))
	}
	return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("Applications to **%s** will be given %s when %s.", at.Name, messages.Roles(roles), stage)))
}

func applyButton(a IApp, i *discordgo.InteractionCreate) error {
	typeID, ok := messages.ParseApplicationStartID(i.MessageComponentData().CustomID)
	if !ok {
		return entities.NewNotFoundError("application type")
	}

	form, err := a.Applications().Start(context.Background(), i.GuildID, typeID, i.Member.User.ID)
	if err != nil {
		return err
	}
	if err := a.Session().InteractionRespond(i.Interaction, form.Modal()); err != nil {
		return fmt.Errorf("error showing application form: %w", err)
	}
	return nil
}

func applicationModal(a IApp, i *discordgo.InteractionCreate) error {
	typeID, ok := messages.ParseApplicationSubmitID(i.ModalSubmitData().CustomID)
	if !ok {
		return entities.NewNotFoundError("application type")
	}

	answers := make(map[string]string)
	for customID, value := range modalValues(i) {
		if questionID, ok := messages.ParseQuestionID(customID); ok {
			answers[questionID] = value
		}
	}

	if err := deferReply(a, i, true); err != nil {
		return err
	}

	app, err := a.Applications().Submit(context.Background(), &applications.SubmitRequest{
		GuildID:     i.GuildID,
		TypeID:      typeID,
		ApplicantID: i.Member.User.ID,
		Answers:     answers,
	})
	if err != nil {
		return err
	}

	msg := "Your application has been submitted."
	if app.TicketChannelID != "" {
		msg = fmt.Sprintf("Your application has been submitted. Follow it in %s.", messages.Channel(app.TicketChannelID))
	}
	return followup(a, i, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{messages.Success(msg)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func acceptButton(a IApp, i *discordgo.InteractionCreate) error {
	typeID, ok := messages.ParseAcceptID(i.MessageComponentData().CustomID)
	if !ok {
		return entities.NewNotFoundError("application type")
	}
	return reviewApplication(a, i, typeID, entities.ApplicationAccepted)
}

func denyButton(a IApp, i *discordgo.InteractionCreate) error {
	typeID, ok := messages.ParseDenyID(i.MessageComponentData().CustomID)
	if !ok {
		return entities.NewNotFoundError("application type")
	}
	return reviewApplication(a, i, typeID, entities.ApplicationDenied)
}

func reviewApplication(a IApp, i *discordgo.InteractionCreate, typeID string, status entities.ApplicationStatus) error {
	ctx := context.Background()
	if err := a.Applications().CheckReview(ctx, i.GuildID, typeID, actorOf(i), i.ChannelID); err != nil {
		return err
	}
	if err := deferReply(a, i, false); err != nil {
		return err
	}

	review := a.Applications().Accept
	if status == entities.ApplicationDenied {
		review = a.Applications().Deny
	}

	app, err := review(ctx, i.GuildID, typeID, actorOf(i), i.ChannelID, "")
	if err != nil {
		return err
	}
	return followupEmbed(a, i, messages.Success(fmt.Sprintf("The application from %s has been %s by %s.",
		messages.User(app.UserID), app.Status, messages.User(i.Member.User.ID))))
}
