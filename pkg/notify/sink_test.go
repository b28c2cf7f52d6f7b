package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
	"github.com/stretchr/testify/require"
)

func TestSink_TicketAction(t *testing.T) {
	client := platformtest.NewClient()
	s := NewSink(slog.Default(), client)
	ticket := &entities.Ticket{Number: 3, UserID: "u1"}

	s.TicketAction(context.Background(), &entities.Guild{}, "Created", ticket, "u1")
	require.Empty(t, client.Messages)

	s.TicketAction(context.Background(), &entities.Guild{LogChannelID: "log"}, "Created", ticket, "u1")
	sent := client.Sent("log")
	require.Len(t, sent, 1)
	require.Equal(t, "Ticket Created", sent[0].Embeds[0].Title)
}

func TestSink_SwallowsErrors(t *testing.T) {
	client := platformtest.NewClient()
	client.Errs["SendMessage"] = errors.New("missing access")
	client.Errs["DirectMessage"] = errors.New("cannot send messages to this user")
	s := NewSink(slog.Default(), client)

	require.NotPanics(t, func() {
		s.TicketAction(context.Background(), &entities.Guild{LogChannelID: "log"}, "Closed", &entities.Ticket{}, "u1")
		s.DirectMessage(context.Background(), "u1", &discordgo.MessageSend{Content: "hi"})
	})
}

func TestSink_TicketTranscript(t *testing.T) {
	client := platformtest.NewClient()
	s := NewSink(slog.Default(), client)
	file := &transcript.File{Name: "ticket-1-1.html", Data: []byte("<html></html>")}

	s.TicketTranscript(context.Background(), &entities.Guild{TranscriptChannelID: "tx"}, "Closed", &entities.Ticket{Number: 1}, "u1", "done", file)

	sent := client.Sent("tx")
	require.Len(t, sent, 1)
	require.Equal(t, "ticket-1-1.html", sent[0].Attachments[0].Filename)
}
