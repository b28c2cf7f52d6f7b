package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/stretchr/testify/require"
)

func TestFetchAll_PagesInChronologicalOrder(t *testing.T) {
	client := platformtest.NewClient()
	for i := 1; i <= 250; i++ {
		client.AddMessage("c1", &discordgo.Message{
			ID:      fmt.Sprintf("m%03d", i),
			Content: fmt.Sprintf("message %d", i),
		})
	}

	msgs, err := FetchAll(context.Background(), client, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 250)
	require.Equal(t, "m001", msgs[0].ID)
	require.Equal(t, "m250", msgs[249].ID)
}

func TestFetchAll_ExactPageBoundary(t *testing.T) {
	client := platformtest.NewClient()
	for i := 1; i <= PageSize; i++ {
		client.AddMessage("c1", &discordgo.Message{ID: fmt.Sprintf("m%03d", i)})
	}

	msgs, err := FetchAll(context.Background(), client, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, PageSize)
}

func TestFetchAll_Error(t *testing.T) {
	client := platformtest.NewClient()
	client.Errs["ChannelMessages"] = fmt.Errorf("boom")

	_, err := FetchAll(context.Background(), client, "c1")
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	client := platformtest.NewClient()
	client.AddMessage("c1", &discordgo.Message{
		ID:      "1",
		Content: "<script>alert(1)</script>hello\nworld & co",
		Author:  &discordgo.User{ID: "u1", Username: "<b>alice</b>"},
	})
	client.AddMessage("c1", &discordgo.Message{
		ID:     "2",
		Author: &discordgo.User{ID: "bot", Username: "rabbit", Bot: true},
		Embeds: []*discordgo.MessageEmbed{{
			Title:  "Ticket Closed",
			Fields: []*discordgo.MessageEmbedField{{Name: "Reason", Value: "done"}},
		}},
		Attachments: []*discordgo.MessageAttachment{{URL: "https://cdn.example/a.png", Filename: "a.png", Size: 1536}},
	})

	g := NewGenerator(slog.Default(), client, dir)
	g.now = func() time.Time { return time.UnixMilli(1700000000000) }

	ticket := &entities.Ticket{
		ID:        "t1",
		ChannelID: "c1",
		Number:    7,
		CreatedAt: custom.NewDatetime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	}

	file, err := g.Generate(context.Background(), ticket, "ticket-7")
	require.NoError(t, err)
	require.Equal(t, "ticket-7-1700000000000.html", file.Name)
	require.Equal(t, filepath.Join(dir, file.Name), file.Path)
	require.Equal(t, 2, file.Messages)

	onDisk, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	require.Equal(t, file.Data, onDisk)

	html := string(onDisk)
	require.Contains(t, html, "Ticket #7")
	require.Contains(t, html, "Channel: #ticket-7")
	require.Contains(t, html, "Created: 2024-01-02 03:04:05 UTC")
	require.Contains(t, html, "Closed: N/A")
	require.Contains(t, html, "Total Messages: 2")
	require.NotContains(t, html, "<script>")
	require.NotContains(t, html, "<b>alice</b>")
	require.Contains(t, html, "hello<br>world &amp; co")
	require.Contains(t, html, `<span class="bot-tag">BOT</span>`)
	require.Contains(t, html, "Ticket Closed")
	require.Contains(t, html, "a.png</a> (1.5 KB)")
	require.True(t, strings.Index(html, "hello") < strings.Index(html, "Ticket Closed"))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{in: 0, want: "0 Bytes"},
		{in: 500, want: "500 Bytes"},
		{in: 1024, want: "1 KB"},
		{in: 1536, want: "1.5 KB"},
		{in: 1048576, want: "1 MB"},
		{in: 5 * 1024 * 1024 * 1024, want: "5 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}
