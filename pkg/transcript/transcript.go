// Package transcript renders a ticket channel's history into a standalone HTML file.
package transcript

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/microcosm-cc/bluemonday"
)

// PageSize is the number of messages requested per history call.
const PageSize = 100

const timeLayout = "2006-01-02 15:04:05 UTC"

// File is a written transcript.
type File struct {
	// Path is where the transcript was written.
	Path string

	// Name is the base name of the file.
	Name string

	// Messages is the number of messages in the transcript.
	Messages int

	Data []byte
}

// Reader returns a reader over the rendered HTML, ready to attach to a message.
func (f *File) Reader() *bytes.Reader {
	return bytes.NewReader(f.Data)
}

// Generator fetches history and writes transcripts into a directory.
type Generator struct {
	l      *slog.Logger
	client platform.Client
	dir    string
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewGenerator(l *slog.Logger, client platform.Client, dir string) *Generator {
	return &Generator{
		l:      l,
		client: client,
		dir:    dir,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Generate fetches the full history of the ticket's channel and writes it to disk.
func (g *Generator) Generate(ctx context.Context, ticket *entities.Ticket, channelName string) (*File, error) {
	msgs, err := FetchAll(ctx, g.client, ticket.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("error fetching channel history: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := g.render(buf, ticket, channelName, msgs); err != nil {
		return nil, fmt.Errorf("error rendering transcript: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating transcript directory: %w", err)
	}

	name := fmt.Sprintf("ticket-%d-%d.html", ticket.Number, g.now().UnixMilli())
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("error writing transcript: %w", err)
	}

	g.l.Debug("transcript written",
		slog.Int(logging.KeyTicket, ticket.Number),
		slog.String("path", path),
		slog.Int("messages", len(msgs)),
	)

	return &File{
		Path:     path,
		Name:     name,
		Messages: len(msgs),
		Data:     buf.Bytes(),
	}, nil
}

// FetchAll pages backwards through a channel until a short page is returned. The result is oldest first.
func FetchAll(ctx context.Context, client platform.Client, channelID string) ([]*discordgo.Message, error) {
	all := make([]*discordgo.Message, 0)
	before := ""
	for {
		page, err := client.ChannelMessages(ctx, channelID, before, PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < PageSize {
			break
		}
		before = page[len(page)-1].ID
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// FormatBytes formats a size using 1024 based units and at most two decimals.
func FormatBytes(n int) string {
	if n <= 0 {
		return "0 Bytes"
	}

	units := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}

	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + units[i]
}

// text sanitises user content and keeps line breaks.
func (g *Generator) text(s string) template.HTML {
	clean := g.policy.Sanitize(s)
	// #nosec G203 -- the strict policy output contains no markup.
	return template.HTML(strings.ReplaceAll(clean, "\n", "<br>"))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(timeLayout)
}
