package transcript

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

const defaultEmbedColor = 0x5865F2

type page struct {
	Number   int
	Channel  string
	Created  string
	Closed   string
	Count    int
	Messages []message
}

type message struct {
	Author      string
	Avatar      string
	Bot         bool
	Timestamp   string
	Text        template.HTML
	Embeds      []embed
	Attachments []attachment
	Reactions   []reaction
}

type embed struct {
	Style       template.CSS
	Title       template.HTML
	Description template.HTML
	Fields      []field
}

type field struct {
	Name  template.HTML
	Value template.HTML
}

type attachment struct {
	URL  string
	Name string
	Size string
}

type reaction struct {
	Emoji string
	Count int
}

func (g *Generator) render(w io.Writer, ticket *entities.Ticket, channelName string, msgs []*discordgo.Message) error {
	p := page{
		Number:   ticket.Number,
		Channel:  channelName,
		Created:  formatTime(ticket.CreatedAt.Time()),
		Closed:   formatTime(ticket.ClosedAt.Time()),
		Count:    len(msgs),
		Messages: make([]message, 0, len(msgs)),
	}

	for _, m := range msgs {
		p.Messages = append(p.Messages, g.message(m))
	}

	return pageTemplate.Execute(w, p)
}

func (g *Generator) message(m *discordgo.Message) message {
	out := message{
		Author: "Unknown",
		Text:   g.text(m.Content),
	}

	if m.Author != nil {
		out.Author = m.Author.Username
		out.Avatar = m.Author.AvatarURL("64")
		out.Bot = m.Author.Bot
	}

	if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
		out.Timestamp = formatTime(ts)
	} else {
		out.Timestamp = formatTime(time.Time{})
	}

	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		color := e.Color
		if color == 0 {
			color = defaultEmbedColor
		}
		em := embed{
			// #nosec G203 -- built from an integer.
			Style:       template.CSS(fmt.Sprintf("border-left-color: #%06x", color)),
			Title:       g.text(e.Title),
			Description: g.text(e.Description),
		}
		for _, f := range e.Fields {
			if f == nil {
				continue
			}
			em.Fields = append(em.Fields, field{
				Name:  g.text(f.Name),
				Value: g.text(f.Value),
			})
		}
		out.Embeds = append(out.Embeds, em)
	}

	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		out.Attachments = append(out.Attachments, attachment{
			URL:  a.URL,
			Name: a.Filename,
			Size: FormatBytes(a.Size),
		})
	}

	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		out.Reactions = append(out.Reactions, reaction{
			Emoji: r.Emoji.Name,
			Count: r.Count,
		})
	}

	return out
}

var pageTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Transcript - Ticket #{{.Number}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #36393f; color: #dcddde; padding: 20px; }
.header { background: #2f3136; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
.header h1 { color: #fff; margin-bottom: 10px; }
.header p { color: #b9bbbe; }
.messages { display: flex; flex-direction: column; gap: 4px; }
.message { display: flex; padding: 8px 16px; border-radius: 4px; }
.message:hover { background: #32353b; }
.avatar { width: 40px; height: 40px; border-radius: 50%; margin-right: 16px; flex-shrink: 0; }
.content { flex: 1; min-width: 0; }
.author { display: flex; align-items: baseline; gap: 8px; margin-bottom: 4px; }
.username { color: #fff; font-weight: 500; }
.bot-tag { background: #5865f2; color: #fff; font-size: 10px; padding: 1px 4px; border-radius: 3px; }
.timestamp { color: #72767d; font-size: 12px; }
.text { line-height: 1.375; word-wrap: break-word; }
.embed { max-width: 520px; background: #2f3136; border-left: 4px solid #5865f2; border-radius: 4px; padding: 12px; margin-top: 8px; }
.embed-title { color: #fff; font-weight: 600; margin-bottom: 8px; }
.embed-field { margin-top: 8px; }
.embed-field-name { color: #fff; font-weight: 600; font-size: 14px; }
.embed-field-value { font-size: 14px; }
.attachment { margin-top: 8px; padding: 10px; background: #2f3136; border-radius: 4px; display: inline-block; }
.attachment a { color: #00b0f4; text-decoration: none; }
.reactions { display: flex; gap: 4px; margin-top: 8px; }
.reaction { background: #2f3136; border: 1px solid #40444b; border-radius: 8px; padding: 2px 6px; font-size: 14px; }
</style>
</head>
<body>
<div class="header">
<h1>Ticket #{{.Number}}</h1>
<p>Channel: #{{.Channel}}</p>
<p>Created: {{.Created}}</p>
<p>Closed: {{.Closed}}</p>
<p>Total Messages: {{.Count}}</p>
</div>
<div class="messages">
{{- range .Messages}}
<div class="message">
{{- if .Avatar}}<img class="avatar" src="{{.Avatar}}" alt="Avatar">{{end}}
<div class="content">
<div class="author"><span class="username">{{.Author}}</span>{{if .Bot}}<span class="bot-tag">BOT</span>{{end}}<span class="timestamp">{{.Timestamp}}</span></div>
{{- if .Text}}
<div class="text">{{.Text}}</div>
{{- end}}
{{- range .Embeds}}
<div class="embed" style="{{.Style}}">
{{- if .Title}}<div class="embed-title">{{.Title}}</div>{{end}}
{{- if .Description}}<div class="embed-description">{{.Description}}</div>{{end}}
{{- range .Fields}}<div class="embed-field"><div class="embed-field-name">{{.Name}}</div><div class="embed-field-value">{{.Value}}</div></div>{{end}}
</div>
{{- end}}
{{- range .Attachments}}
<div class="attachment"><a href="{{.URL}}" target="_blank">{{.Name}}</a> ({{.Size}})</div>
{{- end}}
{{- if .Reactions}}
<div class="reactions">{{range .Reactions}}<span class="reaction">{{.Emoji}} {{.Count}}</span>{{end}}</div>
{{- end}}
</div>
</div>
{{- end}}
</div>
</body>
</html>
`))
