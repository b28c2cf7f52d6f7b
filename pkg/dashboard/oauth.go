package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

const discordAPI = "https://discord.com/api"

// discordEndpoint is Discord's OAuth2 endpoint.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:   discordAPI + "/oauth2/authorize",
	TokenURL:  discordAPI + "/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Authenticator logs dashboard users in through Discord.
type Authenticator interface {
	// AuthCodeURL is where the user is sent to approve the login.
	AuthCodeURL(state string) string

	// Identify exchanges the code for the user and the guilds they are in.
	Identify(ctx context.Context, code string) (*User, []Guild, error)
}

type discordAuth struct {
	cfg     *oauth2.Config
	apiBase string
}

// NewDiscordAuth creates an authenticator for the identify and guilds scopes.
func NewDiscordAuth(clientID, clientSecret, redirectURL string) Authenticator {
	return newDiscordAuth(clientID, clientSecret, redirectURL, discordEndpoint, discordAPI)
}

func newDiscordAuth(clientID, clientSecret, redirectURL string, endpoint oauth2.Endpoint, apiBase string) *discordAuth {
	return &discordAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint:     endpoint,
		},
		apiBase: apiBase,
	}
}

func (d *discordAuth) AuthCodeURL(state string) string {
	return d.cfg.AuthCodeURL(state)
}

func (d *discordAuth) Identify(ctx context.Context, code string) (*User, []Guild, error) {
	token, err := d.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("error exchanging code: %w", err)
	}
	client := d.cfg.Client(ctx, token)

	user := new(User)
	if err := d.get(ctx, client, "/users/@me", user); err != nil {
		return nil, nil, err
	}

	var guilds []Guild
	if err := d.get(ctx, client, "/users/@me/guilds", &guilds); err != nil {
		return nil, nil, err
	}
	return user, guilds, nil
}

func (d *discordAuth) get(ctx context.Context, client *http.Client, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiBase+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}
