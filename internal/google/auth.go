package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/tartampluch/birthday-sync/internal/config"
)

// The People, Calendar and Gmail adapters share one user consent, so the
// token is requested with all scopes at once and cached next to the
// credentials file.
var scopes = []string{
	people.ContactsReadonlyScope,
	calendar.CalendarEventsScope,
	gmail.GmailSendScope,
}

// clientOption authenticates against Google with the OAuth credentials at
// credentialsFile. The first run walks the user through the console consent
// flow and caches the resulting token; later runs reuse and refresh it.
func clientOption(ctx context.Context, credentialsFile string) (option.ClientOption, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCredentialsRead, err)
	}
	conf, err := goauth.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, err
	}

	tokenPath := filepath.Join(filepath.Dir(credentialsFile), config.TokenFileName)
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		tok, err = tokenFromConsole(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}
	return option.WithTokenSource(conf.TokenSource(ctx, tok)), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// tokenFromConsole runs the one-time interactive consent flow: the user
// opens the printed URL, grants access and pastes the code back.
func tokenFromConsole(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	url := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf(config.MsgAuthVisit, url)
	fmt.Print(config.MsgAuthPrompt)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, err
	}
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTokenExchange, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, config.FilePermUserRW); err != nil {
		return err
	}
	slog.Debug(config.MsgTokenSaved,
		config.LogKeyComponent, config.CompGoogle,
		config.LogKeyFile, path,
	)
	return nil
}
