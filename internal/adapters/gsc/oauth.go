package gsc

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"prometrix/internal/domain"
)

const ScopeReadonly = "https://www.googleapis.com/auth/webmasters.readonly"

// Google's OAuth endpoints, spelled out to avoid the heavier google subpackage.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// OAuth runs the authorization-code flow for Search Console access and keeps
// tokens in the repository, one row per user key.
type OAuth struct {
	cfg    *oauth2.Config
	tokens domain.TokenRepository

	mu     sync.Mutex
	states map[string]string // userKey -> pending state
}

func NewOAuth(clientID, clientSecret, redirectURL string, tokens domain.TokenRepository) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{ScopeReadonly},
			Endpoint:     googleEndpoint,
		},
		tokens: tokens,
		states: map[string]string{},
	}
}

func (o *OAuth) Configured() bool { return o.cfg.ClientID != "" && o.cfg.ClientSecret != "" }

// Start returns the consent URL plus the state token stored for the CSRF check.
func (o *OAuth) Start(userKey string) (authURL, state string) {
	state = uuid.NewString()
	o.mu.Lock()
	o.states[userKey] = state
	o.mu.Unlock()
	authURL = o.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return authURL, state
}

// Callback validates the state, exchanges the code and persists the token.
// Reports whether a refresh token was granted.
func (o *OAuth) Callback(ctx context.Context, userKey, state, code string) (hasRefresh bool, err error) {
	o.mu.Lock()
	expected, ok := o.states[userKey]
	delete(o.states, userKey)
	o.mu.Unlock()
	if !ok || state == "" || state != expected {
		return false, domain.ErrInvalidInput
	}

	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return false, err
	}
	if err := o.tokens.SaveToken(ctx, domain.OAuthToken{
		UserKey:      userKey,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}); err != nil {
		return false, err
	}
	return tok.RefreshToken != "", nil
}

// Bearer returns a BearerSource for the user key. Tokens refresh through the
// oauth2 TokenSource; refreshed tokens are written back to the store.
func (o *OAuth) Bearer(userKey string) BearerSource {
	return func(ctx context.Context) (string, error) {
		stored, err := o.tokens.LoadToken(ctx, userKey)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", domain.ErrUnauthorized
			}
			return "", err
		}
		if stored.AccessToken == "" && stored.RefreshToken == "" {
			return "", domain.ErrUnauthorized
		}
		src := o.cfg.TokenSource(ctx, &oauth2.Token{
			AccessToken:  stored.AccessToken,
			RefreshToken: stored.RefreshToken,
			Expiry:       stored.Expiry,
		})
		tok, err := src.Token()
		if err != nil {
			return "", err
		}
		if tok.AccessToken != stored.AccessToken {
			refresh := tok.RefreshToken
			if refresh == "" {
				refresh = stored.RefreshToken
			}
			_ = o.tokens.SaveToken(ctx, domain.OAuthToken{
				UserKey:      userKey,
				AccessToken:  tok.AccessToken,
				RefreshToken: refresh,
				Expiry:       tok.Expiry,
			})
		}
		return tok.AccessToken, nil
	}
}

// Connected reports whether credentials exist for the user key.
func (o *OAuth) Connected(ctx context.Context, userKey string) bool {
	t, err := o.tokens.LoadToken(ctx, userKey)
	return err == nil && (t.AccessToken != "" || t.RefreshToken != "")
}
