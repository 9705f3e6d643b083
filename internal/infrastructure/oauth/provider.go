package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"actdone.backend/internal/config"
	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"golang.org/x/oauth2"
)

const maxProfileBytes = 1 << 20

// Provider runs the authorization-code flow against a single external
// identity provider and turns its profile into an ExternalIdentity.
type Provider struct {
	name        string
	displayName string
	profileURL  string
	oauth       *oauth2.Config
}

func NewProvider(cfg config.OAuthConfig) *Provider {
	return &Provider{
		name:        strings.ToLower(cfg.Provider),
		displayName: cfg.DisplayName,
		profileURL:  cfg.ProfileURL,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Name is the route segment identifying the provider, e.g. "google".
func (p *Provider) Name() string { return p.name }

// DisplayName is the human label used in messages, e.g. "Google".
func (p *Provider) DisplayName() string { return p.displayName }

// NewVerifier returns a fresh PKCE code verifier.
func (p *Provider) NewVerifier() string { return oauth2.GenerateVerifier() }

// AuthCodeURL builds the consent redirect for state, bound to verifier via S256.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for a token and fetches the profile.
// Every failure wraps ErrProviderFailed.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*entities.ExternalIdentity, error) {
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", domainerrors.ErrProviderFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: profile request: %v", domainerrors.ErrProviderFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: profile fetch: %v", domainerrors.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProfileBytes))
		return nil, fmt.Errorf("%w: profile fetch returned %d", domainerrors.ErrProviderFailed, resp.StatusCode)
	}

	var payload profilePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: profile decode: %v", domainerrors.ErrProviderFailed, err)
	}
	return payload.identity()
}

// profilePayload accepts both the OpenID Connect userinfo shape (sub,
// email_verified) and the older Google v2 shape (id, verified_email).
type profilePayload struct {
	Sub           string          `json:"sub"`
	ID            json.RawMessage `json:"id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	EmailVerified *bool           `json:"email_verified"`
	VerifiedEmail *bool           `json:"verified_email"`
}

func (p profilePayload) identity() (*entities.ExternalIdentity, error) {
	subject := p.Sub
	if subject == "" && len(p.ID) > 0 && string(p.ID) != "null" {
		subject = strings.Trim(string(p.ID), `"`)
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: profile has no subject", domainerrors.ErrProviderFailed)
	}
	if strings.TrimSpace(p.Email) == "" {
		return nil, fmt.Errorf("%w: profile has no email", domainerrors.ErrProviderFailed)
	}

	verified := p.EmailVerified
	if verified == nil {
		verified = p.VerifiedEmail
	}

	return &entities.ExternalIdentity{
		ExternalID:    subject,
		Email:         p.Email,
		DisplayName:   strings.TrimSpace(p.Name),
		EmailVerified: verified,
	}, nil
}
