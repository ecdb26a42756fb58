// AngelaMos | 2026
// oidc.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/carterperez-dev/templates/crm-backend/internal/config"
	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

var ErrEmailMissing = errors.New("identity provider returned no email")

const stateKeyPrefix = "oidc_state:"

// StateStore keeps the pending authorization requests. Each state maps
// to the nonce expected in the ID token and can be consumed only once.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Save(ctx context.Context, state, nonce string) error {
	if err := s.client.Set(ctx, stateKeyPrefix+state, nonce, s.ttl).Err(); err != nil {
		return fmt.Errorf("save oidc state: %w", err)
	}
	return nil
}

func (s *StateStore) Consume(ctx context.Context, state string) (string, error) {
	nonce, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("consume oidc state: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return "", fmt.Errorf("consume oidc state: %w", err)
	}
	return nonce, nil
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
}

// OIDCProvider runs the authorization code flow against an external
// identity provider and turns the ID token into an Identity.
type OIDCProvider struct {
	issuer   string
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	states   *StateStore
}

func NewOIDCProvider(
	ctx context.Context,
	cfg config.OIDCConfig,
	states *StateStore,
) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCProvider{
		issuer: cfg.IssuerURL,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		states:   states,
	}, nil
}

// AuthCodeURL starts a sign-in and returns where to send the browser.
func (p *OIDCProvider) AuthCodeURL(ctx context.Context) (string, error) {
	state, err := core.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	nonce, err := core.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	if err := p.states.Save(ctx, state, nonce); err != nil {
		return "", err
	}

	return p.oauth.AuthCodeURL(state, oidc.Nonce(nonce)), nil
}

// Exchange completes the flow started by AuthCodeURL.
func (p *OIDCProvider) Exchange(
	ctx context.Context,
	code, state string,
) (Identity, error) {
	nonce, err := p.states.Consume(ctx, state)
	if err != nil {
		return Identity{}, err
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchange code: %w", core.ErrTokenInvalid)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Identity{}, fmt.Errorf("exchange code: missing id_token: %w", core.ErrTokenInvalid)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("verify id token: %w", core.ErrTokenInvalid)
	}

	if idToken.Nonce != nonce {
		return Identity{}, fmt.Errorf("verify id token: nonce mismatch: %w", core.ErrTokenInvalid)
	}

	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("decode id token claims: %w", err)
	}

	return identityFromClaims(p.issuer, idToken.Subject, claims)
}

func identityFromClaims(issuer, subject string, claims idClaims) (Identity, error) {
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return Identity{}, ErrEmailMissing
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return Identity{}, fmt.Errorf("email not verified: %w", core.ErrUnauthorized)
	}

	ref := issuer + "|" + subject
	return Identity{
		Email:       email,
		Name:        strings.TrimSpace(claims.Name),
		ExternalRef: &ref,
	}, nil
}
