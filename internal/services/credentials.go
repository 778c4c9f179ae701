package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrCredentialsUnavailable means the authenticated strategy cannot run in
// this deployment. Callers fall back to scraping rather than failing the
// whole pipeline.
var ErrCredentialsUnavailable = errors.New("youtube credentials unavailable")

// CredentialProvider hides how an authorized YouTube session is obtained —
// cached token, refresh, or a prior interactive consent run.
type CredentialProvider interface {
	AuthorizedService(ctx context.Context) (*youtube.Service, error)
}

// FileCredentialProvider builds YouTube services from an OAuth client
// secrets file plus a token file written by `cmd/oauthsetup`. Refresh is
// handled transparently by the token source.
//
// captions.download requires OAuth; an API key alone will not work.
type FileCredentialProvider struct {
	CredentialsPath string
	TokenPath       string
}

func NewFileCredentialProvider(credentialsPath, tokenPath string) *FileCredentialProvider {
	return &FileCredentialProvider{CredentialsPath: credentialsPath, TokenPath: tokenPath}
}

func (p *FileCredentialProvider) AuthorizedService(ctx context.Context) (*youtube.Service, error) {
	cfg, err := p.OAuthConfig()
	if err != nil {
		return nil, err
	}

	token, err := p.loadToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v (run oauthsetup first)", ErrCredentialsUnavailable, err)
	}

	ts := cfg.TokenSource(ctx, token)
	svc, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to build YouTube service: %w", err)
	}
	return svc, nil
}

// OAuthConfig parses the client secrets file with the captions scope.
func (p *FileCredentialProvider) OAuthConfig() (*oauth2.Config, error) {
	b, err := os.ReadFile(p.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsUnavailable, err)
	}
	cfg, err := google.ConfigFromJSON(b, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}
	return cfg, nil
}

// SaveToken persists a freshly obtained token for later runs.
func (p *FileCredentialProvider) SaveToken(token *oauth2.Token) error {
	f, err := os.OpenFile(p.TokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func (p *FileCredentialProvider) loadToken() (*oauth2.Token, error) {
	f, err := os.Open(p.TokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}
