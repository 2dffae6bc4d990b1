package auth

import (
	"context"
	"fmt"
	"net/http"
)

// APIKeyProvider sends a fixed API key as a bearer token, the scheme used by
// OpenAI-compatible gateways.
type APIKeyProvider struct {
	key string
}

func NewAPIKeyProvider(key string) *APIKeyProvider {
	return &APIKeyProvider{key: key}
}

// InjectHeader sets "Authorization: Bearer <key>".
func (p *APIKeyProvider) InjectHeader(ctx context.Context, req *http.Request) error {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.key))
	return nil
}

// Close is a no-op.
func (p *APIKeyProvider) Close() error {
	return nil
}

// String redacts the key so it never appears in logs.
func (p *APIKeyProvider) String() string {
	return "APIKeyProvider(****)"
}
