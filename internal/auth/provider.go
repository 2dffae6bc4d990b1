// Package auth attaches credentials to outgoing completion requests.
package auth

import (
	"context"
	"net/http"
)

// Provider injects credentials into HTTP requests.
type Provider interface {
	// InjectHeader sets the credential header on req.
	InjectHeader(ctx context.Context, req *http.Request) error

	// Close releases any resources held by the provider.
	Close() error
}

// FromAPIKey returns a bearer-token Provider for key, or nil when key is empty.
func FromAPIKey(key string) Provider {
	if key == "" {
		return nil
	}
	return NewAPIKeyProvider(key)
}
