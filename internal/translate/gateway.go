package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks failures below the level of a single message, such
	// as an unreachable endpoint.  Callers translating a batch treat it as a
	// reason to abandon the whole batch.
	ErrTransport = errors.New("translation transport failure")
	// ErrNoCredentials is returned when no translation client is configured.
	ErrNoCredentials = errors.New("translation credentials not configured")
	// ErrEmptyTranslation is returned when the endpoint answers with no text.
	ErrEmptyTranslation = errors.New("translation returned empty text")
)

// Client is the raw translation endpoint, addressed by language code.
type Client interface {
	Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error)
}

// Gateway translates between language names.  Names outside the supported
// enumeration pass the text through unchanged without calling the endpoint.
type Gateway struct {
	client Client
}

// NewGateway wraps client.  A nil client is allowed; every call that would
// need the endpoint then fails with ErrNoCredentials.
func NewGateway(client Client) *Gateway {
	return &Gateway{client: client}
}

// Supports reports whether name is in the language enumeration.
func (g *Gateway) Supports(name string) bool {
	_, ok := LookupCode(name)
	return ok
}

// Translate renders text from one language name into another.
func (g *Gateway) Translate(ctx context.Context, text, from, to string) (string, error) {
	src, okSrc := LookupCode(from)
	dst, okDst := LookupCode(to)
	if !okSrc || !okDst || src == dst || strings.TrimSpace(text) == "" {
		return text, nil
	}
	if g == nil || g.client == nil {
		return "", ErrNoCredentials
	}
	out, err := g.client.Translate(ctx, text, src, dst)
	if err != nil {
		return "", fmt.Errorf("translate %s to %s: %w", src, dst, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
