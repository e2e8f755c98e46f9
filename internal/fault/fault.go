// Package fault holds the error taxonomy shared by listeners, tools and
// answer tiers. None of these errors ever ends the conversation loop.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Input errors returned by speech listeners.
var (
	ErrListenTimeout  = errors.New("no speech before timeout")
	ErrUnintelligible = errors.New("speech not understood")
	ErrSpeechService  = errors.New("speech service failure")
	ErrInputClosed    = errors.New("speech input closed")
)

type Kind uint

const (
	KindTransport Kind = iota
	KindAuth
	KindRateLimit
	KindTimeout
	KindBadResponse
	KindNotConfigured
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindBadResponse:
		return "bad_response"
	case KindNotConfigured:
		return "not_configured"
	default:
		return "transport"
	}
}

// ProviderError is a failure of an external capability.
type ProviderError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func Provider(provider string, kind Kind, err error) error {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// KindOf returns the provider error kind carried by err, or KindTransport
// when err carries none.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransport
}

// ConfigError reports that a required capability was never set up.
type ConfigError struct {
	Capability string
}

func (e *ConfigError) Error() string {
	return e.Capability + " is not configured"
}

func NotConfigured(capability string) error {
	return &ConfigError{Capability: capability}
}

// InternalError wraps a panic or unexpected failure inside a handler.
type InternalError struct {
	Where string
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Where, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// FromStatus maps a non-success HTTP status to a provider error.
func FromStatus(provider string, status int) error {
	kind := KindBadResponse
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusTooManyRequests:
		kind = KindRateLimit
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		kind = KindTimeout
	}
	return Provider(provider, kind, fmt.Errorf("status %d", status))
}

// FromTransport maps a failed round trip to a provider error, separating
// timeouts from other transport failures.
func FromTransport(provider string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return Provider(provider, KindTimeout, err)
	}
	return Provider(provider, KindTransport, err)
}
