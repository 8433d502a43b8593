// Package provider defines the AIS data source capability, the registry that
// builds sources by name, and the concrete sources: simulated, open data
// files, generic HTTP endpoints, AISHub, and MarineTraffic.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

// DefaultRadiusKm is the search radius used when callers do not specify one.
const DefaultRadiusKm = 50

// Provider fetches normalized vessels around a port. Implementations return
// an *Error rather than a partial list when the source fails.
type Provider interface {
	Name() string
	FetchVessels(ctx context.Context, port string, radiusKm int) ([]domain.Vessel, error)
}

var (
	// ErrConfiguration is returned when a provider cannot be built from the
	// parameters it was given.
	ErrConfiguration = errors.New("provider configuration error")

	// ErrUnknownProvider is returned when no provider is registered under a name.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Kind classifies a provider failure.
type Kind string

const (
	KindTransport   Kind = "transport"
	KindStatus      Kind = "status"
	KindAuth        Kind = "auth"
	KindMalformed   Kind = "malformed"
	KindUnsupported Kind = "unsupported"
	KindAPI         Kind = "api"
	KindUnknownPort Kind = "unknown-port"
)

// Error is a failure inside a single provider fetch.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(provider string, kind Kind, format string, args ...any) *Error {
	return &Error{Provider: provider, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err is a provider *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
