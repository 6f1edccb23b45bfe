// Package ports selects a TCP port for the development server.
//
// The allocator wraps an injected probe that owns the fallback convention
// when the preferred port is taken. The allocator itself never retries: one
// probe call, one answer.
package ports

import (
	"context"
	"net"
	"strconv"

	"github.com/packd-dev/packd/internal/errors"
)

// Probe decides which port to use given a preferred one. Implementations
// own the fallback algorithm; returning 0 or an error means no port.
type Probe interface {
	ChoosePort(ctx context.Context, host string, preferred int) (int, error)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context, host string, preferred int) (int, error)

func (f ProbeFunc) ChoosePort(ctx context.Context, host string, preferred int) (int, error) {
	return f(ctx, host, preferred)
}

// Allocator wraps a Probe and classifies its failures.
type Allocator struct {
	probe Probe
}

// NewAllocator creates an allocator over the given probe.
// A nil probe uses the default listen-scan probe.
func NewAllocator(probe Probe) *Allocator {
	if probe == nil {
		probe = DefaultProbe()
	}
	return &Allocator{probe: probe}
}

// Allocate returns an available port near the preferred one, or a
// no-port-found error when the probe fails or yields nothing usable.
func (a *Allocator) Allocate(ctx context.Context, host string, preferred int) (int, error) {
	port, err := a.probe.ChoosePort(ctx, host, preferred)
	if err != nil {
		return 0, errors.New("E102").
			WithDetail("Port probe failed: " + err.Error()).
			Wrap(err)
	}
	if port <= 0 {
		return 0, errors.New("E102").
			WithDetail("Port probe returned no usable port for " + net.JoinHostPort(host, strconv.Itoa(preferred)))
	}
	return port, nil
}

// scanRange bounds the default probe's upward scan from the preferred port.
const scanRange = 16

// DefaultProbe probes ports by attempting to listen on them, scanning
// upward from the preferred port within a small range.
func DefaultProbe() Probe {
	return ProbeFunc(func(ctx context.Context, host string, preferred int) (int, error) {
		var lc net.ListenConfig
		for port := preferred; port < preferred+scanRange; port++ {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
			if err != nil {
				continue
			}
			ln.Close()
			return port, nil
		}
		return 0, nil
	})
}
