package registry

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/monodeploy/cli/internal/errors"
)

// BreakerRegistry wraps a Registry with a per-host circuit breaker so a
// struggling registry stops absorbing the remaining publish budget.
type BreakerRegistry struct {
	inner    Registry
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

var _ Registry = (*BreakerRegistry)(nil)

// NewBreakerRegistry creates a circuit-breaker wrapper around inner.
func NewBreakerRegistry(inner Registry) *BreakerRegistry {
	return &BreakerRegistry{
		inner:    inner,
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (b *BreakerRegistry) getBreaker(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, exists := b.breakers[host]
	b.mu.RUnlock()
	if exists {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if breaker, exists := b.breakers[host]; exists {
		return breaker
	}

	// Trips once the breaker has counted 5 failures.
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	b.breakers[host] = breaker
	return breaker
}

func (b *BreakerRegistry) call(host string, op func() error) error {
	breaker := b.getBreaker(host)
	if !breaker.Ready() {
		return errors.Publishf("registry %s unavailable: circuit breaker open", host)
	}
	return breaker.Call(op, 0)
}

// FetchVersion delegates through the host breaker.
func (b *BreakerRegistry) FetchVersion(ctx context.Context, name, distTag string) (string, bool, error) {
	var version string
	var found bool
	err := b.call(b.host(), func() error {
		var err error
		version, found, err = b.inner.FetchVersion(ctx, name, distTag)
		return err
	})
	return version, found, err
}

// Publish delegates through the host breaker.
func (b *BreakerRegistry) Publish(ctx context.Context, pub Publication) error {
	return b.call(b.host(), func() error {
		return b.inner.Publish(ctx, pub)
	})
}

func (b *BreakerRegistry) host() string {
	type baseURLer interface{ BaseURL() string }
	if u, ok := b.inner.(baseURLer); ok {
		if parsed, err := url.Parse(u.BaseURL()); err == nil && parsed.Host != "" {
			return parsed.Host
		}
		return u.BaseURL()
	}
	return fmt.Sprintf("%T", b.inner)
}
