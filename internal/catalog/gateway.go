package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// FallbackLogFunc is called whenever the gateway bypasses the proxy.
type FallbackLogFunc func(action Action, reason error)

// BreakerConfig configures the circuit breaker guarding the proxy.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	OnStateChange    func(from, to string)
}

// Gateway prefers the proxy and falls back to calling the catalog directly
// when the proxy is missing, failing or tripped.
type Gateway struct {
	primary    Caller
	direct     Caller
	breaker    *gobreaker.CircuitBreaker[json.RawMessage]
	onFallback FallbackLogFunc
}

// NewGateway builds a gateway. A nil primary means every call goes direct.
func NewGateway(primary Caller, direct Caller, cfg BreakerConfig, onFallback FallbackLogFunc) *Gateway {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	g := &Gateway{primary: primary, direct: direct, onFallback: onFallback}
	if primary == nil {
		return g
	}

	g.breaker = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        "catalog-proxy",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from.String(), to.String())
			}
		},
	})
	return g
}

// Call runs the action through the proxy and falls back to the direct
// client on any proxy failure.
func (g *Gateway) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	if g.primary == nil {
		return g.direct.Call(ctx, action, params)
	}

	// Caller mistakes must not count against the proxy.
	if _, _, err := endpoint(action, params); err != nil {
		return nil, err
	}

	data, err := g.breaker.Execute(func() (json.RawMessage, error) {
		return g.primary.Call(ctx, action, params)
	})
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if g.onFallback != nil {
		g.onFallback(action, err)
	}
	return g.direct.Call(ctx, action, params)
}

// ProxyState reports the breaker state, or "direct" without a proxy.
func (g *Gateway) ProxyState() string {
	if g.breaker == nil {
		return "direct"
	}
	return g.breaker.State().String()
}
