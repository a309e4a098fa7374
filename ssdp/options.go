package ssdp

import (
	"strconv"

	sserrors "github.com/lssdp/lssdp-go/internal/errors"
	"github.com/lssdp/lssdp-go/internal/logging"
)

// Option configures a Peer at construction time, grounded on beacon's
// responder.Option / responder.WithHostname pattern
// (responder/options.go): small, composable functions applied in order by
// New, each touching one field of the peer's configuration.
type Option func(*Config) error

// WithPort overrides the default SSDP port (1900).
func WithPort(port int) Option {
	return func(c *Config) error {
		if port <= 0 || port > 65535 {
			return &sserrors.ValidationError{Field: "port", Value: strconv.Itoa(port), Message: "out of range"}
		}
		c.Port = port
		return nil
	}
}

// WithNeighborTimeout overrides the default neighbor eviction threshold.
func WithNeighborTimeout(ms int64) Option {
	return func(c *Config) error {
		if ms <= 0 {
			return &sserrors.ValidationError{Field: "neighbor_timeout_ms", Value: strconv.FormatInt(ms, 10), Message: "must be positive"}
		}
		c.NeighborTimeoutMs = ms
		return nil
	}
}

// WithHeader sets the per-instance header configuration (ST, USN, SM_ID,
// DEV_TYPE, LOCATION) advertised and matched against.
func WithHeader(h Header) Option {
	return func(c *Config) error {
		c.Header = h
		return nil
	}
}

// WithLogFunc installs the log sink. A nil LogFunc is the default and is a
// no-op, matching spec's "optional callback, null-safe" contract.
func WithLogFunc(fn logging.Func) Option {
	return func(c *Config) error {
		c.LogFunc = fn
		return nil
	}
}

// WithNetworkInterfaceChanged installs the callback RefreshInterfaces
// fires on a detected interface-set change.
func WithNetworkInterfaceChanged(fn func()) Option {
	return func(c *Config) error {
		c.NetworkInterfaceChanged = fn
		return nil
	}
}

// WithNeighborListChanged installs the callback Read/CheckTimeouts fire on
// neighbor insertion or eviction.
func WithNeighborListChanged(fn func()) Option {
	return func(c *Config) error {
		c.NeighborListChanged = fn
		return nil
	}
}

// WithPacketReceived installs the callback Read invokes with the raw
// datagram payload once a packet clears self-echo filtering.
func WithPacketReceived(fn func(payload []byte)) Option {
	return func(c *Config) error {
		c.PacketReceived = fn
		return nil
	}
}
