// Package iface enumerates local IPv4 interfaces for the SSDP engine.
//
// This is spec.md's component A, the Interface Enumerator. It is
// grounded on beacon's interface -> IPv4 lookup contract
// (specs/007-interface-specific-addressing/contracts/interface_resolver.go)
// and the interface-listing loop in beacon's
// examples/multi-interface-demo/main.go, adapted from "resolve one
// interface's address" to "snapshot every AF_INET interface into a
// bounded list", which is what spec.md §4.A requires.
package iface

import (
	"encoding/binary"
	"net"

	sserrors "github.com/lssdp/lssdp-go/internal/errors"
	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/internal/protocol"
)

// Interface is one local IPv4 address, as spec.md §3 defines it.
type Interface struct {
	Name    string // ≤ 15 bytes, matches IFNAMSIZ - 1
	IP      string // dotted-quad text
	RawAddr uint32 // network-order 32-bit address
	Netmask uint32 // network-order 32-bit mask
}

// Loopback reports whether the interface is 127.0.0.1, which senders must
// skip per spec.md §4.B.
func (i Interface) Loopback() bool { return i.IP == "127.0.0.1" }

// Empty reports whether this is an unused slot (spec.md §4.E "empty-name
// slots" must be skipped by senders).
func (i Interface) Empty() bool { return i.Name == "" }

// Enumerate lists the host's local IPv4 interfaces, filtered to AF_INET,
// into a slice of at most protocol.InterfaceListSize entries.
//
// Mirrors original_source/lssdp.c's lssdp_get_network_interface: the
// result is built fresh each call (nothing carries over from a previous
// snapshot - "reset lssdp->interface" in the C source), addresses beyond
// the capacity are logged at WARN and discarded, and any OS-level
// failure listing interfaces returns a *errors.NetworkError with an
// empty result.
func Enumerate(sink logging.Sink) ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, &sserrors.NetworkError{
			Operation: "list network interfaces",
			Err:       err,
		}
	}

	var out []Interface
	for _, nif := range ifaces {
		addrs, err := nif.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				// not AF_INET
				continue
			}

			if len(out) >= protocol.InterfaceListSize {
				sink.Warn("the number of network interfaces is over the max size %d: %s : %s",
					protocol.InterfaceListSize, nif.Name, ip4.String())
				continue
			}

			// An IPv4 *net.IPNet's Mask is always 4 bytes (net.Interfaces /
			// Addrs never pairs a v4 address with a v6-length mask), so no
			// normalization is needed here.
			mask := ipnet.Mask

			out = append(out, Interface{
				Name:    truncateName(nif.Name),
				IP:      ip4.String(),
				RawAddr: binary.BigEndian.Uint32(ip4),
				Netmask: binary.BigEndian.Uint32(mask),
			})
		}
	}

	return out, nil
}

// truncateName bounds a name to protocol.InterfaceNameLen-1 bytes, the
// way lssdp_get_network_interface's snprintf(..., LSSDP_INTERFACE_NAME_LEN
// - 1, ...) does.
func truncateName(name string) string {
	if len(name) >= protocol.InterfaceNameLen {
		return name[:protocol.InterfaceNameLen-1]
	}
	return name
}

// Equal reports whether two snapshots are byte-for-byte identical,
// field-wise, in the same order - the comparison spec.md §4.A's change
// detector performs after every refresh.
func Equal(a, b []Interface) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LANMatch24 reports whether candidate shares a /24 prefix with requester,
// the heuristic spec.md §4.E and §9 mandate be preserved as observable
// behavior.
func LANMatch24(candidate, requester uint32) bool {
	return candidate>>8 == requester>>8
}

// LANMatchNetmask reports whether requester is on the same subnet as
// candidate per candidate's real netmask: (requester ^ candidate) &
// netmask == 0. This is the more precise check spec.md §9 anticipates as
// a future replacement for the /24 heuristic; SPEC_FULL.md's Open
// Question decision uses it as a preferred first pass, falling back to
// LANMatch24.
func LANMatchNetmask(candidate Interface, requester uint32) bool {
	if candidate.Netmask == 0 {
		return false
	}
	return (requester^candidate.RawAddr)&candidate.Netmask == 0
}
