// Package protocol holds the wire-level constants spec.md §6 requires be
// preserved for compatibility with the original lssdp implementation.
package protocol

const (
	// MulticastGroup is the SSDP multicast address.
	MulticastGroup = "239.255.255.250"

	// DefaultPort is the conventional SSDP port (configurable per spec.md §6).
	DefaultPort = 1900

	// MaxMessageLen bounds a single inbound datagram (spec.md §3, §6).
	MaxMessageLen = 2048

	// InterfaceNameLen mirrors IFNAMSIZ (spec.md §6).
	InterfaceNameLen = 16

	// InterfaceListSize is the fixed capacity of the interface snapshot
	// (spec.md §3, §4.A).
	InterfaceListSize = 16

	// HeaderFieldLen is the cap (including NUL) for any text field copied
	// out of a parsed packet (spec.md §3: "≤ 127 bytes").
	HeaderFieldLen = 128

	// IPStringLen bounds a dotted-quad IPv4 string, e.g. "255.255.255.255\0".
	IPStringLen = 16

	// CacheControlMaxAge is the NOTIFY cache lifetime spec.md §6 pins.
	CacheControlMaxAge = 120

	// SearchMX is the M-SEARCH MX header value spec.md §6 pins.
	SearchMX = 1
)
