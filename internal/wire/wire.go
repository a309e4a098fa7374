// Package wire implements the SSDP packet codec: spec.md's component C.
//
// The wire format is HTTP-header-shaped ASCII text over UDP (spec.md §6),
// not binary DNS framing, so this package is new code rather than an
// adaptation of beacon's internal/message (which parses RFC 1035 binary
// names with compression pointers - a different problem entirely). Its
// shape - a typed Packet result, a strict-but-tolerant line walker, and
// named builders per message kind - follows the same "parse into a typed
// record, tolerate individual malformed fields" approach the pack's other
// SSDP-shaped code takes (other_examples/.../gcastel-gossdp__ssdp.go
// parses headers via http.Request; we can't reuse net/http here because
// spec.md's field-level tolerance rules - reject-this-line-continue,
// truncate-don't-reject-long-values - are stricter than what net/http's
// header parser allows us to observe without discarding its own errors).
package wire

import (
	"fmt"
	"strings"
	"time"

	"github.com/lssdp/lssdp-go/internal/protocol"
)

// Method identifies which of the three SSDP packet shapes a datagram is.
type Method int

const (
	MethodUnknown Method = iota
	MethodMSearch
	MethodNotify
	MethodResponse
)

func (m Method) String() string {
	switch m {
	case MethodMSearch:
		return "M-SEARCH"
	case MethodNotify:
		return "NOTIFY"
	case MethodResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

const (
	startLineMSearch  = "M-SEARCH * HTTP/1.1\r\n"
	startLineNotify   = "NOTIFY * HTTP/1.1\r\n"
	startLineResponse = "HTTP/1.1 200 OK\r\n"
)

// Location is the immutable location configuration spec.md §3 defines:
// rendered as "<host-or-interface-ip>[:port][/uri]".
type Location struct {
	Host string // optional; if empty, the sending interface's IP is used
	Port int    // optional; only appended when in (0, 65535]
	URI  string // optional
}

// Header is the per-instance, immutable-after-construction configuration
// spec.md §3 calls "Header configuration".
type Header struct {
	SearchTarget string
	USN          string
	SmID         string
	DeviceType   string
	Location     Location
}

// Packet is the typed record a parsed datagram is turned into (spec.md §3).
type Packet struct {
	Method       Method
	ST           string
	USN          string
	Location     string
	SmID         string
	DeviceType   string
	UpdateTimeMs int64
}

// Render composes a LOCATION header value. When cfg.Host is empty, the
// sending interface's own address is substituted - this is what produces
// a distinct LOCATION per interface for NOTIFY, and per-LAN for RESPONSE
// (spec.md §4.C.1).
func (cfg Location) Render(interfaceIP string) string {
	host := cfg.Host
	if host == "" {
		host = interfaceIP
	}

	var b strings.Builder
	b.WriteString(host)
	if cfg.Port > 0 && cfg.Port <= 65535 {
		fmt.Fprintf(&b, ":%d", cfg.Port)
	}
	if cfg.URI != "" {
		b.WriteByte('/')
		b.WriteString(cfg.URI)
	}
	return b.String()
}

// BuildMSearch renders an M-SEARCH payload (spec.md §4.C.1, §6).
func BuildMSearch(h Header, port int) []byte {
	var b strings.Builder
	b.WriteString(startLineMSearch)
	fmt.Fprintf(&b, "HOST:%s:%d\r\n", protocol.MulticastGroup, port)
	b.WriteString("MAN:\"ssdp:discover\"\r\n")
	fmt.Fprintf(&b, "ST:%s\r\n", h.SearchTarget)
	fmt.Fprintf(&b, "MX:%d\r\n", protocol.SearchMX)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// BuildNotify renders a NOTIFY payload whose LOCATION is materialized
// against interfaceIP (spec.md §4.C.1).
func BuildNotify(h Header, interfaceIP string, port int) []byte {
	var b strings.Builder
	b.WriteString(startLineNotify)
	fmt.Fprintf(&b, "HOST:%s:%d\r\n", protocol.MulticastGroup, port)
	fmt.Fprintf(&b, "CACHE-CONTROL:max-age=%d\r\n", protocol.CacheControlMaxAge)
	fmt.Fprintf(&b, "ST:%s\r\n", h.SearchTarget)
	fmt.Fprintf(&b, "USN:%s\r\n", h.USN)
	fmt.Fprintf(&b, "LOCATION:%s\r\n", h.Location.Render(interfaceIP))
	fmt.Fprintf(&b, "SM_ID:%s\r\n", h.SmID)
	fmt.Fprintf(&b, "DEV_TYPE:%s\r\n", h.DeviceType)
	b.WriteString("NTS:ssdp:alive\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}

// BuildResponse renders a unicast RESPONSE payload whose LOCATION is
// materialized against interfaceIP (spec.md §4.C.1).
func BuildResponse(h Header, interfaceIP string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString(startLineResponse)
	fmt.Fprintf(&b, "CACHE-CONTROL:max-age=%d\r\n", protocol.CacheControlMaxAge)
	fmt.Fprintf(&b, "DATE:%s\r\n", now.UTC().Format(time.RFC1123))
	b.WriteString("EXT:\r\n")
	fmt.Fprintf(&b, "LOCATION:%s\r\n", h.Location.Render(interfaceIP))
	b.WriteString("SERVER:OS/version UPnP/1.1 product/version\r\n")
	fmt.Fprintf(&b, "ST:%s\r\n", h.SearchTarget)
	fmt.Fprintf(&b, "USN:%s\r\n", h.USN)
	fmt.Fprintf(&b, "SM_ID:%s\r\n", h.SmID)
	fmt.Fprintf(&b, "DEV_TYPE:%s\r\n", h.DeviceType)
	b.WriteString("\r\n")
	return []byte(b.String())
}
