package wire

import (
	"strings"

	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/internal/protocol"
)

// NowFunc returns the current wall-clock time in milliseconds. Injectable
// so tests can control Packet.UpdateTimeMs deterministically.
type NowFunc func() int64

// Parse turns a raw inbound datagram into a Packet, per spec.md §4.C.2.
//
// Only two things fail the whole packet: an unrecognized/truncated start
// line, and a nil now. Everything else - a malformed header line, an
// overlong field value, an unrecognized field name - is tolerated: the
// packet is still returned with whatever fields were successfully
// extracted (spec.md: "Line-level errors do not abort parsing").
func Parse(data []byte, now NowFunc, sink logging.Sink) (*Packet, bool) {
	if now == nil {
		sink.Error("no time source to stamp the packet")
		return nil, false
	}

	s := string(data)

	method, rest, ok := detectMethod(s)
	if !ok {
		sink.Warn("unknown SSDP packet")
		sink.Debug("payload: %q", s)
		return nil, false
	}

	pkt := &Packet{Method: method}

	for _, line := range splitLines(rest) {
		if line == "" {
			continue // blank line: the terminator, not malformed input
		}

		field, value, ok := parseHeaderLine(line, sink)
		if !ok {
			continue
		}

		assignField(pkt, field, value)
	}

	pkt.UpdateTimeMs = now()
	return pkt, true
}

// detectMethod classifies the start line by prefix match. The match must
// consume the full CRLF-terminated start line - a datagram cut off
// mid-line is unknown, but a datagram that is exactly the start line with
// nothing after it is a valid, fully-matched packet with no headers
// (spec.md §8 boundary behavior).
func detectMethod(s string) (Method, string, bool) {
	switch {
	case strings.HasPrefix(s, startLineMSearch):
		return MethodMSearch, s[len(startLineMSearch):], true
	case strings.HasPrefix(s, startLineNotify):
		return MethodNotify, s[len(startLineNotify):], true
	case strings.HasPrefix(s, startLineResponse):
		return MethodResponse, s[len(startLineResponse):], true
	default:
		return MethodUnknown, "", false
	}
}

// splitLines splits on CRLF. A trailing empty element (from the final
// blank-line terminator) is included so the caller can see it and skip it
// without treating it as malformed.
func splitLines(s string) []string {
	return strings.Split(s, "\r\n")
}

// parseHeaderLine implements spec.md §4.C.2's header walk for a single
// line: reject a leading colon, reject a missing or trailing colon,
// trim both sides and reject if either side goes empty.
func parseHeaderLine(line string, sink logging.Sink) (field, value string, ok bool) {
	if line[0] == ':' {
		sink.Warn("the first character of line should not be colon")
		return "", "", false
	}

	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		sink.Warn("malformed header line (no ':' found): %q", line)
		return "", "", false
	}
	if idx == len(line)-1 {
		sink.Warn("malformed header line (empty value): %q", line)
		return "", "", false
	}

	field = trimField(line[:idx])
	value = trimField(line[idx+1:])
	if field == "" || value == "" {
		sink.Warn("malformed header line (empty field or value after trim): %q", line)
		return "", "", false
	}

	return field, value, true
}

// trimField advances past leading, and retreats past trailing,
// non-printable or whitespace bytes - spec.md's "advance start ... retreat
// end" trim rule.
func trimField(s string) string {
	start := 0
	end := len(s) - 1
	for start <= end && isTrimmable(s[start]) {
		start++
	}
	for end >= start && isTrimmable(s[end]) {
		end--
	}
	if start > end {
		return ""
	}
	return s[start : end+1]
}

func isTrimmable(b byte) bool {
	return b <= ' ' || b == 0x7f
}

// assignField dispatches a recognized, trimmed field name/value pair into
// pkt, truncating the value to protocol.HeaderFieldLen-1 bytes. Unknown
// field names are silently ignored (spec.md §4.C.2).
func assignField(pkt *Packet, field, value string) {
	value = truncate(value)
	switch strings.ToLower(field) {
	case "st":
		pkt.ST = value
	case "usn":
		pkt.USN = value
	case "location":
		pkt.Location = value
	case "sm_id":
		pkt.SmID = value
	case "dev_type":
		pkt.DeviceType = value
	}
}

func truncate(s string) string {
	if len(s) > protocol.HeaderFieldLen-1 {
		return s[:protocol.HeaderFieldLen-1]
	}
	return s
}
