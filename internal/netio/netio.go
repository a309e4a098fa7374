// Package netio owns the sockets the SSDP engine multiplexes over: one
// long-lived multicast receive socket, which also carries LAN-scoped
// unicast replies, and the transient per-interface send sockets used for
// multicast.
//
// This is spec.md's component B, the Multicast Socket Manager. It is
// grounded on beacon's internal/transport package - Transport's
// Send/Receive/Close shape, the ipv4.PacketConn wrapping for control-message
// access, and the NetworkError-per-failure convention all carry over from
// internal/transport/udp.go - adapted from "one persistent connection that
// both sends and receives" (mDNS's model) to spec.md §4.B's "one receive
// socket plus one disposable send socket per outgoing datagram" model,
// which the original_source/lssdp.c ordering (close-existing, open,
// nonblock, reuseaddr, bind, join) pins down where spec prose is silent.
package netio

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"

	sserrors "github.com/lssdp/lssdp-go/internal/errors"
	"github.com/lssdp/lssdp-go/internal/iface"
	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/internal/protocol"
)

// Manager owns the receive socket and brokers transient send sockets.
// Not safe for concurrent use - spec.md §5 requires the host to serialize
// all calls itself.
type Manager struct {
	port int
	sink logging.Sink

	conn     net.PacketConn
	ipv4Conn *ipv4.PacketConn
}

// NewManager constructs a Manager bound to port but does not yet open any
// socket; call CreateReceiveSocket to do that.
func NewManager(port int, sink logging.Sink) *Manager {
	return &Manager{port: port, sink: sink}
}

// Live reports whether the receive socket is currently open.
func (m *Manager) Live() bool { return m.conn != nil }

// CreateReceiveSocket implements spec.md §4.B's receive-socket lifecycle:
// close any existing socket, open, bind to 0.0.0.0:port, join the
// multicast group on the kernel-selected interface. Re-entrant: calling it
// twice always leaves exactly one live descriptor (spec.md §8 property 5).
func (m *Manager) CreateReceiveSocket() error {
	if m.conn != nil {
		if err := m.closeReceiveSocket(); err != nil {
			m.sink.Error("failed to close existing receive socket: %v", err)
			return &sserrors.NetworkError{Operation: "close existing socket", Err: err}
		}
	}

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(m.port))

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return setReuseAddr(c)
		},
	}
	conn, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		m.sink.Error("failed to create socket: %v", err)
		return &sserrors.NetworkError{Operation: "create socket", Err: err, Details: addr}
	}

	ipv4Conn := ipv4.NewPacketConn(conn)

	group := &net.UDPAddr{IP: net.ParseIP(protocol.MulticastGroup)}
	if err := ipv4Conn.JoinGroup(nil, group); err != nil {
		_ = conn.Close()
		m.sink.Error("failed to join multicast group %s: %v", protocol.MulticastGroup, err)
		return &sserrors.NetworkError{Operation: "join multicast group", Err: err, Details: protocol.MulticastGroup}
	}

	// Best-effort: lets Read() recover the inbound interface index. Absence
	// degrades gracefully to ifIndex=0, same as beacon's udp.go.
	if err := ipv4Conn.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		m.sink.Debug("control messages unavailable: %v", err)
	}

	m.conn = conn
	m.ipv4Conn = ipv4Conn
	return nil
}

func (m *Manager) closeReceiveSocket() error {
	err := m.conn.Close()
	m.conn = nil
	m.ipv4Conn = nil
	return err
}

// Close releases the receive socket. Safe to call when already closed.
func (m *Manager) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.closeReceiveSocket()
}

// Read performs one non-blocking-equivalent datagram read from the
// receive socket (spec.md §4.E "read": up to protocol.MaxMessageLen
// bytes). The deadline is set one millisecond ahead on every call so a caller that
// invokes Read without readiness actually signaled gets ErrWouldBlock-like
// behavior (a timeout error) rather than hanging the host's event loop -
// the idiomatic stand-in for the source's ioctl(FIONBIO) non-blocking
// socket, per SPEC_FULL.md.
func (m *Manager) Read() (payload []byte, srcIP string, srcPort int, ifIndex int, err error) {
	if m.conn == nil {
		return nil, "", 0, 0, &sserrors.NetworkError{Operation: "read socket", Details: "receive socket not open"}
	}

	if err := m.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return nil, "", 0, 0, &sserrors.NetworkError{Operation: "set read deadline", Err: err}
	}

	buf := make([]byte, protocol.MaxMessageLen)
	n, cm, addr, err := m.ipv4Conn.ReadFrom(buf)
	if err != nil {
		return nil, "", 0, 0, &sserrors.NetworkError{Operation: "read socket", Err: err}
	}

	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return nil, "", 0, 0, &sserrors.NetworkError{Operation: "read socket", Details: fmt.Sprintf("unexpected address type %T", addr)}
	}

	idx := 0
	if cm != nil {
		idx = cm.IfIndex
	}

	return buf[:n], udpAddr.IP.String(), udpAddr.Port, idx, nil
}

// SendMulticast implements spec.md §4.B's send path: a fresh UDP/IPv4
// socket bound to iface's address, IP_MULTICAST_LOOP disabled, one
// datagram to the multicast group, then closed. Callers must already have
// skipped loopback/empty interfaces per spec.md §4.B.
func (m *Manager) SendMulticast(payload []byte, intf iface.Interface) error {
	laddr := &net.UDPAddr{IP: net.ParseIP(intf.IP), Port: 0}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		m.sink.Error("failed to open send socket on %s: %v", intf.Name, err)
		return &sserrors.NetworkError{Operation: "open send socket", Err: err, Details: intf.IP}
	}
	defer conn.Close()

	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastLoopback(false); err != nil {
		m.sink.Debug("failed to disable multicast loopback on %s: %v", intf.Name, err)
	}

	dest := &net.UDPAddr{IP: net.ParseIP(protocol.MulticastGroup), Port: m.port}
	if _, err := conn.WriteToUDP(payload, dest); err != nil {
		m.sink.Error("failed to send datagram on %s: %v", intf.Name, err)
		return &sserrors.NetworkError{Operation: "send datagram", Err: err, Details: intf.Name}
	}
	return nil
}

// SendUnicast implements spec.md §4.B's response path: reuse the live
// receive socket, send directly to destIP with the destination port
// rewritten to the configured SSDP port - never the requester's ephemeral
// source port.
func (m *Manager) SendUnicast(payload []byte, destIP string) error {
	if m.conn == nil {
		return &sserrors.NetworkError{Operation: "send unicast", Details: "receive socket not open"}
	}
	dest := &net.UDPAddr{IP: net.ParseIP(destIP), Port: m.port}
	if _, err := m.conn.WriteTo(payload, dest); err != nil {
		m.sink.Error("failed to send response to %s: %v", destIP, err)
		return &sserrors.NetworkError{Operation: "send unicast", Err: err, Details: destIP}
	}
	return nil
}
