// Package ssdp implements a lightweight SSDP discovery peer for IPv4 LANs:
// spec.md's component E (Protocol Coordinator) and component F (external
// interface). A Peer both advertises its own service (SendNotify,
// responding to M-SEARCH) and discovers others (SendMSearch, absorbing
// NOTIFY/RESPONSE into a neighbor table with timeout-driven expiry).
//
// Grounded on beacon's responder package: the functional-options
// constructor shape and the registry-holding coordinator struct follow
// responder.New/responder.Responder (responder/responder.go,
// responder/options.go). SSDP has no probing/conflict-resolution phase,
// so that part of the teacher's state machine has no counterpart here -
// every Peer advertises immediately, there is no name to contend over.
package ssdp

import (
	"encoding/binary"
	"net"
	"time"

	sserrors "github.com/lssdp/lssdp-go/internal/errors"
	"github.com/lssdp/lssdp-go/internal/iface"
	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/internal/neighbor"
	"github.com/lssdp/lssdp-go/internal/netio"
	"github.com/lssdp/lssdp-go/internal/protocol"
	"github.com/lssdp/lssdp-go/internal/wire"
)

// Header mirrors wire.Header: the immutable-after-construction identity
// this peer advertises and filters incoming ST against (spec.md §3).
type Header = wire.Header

// Location mirrors wire.Location.
type Location = wire.Location

// ValidationError and NetworkError are re-exported so callers don't need
// to import internal/errors to type-switch on them (spec.md §7's error
// kinds surfaced through the public API).
type ValidationError = sserrors.ValidationError
type NetworkError = sserrors.NetworkError

// Config holds every configurable field of a Peer (spec.md §6's "context
// value with configurable fields"). Construct one via New's Options
// rather than directly; zero-value fields are filled with the defaults
// New applies.
type Config struct {
	Port              int
	NeighborTimeoutMs int64
	Header            Header

	LogFunc                 logging.Func
	NetworkInterfaceChanged func()
	NeighborListChanged     func()
	PacketReceived          func(payload []byte)
}

const defaultNeighborTimeoutMs = 15000

// Peer is the protocol engine: spec.md's coordinator over the interface
// enumerator, socket manager, packet codec, and neighbor table. Not safe
// for concurrent use; spec.md §5 requires the host to serialize every
// call itself - the engine never spawns goroutines or installs signal
// handlers on its own.
type Peer struct {
	cfg  Config
	sink logging.Sink

	netio      *netio.Manager
	neighbors  *neighbor.Table
	interfaces []iface.Interface

	now func() int64
}

// New constructs a Peer. The receive socket is not opened automatically;
// call CreateSocket once the host is ready to multiplex on it.
func New(opts ...Option) (*Peer, error) {
	cfg := Config{
		Port:              protocol.DefaultPort,
		NeighborTimeoutMs: defaultNeighborTimeoutMs,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	p := &Peer{
		cfg: cfg,
		now: func() int64 { return time.Now().UnixMilli() },
	}
	// Every component logs through this one sink, which forwards to the
	// current p.cfg.LogFunc, so SetLogCallback reaches all of them.
	sink := logging.NewSink(func(file, tag string, level logging.Level, line int, function, message string) {
		if p.cfg.LogFunc != nil {
			p.cfg.LogFunc(file, tag, level, line, function, message)
		}
	})
	p.sink = sink
	p.neighbors = neighbor.NewTable(sink)
	p.netio = netio.NewManager(cfg.Port, sink)
	return p, nil
}

// SetLogCallback replaces the log sink after construction (spec.md §6
// set_log_callback).
func (p *Peer) SetLogCallback(fn logging.Func) {
	p.cfg.LogFunc = fn
}

// Interfaces returns the current interface snapshot. Callers must not
// mutate it (spec.md §5: the host may read engine-owned state but not
// mutate it during a call).
func (p *Peer) Interfaces() []iface.Interface { return p.interfaces }

// Neighbors returns the current neighbor list, insertion-ordered. Not
// defensively copied - spec.md §4.D.
func (p *Peer) Neighbors() []*neighbor.Record { return p.neighbors.Records() }

// RefreshInterfaces implements spec.md §4.E's refresh_interfaces:
// re-enumerate local IPv4 interfaces and, on any field-wise change versus
// the prior snapshot, fire NetworkInterfaceChanged exactly once before
// returning. The host's typical reaction is to call CreateSocket again;
// RefreshInterfaces never touches sockets itself (spec.md §4.A).
func (p *Peer) RefreshInterfaces() error {
	next, err := iface.Enumerate(p.sink)
	if err != nil {
		return err
	}

	changed := !iface.Equal(p.interfaces, next)
	p.interfaces = next

	if changed && p.cfg.NetworkInterfaceChanged != nil {
		p.cfg.NetworkInterfaceChanged()
	}
	return nil
}

// CreateSocket implements spec.md §4.E's socket_create, delegating to the
// Multicast Socket Manager. Idempotent: calling it twice leaves exactly
// one live descriptor.
func (p *Peer) CreateSocket() error {
	return p.netio.CreateReceiveSocket()
}

// Close releases the receive socket.
func (p *Peer) Close() error {
	return p.netio.Close()
}

// Read implements spec.md §4.E's read: one datagram, self-echo filtered,
// ST filtered, dispatched to send_response or neighbor observation.
func (p *Peer) Read() error {
	payload, srcIP, _, _, err := p.netio.Read()
	if err != nil {
		return err
	}
	p.dispatch(payload, srcIP)
	return nil
}

// dispatch implements the body of spec.md §4.E's read, separated from the
// socket read itself so the filter/parse/route logic is directly testable
// without a live socket.
func (p *Peer) dispatch(payload []byte, srcIP string) {
	if p.isOwnInterface(srcIP) {
		// spec.md §8 property 1: no state mutation, no callback.
		return
	}

	pkt, ok := wire.Parse(payload, p.now, p.sink)
	if !ok {
		p.notifyPacketReceived(payload)
		return
	}

	if pkt.ST != p.cfg.Header.SearchTarget {
		p.notifyPacketReceived(payload)
		return
	}

	switch pkt.Method {
	case wire.MethodMSearch:
		if err := p.SendResponse(srcIP); err != nil {
			p.sink.Error("send_response failed: %v", err)
		}
	case wire.MethodNotify, wire.MethodResponse:
		p.neighbors.Observe(pkt, p.cfg.NeighborListChanged)
	}

	p.notifyPacketReceived(payload)
}

func (p *Peer) notifyPacketReceived(payload []byte) {
	if p.cfg.PacketReceived != nil {
		p.cfg.PacketReceived(payload)
	}
}

func (p *Peer) isOwnInterface(srcIP string) bool {
	for _, i := range p.interfaces {
		if i.IP == srcIP {
			return true
		}
	}
	return false
}

// SendMSearch implements spec.md §4.E's send_msearch: one M-SEARCH
// payload, sent from every non-empty, non-loopback interface.
func (p *Peer) SendMSearch() error {
	payload := wire.BuildMSearch(p.cfg.Header, p.cfg.Port)
	return p.sendFromEveryInterface(payload)
}

// SendNotify implements spec.md §4.E's send_notify: per non-empty,
// non-loopback interface, a NOTIFY with LOCATION materialized against
// that interface's own IP.
func (p *Peer) SendNotify() error {
	var firstErr error
	for _, i := range p.interfaces {
		if i.Empty() || i.Loopback() {
			continue
		}
		payload := wire.BuildNotify(p.cfg.Header, i.IP, p.cfg.Port)
		if err := p.netio.SendMulticast(payload, i); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Peer) sendFromEveryInterface(payload []byte) error {
	var firstErr error
	for _, i := range p.interfaces {
		if i.Empty() || i.Loopback() {
			continue
		}
		if err := p.netio.SendMulticast(payload, i); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SendResponse implements spec.md §4.E's send_response: find the local
// interface sharing a LAN with requesterIP - preferring a true netmask
// check, falling back to the documented /24 heuristic - and unicast a
// RESPONSE built with LOCATION materialized against that interface's IP.
// If no interface matches, logs ERROR, dumps the interface list at DEBUG,
// and aborts without sending (spec.md §4.E, §7).
func (p *Peer) SendResponse(requesterIP string) error {
	requester, ok := parseIPv4(requesterIP)
	if !ok {
		return &sserrors.ValidationError{Field: "requester_ip", Value: requesterIP, Message: "not a dotted-quad IPv4 address"}
	}

	match, ok := p.findLANInterface(requester)
	if !ok {
		p.sink.Error("no matching LAN interface for M-SEARCH source %s", requesterIP)
		for _, i := range p.interfaces {
			p.sink.Debug("interface: %s %s", i.Name, i.IP)
		}
		return &sserrors.NetworkError{Operation: "send_response", Details: "no matching LAN interface"}
	}

	payload := wire.BuildResponse(p.cfg.Header, match.IP, time.Now())
	return p.netio.SendUnicast(payload, requesterIP)
}

func (p *Peer) findLANInterface(requester uint32) (iface.Interface, bool) {
	for _, i := range p.interfaces {
		if i.Empty() || i.Loopback() {
			continue
		}
		if iface.LANMatchNetmask(i, requester) {
			return i, true
		}
	}
	for _, i := range p.interfaces {
		if i.Empty() || i.Loopback() {
			continue
		}
		if iface.LANMatch24(i.RawAddr, requester) {
			return i, true
		}
	}
	return iface.Interface{}, false
}

// CheckTimeouts implements spec.md §4.E's check_timeouts, sweeping the
// neighbor table with the current wall-clock time.
func (p *Peer) CheckTimeouts() {
	p.neighbors.Sweep(p.now(), p.cfg.NeighborTimeoutMs, p.cfg.NeighborListChanged)
}

func parseIPv4(s string) (uint32, bool) {
	ip4 := net.ParseIP(s).To4()
	if ip4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(ip4), true
}
