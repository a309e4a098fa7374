package ssdp

import (
	"testing"
	"time"

	"github.com/lssdp/lssdp-go/internal/iface"
	"github.com/lssdp/lssdp-go/internal/wire"
)

// These tests drive the literal end-to-end scenarios from spec.md §8
// through two Peer instances, bridging the transport plane by hand: one
// peer's wire.Build* output is fed straight into the other's dispatch,
// the same seam ssdp/peer_test.go's unit tests use. A real two-host run
// additionally exercises internal/netio's multicast join and per-interface
// send/receive, which internal/netio/netio_test.go skips in sandboxed
// environments that lack multicast support.

func twoPeers(t *testing.T) (x, y *Peer) {
	t.Helper()
	x = newTestPeer(t, WithHeader(Header{SearchTarget: "ST_P2P", USN: "nodeX", SmID: "1", Location: Location{Port: 5678}}))
	x.interfaces = []iface.Interface{{Name: "eth0", IP: "192.168.1.10", RawAddr: ipu32(192, 168, 1, 10), Netmask: ipu32(255, 255, 255, 0)}}

	y = newTestPeer(t, WithHeader(Header{SearchTarget: "ST_P2P", USN: "nodeY", SmID: "2", Location: Location{Port: 5678}}))
	y.interfaces = []iface.Interface{{Name: "eth0", IP: "192.168.1.20", RawAddr: ipu32(192, 168, 1, 20), Netmask: ipu32(255, 255, 255, 0)}}
	return x, y
}

// Scenario 1: Discovery.
func TestScenario_Discovery(t *testing.T) {
	x, y := twoPeers(t)

	msearch := wire.BuildMSearch(Header{SearchTarget: "ST_P2P"}, 1900)
	x.dispatch(msearch, "192.168.1.20")
	if x.neighbors.Len() != 0 {
		t.Fatalf("X neighbor list length = %d after M-SEARCH, want 0", x.neighbors.Len())
	}

	match, ok := x.findLANInterface(ipu32(192, 168, 1, 20))
	if !ok {
		t.Fatal("X findLANInterface() ok = false, want true")
	}
	if match.IP != "192.168.1.10" {
		t.Fatalf("X would reply from %q, want 192.168.1.10", match.IP)
	}

	response := wire.BuildResponse(x.cfg.Header, match.IP, time.Now())
	var fired int
	y.cfg.NeighborListChanged = func() { fired++ }
	y.dispatch(response, "192.168.1.10")

	if y.neighbors.Len() != 1 {
		t.Fatalf("Y neighbor list length = %d, want 1", y.neighbors.Len())
	}
	got := y.Neighbors()[0]
	if got.USN != "nodeX" || got.Location != "192.168.1.10:5678" {
		t.Errorf("Y neighbor = %+v, want usn=nodeX location=192.168.1.10:5678", got)
	}
	if fired != 1 {
		t.Errorf("Y NeighborListChanged fired %d times, want 1", fired)
	}
}

// Scenario 2: NOTIFY absorb.
func TestScenario_NotifyAbsorb(t *testing.T) {
	x, y := twoPeers(t)

	notify := wire.BuildNotify(y.cfg.Header, "192.168.1.20", 1900)
	x.dispatch(notify, "192.168.1.20")

	if x.neighbors.Len() != 1 {
		t.Fatalf("X neighbor list length = %d, want 1", x.neighbors.Len())
	}
	if x.Neighbors()[0].Location != "192.168.1.20:5678" {
		t.Errorf("X neighbor location = %q, want 192.168.1.20:5678", x.Neighbors()[0].Location)
	}
}

// Scenario 6: ST filter.
func TestScenario_STFilter(t *testing.T) {
	x, _ := twoPeers(t)

	notify := wire.BuildNotify(Header{SearchTarget: "ST_OTHER", USN: "nodeZ", Location: Location{Port: 1900}}, "192.168.1.30", 1900)
	var fired int
	x.cfg.NeighborListChanged = func() { fired++ }
	x.dispatch(notify, "192.168.1.30")

	if x.neighbors.Len() != 0 {
		t.Errorf("X neighbor list length = %d after ST mismatch, want 0", x.neighbors.Len())
	}
	if fired != 0 {
		t.Errorf("callback fired %d times after ST mismatch, want 0", fired)
	}
}

// Scenario 5: Self-echo, driven through two peers so the filtered source
// really is the receiver's own configured interface.
func TestScenario_SelfEcho(t *testing.T) {
	x, _ := twoPeers(t)

	notify := wire.BuildNotify(x.cfg.Header, "192.168.1.10", 1900)
	var fired int
	x.cfg.NeighborListChanged = func() { fired++ }
	x.dispatch(notify, "192.168.1.10")

	if x.neighbors.Len() != 0 {
		t.Errorf("X neighbor list length = %d after self-echo, want 0", x.neighbors.Len())
	}
	if fired != 0 {
		t.Errorf("callback fired %d times on self-echo, want 0", fired)
	}
}
