package neighbor

import (
	"testing"

	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/internal/wire"
)

func pkt(location, usn, smID, deviceType string, updateTimeMs int64) *wire.Packet {
	return &wire.Packet{
		Location:     location,
		USN:          usn,
		SmID:         smID,
		DeviceType:   deviceType,
		UpdateTimeMs: updateTimeMs,
	}
}

func TestObserve_NewLocation_FiresCallbackOnce(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	var fired int
	tbl.Observe(pkt("192.168.1.10:5678", "nodeX", "1", "camera", 0), func() { fired++ })

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
}

func TestObserve_SameLocationTwice_LengthUnchanged(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	tbl.Observe(pkt("a", "u1", "s1", "d1", 0), nil)
	tbl.Observe(pkt("a", "u1", "s1", "d1", 100), nil)

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
}

func TestObserve_Drift_UpdatesWithoutCallback(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	var fired int
	tbl.Observe(pkt("a", "u1", "s1", "d1", 0), func() { fired++ })
	tbl.Observe(pkt("a", "u2", "s1", "d1", 100), func() { fired++ })

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1 (drift alone must not fire it)", fired)
	}
	if got := tbl.Records()[0].USN; got != "u2" {
		t.Errorf("USN = %q, want %q", got, "u2")
	}
}

func TestObserve_WarnsOnFieldDrift(t *testing.T) {
	var warnings int
	sink := logging.NewSink(func(file, tag string, level logging.Level, line int, function, message string) {
		if level == logging.LevelWarn {
			warnings++
		}
	})
	tbl := NewTable(sink)
	tbl.Observe(pkt("a", "u1", "s1", "d1", 0), nil)
	tbl.Observe(pkt("a", "u2", "s1", "d1", 100), nil)

	if warnings != 1 {
		t.Errorf("warnings = %d, want 1 (only usn drifted)", warnings)
	}
}

func TestObserve_InsertionOrderPreserved(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	tbl.Observe(pkt("a", "", "", "", 0), nil)
	tbl.Observe(pkt("b", "", "", "", 0), nil)
	tbl.Observe(pkt("c", "", "", "", 0), nil)

	locs := []string{}
	for _, r := range tbl.Records() {
		locs = append(locs, r.Location)
	}
	want := []string{"a", "b", "c"}
	for i, l := range want {
		if locs[i] != l {
			t.Fatalf("Records()[%d].Location = %q, want %q (order=%v)", i, locs[i], l, locs)
		}
	}
}

func TestSweep_EvictsOnlyExpired(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	tbl.Observe(pkt("a", "", "", "", 0), nil)
	tbl.Observe(pkt("b", "", "", "", 14000), nil)

	var fired int
	tbl.Sweep(15000, 15000, func() { fired++ })

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	if tbl.Records()[0].Location != "b" {
		t.Errorf("remaining record = %q, want %q", tbl.Records()[0].Location, "b")
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
}

func TestSweep_MultipleEvictions_FiresCallbackPerEviction(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	tbl.Observe(pkt("a", "", "", "", 0), nil)
	tbl.Observe(pkt("b", "", "", "", 0), nil)
	tbl.Observe(pkt("c", "", "", "", 100000), nil)

	var fired int
	tbl.Sweep(15000, 15000, func() { fired++ })

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	if fired != 2 {
		t.Errorf("callback fired %d times, want 2", fired)
	}
}

func TestSweep_ConsecutiveEvictions_NoSkippedEntry(t *testing.T) {
	// Regression coverage for the source's traversal bug (spec.md §9):
	// three consecutive expired entries must all be evicted, not just
	// every other one.
	tbl := NewTable(logging.NewSink(nil))
	tbl.Observe(pkt("a", "", "", "", 0), nil)
	tbl.Observe(pkt("b", "", "", "", 0), nil)
	tbl.Observe(pkt("c", "", "", "", 0), nil)
	tbl.Observe(pkt("d", "", "", "", 100000), nil)

	tbl.Sweep(15000, 15000, nil)

	if tbl.Len() != 1 || tbl.Records()[0].Location != "d" {
		t.Fatalf("after sweep got %+v, want only location=d remaining", tbl.Records())
	}
}

func TestSweep_RemainingRecordsSatisfyTimeoutInvariant(t *testing.T) {
	tbl := NewTable(logging.NewSink(nil))
	tbl.Observe(pkt("a", "", "", "", 0), nil)
	tbl.Observe(pkt("b", "", "", "", 10000), nil)

	tbl.Sweep(20000, 15000, nil)

	for _, r := range tbl.Records() {
		if 20000-r.UpdateTimeMs >= 15000 {
			t.Errorf("record %+v violates post-sweep timeout invariant", r)
		}
	}
}
