// Package neighbor implements the neighbor table: spec.md's component D.
//
// Grounded on beacon's internal/records package (ttl_test.go's RecordTTL
// shape - CreatedAt/TTL/GetRemainingTTL/IsExpired) re-purposed from a
// decaying per-record-type TTL keyed by DNS name to an absolute-deadline
// timeout keyed by Location, per spec.md §3/§4.D: identity here is the
// network address a neighbor is reachable at, not a name, and eviction is
// "age >= a single configured threshold", not "per-record TTL countdown".
package neighbor

import (
	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/internal/wire"
)

// Record is one known remote peer (spec.md §3 "Neighbor record").
type Record struct {
	Location     string
	USN          string
	SmID         string
	DeviceType   string
	UpdateTimeMs int64
}

// Table is the insertion-ordered neighbor list spec.md §3/§4.D describes.
// Identity key is Location; iteration order is insertion order and is
// preserved across Observe/Sweep. Not safe for concurrent use - the engine
// is single-threaded per spec.md §5.
type Table struct {
	records []*Record
	index   map[string]int // location -> index into records
	sink    logging.Sink
}

// NewTable constructs an empty neighbor table.
func NewTable(sink logging.Sink) *Table {
	return &Table{index: make(map[string]int), sink: sink}
}

// Records returns the live, insertion-ordered backing slice. Per spec.md
// §4.D ("the table does not defensively copy"), callers must not mutate
// it and must not retain it across a call that might Observe or Sweep.
func (t *Table) Records() []*Record { return t.records }

// Len reports the current neighbor count.
func (t *Table) Len() int { return len(t.records) }

// Observe implements spec.md §4.D's observe(packet): insert-or-update by
// Location. On update, each of usn/sm_id/device_type that differs from
// the stored value is logged at WARN and overwritten; update_time_ms is
// always refreshed. Drift alone never fires the change callback - only a
// brand-new Location does, via changed().
func (t *Table) Observe(pkt *wire.Packet, changed func()) {
	if idx, ok := t.index[pkt.Location]; ok {
		rec := t.records[idx]
		t.driftField("usn", rec.USN, pkt.USN, &rec.USN)
		t.driftField("sm_id", rec.SmID, pkt.SmID, &rec.SmID)
		t.driftField("device_type", rec.DeviceType, pkt.DeviceType, &rec.DeviceType)
		rec.UpdateTimeMs = pkt.UpdateTimeMs
		return
	}

	rec := &Record{
		Location:     pkt.Location,
		USN:          pkt.USN,
		SmID:         pkt.SmID,
		DeviceType:   pkt.DeviceType,
		UpdateTimeMs: pkt.UpdateTimeMs,
	}
	t.index[pkt.Location] = len(t.records)
	t.records = append(t.records, rec)
	if changed != nil {
		changed()
	}
}

func (t *Table) driftField(name, old, new string, dest *string) {
	if old != new {
		t.sink.Warn("neighbor %s was changed. %s -> %s", name, old, new)
		*dest = new
	}
}

// Sweep implements spec.md §4.D's sweep(now_ms): evict every record whose
// age has reached neighborTimeoutMs, logging one WARN per eviction and
// firing changed once per eviction - never once per call, matching the
// literal end-to-end Timeout scenario in spec.md §8.
//
// The source's lssdp_check_neighbor_timeout fails to advance its "prev"
// pointer after removing a node, which can skip the node that slides into
// the removed slot (spec.md §9 flags this as a bug, not behavior to
// reproduce). Rebuilding into a fresh slice sidesteps that class of bug
// entirely: every remaining record is visited exactly once regardless of
// how many precede it are evicted.
func (t *Table) Sweep(nowMs, neighborTimeoutMs int64, changed func()) {
	if len(t.records) == 0 {
		return
	}

	kept := t.records[:0:0]
	for _, rec := range t.records {
		age := nowMs - rec.UpdateTimeMs
		if age < neighborTimeoutMs {
			kept = append(kept, rec)
			continue
		}
		t.sink.Warn("neighbor timeout sm_id=%s location=%s (%dms)", rec.SmID, rec.Location, neighborTimeoutMs)
		if changed != nil {
			changed()
		}
	}

	t.records = kept
	t.reindex()
}

func (t *Table) reindex() {
	for k := range t.index {
		delete(t.index, k)
	}
	for i, rec := range t.records {
		t.index[rec.Location] = i
	}
}
