// Package leasedb implements the in-memory lease database.
//
// The database is the only shared mutable state of the lease tracking engine.
// Records, the monitoring session state and the change broadcast all live
// under one mutex; waiters never hold that mutex while blocked. Instead every
// mutation closes the current "changed" channel and installs a new one, so a
// waiter that took the channel together with its predicate check is woken by
// the next mutation.
package leasedb

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"dhcp-leasewatch/internal/types"
)

// Outcome is the result of applying one lease event.
type Outcome int

const (
	// OutcomeApplied means the event changed (or confirmed) a record.
	OutcomeApplied Outcome = iota
	// OutcomeAbsent means a delete named a MAC with no record.
	OutcomeAbsent
	// OutcomeDiscarded means monitoring was not running and the event was dropped.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAbsent:
		return "absent"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "invalid"
	}
}

// Database maps a normalized MAC address to its most recent lease record.
type Database struct {
	mu      sync.Mutex
	records map[string]types.LeaseRecord
	changed chan struct{}
	state   types.MonitorState
}

// New returns an empty database in state NotStarted.
func New() *Database {
	return &Database{
		records: make(map[string]types.LeaseRecord),
		changed: make(chan struct{}),
		state:   types.StateNotStarted,
	}
}

// broadcast wakes every waiter registered on the current change channel.
// Callers must hold d.mu.
func (d *Database) broadcast() {
	close(d.changed)
	d.changed = make(chan struct{})
}

// Upsert stores rec, replacing any record with the same MAC.
func (d *Database) Upsert(rec types.LeaseRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[rec.MAC] = rec
	d.broadcast()
}

// Remove deletes the record for mac and reports whether one existed.
func (d *Database) Remove(mac string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.records[mac]
	delete(d.records, mac)
	d.broadcast()
	return ok
}

// Get returns the record for mac.
func (d *Database) Get(mac string) (types.LeaseRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[mac]
	return rec, ok
}

// Observe returns the record for mac together with the channel that will be
// closed on the next mutation. Both are taken under the same lock.
func (d *Database) Observe(mac string) (types.LeaseRecord, bool, <-chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[mac]
	return rec, ok, d.changed
}

// Clear removes every record.
func (d *Database) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.records)
	d.broadcast()
}

// Len returns the number of records.
func (d *Database) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// Snapshot returns a copy of all records sorted by IP address, then MAC.
func (d *Database) Snapshot() []types.LeaseRecord {
	d.mu.Lock()
	out := make([]types.LeaseRecord, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, rec)
	}
	d.mu.Unlock()

	slices.SortFunc(out, func(a, b types.LeaseRecord) int {
		if c := a.IP.Compare(b.IP); c != 0 {
			return c
		}
		return strings.Compare(a.MAC, b.MAC)
	})
	return out
}

// State returns the monitoring session state.
func (d *Database) State() types.MonitorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Transition moves the session to state to if the current state is one of from.
// It returns the previous state.
func (d *Database) Transition(to types.MonitorState, from ...types.MonitorState) (types.MonitorState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.state
	if !slices.Contains(from, prev) {
		return prev, fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, prev, to)
	}
	d.state = to
	return prev, nil
}

// Apply applies a validated lease record change while the session is running.
// For EventDeleted only rec.MAC is used. Events arriving in any other state are
// discarded without touching the records.
func (d *Database) Apply(kind types.EventKind, rec types.LeaseRecord) Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != types.StateRunning {
		return OutcomeDiscarded
	}

	outcome := OutcomeApplied
	switch kind {
	case types.EventAdded, types.EventUpdated:
		d.records[rec.MAC] = rec
	case types.EventDeleted:
		if _, ok := d.records[rec.MAC]; !ok {
			outcome = OutcomeAbsent
		}
		delete(d.records, rec.MAC)
	default:
		return OutcomeDiscarded
	}
	d.broadcast()
	return outcome
}
