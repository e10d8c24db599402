// Package query answers presence and absence questions about client leases,
// optionally waiting for the lease database to change.
package query

import (
	"fmt"
	"net/netip"
	"time"

	"dhcp-leasewatch/internal/pkg/leasedb"
	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/pkg/metrics"
	"dhcp-leasewatch/internal/types"

	"github.com/sirupsen/logrus"
)

// Bound is an optional wait bound. The zero value means no bound was given.
type Bound struct {
	d   time.Duration
	set bool
}

// NoBound is the absent bound.
var NoBound = Bound{}

// Within returns a bound of d. A bound of zero or less checks the current state only.
func Within(d time.Duration) Bound {
	return Bound{d: d, set: true}
}

// Get returns the bound and whether one was given.
func (b Bound) Get() (time.Duration, bool) {
	return b.d, b.set
}

func (b Bound) String() string {
	if !b.set {
		return "none"
	}
	return b.d.String()
}

// LeaseTimeFunc returns the configured lease time, or false when none is configured.
type LeaseTimeFunc func() (time.Duration, bool)

// Engine runs read-only queries against a lease database.
type Engine struct {
	db        *leasedb.Database
	leaseTime LeaseTimeFunc
	logger    *logrus.Entry
}

// NewEngine creates an engine over db. leaseTime may be nil.
func NewEngine(db *leasedb.Database, leaseTime LeaseTimeFunc) *Engine {
	if leaseTime == nil {
		leaseTime = func() (time.Duration, bool) { return 0, false }
	}
	return &Engine{
		db:        db,
		leaseTime: leaseTime,
		logger:    logging.WithComponent("query"),
	}
}

// FindIPForMac returns the IP leased to mac, if any. It never blocks and never fails.
func (e *Engine) FindIPForMac(mac string) (netip.Addr, bool) {
	norm, err := types.NormalizeMAC(mac)
	if err != nil {
		return netip.Addr{}, false
	}
	rec, ok := e.db.Get(norm)
	return rec.IP, ok
}

// WaitLease blocks until mac has a lease or the bound elapses, and returns its IP.
// Without a bound only the current state is checked.
func (e *Engine) WaitLease(mac string, bound Bound) (netip.Addr, error) {
	norm, err := types.NormalizeMAC(mac)
	if err != nil {
		return netip.Addr{}, types.NewUsageError("wait lease", err)
	}
	budget, _ := bound.Get()

	start := time.Now()
	rec, ok := e.waitPresent(norm, budget)
	observe("wait", ok, start)

	logger := e.logger.WithField("mac", norm)
	if !ok {
		logger.WithField("timeout", bound.String()).Info("No lease known")
		return netip.Addr{}, types.NewAssertionError(norm, types.ErrLeaseNotFound)
	}
	logger.WithField("ip", rec.IP.String()).Info("Lease seen for device")
	return rec.IP, nil
}

// CheckClientOn succeeds if mac has, or acquires within the resolved bound, a lease.
func (e *Engine) CheckClientOn(mac string, bound Bound) error {
	norm, budget, err := e.prepareCheck("check dhcp client on", mac, bound)
	if err != nil {
		return err
	}

	start := time.Now()
	rec, ok := e.waitPresent(norm, budget)
	observe("on", ok, start)

	logger := e.logger.WithField("mac", norm).WithField("timeout", budget.String())
	if !ok {
		logger.Info("DHCP client is off")
		return types.NewAssertionError(norm, types.ErrLeaseNotFound)
	}
	logger.WithField("ip", rec.IP.String()).Info("DHCP client is on")
	return nil
}

// CheckClientOff succeeds if mac has no lease and does not acquire one within the resolved bound.
func (e *Engine) CheckClientOff(mac string, bound Bound) error {
	norm, budget, err := e.prepareCheck("check dhcp client off", mac, bound)
	if err != nil {
		return err
	}

	start := time.Now()
	rec, present := e.waitPresent(norm, budget)
	observe("off", !present, start)

	logger := e.logger.WithField("mac", norm).WithField("timeout", budget.String())
	if present {
		logger.WithField("ip", rec.IP.String()).Info("DHCP client is on")
		return types.NewAssertionError(norm, fmt.Errorf("%w: %s", types.ErrLeaseExists, rec.IP))
	}
	logger.Info("DHCP client is off")
	return nil
}

// ResolveBound returns the wait budget for an On/Off check: the explicit bound
// if given, else half the configured lease time.
func (e *Engine) ResolveBound(bound Bound) (time.Duration, error) {
	if d, ok := bound.Get(); ok {
		return max(d, 0), nil
	}
	if lt, ok := e.leaseTime(); ok && lt > 0 {
		return lt / 2, nil
	}
	return 0, types.ErrNoTimeoutConfigured
}

func (e *Engine) prepareCheck(op, mac string, bound Bound) (string, time.Duration, error) {
	norm, err := types.NormalizeMAC(mac)
	if err != nil {
		return "", 0, types.NewUsageError(op, err)
	}
	budget, err := e.ResolveBound(bound)
	if err != nil {
		return "", 0, types.NewUsageError(op, err)
	}
	return norm, budget, nil
}

// waitPresent returns as soon as mac has a record, or after budget with the
// state found at the deadline. A budget of zero or less never blocks.
func (e *Engine) waitPresent(mac string, budget time.Duration) (types.LeaseRecord, bool) {
	deadline := time.Now().Add(budget)
	var timer *time.Timer

	for {
		rec, ok, changed := e.db.Observe(mac)
		if ok {
			return rec, true
		}
		remaining := time.Until(deadline)
		if budget <= 0 || remaining <= 0 {
			return rec, false
		}
		if timer == nil {
			timer = time.NewTimer(remaining)
			defer timer.Stop()
		}

		select {
		case <-changed:
		case <-timer.C:
			return e.db.Get(mac)
		}
	}
}

func observe(check string, success bool, start time.Time) {
	result := "success"
	if !success {
		result = "failure"
	}
	metrics.CheckDuration.WithLabelValues(check, result).Observe(time.Since(start).Seconds())
}
