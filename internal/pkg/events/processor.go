// Package events bridges asynchronous lease notifications into lease database mutations.
package events

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"dhcp-leasewatch/internal/pkg/leasedb"
	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/pkg/metrics"
	"dhcp-leasewatch/internal/types"

	"github.com/sirupsen/logrus"
)

// ErrMalformedEvent is returned by Handle for events that cannot be applied.
var ErrMalformedEvent = errors.New("malformed lease event")

const outcomeMalformed = "malformed"

// Processor is the only writer of lease records. Notifications are not tagged
// with the interface they originate from, so events for every MAC are accepted,
// including those of unrelated DHCP server instances on the same bus.
type Processor struct {
	db     *leasedb.Database
	logger *logrus.Entry
}

// NewProcessor creates a processor writing into db.
func NewProcessor(db *leasedb.Database) *Processor {
	return &Processor{
		db:     db,
		logger: logging.WithComponent("events"),
	}
}

// Run consumes events until ctx is cancelled or the channel is closed.
// Ingestion errors are logged and never returned.
func (p *Processor) Run(ctx context.Context, events <-chan types.LeaseEvent) {
	p.logger.Debug("Lease event processor started")
	defer p.logger.Debug("Lease event processor stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_, _ = p.Handle(ev)
		}
	}
}

// Handle validates and applies one event. A malformed event leaves the
// database untouched and is reported through the returned error only.
func (p *Processor) Handle(ev types.LeaseEvent) (leasedb.Outcome, error) {
	rec, err := recordFromEvent(ev)
	if err != nil {
		metrics.LeaseEvents.WithLabelValues(ev.Kind.String(), outcomeMalformed).Inc()
		p.logger.WithError(err).WithFields(logrus.Fields{
			"kind": ev.Kind.String(),
			"raw":  ev.MAC,
		}).Warn("Discarding malformed lease event")
		return leasedb.OutcomeDiscarded, err
	}

	outcome := p.db.Apply(ev.Kind, rec)
	metrics.LeaseEvents.WithLabelValues(ev.Kind.String(), outcome.String()).Inc()

	logger := p.logger.WithField("mac", rec.MAC).WithField("kind", ev.Kind.String())
	switch outcome {
	case leasedb.OutcomeDiscarded:
		logger.Debug("Monitoring paused, lease event discarded")
		return outcome, nil
	case leasedb.OutcomeAbsent:
		logger.Debug("Lease deleted for unknown MAC (maybe the database was reset in the meantime)")
	default:
		if ev.Kind == types.EventDeleted {
			logger.Info("Lease deleted")
		} else {
			logger.WithField("ip", rec.IP.String()).Info("Lease recorded")
		}
	}
	metrics.TrackedLeases.Set(float64(p.db.Len()))
	return outcome, nil
}

func recordFromEvent(ev types.LeaseEvent) (types.LeaseRecord, error) {
	if ev.MAC == "" {
		return types.LeaseRecord{}, fmt.Errorf("%w: missing MAC address", ErrMalformedEvent)
	}
	mac, err := types.NormalizeMAC(ev.MAC)
	if err != nil {
		return types.LeaseRecord{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	switch ev.Kind {
	case types.EventDeleted:
		return types.LeaseRecord{MAC: mac}, nil
	case types.EventAdded, types.EventUpdated:
		ip, err := netip.ParseAddr(ev.IP)
		if err != nil {
			return types.LeaseRecord{}, fmt.Errorf("%w: invalid IP address %q: %w", ErrMalformedEvent, ev.IP, err)
		}
		return types.LeaseRecord{
			MAC:      mac,
			IP:       ip,
			Hostname: types.NormalizeHostname(ev.Hostname),
			Expiry:   ev.Expiry,
		}, nil
	default:
		return types.LeaseRecord{}, fmt.Errorf("%w: unknown event kind %d", ErrMalformedEvent, ev.Kind)
	}
}
