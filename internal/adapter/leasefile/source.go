// Package leasefile derives lease notifications from the dnsmasq lease file.
//
// Every rewrite of the file is compared with the previous content; the
// differences become added, updated and deleted events.
package leasefile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/b0ch3nski/go-dnsmasq-utils/dnsmasq"
	"github.com/sirupsen/logrus"
)

// Source implements the LeaseEventSource port by watching a lease file.
type Source struct {
	path       string
	dnsAddress string
	logger     *logrus.Entry
}

// Ensure Source implements the LeaseEventSource port
var _ port.LeaseEventSource = (*Source)(nil)

// NewSource creates a lease file source. dnsAddress is the dnsmasq DNS
// listener queried by GetVersion.
func NewSource(path, dnsAddress string) *Source {
	return &Source{
		path:       path,
		dnsAddress: dnsAddress,
		logger:     logging.WithComponent("leasefile"),
	}
}

// Subscribe announces every lease currently in the file, then follows its changes.
func (s *Source) Subscribe(ctx context.Context) (port.Subscription, error) {
	current, err := s.read()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		events: make(chan types.LeaseEvent),
		cancel: cancel,
	}
	updates := make(chan []*dnsmasq.Lease)

	go func() {
		if err := dnsmasq.WatchLeases(ctx, s.path, updates); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Error("Lease file watch ended")
		}
	}()

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		defer close(sub.events)

		prev := map[string]*dnsmasq.Lease{}
		if !sub.send(ctx, Diff(prev, index(current))) {
			return
		}
		prev = index(current)

		for {
			select {
			case <-ctx.Done():
				return
			case leases, ok := <-updates:
				if !ok {
					return
				}
				next := index(leases)
				if !sub.send(ctx, Diff(prev, next)) {
					return
				}
				prev = next
			}
		}
	}()

	s.logger.WithField("path", s.path).Debug("Watching lease file")
	return sub, nil
}

func (s *Source) read() ([]*dnsmasq.Lease, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open lease file %s: %w", s.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	leases, err := dnsmasq.ReadLeases(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read lease file %s: %w", s.path, err)
	}
	return leases, nil
}

// GetVersion asks dnsmasq for its version over a CHAOS TXT query.
func (s *Source) GetVersion(ctx context.Context) (string, error) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return QueryVersion(ctx, s.dnsAddress, timeout)
}

type subscription struct {
	events    chan types.LeaseEvent
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (s *subscription) Events() <-chan types.LeaseEvent {
	return s.events
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
	return nil
}

func (s *subscription) send(ctx context.Context, events []types.LeaseEvent) bool {
	for _, ev := range events {
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func index(leases []*dnsmasq.Lease) map[string]*dnsmasq.Lease {
	out := make(map[string]*dnsmasq.Lease, len(leases))
	for _, l := range leases {
		if l == nil || len(l.MacAddr) == 0 {
			continue
		}
		out[l.MacAddr.String()] = l
	}
	return out
}

// Diff returns the events that turn prev into next, ordered by MAC address.
func Diff(prev, next map[string]*dnsmasq.Lease) []types.LeaseEvent {
	var events []types.LeaseEvent
	for mac, l := range next {
		old, ok := prev[mac]
		switch {
		case !ok:
			events = append(events, eventFromLease(types.EventAdded, l))
		case !sameLease(old, l):
			events = append(events, eventFromLease(types.EventUpdated, l))
		}
	}
	for mac, l := range prev {
		if _, ok := next[mac]; !ok {
			events = append(events, eventFromLease(types.EventDeleted, l))
		}
	}
	slices.SortFunc(events, func(a, b types.LeaseEvent) int {
		switch {
		case a.MAC < b.MAC:
			return -1
		case a.MAC > b.MAC:
			return 1
		}
		return 0
	})
	return events
}

func sameLease(a, b *dnsmasq.Lease) bool {
	return a.IPAddr == b.IPAddr && a.Hostname == b.Hostname && a.Expires.Equal(b.Expires)
}

func eventFromLease(kind types.EventKind, l *dnsmasq.Lease) types.LeaseEvent {
	return types.LeaseEvent{
		Kind:     kind,
		MAC:      l.MacAddr.String(),
		IP:       l.IPAddr.String(),
		Hostname: l.Hostname,
		Expiry:   l.Expires,
	}
}
