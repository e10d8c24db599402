// Package dbus receives dnsmasq lease notifications over the system D-Bus.
package dbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// Well-known dnsmasq bus name, object path and interface.
const (
	ServiceName = "uk.org.thekelleys.dnsmasq"
	ObjectPath  = dbus.ObjectPath("/uk/org/thekelleys/dnsmasq")
	Interface   = "uk.org.thekelleys.dnsmasq"
)

// Signal members.
const (
	memberLeaseAdded   = "DhcpLeaseAdded"
	memberLeaseUpdated = "DhcpLeaseUpdated"
	memberLeaseDeleted = "DhcpLeaseDeleted"

	busInterface          = "org.freedesktop.DBus"
	memberNameOwnerChange = "NameOwnerChanged"
)

const ownerPollInterval = 100 * time.Millisecond

// Connector opens a new private bus connection.
type Connector func() (*dbus.Conn, error)

// Source implements the LeaseEventSource port on the system bus.
type Source struct {
	connect Connector
	busWait time.Duration
	logger  *logrus.Entry
}

// Ensure Source implements the LeaseEventSource port
var _ port.LeaseEventSource = (*Source)(nil)

// NewSource creates a D-Bus lease event source. Subscribe waits up to busWait
// for dnsmasq to own its bus name.
func NewSource(busWait time.Duration) *Source {
	return NewSourceWithConnector(func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }, busWait)
}

// NewSourceWithConnector creates a source using connect to reach the bus.
func NewSourceWithConnector(connect Connector, busWait time.Duration) *Source {
	return &Source{
		connect: connect,
		busWait: busWait,
		logger:  logging.WithComponent("dbus"),
	}
}

// Subscribe waits for dnsmasq to appear on the bus and starts delivering its lease signals.
func (s *Source) Subscribe(ctx context.Context) (port.Subscription, error) {
	conn, err := s.connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	if err := s.waitForOwner(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	matches := []dbus.MatchOption{
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(Interface),
	}
	if err := conn.AddMatchSignalContext(ctx, matches...); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to add signal match: %w", err)
	}
	ownerMatch := []dbus.MatchOption{
		dbus.WithMatchInterface(busInterface),
		dbus.WithMatchMember(memberNameOwnerChange),
		dbus.WithMatchArg(0, ServiceName),
	}
	if err := conn.AddMatchSignalContext(ctx, ownerMatch...); err != nil {
		s.logger.WithError(err).Warn("Failed to watch bus name owner, server restarts will go unnoticed")
	}

	signals := make(chan *dbus.Signal, 64)
	conn.Signal(signals)

	sub := &subscription{
		conn:    conn,
		signals: signals,
		events:  make(chan types.LeaseEvent),
		done:    make(chan struct{}),
		logger:  s.logger,
	}
	sub.wg.Add(1)
	go sub.run()

	s.logger.Debug("Subscribed to DHCP lease signals")
	return sub, nil
}

// waitForOwner polls until ServiceName has an owner or the bus wait elapses.
func (s *Source) waitForOwner(ctx context.Context, conn *dbus.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, s.busWait)
	defer cancel()

	ticker := time.NewTicker(ownerPollInterval)
	defer ticker.Stop()

	for {
		var hasOwner bool
		err := conn.BusObject().CallWithContext(ctx, busInterface+".NameHasOwner", 0, ServiceName).Store(&hasOwner)
		if err == nil && hasOwner {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s did not appear on the bus within %s", ServiceName, s.busWait)
		case <-ticker.C:
		}
	}
}

// GetVersion calls the dnsmasq GetVersion method.
func (s *Source) GetVersion(ctx context.Context) (string, error) {
	conn, err := s.connect()
	if err != nil {
		return "", fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	var version string
	obj := conn.Object(ServiceName, ObjectPath)
	if err := obj.CallWithContext(ctx, Interface+".GetVersion", 0).Store(&version); err != nil {
		return "", fmt.Errorf("GetVersion call failed: %w", err)
	}
	return version, nil
}

type subscription struct {
	conn      *dbus.Conn
	signals   chan *dbus.Signal
	events    chan types.LeaseEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	logger    *logrus.Entry
}

func (s *subscription) Events() <-chan types.LeaseEvent {
	return s.events
}

func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.RemoveSignal(s.signals)
		err = s.conn.Close()
		s.wg.Wait()
	})
	return err
}

func (s *subscription) run() {
	defer s.wg.Done()
	defer close(s.events)

	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			if sig.Name == busInterface+"."+memberNameOwnerChange {
				s.ownerChanged(sig)
				continue
			}
			ev, ok := EventFromSignal(sig)
			if !ok {
				s.logger.WithField("signal", sig.Name).Debug("Ignoring unrelated signal")
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscription) ownerChanged(sig *dbus.Signal) {
	if len(sig.Body) < 3 {
		return
	}
	newOwner, _ := sig.Body[2].(string)
	if newOwner == "" {
		s.logger.Warn("DHCP server left the bus, no more lease notifications until it comes back")
		return
	}
	s.logger.WithField("owner", newOwner).Warn("DHCP server bus name changed owner")
}

// EventFromSignal translates a dnsmasq lease signal. It reports false for any
// other signal. Signals with missing or non-string arguments yield an event with
// empty fields, which the event processor rejects as malformed.
func EventFromSignal(sig *dbus.Signal) (types.LeaseEvent, bool) {
	var kind types.EventKind
	switch sig.Name {
	case Interface + "." + memberLeaseAdded:
		kind = types.EventAdded
	case Interface + "." + memberLeaseUpdated:
		kind = types.EventUpdated
	case Interface + "." + memberLeaseDeleted:
		kind = types.EventDeleted
	default:
		return types.LeaseEvent{}, false
	}

	arg := func(i int) string {
		if i >= len(sig.Body) {
			return ""
		}
		v, _ := sig.Body[i].(string)
		return v
	}
	return types.LeaseEvent{
		Kind:     kind,
		IP:       arg(0),
		MAC:      arg(1),
		Hostname: arg(2),
	}, true
}
