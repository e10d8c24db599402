// Package monitor implements the monitoring lifecycle controller: it owns the
// DHCP server process, the lease notification subscription and the lease
// database, and exposes the LeaseMonitor keyword surface.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"dhcp-leasewatch/internal/pkg/config"
	"dhcp-leasewatch/internal/pkg/events"
	"dhcp-leasewatch/internal/pkg/leasedb"
	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/pkg/metrics"
	"dhcp-leasewatch/internal/pkg/query"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/davidbanham/human_duration/v3"
	"github.com/sirupsen/logrus"
)

const defaultVersionTimeout = 4 * time.Second

// InterfacePreparer readies the server interface before the server starts.
type InterfacePreparer interface {
	Prepare(ctx context.Context, ifaceName string, address netip.Prefix) error
}

// Options holds the server and monitoring settings of a Manager.
type Options struct {
	Interface        string
	LeaseTime        string
	RangeStart       string
	RangeEnd         string
	User             string
	Group            string
	PIDFile          string
	LeaseFile        string
	EnableDBus       bool
	InterfaceAddress netip.Prefix
	VersionTimeout   time.Duration
	ReloadOnResume   bool
}

// OptionsFromConfig builds manager options from a validated configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Interface:      cfg.Server.Interface,
		LeaseTime:      cfg.Server.LeaseTime,
		RangeStart:     cfg.Server.RangeStart,
		RangeEnd:       cfg.Server.RangeEnd,
		User:           cfg.Server.User,
		Group:          cfg.Server.Group,
		PIDFile:        cfg.Server.PIDFile,
		EnableDBus:     cfg.Monitor.Source == config.SourceDBus,
		VersionTimeout: cfg.Monitor.VersionTimeout,
		ReloadOnResume: cfg.Monitor.ReloadOnResume,
	}
	if cfg.Monitor.Source == config.SourceLeaseFile {
		opts.LeaseFile = cfg.Server.LeaseFile
	}
	if cfg.Server.InterfaceAddress != "" {
		opts.InterfaceAddress, _ = netip.ParsePrefix(cfg.Server.InterfaceAddress)
	}
	return opts
}

// Manager drives one DHCP server and its lease monitoring session.
//
// lifecycleMu serializes the lifecycle operations, which may block on the
// server process. mu guards the settings and is only held briefly, so that
// queries never wait behind a lifecycle operation.
type Manager struct {
	lifecycleMu sync.Mutex
	handle      types.ServerHandle
	sub         port.Subscription
	sessionCtx  context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu            sync.Mutex
	opts          Options
	leaseDuration time.Duration
	leaseSet      bool

	db         *leasedb.Database
	processor  *events.Processor
	engine     *query.Engine
	supervisor port.ServerSupervisor
	source     port.LeaseEventSource
	preparer   InterfacePreparer
	logger     *logrus.Entry
}

// Ensure Manager implements the LeaseMonitor port
var _ port.LeaseMonitor = (*Manager)(nil)

// NewManager creates a manager. preparer may be nil, in which case the
// interface is used as is. An invalid lease time in opts is ignored with a warning.
func NewManager(opts Options, supervisor port.ServerSupervisor, source port.LeaseEventSource, preparer InterfacePreparer) *Manager {
	if opts.VersionTimeout <= 0 {
		opts.VersionTimeout = defaultVersionTimeout
	}

	m := &Manager{
		opts:       opts,
		db:         leasedb.New(),
		supervisor: supervisor,
		source:     source,
		preparer:   preparer,
		logger:     logging.WithComponent("monitor"),
	}
	m.processor = events.NewProcessor(m.db)
	m.engine = query.NewEngine(m.db, m.leaseTime)

	if opts.LeaseTime != "" {
		if err := m.setLeaseTime(opts.LeaseTime); err != nil {
			m.logger.WithError(err).Warn("Ignoring configured lease time")
		}
	}
	return m
}

// State returns the monitoring session state.
func (m *Manager) State() types.MonitorState {
	return m.db.State()
}

// SetInterface sets the interface the next Start serves.
func (m *Manager) SetInterface(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts.Interface = name
}

// GetCurrentInterface returns the configured interface, which may not be served yet.
func (m *Manager) GetCurrentInterface() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.Interface
}

// SetLeaseTime sets the lease time handed to the server, in dnsmasq syntax.
// It must be called before Start.
func (m *Manager) SetLeaseTime(leaseTime string) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.db.State().Active() {
		return types.NewUsageError("set lease time", types.ErrAlreadyRunning)
	}
	if err := m.setLeaseTime(leaseTime); err != nil {
		return types.NewUsageError("set lease time", err)
	}
	return nil
}

func (m *Manager) setLeaseTime(leaseTime string) error {
	d, infinite, err := config.ParseLeaseTime(leaseTime)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts.LeaseTime = leaseTime
	m.leaseDuration = d
	m.leaseSet = !infinite
	return nil
}

// leaseTime feeds the query engine its default wait bound.
func (m *Manager) leaseTime() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaseDuration, m.leaseSet
}

func (m *Manager) serverSpec() types.ServerSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.ServerSpec{
		Interface:  m.opts.Interface,
		LeaseTime:  m.opts.LeaseTime,
		RangeStart: m.opts.RangeStart,
		RangeEnd:   m.opts.RangeEnd,
		User:       m.opts.User,
		Group:      m.opts.Group,
		PIDFile:    m.opts.PIDFile,
		LeaseFile:  m.opts.LeaseFile,
		EnableDBus: m.opts.EnableDBus,
	}
}

// Start launches the DHCP server and starts monitoring its leases with an
// empty lease database.
func (m *Manager) Start(ctx context.Context, opts port.StartOptions) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	return m.start(ctx, opts)
}

func (m *Manager) start(ctx context.Context, opts port.StartOptions) error {
	if m.db.State().Active() {
		return types.NewUsageError("start", types.ErrAlreadyRunning)
	}

	if opts.LeaseTime != "" {
		if err := m.setLeaseTime(opts.LeaseTime); err != nil {
			return types.NewUsageError("start", err)
		}
	}
	if opts.Interface != "" {
		m.SetInterface(opts.Interface)
	}

	spec := m.serverSpec()
	if spec.Interface == "" {
		return types.NewUsageError("start", types.ErrNoInterface)
	}
	logger := m.logger.WithField("interface", spec.Interface)

	if m.preparer != nil {
		if err := m.preparer.Prepare(ctx, spec.Interface, m.opts.InterfaceAddress); err != nil {
			return types.NewInfrastructureError("start", fmt.Errorf("%w: %w", types.ErrServerStart, err))
		}
	}

	handle, err := m.supervisor.Start(ctx, spec)
	if err != nil {
		return types.NewInfrastructureError("start", ensureSentinel(types.ErrServerStart, err))
	}

	m.db.Clear()
	metrics.TrackedLeases.Set(0)

	if err := m.subscribe(ctx); err != nil {
		if stopErr := m.supervisor.Stop(ctx, handle); stopErr != nil {
			logger.WithError(stopErr).Error("Failed to stop DHCP server after subscription failure")
		}
		return types.NewInfrastructureError("start", err)
	}
	m.handle = handle

	if _, err := m.db.Transition(types.StateRunning, types.StateNotStarted, types.StateStopped); err != nil {
		m.unsubscribe()
		if stopErr := m.supervisor.Stop(ctx, handle); stopErr != nil {
			logger.WithError(stopErr).Error("Failed to stop DHCP server")
		}
		return types.NewUsageError("start", err)
	}
	m.process()

	if version, err := m.serverVersion(ctx); err != nil {
		logger.WithError(err).Warn("Could not query DHCP server version")
	} else {
		logger = logger.WithField("version", version)
	}
	logger.WithField("pid", handle.PID).Info("DHCP server started and monitored")
	return nil
}

// subscribe opens a subscription whose lifetime is independent from ctx.
// Its events are not consumed until process is called.
func (m *Manager) subscribe(ctx context.Context) error {
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := m.source.Subscribe(sessionCtx)
	if err != nil {
		cancel()
		return ensureSentinel(types.ErrSubscribe, err)
	}

	m.sub = sub
	m.sessionCtx = sessionCtx
	m.cancel = cancel
	return nil
}

// process starts the event processor on the open subscription. It must only
// be called once the session is Running, or the first events would be discarded.
func (m *Manager) process() {
	sub, ctx := m.sub, m.sessionCtx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.processor.Run(ctx, sub.Events())
	}()
}

// unsubscribe stops the event processor and closes the subscription.
func (m *Manager) unsubscribe() {
	if m.sub == nil {
		return
	}
	m.cancel()
	if err := m.sub.Close(); err != nil {
		m.logger.WithError(err).Warn("Failed to close lease subscription")
	}
	m.wg.Wait()
	m.sub = nil
	m.sessionCtx = nil
	m.cancel = nil
}

// Stop ends monitoring and stops the DHCP server. Stopping a stopped session
// is a no-op; stopping a session that was never started is a usage error.
func (m *Manager) Stop(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	return m.stop(ctx)
}

func (m *Manager) stop(ctx context.Context) error {
	prev, err := m.db.Transition(types.StateStopped, types.StateRunning, types.StatePaused)
	if err != nil {
		if prev == types.StateStopped {
			m.logger.Debug("DHCP server already stopped")
			return nil
		}
		return types.NewUsageError("stop", types.ErrNotStarted)
	}

	m.unsubscribe()

	logger := m.logger.WithField("interface", m.handle.Interface)
	handle := m.handle
	m.handle = types.ServerHandle{}
	if err := m.supervisor.Stop(ctx, handle); err != nil {
		return types.NewInfrastructureError("stop", ensureSentinel(types.ErrServerStop, err))
	}
	logger.Info("DHCP server stopped")
	return nil
}

// Restart stops then starts the DHCP server with the current settings.
func (m *Manager) Restart(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if err := m.stop(ctx); err != nil {
		return err
	}
	return m.start(ctx, port.StartOptions{})
}

// StopMonitoringServer pauses monitoring: the subscription is closed, the
// lease database is kept and lease changes are lost until monitoring restarts.
// The DHCP server keeps running.
func (m *Manager) StopMonitoringServer() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if _, err := m.db.Transition(types.StatePaused, types.StateRunning); err != nil {
		m.logger.WithField("state", m.db.State().String()).Debug("Monitoring not running, nothing to stop")
		return nil
	}
	m.unsubscribe()
	m.logger.WithField("interface", m.handle.Interface).Info("DHCP server not monitored anymore")
	return nil
}

// RestartMonitoringServer resumes monitoring after StopMonitoringServer. Lease
// changes that happened while paused are not replayed; when configured, the
// server is asked to re-announce its current leases.
func (m *Manager) RestartMonitoringServer(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	switch m.db.State() {
	case types.StateRunning:
		m.logger.Debug("Monitoring already running")
		return nil
	case types.StatePaused:
	default:
		return types.NewUsageError("restart monitoring server", types.ErrNotStarted)
	}

	if err := m.subscribe(ctx); err != nil {
		return types.NewInfrastructureError("restart monitoring server", err)
	}
	if _, err := m.db.Transition(types.StateRunning, types.StatePaused); err != nil {
		m.unsubscribe()
		return types.NewUsageError("restart monitoring server", err)
	}
	m.process()

	logger := m.logger.WithField("interface", m.handle.Interface)
	if m.opts.ReloadOnResume {
		if err := m.supervisor.Reload(ctx, m.handle); err != nil {
			logger.WithError(err).Warn("Failed to ask DHCP server to re-announce its leases")
		}
	}
	logger.Info("DHCP server is now being monitored")
	return nil
}

// ServerVersion asks the running DHCP server for its version.
func (m *Manager) ServerVersion(ctx context.Context) (string, error) {
	if !m.db.State().Active() {
		return "", types.NewUsageError("server version", types.ErrNotStarted)
	}
	return m.serverVersion(ctx)
}

func (m *Manager) serverVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.VersionTimeout)
	defer cancel()

	version, err := m.source.GetVersion(ctx)
	if err != nil {
		return "", types.NewInfrastructureError("server version", fmt.Errorf("%w: %w", types.ErrVersion, err))
	}
	return version, nil
}

// Leases returns the known leases ordered by IP address.
func (m *Manager) Leases() []types.LeaseRecord {
	return m.db.Snapshot()
}

// LogLeases logs every known lease.
func (m *Manager) LogLeases() {
	leases := m.db.Snapshot()
	now := time.Now()
	m.logger.WithField("count", len(leases)).Info("Current leases in DHCP server database")
	for _, rec := range leases {
		fields := logrus.Fields{
			"mac":      rec.MAC,
			"ip":       rec.IP.String(),
			"hostname": rec.Hostname,
		}
		if !rec.Expiry.IsZero() {
			key, value := expiryField(rec.Expiry, now)
			fields[key] = value
		}
		m.logger.WithFields(fields).Info("Lease")
	}
}

// expiryField describes a lease expiry relative to now. Records are kept past
// their expiry, so the lease may already have expired.
func expiryField(expiry, now time.Time) (key, value string) {
	remaining := expiry.Sub(now)
	if remaining > 0 {
		return "expires_in", human_duration.ShortString(remaining, human_duration.Second)
	}
	if -remaining < time.Second {
		return "expired_ago", "0s"
	}
	return "expired_ago", human_duration.ShortString(-remaining, human_duration.Second)
}

// ResetLeaseDatabase forgets every known lease.
func (m *Manager) ResetLeaseDatabase() {
	m.db.Clear()
	metrics.TrackedLeases.Set(0)
	m.logger.Debug("Lease database reset")
}

// FindIPForMac returns the IP leased to mac, if known.
func (m *Manager) FindIPForMac(mac string) (netip.Addr, bool) {
	return m.engine.FindIPForMac(mac)
}

// WaitLease waits up to timeout for mac to hold a lease. Without a timeout only
// the current state is checked.
func (m *Manager) WaitLease(mac string, timeout query.Bound) (netip.Addr, error) {
	return m.engine.WaitLease(mac, timeout)
}

// CheckDhcpClientOn checks that mac holds, or acquires within timeout, a lease.
// Without a timeout half the lease time is used.
func (m *Manager) CheckDhcpClientOn(mac string, timeout query.Bound) error {
	return m.engine.CheckClientOn(mac, timeout)
}

// CheckDhcpClientOff checks that mac holds no lease and acquires none within timeout.
// Without a timeout half the lease time is used.
func (m *Manager) CheckDhcpClientOff(mac string, timeout query.Bound) error {
	return m.engine.CheckClientOff(mac, timeout)
}

// ensureSentinel wraps err with sentinel unless it already matches it.
func ensureSentinel(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
