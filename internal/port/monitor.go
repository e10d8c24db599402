package port

//go:generate mockgen -destination=../mock/mock_monitor.go -package=mock dhcp-leasewatch/internal/port LeaseMonitor

import (
	"context"
	"net/netip"

	"dhcp-leasewatch/internal/pkg/query"
	"dhcp-leasewatch/internal/types"
)

// StartOptions overrides the configured interface and lease time for one Start.
// Empty fields keep the current settings.
type StartOptions struct {
	Interface string
	LeaseTime string
}

// LeaseMonitor is the primary port: the keyword surface used by test drivers
// and by the CLI.
type LeaseMonitor interface {
	// Session lifecycle
	Start(ctx context.Context, opts StartOptions) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	StopMonitoringServer() error
	RestartMonitoringServer(ctx context.Context) error
	State() types.MonitorState

	// Settings
	SetInterface(name string)
	GetCurrentInterface() string
	SetLeaseTime(leaseTime string) error

	// Lease database
	LogLeases()
	Leases() []types.LeaseRecord
	ResetLeaseDatabase()
	ServerVersion(ctx context.Context) (string, error)

	// Queries
	FindIPForMac(mac string) (netip.Addr, bool)
	WaitLease(mac string, timeout query.Bound) (netip.Addr, error)
	CheckDhcpClientOn(mac string, timeout query.Bound) error
	CheckDhcpClientOff(mac string, timeout query.Bound) error
}
