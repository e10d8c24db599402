// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

//go:generate mockgen -destination=../mock/mock_port.go -package=mock dhcp-leasewatch/internal/port DHCPClient,NetworkManager,FileManager,CommandRunner,LeaseEventSource,Subscription,ServerSupervisor

import (
	"context"
	"io"
	"time"

	"dhcp-leasewatch/internal/types"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/vishvananda/netlink"
)

// DHCPClient is a port for DHCP client operations.
// It is used to probe the DHCP server under test from a client interface.
type DHCPClient interface {
	// RequestLease performs DHCP DISCOVER/OFFER/REQUEST/ACK sequence
	RequestLease(ctx context.Context, interfaceName string, timeout time.Duration) (*dhcpv4.DHCPv4, error)
}

// NetworkManager is a port for network interface operations.
// This interface abstracts netlink operations on the interface the DHCP server binds to.
type NetworkManager interface {
	// GetLinkByName returns a network link by interface name
	GetLinkByName(interfaceName string) (netlink.Link, error)

	// ListAddresses returns IPv4 addresses configured on the link
	ListAddresses(link netlink.Link) ([]netlink.Addr, error)

	// AddAddress adds an IP address to the interface
	AddAddress(link netlink.Link, addr *netlink.Addr) error

	// SetLinkUp brings the interface up
	SetLinkUp(link netlink.Link) error
}

// FileManager is a port for file system operations.
// This interface abstracts file read operations.
type FileManager interface {
	// ReadFile reads the contents of a file
	ReadFile(filename string) ([]byte, error)

	// FileExists checks if a file exists
	FileExists(filename string) bool
}

// CommandRunner is a port for running external (usually privileged) commands.
type CommandRunner interface {
	// Run executes name with args, feeding stdin when not nil, and returns the exit code.
	// A non-nil error means the command could not be run at all.
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) (int, error)
}

// Subscription is an active stream of lease change notifications.
type Subscription interface {
	// Events delivers notifications in the order the server emitted them.
	// The channel is closed when the subscription ends.
	Events() <-chan types.LeaseEvent

	// Close ends the subscription. It is safe to call more than once.
	Close() error
}

// LeaseEventSource is a port for the out-of-band lease notification channel of a DHCP server.
type LeaseEventSource interface {
	// Subscribe starts delivering lease notifications.
	Subscribe(ctx context.Context) (Subscription, error)

	// GetVersion asks the DHCP server for its version string.
	GetVersion(ctx context.Context) (string, error)
}

// ServerSupervisor is a port for DHCP server process supervision.
type ServerSupervisor interface {
	// Start launches a DHCP server and returns once it is serving.
	Start(ctx context.Context, spec types.ServerSpec) (types.ServerHandle, error)

	// Stop terminates the DHCP server.
	Stop(ctx context.Context, handle types.ServerHandle) error

	// Reload asks the DHCP server to reload (SIGHUP), which makes it re-announce its leases.
	Reload(ctx context.Context, handle types.ServerHandle) error
}
