// Package dhcp provides the DHCP client adapter used to probe a DHCP server
// from a client-side interface.
package dhcp

import (
	"context"
	"fmt"
	"time"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/port"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv4/nclient4"
)

// probeRetries is the number of DISCOVER/REQUEST retransmissions per request.
const probeRetries = 3

// ClientAdapter implements the DHCPClient port using insomniacslk/dhcp.
type ClientAdapter struct{}

// Ensure ClientAdapter implements the DHCPClient port
var _ port.DHCPClient = (*ClientAdapter)(nil)

// NewClientAdapter creates a new DHCP client adapter.
func NewClientAdapter() *ClientAdapter {
	return &ClientAdapter{}
}

// RequestLease performs a DISCOVER/OFFER/REQUEST/ACK exchange on interfaceName
// and returns the ACK. Each exchange step waits at most timeout.
func (c *ClientAdapter) RequestLease(ctx context.Context, interfaceName string, timeout time.Duration) (*dhcpv4.DHCPv4, error) {
	logger := logging.WithComponentAndInterface("probe", interfaceName)

	client, err := nclient4.New(interfaceName,
		nclient4.WithTimeout(timeout),
		nclient4.WithRetry(probeRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create DHCP client on %s: %w", interfaceName, err)
	}
	defer client.Close()

	logger.Debug("Sending DHCP DISCOVER")
	lease, err := client.Request(ctx)
	if err != nil {
		return nil, fmt.Errorf("DHCP lease request on %s failed: %w", interfaceName, err)
	}

	logger.WithField("ip", lease.ACK.YourIPAddr.String()).
		WithField("server", lease.ACK.ServerIPAddr.String()).
		Debug("Received DHCP ACK")
	return lease.ACK, nil
}
