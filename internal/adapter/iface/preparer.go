// Package iface prepares the network interface a DHCP server binds to.
package iface

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/port"

	"github.com/vishvananda/netlink"
)

// Preparer makes sure the server interface is up and carries the address
// dnsmasq needs to serve its range. Addresses already present are never removed.
type Preparer struct {
	networkMgr port.NetworkManager
}

// NewPreparer creates a new interface preparer.
func NewPreparer(networkMgr port.NetworkManager) *Preparer {
	return &Preparer{networkMgr: networkMgr}
}

// Prepare brings ifaceName up and assigns address unless it is already configured.
// An invalid address prefix only brings the link up.
func (p *Preparer) Prepare(ctx context.Context, ifaceName string, address netip.Prefix) error {
	logger := logging.WithComponentAndInterface("iface", ifaceName)

	if err := ctx.Err(); err != nil {
		return err
	}

	link, err := p.networkMgr.GetLinkByName(ifaceName)
	if err != nil {
		return fmt.Errorf("failed to get netlink interface: %w", err)
	}

	if link.Attrs().Flags&net.FlagUp == 0 {
		logger.Info("Interface is down, bringing it up")
		if err := p.networkMgr.SetLinkUp(link); err != nil {
			return fmt.Errorf("failed to bring interface up: %w", err)
		}
	}

	if !address.IsValid() {
		return nil
	}
	if !address.Addr().Is4() {
		return fmt.Errorf("interface address %s is not IPv4", address)
	}

	ipNet := &net.IPNet{
		IP:   net.IP(address.Addr().AsSlice()),
		Mask: net.CIDRMask(address.Bits(), 32),
	}

	existing, err := p.networkMgr.ListAddresses(link)
	if err != nil {
		return fmt.Errorf("failed to list existing addresses: %w", err)
	}
	for _, addr := range existing {
		if addr.IPNet != nil && addr.IPNet.IP.Equal(ipNet.IP) {
			logger.WithField("ip", ipNet.String()).Debug("IP address already configured, skipping")
			return nil
		}
	}

	if err := p.networkMgr.AddAddress(link, &netlink.Addr{IPNet: ipNet}); err != nil {
		return fmt.Errorf("failed to add IP address %s: %w", ipNet.String(), err)
	}
	logger.WithField("ip", ipNet.String()).Info("Successfully added IP address")
	return nil
}
