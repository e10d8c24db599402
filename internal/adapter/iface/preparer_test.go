//go:build unit

package iface

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"dhcp-leasewatch/internal/mock"

	"github.com/stretchr/testify/assert"
	"github.com/vishvananda/netlink"
	"go.uber.org/mock/gomock"
)

func TestPreparer_Prepare(t *testing.T) {
	ctx := context.Background()
	address := netip.MustParsePrefix("192.168.0.1/24")

	upLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 3, Name: "eth1", Flags: net.FlagUp}}
	downLink := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 3, Name: "eth1"}}

	t.Run("AddsMissingAddress", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		networkMgr := mock.NewMockNetworkManager(ctrl)

		networkMgr.EXPECT().GetLinkByName("eth1").Return(upLink, nil)
		networkMgr.EXPECT().ListAddresses(upLink).Return([]netlink.Addr{}, nil)
		networkMgr.EXPECT().
			AddAddress(upLink, gomock.Any()).
			DoAndReturn(func(_ netlink.Link, addr *netlink.Addr) error {
				assert.Equal(t, "192.168.0.1/24", addr.IPNet.String())
				return nil
			})

		err := NewPreparer(networkMgr).Prepare(ctx, "eth1", address)
		assert.NoError(t, err)
	})

	t.Run("BringsLinkUp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		networkMgr := mock.NewMockNetworkManager(ctrl)

		networkMgr.EXPECT().GetLinkByName("eth1").Return(downLink, nil)
		networkMgr.EXPECT().SetLinkUp(downLink).Return(nil)

		err := NewPreparer(networkMgr).Prepare(ctx, "eth1", netip.Prefix{})
		assert.NoError(t, err)
	})

	t.Run("AddressAlreadyConfigured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		networkMgr := mock.NewMockNetworkManager(ctrl)

		existing := netlink.Addr{IPNet: &net.IPNet{
			IP:   net.ParseIP("192.168.0.1"),
			Mask: net.IPv4Mask(255, 255, 255, 0),
		}}
		networkMgr.EXPECT().GetLinkByName("eth1").Return(upLink, nil)
		networkMgr.EXPECT().ListAddresses(upLink).Return([]netlink.Addr{existing}, nil)

		err := NewPreparer(networkMgr).Prepare(ctx, "eth1", address)
		assert.NoError(t, err)
	})

	t.Run("UnknownInterface", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		networkMgr := mock.NewMockNetworkManager(ctrl)

		networkMgr.EXPECT().GetLinkByName("eth9").Return(nil, errors.New("link not found"))

		err := NewPreparer(networkMgr).Prepare(ctx, "eth9", address)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get netlink interface")
	})

	t.Run("AddAddressFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		networkMgr := mock.NewMockNetworkManager(ctrl)

		networkMgr.EXPECT().GetLinkByName("eth1").Return(upLink, nil)
		networkMgr.EXPECT().ListAddresses(upLink).Return(nil, nil)
		networkMgr.EXPECT().AddAddress(upLink, gomock.Any()).Return(errors.New("operation not permitted"))

		err := NewPreparer(networkMgr).Prepare(ctx, "eth1", address)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add IP address 192.168.0.1/24")
	})

	t.Run("IPv6AddressRejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		networkMgr := mock.NewMockNetworkManager(ctrl)

		networkMgr.EXPECT().GetLinkByName("eth1").Return(upLink, nil)

		err := NewPreparer(networkMgr).Prepare(ctx, "eth1", netip.MustParsePrefix("fd00::1/64"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "is not IPv4")
	})
}
