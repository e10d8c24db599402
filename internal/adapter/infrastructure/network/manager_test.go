//go:build unit

package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewManagerAdapter(t *testing.T) {
	adapter := NewManagerAdapter()
	assert.NotNil(t, adapter)
}

func TestManagerAdapter_GetLinkByName(t *testing.T) {
	adapter := NewManagerAdapter()

	t.Run("Loopback", func(t *testing.T) {
		link, err := adapter.GetLinkByName("lo")
		if err != nil {
			t.Skip("Loopback interface not available, skipping test")
		}
		assert.Equal(t, "lo", link.Attrs().Name)
	})

	t.Run("UnknownInterface", func(t *testing.T) {
		_, err := adapter.GetLinkByName("nonexistent0")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get netlink interface nonexistent0")
	})
}

func TestManagerAdapter_ListAddresses(t *testing.T) {
	adapter := NewManagerAdapter()

	link, err := adapter.GetLinkByName("lo")
	if err != nil {
		t.Skip("Loopback interface not available, skipping test")
	}

	addresses, err := adapter.ListAddresses(link)
	assert.NoError(t, err)
	for _, addr := range addresses {
		assert.NotNil(t, addr.IPNet.IP.To4())
	}
}

// AddAddress and SetLinkUp need CAP_NET_ADMIN and change host state; the
// interface preparer tests cover their callers through mocks.
