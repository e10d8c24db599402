//go:build unit

package dhcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClientAdapter(t *testing.T) {
	adapter := NewClientAdapter()
	assert.NotNil(t, adapter)
}

func TestClientAdapter_RequestLease_UnknownInterface(t *testing.T) {
	adapter := NewClientAdapter()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ack, err := adapter.RequestLease(ctx, "nonexistent0", 100*time.Millisecond)
	assert.Error(t, err)
	assert.Nil(t, ack)
	assert.Contains(t, err.Error(), "nonexistent0")
}
