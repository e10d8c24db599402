//go:build unit

package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"dhcp-leasewatch/internal/mock"
	"dhcp-leasewatch/internal/pkg/query"
	"dhcp-leasewatch/internal/port"
	"dhcp-leasewatch/internal/types"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testMAC = "aa:bb:cc:dd:ee:ff"

// scriptedReader replays fixed console input.
type scriptedReader struct {
	scanner *bufio.Scanner
}

func scripted(input string) *scriptedReader {
	return &scriptedReader{scanner: bufio.NewScanner(strings.NewReader(input))}
}

func (r *scriptedReader) Readline() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	return "", io.EOF
}

func (r *scriptedReader) Close() error { return nil }

// blockingReader never yields a line and unblocks when closed.
type blockingReader struct {
	once   sync.Once
	closed chan struct{}
}

func (r *blockingReader) Readline() (string, error) {
	<-r.closed
	return "", io.EOF
}

func (r *blockingReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func (r *blockingReader) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Nil", err: nil, want: ExitOK},
		{name: "Assertion", err: types.NewAssertionError(testMAC, types.ErrLeaseNotFound), want: ExitAssertion},
		{name: "Usage", err: types.NewUsageError("start", types.ErrNoInterface), want: ExitUsage},
		{name: "Infrastructure", err: types.NewInfrastructureError("start", types.ErrServerStart), want: ExitInfrastructure},
		{name: "WrappedInfrastructure", err: errors.Join(errors.New("context"), types.NewInfrastructureError("stop", types.ErrServerStop)), want: ExitInfrastructure},
		{name: "Unclassified", err: errors.New("unknown flag: --bogus"), want: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestWithSession(t *testing.T) {
	ifaceFlag, leaseTimeFlag = "eth1", "2m"
	t.Cleanup(func() { ifaceFlag, leaseTimeFlag = "", "" })
	startOpts := port.StartOptions{Interface: "eth1", LeaseTime: "2m"}

	t.Run("StopsAfterCheckFailure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lm := mock.NewMockLeaseMonitor(ctrl)
		checkErr := types.NewAssertionError(testMAC, types.ErrLeaseNotFound)

		gomock.InOrder(
			lm.EXPECT().Start(gomock.Any(), startOpts).Return(nil),
			lm.EXPECT().CheckDhcpClientOn(testMAC, query.NoBound).Return(checkErr),
			lm.EXPECT().Stop(gomock.Any()).Return(nil),
		)

		err := withSession(context.Background(), lm, func(_ context.Context, lm port.LeaseMonitor) error {
			return lm.CheckDhcpClientOn(testMAC, query.NoBound)
		})
		assert.Equal(t, checkErr, err)
		assert.Equal(t, ExitAssertion, ExitCode(err))
	})

	t.Run("StartFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lm := mock.NewMockLeaseMonitor(ctrl)
		startErr := types.NewInfrastructureError("start", types.ErrPortInUse)

		lm.EXPECT().Start(gomock.Any(), startOpts).Return(startErr)

		err := withSession(context.Background(), lm, func(context.Context, port.LeaseMonitor) error {
			t.Fatal("session function must not run")
			return nil
		})
		assert.ErrorIs(t, err, types.ErrPortInUse)
	})

	t.Run("StopFailureReported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lm := mock.NewMockLeaseMonitor(ctrl)
		stopErr := types.NewInfrastructureError("stop", types.ErrServerStop)

		lm.EXPECT().Start(gomock.Any(), startOpts).Return(nil)
		lm.EXPECT().Stop(gomock.Any()).Return(stopErr)

		err := withSession(context.Background(), lm, func(context.Context, port.LeaseMonitor) error { return nil })
		assert.Equal(t, ExitInfrastructure, ExitCode(err))
	})
}

func TestRunConsole(t *testing.T) {
	t.Run("Commands", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lm := mock.NewMockLeaseMonitor(ctrl)
		bound := query.Within(2 * time.Second)

		gomock.InOrder(
			lm.EXPECT().LogLeases(),
			lm.EXPECT().FindIPForMac(testMAC).Return(netip.MustParseAddr("192.168.0.130"), true),
			lm.EXPECT().CheckDhcpClientOn(testMAC, bound).Return(nil),
			lm.EXPECT().CheckDhcpClientOff(testMAC, bound).Return(types.NewAssertionError(testMAC, types.ErrLeaseExists)),
			lm.EXPECT().ServerVersion(gomock.Any()).Return("2.90", nil),
			lm.EXPECT().StopMonitoringServer().Return(nil),
			lm.EXPECT().RestartMonitoringServer(gomock.Any()).Return(nil),
			lm.EXPECT().ResetLeaseDatabase(),
		)

		in := scripted("\n" + testMAC + "\nversion\npause\nresume\nreset\nexit\nversion\n")
		var out bytes.Buffer
		require.NoError(t, runConsole(context.Background(), lm, in, &out, bound))

		assert.Contains(t, out.String(), "IP for aa:bb:cc:dd:ee:ff: 192.168.0.130")
		assert.Contains(t, out.String(), "Client on: ok")
		assert.Contains(t, out.String(), "Client off: failed")
		assert.Contains(t, out.String(), "DHCP server version: 2.90")
		assert.Contains(t, out.String(), "Lease database cleared")
	})

	t.Run("UnknownMAC", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lm := mock.NewMockLeaseMonitor(ctrl)

		lm.EXPECT().FindIPForMac(testMAC).Return(netip.Addr{}, false)
		lm.EXPECT().CheckDhcpClientOn(testMAC, query.NoBound).Return(types.NewAssertionError(testMAC, types.ErrLeaseNotFound))
		lm.EXPECT().CheckDhcpClientOff(testMAC, query.NoBound).Return(nil)

		var out bytes.Buffer
		require.NoError(t, runConsole(context.Background(), lm, scripted(testMAC+"\n"), &out, query.NoBound))
		assert.Contains(t, out.String(), "No lease for aa:bb:cc:dd:ee:ff")
		assert.Contains(t, out.String(), "Client off: ok")
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lm := mock.NewMockLeaseMonitor(ctrl)
		rl := &blockingReader{closed: make(chan struct{})}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- runConsole(ctx, lm, rl, io.Discard, query.NoBound) }()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
			assert.True(t, rl.isClosed())
		case <-time.After(2 * time.Second):
			t.Fatal("console did not stop after cancellation")
		}
	})
}

func TestRunProbe(t *testing.T) {
	t.Run("PrintsLease", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewMockDHCPClient(ctrl)

		ack, err := dhcpv4.New(dhcpv4.WithMessageType(dhcpv4.MessageTypeAck))
		require.NoError(t, err)
		ack.YourIPAddr = net.IPv4(192, 168, 0, 131)
		ack.Options.Update(dhcpv4.OptServerIdentifier(net.IPv4(192, 168, 0, 1)))
		ack.Options.Update(dhcpv4.OptIPAddressLeaseTime(2 * time.Minute))

		client.EXPECT().RequestLease(gomock.Any(), "veth0", 3*time.Second).Return(ack, nil)

		var out bytes.Buffer
		require.NoError(t, runProbe(context.Background(), client, "veth0", 3*time.Second, &out))
		assert.Equal(t, "IP: 192.168.0.131\nServer: 192.168.0.1\nLease time: 2m0s\n", out.String())
	})

	t.Run("RequestFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock.NewMockDHCPClient(ctrl)

		client.EXPECT().RequestLease(gomock.Any(), "veth0", time.Second).Return(nil, errors.New("timeout"))

		err := runProbe(context.Background(), client, "veth0", time.Second, io.Discard)
		assert.Equal(t, ExitInfrastructure, ExitCode(err))
	})
}
