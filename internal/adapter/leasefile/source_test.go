//go:build unit

package leasefile

import (
	"context"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dhcp-leasewatch/internal/types"

	"github.com/b0ch3nski/go-dnsmasq-utils/dnsmasq"
	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLease(t *testing.T, mac, ip, hostname string, expires time.Time) *dnsmasq.Lease {
	t.Helper()
	hw, err := net.ParseMAC(mac)
	require.NoError(t, err)
	return &dnsmasq.Lease{
		MacAddr:  hw,
		IPAddr:   netip.MustParseAddr(ip),
		Hostname: hostname,
		Expires:  expires,
	}
}

func TestDiff(t *testing.T) {
	expiry := time.Unix(1700000000, 0)
	printer := mustLease(t, "00:11:22:33:44:55", "192.168.0.130", "printer", expiry)
	laptop := mustLease(t, "00:11:22:33:44:56", "192.168.0.131", "*", expiry)
	laptopMoved := mustLease(t, "00:11:22:33:44:56", "192.168.0.140", "*", expiry)
	phone := mustLease(t, "aa:bb:cc:dd:ee:ff", "192.168.0.150", "phone", expiry)

	prev := index([]*dnsmasq.Lease{printer, laptop})
	next := index([]*dnsmasq.Lease{laptopMoved, phone})

	want := []types.LeaseEvent{
		{Kind: types.EventDeleted, MAC: "00:11:22:33:44:55", IP: "192.168.0.130", Hostname: "printer", Expiry: expiry},
		{Kind: types.EventUpdated, MAC: "00:11:22:33:44:56", IP: "192.168.0.140", Hostname: "*", Expiry: expiry},
		{Kind: types.EventAdded, MAC: "aa:bb:cc:dd:ee:ff", IP: "192.168.0.150", Hostname: "phone", Expiry: expiry},
	}
	if diff := cmp.Diff(want, Diff(prev, next)); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}

	t.Run("Unchanged", func(t *testing.T) {
		assert.Empty(t, Diff(next, index([]*dnsmasq.Lease{laptopMoved, phone})))
	})

	t.Run("RenewedExpiry", func(t *testing.T) {
		renewed := mustLease(t, "aa:bb:cc:dd:ee:ff", "192.168.0.150", "phone", expiry.Add(time.Hour))
		events := Diff(index([]*dnsmasq.Lease{phone}), index([]*dnsmasq.Lease{renewed}))
		require.Len(t, events, 1)
		assert.Equal(t, types.EventUpdated, events[0].Kind)
	})
}

func TestSource_SubscribeAnnouncesCurrentLeases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsmasq.leases")
	content := "1700000000 00:11:22:33:44:55 192.168.0.130 printer 01:00:11:22:33:44:55\n" +
		"1700000100 00:11:22:33:44:56 192.168.0.131 * *\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sub, err := NewSource(path, "127.0.0.1:53").Subscribe(context.Background())
	require.NoError(t, err)

	var got []types.LeaseEvent
	for len(got) < 2 {
		select {
		case ev := <-sub.Events():
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for initial lease events")
		}
	}
	assert.Equal(t, types.EventAdded, got[0].Kind)
	assert.Equal(t, "00:11:22:33:44:55", got[0].MAC)
	assert.Equal(t, "192.168.0.130", got[0].IP)
	assert.Equal(t, "00:11:22:33:44:56", got[1].MAC)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestSource_SubscribeMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsmasq.leases")

	sub, err := NewSource(path, "127.0.0.1:53").Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, sub.Close())
}

func startVersionServer(t *testing.T, version string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		if q.Name == "version.bind." && q.Qclass == dns.ClassCHAOS {
			m.Answer = append(m.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassCHAOS},
				Txt: []string{version},
			})
		} else {
			m.Rcode = dns.RcodeRefused
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() {
		_ = server.ActivateAndServe()
	}()
	<-started
	t.Cleanup(func() {
		_ = server.Shutdown()
	})
	return pc.LocalAddr().String()
}

func TestQueryVersion(t *testing.T) {
	addr := startVersionServer(t, "dnsmasq-2.90")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	version, err := NewSource("", addr).GetVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dnsmasq-2.90", version)
}

func TestQueryVersion_NoServer(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	_, err = QueryVersion(context.Background(), addr, 200*time.Millisecond)
	assert.Error(t, err)
}
