// Package types defines common types used across the application.
package types

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"
)

// EventKind identifies the kind of lease change announced by a DHCP server.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventAdded
	EventUpdated
	EventDeleted
)

// String returns the lowercase name used in logs and metric labels.
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// UnknownHostnameMarker is what dnsmasq reports when a client did not send a hostname.
const UnknownHostnameMarker = "*"

// LeaseEvent is a lease change notification as delivered by a notification source.
// Fields are kept as received; validation happens in the event processor.
type LeaseEvent struct {
	Kind     EventKind
	MAC      string
	IP       string
	Hostname string
	Expiry   time.Time // zero when the source does not carry it
}

// LeaseRecord is the most recent known lease state for one client.
type LeaseRecord struct {
	MAC      string     `json:"mac"`
	IP       netip.Addr `json:"ip"`
	Hostname string     `json:"hostname,omitempty"`
	Expiry   time.Time  `json:"expiry,omitempty"`
}

// String renders the record as "mac -> ip (hostname)".
func (r LeaseRecord) String() string {
	if r.Hostname == "" {
		return fmt.Sprintf("%s -> %s", r.MAC, r.IP)
	}
	return fmt.Sprintf("%s -> %s (%s)", r.MAC, r.IP, r.Hostname)
}

// NormalizeMAC parses a hardware address and returns it in lowercase,
// colon-separated form. Only 6-byte (EUI-48) addresses are accepted.
func NormalizeMAC(mac string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil {
		return "", fmt.Errorf("invalid MAC address %q: %w", mac, err)
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("invalid MAC address %q: expected 6 bytes, got %d", mac, len(hw))
	}
	return hw.String(), nil
}

// NormalizeHostname maps the dnsmasq "no hostname" marker to an empty string.
func NormalizeHostname(hostname string) string {
	hostname = strings.TrimSpace(hostname)
	if hostname == UnknownHostnameMarker {
		return ""
	}
	return hostname
}
