package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dhcp-leasewatch/internal/types"
)

// InfiniteLeaseTime is the dnsmasq keyword for leases that never expire.
const InfiniteLeaseTime = "infinite"

var leaseTimeUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseLeaseTime parses a lease time in dnsmasq syntax: a number of seconds
// optionally suffixed with s, m, h, d or w, or "infinite".
// It reports infinite=true for "infinite", in which case the duration is zero.
func ParseLeaseTime(s string) (d time.Duration, infinite bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false, fmt.Errorf("%w: empty", types.ErrInvalidLeaseTime)
	}
	if s == InfiniteLeaseTime {
		return 0, true, nil
	}

	unit := time.Second
	if u, ok := leaseTimeUnits[s[len(s)-1]]; ok {
		unit = u
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false, fmt.Errorf("%w: %q", types.ErrInvalidLeaseTime, s)
	}
	return time.Duration(n) * unit, false, nil
}
