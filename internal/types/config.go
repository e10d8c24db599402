package types

import "time"

// ServerSpec is everything the process supervisor needs to launch one DHCP server.
type ServerSpec struct {
	Interface  string
	LeaseTime  string // dnsmasq syntax, empty for the server default
	RangeStart string
	RangeEnd   string
	User       string
	Group      string
	PIDFile    string
	LeaseFile  string // empty means no lease file (--leasefile-ro)
	EnableDBus bool
}

// ServerHandle identifies a running DHCP server process.
type ServerHandle struct {
	PID       int
	Interface string
	StartedAt time.Time
}
