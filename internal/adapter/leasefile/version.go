package leasefile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// QueryVersion performs a CHAOS TXT query for version.bind against server.
func QueryVersion(ctx context.Context, server string, timeout time.Duration) (string, error) {
	c := new(dns.Client)
	c.Timeout = timeout

	m := new(dns.Msg)
	m.Id = dns.Id()
	m.Question = append(m.Question, dns.Question{
		Name:   "version.bind.",
		Qtype:  dns.TypeTXT,
		Qclass: dns.ClassCHAOS,
	})

	r, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return "", fmt.Errorf("version query to %s failed: %w", server, err)
	}
	if r.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("version query to %s failed: %s", server, dns.RcodeToString[r.Rcode])
	}

	for _, ans := range r.Answer {
		if t, ok := ans.(*dns.TXT); ok && len(t.Txt) > 0 {
			return strings.Join(t.Txt, ""), nil
		}
	}
	return "", fmt.Errorf("version query to %s returned no TXT record", server)
}
