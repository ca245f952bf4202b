package sinkhole

import (
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// DNSClient is a plain DNS resolver for UDP or TCP, used to reach the
// upstream server for queries that aren't blocked.
type DNSClient struct {
	endpoint string
	net      string
	client   *dns.Client
}

var _ Resolver = &DNSClient{}

const defaultUpstreamTimeout = 5 * time.Second

// NewDNSClient returns a client sending queries to endpoint over the given
// network ("udp" or "tcp"). Every exchange is bounded by timeout.
func NewDNSClient(endpoint, network string, timeout time.Duration) *DNSClient {
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	return &DNSClient{
		endpoint: endpoint,
		net:      network,
		client: &dns.Client{
			Net:     network,
			Timeout: timeout,
		},
	}
}

// Resolve a DNS query upstream.
func (d *DNSClient) Resolve(q *dns.Msg) (*dns.Msg, error) {
	logger(q).WithField("upstream", d.String()).Debug("forwarding query upstream")
	a, _, err := d.client.Exchange(q, d.endpoint)
	return a, err
}

func (d *DNSClient) String() string {
	return fmt.Sprintf("DNS(%s/%s)", d.endpoint, d.net)
}
