package sinkhole

import (
	"context"
	"fmt"

	"github.com/miekg/dns"
)

// Listener is an interface for inbound query or management listeners.
type Listener interface {
	Start() error
	Stop(ctx context.Context) error
	fmt.Stringer
}

// DNSListener is a standard DNS listener for UDP or TCP. Each inbound query
// is handled on its own goroutine by the underlying server, so one slow
// upstream lookup never delays other queries.
type DNSListener struct {
	*dns.Server
}

var _ Listener = &DNSListener{}

// NewDNSListener returns an instance of either a UDP or TCP DNS listener
// forwarding all queries to the given resolver.
func NewDNSListener(addr, network string, resolver Resolver) *DNSListener {
	return &DNSListener{
		Server: &dns.Server{
			Addr:    addr,
			Net:     network,
			Handler: listenHandler(network, addr, resolver),
		},
	}
}

// Start the DNS listener. A bind failure is returned to the caller and is
// fatal, the process must not run without serving its port.
func (s *DNSListener) Start() error {
	Log.WithField("protocol", s.Net).WithField("addr", s.Addr).Info("starting DNS listener")
	return s.ListenAndServe()
}

// Stop the listener, letting in-flight queries drain until the context
// expires.
func (s *DNSListener) Stop(ctx context.Context) error {
	Log.WithField("protocol", s.Net).WithField("addr", s.Addr).Info("stopping DNS listener")
	return s.ShutdownContext(ctx)
}

func (s *DNSListener) String() string {
	return fmt.Sprintf("DNSListener(%s/%s)", s.Addr, s.Net)
}

// DNS handler forwarding all incoming requests to the resolver. Malformed
// queries are dropped without a response so the server can't be used to
// amplify garbage.
func listenHandler(network, addr string, r Resolver) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		if len(req.Question) == 0 {
			Log.WithField("client", w.RemoteAddr()).Debug("dropping query without question")
			w.Close()
			return
		}
		log := logger(req).WithField("client", w.RemoteAddr())
		log.Debug("received query")

		a, err := r.Resolve(req)
		if err != nil {
			log.WithError(err).Debug("dropping unresolvable query")
			w.Close()
			return
		}
		// A nil response means "drop", close the connection
		if a == nil {
			w.Close()
			return
		}

		// Check the response fits if the query came in over UDP. Truncate
		// and set the TC flag if not.
		if network == "udp" {
			a.Truncate(dns.MinMsgSize)
		}
		_ = w.WriteMsg(a)
	}
}
