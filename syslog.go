package sinkhole

import (
	"fmt"

	syslog "github.com/RackSec/srslog"
)

// SyslogSink copies query outcomes to a syslog server. It's strictly an
// observer, a broken syslog connection is logged and never affects query
// handling.
type SyslogSink struct {
	writer *syslog.Writer
}

// SyslogOptions configures the outcome feed.
type SyslogOptions struct {
	// "udp", "tcp", "unix". Defaults to "udp".
	Network string

	// Remote address, defaults to the local syslog server.
	Address string

	// Priority value as per https://pkg.go.dev/log/syslog#Priority
	Priority int

	// Syslog tag
	Tag string
}

// NewSyslogSink returns a new instance of a SyslogSink.
func NewSyslogSink(opt SyslogOptions) *SyslogSink {
	writer, err := syslog.Dial(opt.Network, opt.Address, syslog.Priority(opt.Priority), opt.Tag)
	if err != nil {
		// Log any error but don't block startup if this fails
		Log.WithError(err).Error("failed to initialize syslog")
	}
	return &SyslogSink{writer: writer}
}

// Send writes one outcome line. A nil writer (failed dial) drops silently.
func (s *SyslogSink) Send(o QueryOutcome) {
	if s.writer == nil {
		return
	}
	msg := fmt.Sprintf("qname=%s qtype=%s decision=%s", o.Domain, o.Qtype, o.Decision)
	if _, err := s.writer.Write([]byte(msg)); err != nil {
		Log.WithError(err).Error("failed to send syslog")
	}
}
