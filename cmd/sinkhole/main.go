package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	sinkhole "github.com/avaret/sinkhole"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Grace period for in-flight queries and admin requests on shutdown.
const shutdownTimeout = 5 * time.Second

func main() {
	cmd := &cobra.Command{
		Use:   "sinkhole",
		Short: "Blocking DNS resolver",
		Long: `Blocking DNS resolver.

It listens for incoming DNS requests and answers queries for
blocked domains with a fixed sinkhole address. Everything else
is forwarded to an upstream resolver. The blocklist is loaded
from a remote source on a schedule and can be overridden with
local allow and deny rules through a management API.
`,
		Example:      `  sinkhole config.toml`,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(args)
		},
		SilenceUsage: true,
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func start(args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log-level '%s'", cfg.LogLevel)
	}
	sinkhole.Log.SetLevel(level)

	sink4 := net.ParseIP(cfg.SinkholeAddress)
	if sink4 == nil || sink4.To4() == nil {
		return fmt.Errorf("invalid sinkhole-address '%s'", cfg.SinkholeAddress)
	}
	var sink6 net.IP
	if cfg.SinkholeAddress6 != "" {
		sink6 = net.ParseIP(cfg.SinkholeAddress6)
		if sink6 == nil {
			return fmt.Errorf("invalid sinkhole-address6 '%s'", cfg.SinkholeAddress6)
		}
	}

	switch cfg.UpstreamProtocol {
	case "udp", "tcp":
	default:
		return fmt.Errorf("unsupported upstream-protocol '%s'", cfg.UpstreamProtocol)
	}

	// Config-seeded blocklist entries may use hosts-file syntax too
	seed := sinkhole.ParseRules(cfg.Blocklist)
	seedRules := make([]string, 0, len(seed))
	for d := range seed {
		seedRules = append(seedRules, d)
	}

	store, err := sinkhole.NewRuleStore(sinkhole.RuleStoreOptions{
		SinkholeAddr:  sink4,
		SinkholeAddr6: sink6,
		Denylist:      cfg.Denylist,
		Allowlist:     cfg.Allowlist,
		Blocklist:     seedRules,
	})
	if err != nil {
		return fmt.Errorf("invalid rule in config: %w", err)
	}

	var syslogSink *sinkhole.SyslogSink
	if cfg.Syslog != nil {
		syslogSink = sinkhole.NewSyslogSink(sinkhole.SyslogOptions{
			Network:  cfg.Syslog.Network,
			Address:  cfg.Syslog.Address,
			Priority: cfg.Syslog.Priority,
			Tag:      cfg.Syslog.Tag,
		})
	}
	stats := sinkhole.NewStatsCollector(sinkhole.StatsOptions{
		Capacity: cfg.RecentLogSize,
		Syslog:   syslogSink,
	})

	upstream := sinkhole.NewDNSClient(cfg.Upstream, cfg.UpstreamProtocol, time.Duration(cfg.UpstreamTimeout)*time.Second)
	resolver := sinkhole.NewSinkholeResolver(store, upstream, stats)

	var refresher *sinkhole.Refresher
	if cfg.BlocklistURL != "" {
		loader := sinkhole.NewHTTPLoader(cfg.BlocklistURL)
		refresher = sinkhole.NewRefresher(store, loader, time.Duration(cfg.BlocklistRefresh)*time.Second)
	}

	listeners := []sinkhole.Listener{
		sinkhole.NewDNSListener(cfg.Listen, "udp", resolver),
		sinkhole.NewDNSListener(cfg.Listen, "tcp", resolver),
	}
	if cfg.AdminListen != "" {
		admin := sinkhole.NewAdminListener(cfg.AdminListen, store, stats, refresher, sinkhole.AdminListenerOptions{
			Token: cfg.AdminToken,
		})
		listeners = append(listeners, admin)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if refresher != nil {
		g.Go(func() error { return refresher.Run(ctx) })
	}
	for _, l := range listeners {
		l := l
		g.Go(l.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return l.Stop(shutdownCtx)
		})
	}
	return g.Wait()
}
