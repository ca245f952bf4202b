package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

type config struct {
	Title string

	// Address to serve DNS queries on, e.g. "0.0.0.0:53".
	Listen string

	// Upstream resolver queries are relayed to, e.g. "8.8.8.8:53".
	Upstream         string
	UpstreamProtocol string `toml:"upstream-protocol"`
	UpstreamTimeout  int    `toml:"upstream-timeout"`

	SinkholeAddress  string `toml:"sinkhole-address"`
	SinkholeAddress6 string `toml:"sinkhole-address6"`

	BlocklistURL     string `toml:"blocklist-url"`
	BlocklistRefresh int    `toml:"blocklist-refresh"`

	// Seed rules loaded before the first remote refresh completes.
	Blocklist []string
	Allowlist []string
	Denylist  []string

	AdminListen string `toml:"admin-listen"`
	AdminToken  string `toml:"admin-token"`

	LogLevel      string `toml:"log-level"`
	RecentLogSize int    `toml:"recent-log-size"`

	Syslog *syslogConfig
}

type syslogConfig struct {
	Network  string
	Address  string
	Priority int
	Tag      string
}

// loadConfig reads a config file and returns the decoded structure.
func loadConfig(name string) (config, error) {
	c := config{
		Listen:           "127.0.0.1:53",
		Upstream:         "8.8.8.8:53",
		UpstreamProtocol: "udp",
		UpstreamTimeout:  5,
		SinkholeAddress:  "0.0.0.0",
		SinkholeAddress6: "::",
		BlocklistRefresh: 3600,
		AdminListen:      "127.0.0.1:8080",
		LogLevel:         "info",
	}
	f, err := os.Open(name)
	if err != nil {
		return c, err
	}
	defer f.Close()
	_, err = toml.NewDecoder(f).Decode(&c)
	return c, err
}
