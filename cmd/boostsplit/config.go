package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/sputn1ck/boostsplit/client"
	"github.com/sputn1ck/boostsplit/feedcache"
	"github.com/sputn1ck/boostsplit/multipay"
	"github.com/sputn1ck/boostsplit/platformfee"
)

const (
	defaultNetwork    = "mainnet"
	defaultDebugLevel = "info"
)

// config is the boostsplit configuration file. Options are grouped in ini
// sections, e.g.
//
//	[Application Options]
//	network=testnet
//
//	[Fee]
//	fee.rate=0.02
//	fee.address=fees@example.com
//
//	[Policy]
//	policy.perpaymenttimeout=30s
//
//	[PodcastIndex]
//	podcastindex.key=...
//	podcastindex.secret=...
type config struct {
	Network string `long:"network" description:"The network resolved invoices must be for" choice:"mainnet" choice:"testnet" choice:"regtest" choice:"simnet" choice:"signet"`

	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical, off}"`

	Fee *platformfee.Config `group:"Fee" namespace:"fee"`

	Policy *multipay.Policy `group:"Policy" namespace:"policy"`

	PodcastIndex *podcastIndexConfig `group:"PodcastIndex" namespace:"podcastindex"`
}

// podcastIndexConfig holds the Podcast Index API credentials used to look up
// feeds by GUID.
type podcastIndexConfig struct {
	URL    string `long:"url" description:"Base URL of the Podcast Index API"`
	Key    string `long:"key" description:"Podcast Index API key"`
	Secret string `long:"secret" description:"Podcast Index API secret"`
}

// defaultConfig returns the configuration used without a config file.
func defaultConfig() *config {
	index := feedcache.DefaultPodcastIndexConfig("", "")

	return &config{
		Network:      defaultNetwork,
		DebugLevel:   defaultDebugLevel,
		Fee:          platformfee.DefaultConfig(),
		Policy:       multipay.DefaultPolicy(),
		PodcastIndex: &podcastIndexConfig{URL: index.BaseURL},
	}
}

// loadConfig reads the config file at path on top of the defaults. An empty
// path yields the defaults.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}

	parser := flags.NewParser(cfg, flags.IgnoreUnknown)
	if err := flags.NewIniParser(parser).ParseFile(path); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the options that aren't checked by the packages they are
// passed to.
func (c *config) validate() error {
	if _, err := client.NetParams(c.Network); err != nil {
		return err
	}
	if err := c.Fee.Validate(); err != nil {
		return fmt.Errorf("invalid fee config: %w", err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy config: %w", err)
	}

	return nil
}
