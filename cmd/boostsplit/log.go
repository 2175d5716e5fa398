package main

import (
	"fmt"
	"io"

	"github.com/btcsuite/btclog"
	"github.com/sputn1ck/boostsplit/client"
	"github.com/sputn1ck/boostsplit/feedcache"
	"github.com/sputn1ck/boostsplit/multipay"
	"github.com/sputn1ck/boostsplit/platformfee"
	"github.com/sputn1ck/boostsplit/rail"
	"github.com/sputn1ck/boostsplit/recipient"
	"github.com/sputn1ck/boostsplit/splitcalc"
)

// subsystems maps the logging code of every package to its UseLogger.
var subsystems = map[string]func(btclog.Logger){
	recipient.Subsystem:   recipient.UseLogger,
	splitcalc.Subsystem:   splitcalc.UseLogger,
	rail.Subsystem:        rail.UseLogger,
	multipay.Subsystem:    multipay.UseLogger,
	platformfee.Subsystem: platformfee.UseLogger,
	feedcache.Subsystem:   feedcache.UseLogger,
	client.Subsystem:      client.UseLogger,
}

// setupLoggers attaches a logger writing to w to every subsystem.
func setupLoggers(w io.Writer, debugLevel string) error {
	level, ok := btclog.LevelFromString(debugLevel)
	if !ok {
		return fmt.Errorf("invalid debug level %q", debugLevel)
	}

	backend := btclog.NewBackend(w)
	for subsystem, useLogger := range subsystems {
		logger := backend.Logger(subsystem)
		logger.SetLevel(level)
		useLogger(logger)
	}

	return nil
}
