package multipay

import (
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

const (
	// DefaultInterPaymentDelay is the default pause between two
	// consecutive payments. Custodial wallets tend to fail when hit with
	// payments in quick succession.
	DefaultInterPaymentDelay = 1500 * time.Millisecond

	// DefaultPerPaymentTimeout is the default time a single payment may
	// take before it is given up on.
	DefaultPerPaymentTimeout = 20 * time.Second
)

var (
	// ErrPayerRequired is returned when no recipient payer is configured.
	ErrPayerRequired = errors.New("recipient payer is required")

	// ErrUnknownMode is returned for a dispatch mode that isn't supported.
	ErrUnknownMode = errors.New("unknown dispatch mode")

	// ErrNegativeDuration is returned when a policy duration is negative.
	ErrNegativeDuration = errors.New("policy durations must not be " +
		"negative")
)

// Mode is the dispatch mode of a Policy.
type Mode string

const (
	// ModeSequential pays one recipient after the other.
	ModeSequential Mode = "sequential"
)

// Policy controls how payments to multiple recipients are dispatched.
type Policy struct {
	// Mode is the dispatch mode. Only ModeSequential is supported.
	Mode Mode `long:"mode" description:"Dispatch mode" choice:"sequential"`

	// InterPaymentDelay is waited before every payment but the first.
	// Zero disables the delay.
	InterPaymentDelay time.Duration `long:"interpaymentdelay" description:"Pause between two consecutive payments"`

	// PerPaymentTimeout bounds the duration of a single payment. Zero
	// disables the timeout.
	PerPaymentTimeout time.Duration `long:"perpaymenttimeout" description:"Maximum duration of a single payment"`
}

// DefaultPolicy returns the default dispatch policy.
func DefaultPolicy() *Policy {
	return &Policy{
		Mode:              ModeSequential,
		InterPaymentDelay: DefaultInterPaymentDelay,
		PerPaymentTimeout: DefaultPerPaymentTimeout,
	}
}

// Validate validates the policy.
func (p *Policy) Validate() error {
	if p.Mode != ModeSequential {
		return fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
	if p.InterPaymentDelay < 0 || p.PerPaymentTimeout < 0 {
		return ErrNegativeDuration
	}

	return nil
}

// Config holds the configuration of an Orchestrator.
type Config struct {
	// Payer pays single recipients.
	Payer RecipientPayer

	// Policy is the dispatch policy.
	// Default: DefaultPolicy()
	Policy *Policy

	// Clock is used for delays and timeouts.
	// Default: clock.NewDefaultClock()
	Clock clock.Clock

	// Metrics is optional.
	Metrics *Metrics
}

// DefaultConfig returns a default configuration using payer.
func DefaultConfig(payer RecipientPayer) *Config {
	return &Config{
		Payer:  payer,
		Policy: DefaultPolicy(),
		Clock:  clock.NewDefaultClock(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Payer == nil {
		return ErrPayerRequired
	}
	if c.Policy != nil {
		if err := c.Policy.Validate(); err != nil {
			return err
		}
	}

	return nil
}
