package platformfee

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sputn1ck/boostsplit/recipient"
)

// DefaultName is the display name of the fee recipient.
const DefaultName = "Platform fee"

// floorEpsilon absorbs float noise before the rate based fee is floored.
const floorEpsilon = 1e-9

// Config holds the platform fee configuration. A zero flat fee together with
// a zero fee rate disables the fee.
type Config struct {
	// FlatFee is the minimum fee in satoshis.
	FlatFee btcutil.Amount `long:"flat" description:"Minimum platform fee in sats"`

	// FeeRate is the fee as a fraction of the boost, e.g. 0.02 for 2%.
	FeeRate float64 `long:"rate" description:"Platform fee as a fraction of the boost amount"`

	// Address receives the fee.
	Address string `long:"address" description:"Node pubkey or Lightning Address receiving the fee"`

	// Type is the recipient type of Address.
	// Default: recipient.TypeLnAddress
	Type recipient.Type `long:"type" description:"Recipient type of the fee address" choice:"node" choice:"lnaddress"`

	// Name is the display name of the fee recipient.
	// Default: DefaultName
	Name string `long:"name" description:"Display name of the fee recipient"`
}

// DefaultConfig returns a configuration with the fee disabled.
func DefaultConfig() *Config {
	return &Config{
		Type: recipient.TypeLnAddress,
		Name: DefaultName,
	}
}

// Enabled returns true if a fee is configured.
func (c *Config) Enabled() bool {
	return c.FlatFee > 0 || c.FeeRate > 0
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.FlatFee < 0 {
		return ErrNegativeFee
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 || math.IsNaN(c.FeeRate) {
		return fmt.Errorf("%w: %v", ErrInvalidFeeRate, c.FeeRate)
	}

	if !c.Enabled() {
		return nil
	}

	if c.Address == "" {
		return ErrAddressRequired
	}

	switch c.Type {
	case recipient.TypeLnAddress:
		if !recipient.IsLightningAddress(c.Address) {
			return fmt.Errorf("%w: %q is no lightning address",
				ErrInvalidAddress, c.Address)
		}

	case recipient.TypeNode:
		if !recipient.IsNodePubkey(c.Address) {
			return fmt.Errorf("%w: %q is no node pubkey",
				ErrInvalidAddress, c.Address)
		}

	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidAddress,
			c.Type)
	}

	return nil
}

// Injector adds the platform fee recipient to value splits.
type Injector struct {
	cfg *Config
}

// New creates a new Injector.
func New(cfg *Config) (*Injector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Injector{
		cfg: cfg,
	}, nil
}

// FeeAmount returns the fee charged on top of total.
func (i *Injector) FeeAmount(total btcutil.Amount) btcutil.Amount {
	if total <= 0 || !i.cfg.Enabled() {
		return 0
	}

	fee := btcutil.Amount(math.Floor(
		float64(total)*i.cfg.FeeRate + floorEpsilon,
	))
	if fee < i.cfg.FlatFee {
		fee = i.cfg.FlatFee
	}

	return fee
}

// AddPlatformFee returns a copy of the recipients with the fee recipient
// appended, together with the new total that includes the fee. The splits of
// the original recipients are scaled down so that, once the new total is
// split, every original recipient still receives its share of total and the
// fee recipient receives the fee.
//
// The input is never modified. Without a fee, recipients and total are
// returned unchanged.
func (i *Injector) AddPlatformFee(recipients []*recipient.Recipient,
	total btcutil.Amount) ([]*recipient.Recipient, btcutil.Amount) {

	fee := i.FeeAmount(total)
	if fee <= 0 {
		return recipients, total
	}

	// Splits are relative, so the fee share is expressed in the unit of
	// the existing splits. This is the plain percentage for the usual
	// splits summing up to 100.
	var splitSum float64
	for _, r := range recipients {
		if r.Split > 0 {
			splitSum += r.Split
		}
	}
	if splitSum == 0 {
		log.Warnf("Not adding platform fee: recipients have no usable " +
			"splits")
		return recipients, total
	}

	totalWithFee := total + fee
	scale := float64(total) / float64(totalWithFee)

	adjusted := make([]*recipient.Recipient, 0, len(recipients)+1)
	for _, r := range recipients {
		c := r.Copy()
		c.Split *= scale
		adjusted = append(adjusted, c)
	}

	adjusted = append(adjusted, &recipient.Recipient{
		Name:    i.name(),
		Type:    i.cfg.Type,
		Address: i.cfg.Address,
		Split:   float64(fee) / float64(totalWithFee) * splitSum,
		Fee:     true,
	})

	log.Infof("Added platform fee of %v to %v (total %v)", fee, total,
		totalWithFee)

	return adjusted, totalWithFee
}

func (i *Injector) name() string {
	if i.cfg.Name == "" {
		return DefaultName
	}

	return i.cfg.Name
}
