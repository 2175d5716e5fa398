package client

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sputn1ck/boostsplit/feedcache"
	"github.com/sputn1ck/boostsplit/multipay"
	"github.com/sputn1ck/boostsplit/platformfee"
	"github.com/sputn1ck/boostsplit/rail"
	"github.com/sputn1ck/boostsplit/recipient"
	"github.com/sputn1ck/boostsplit/splitcalc"
)

// Config holds client configuration.
type Config struct {
	// Network selects the chain resolved invoices must be for: "mainnet",
	// "testnet", "regtest", "simnet" or "signet". Empty skips the invoice
	// check.
	Network string

	// Fee is the platform fee configuration.
	// Default: platformfee.DefaultConfig(), i.e. no fee
	Fee *platformfee.Config

	// Policy is the dispatch policy.
	// Default: multipay.DefaultPolicy()
	Policy *multipay.Policy

	// Resolver fetches invoices for Lightning Address recipients. Without
	// it Lightning Address recipients fail as unsupported. Optional.
	Resolver rail.InvoiceResolver

	// FeedResolver looks up feed URLs of podcast GUIDs to complete boost
	// metadata. Optional.
	FeedResolver feedcache.Resolver

	// Registerer receives the payment metrics. Optional.
	Registerer prometheus.Registerer
}

// NetParams returns the chain parameters of a network name.
func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
}

// Client splits boosts across the value recipients of a podcast feed and
// pays them.
type Client struct {
	cfg *Config

	dispatcher   *rail.Dispatcher
	orchestrator *multipay.Orchestrator
	injector     *platformfee.Injector
	feeds        *feedcache.Cache
}

// New creates a new boost client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	var netParams *chaincfg.Params
	if cfg.Network != "" {
		var err error
		netParams, err = NetParams(cfg.Network)
		if err != nil {
			return nil, err
		}
	}

	dispatcher, err := rail.New(&rail.Config{
		Resolver:  cfg.Resolver,
		NetParams: netParams,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	var metrics *multipay.Metrics
	if cfg.Registerer != nil {
		metrics, err = multipay.NewMetrics(cfg.Registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w",
				err)
		}
	}

	orchestratorCfg := multipay.DefaultConfig(dispatcher)
	if cfg.Policy != nil {
		orchestratorCfg.Policy = cfg.Policy
	}
	orchestratorCfg.Metrics = metrics
	orchestrator, err := multipay.New(orchestratorCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	feeCfg := cfg.Fee
	if feeCfg == nil {
		feeCfg = platformfee.DefaultConfig()
	}
	injector, err := platformfee.New(feeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create fee injector: %w", err)
	}

	var feeds *feedcache.Cache
	if cfg.FeedResolver != nil {
		feeds, err = feedcache.New(
			feedcache.DefaultConfig(cfg.FeedResolver),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create feed cache: %w",
				err)
		}
	}

	return &Client{
		cfg:          cfg,
		dispatcher:   dispatcher,
		orchestrator: orchestrator,
		injector:     injector,
		feeds:        feeds,
	}, nil
}

// BoostRequest describes a boost to the value recipients of a feed.
type BoostRequest struct {
	// Value is the value block of the feed or episode. It is ignored if
	// Recipients is set.
	Value *recipient.RawValue

	// Recipients overrides the recipients parsed from Value.
	Recipients []*recipient.Recipient

	// Amount is the boost amount, excluding the platform fee.
	Amount btcutil.Amount

	// Message is an optional boost message.
	Message string

	// Metadata is optional boost metadata attached to keysend payments.
	Metadata *rail.BoostMetadata

	// InvoicePayer and KeysendPayer are the wallet's payment rails. At
	// least one is required.
	InvoicePayer rail.InvoicePayer
	KeysendPayer rail.KeysendPayer

	// OnProgress is notified about every state change. Optional.
	OnProgress multipay.ProgressFunc
}

// Plan is the preview of how a boost is going to be split.
type Plan struct {
	// Recipients are the recipients to be paid, including the fee
	// recipient.
	Recipients []*recipient.Recipient

	// Amount is the requested boost amount.
	Amount btcutil.Amount

	// Fee is the platform fee charged on top of Amount.
	Fee btcutil.Amount

	// Total is the amount that is split, Amount plus Fee.
	Total btcutil.Amount

	// Allocations are the amounts every recipient is going to receive.
	Allocations []*splitcalc.SplitAllocation

	// Validation is the advisory validation of the value split as declared
	// by the feed.
	Validation *recipient.ValidationResult
}

// Plan computes how a boost of amount to the value recipients would be split
// without paying anything.
func (c *Client) Plan(raw *recipient.RawValue, amount btcutil.Amount) *Plan {
	return c.plan(recipient.ParseValueRecipients(raw), amount)
}

// PlanRecipients is like Plan for recipients that were already parsed.
func (c *Client) PlanRecipients(recipients []*recipient.Recipient,
	amount btcutil.Amount) *Plan {

	return c.plan(recipients, amount)
}

func (c *Client) plan(recipients []*recipient.Recipient,
	amount btcutil.Amount) *Plan {

	validation := recipient.ValidateValueSplits(recipients)
	if !validation.Valid {
		for _, e := range validation.Errors {
			log.Warnf("Value split: %v", e)
		}
	}

	adjusted, total := c.injector.AddPlatformFee(recipients, amount)

	plan := &Plan{
		Recipients:  adjusted,
		Amount:      amount,
		Fee:         total - amount,
		Total:       total,
		Allocations: splitcalc.CalculateSplitAmounts(adjusted, total),
		Validation:  validation,
	}

	log.Debugf("Boost plan: %v", newLogClosure(func() string {
		return spew.Sdump(plan.Allocations)
	}))

	return plan
}

// Boost pays a boost to the value recipients. Failed payments to single
// recipients are reported in the result, an error is only returned if the
// boost can't be attempted at all.
func (c *Client) Boost(ctx context.Context,
	req *BoostRequest) (*multipay.MultiRecipientResult, error) {

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.InvoicePayer == nil && req.KeysendPayer == nil {
		return nil, ErrNoPayer
	}

	recipients := req.Recipients
	if recipients == nil {
		recipients = recipient.ParseValueRecipients(req.Value)
	}

	plan := c.plan(recipients, req.Amount)

	log.Infof("Boosting %v (+%v fee) to %d recipients", plan.Amount,
		plan.Fee, len(plan.Allocations))

	result := c.orchestrator.SendMultiRecipientPayment(
		ctx, &multipay.Request{
			Recipients:   plan.Recipients,
			Total:        plan.Total,
			InvoicePayer: req.InvoicePayer,
			KeysendPayer: req.KeysendPayer,
			Message:      req.Message,
			Metadata:     c.completeMetadata(ctx, req.Metadata),
			OnProgress:   req.OnProgress,
		},
	)

	return result, nil
}

// completeMetadata fills in the feed URL of the boosted podcast if it is
// missing and a feed resolver is configured.
func (c *Client) completeMetadata(ctx context.Context,
	md *rail.BoostMetadata) *rail.BoostMetadata {

	if md == nil || c.feeds == nil || md.URL != "" || md.GUID == "" {
		return md
	}

	url, err := c.feeds.FeedURL(ctx, md.GUID)
	if err != nil {
		log.Warnf("Unable to resolve feed URL of %v: %v", md.GUID, err)
		return md
	}

	completed := *md
	completed.URL = url

	return &completed
}
