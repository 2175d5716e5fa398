package multipay

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	goerrors "github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/sputn1ck/boostsplit/rail"
	"github.com/sputn1ck/boostsplit/recipient"
	"github.com/sputn1ck/boostsplit/splitcalc"
)

// RecipientPayer pays a single recipient. It is implemented by
// rail.Dispatcher.
type RecipientPayer interface {
	// PayRecipient sends amt to r and reports the outcome.
	PayRecipient(ctx context.Context, r *recipient.Recipient,
		amt btcutil.Amount, message string,
		invoicePayer rail.InvoicePayer, keysendPayer rail.KeysendPayer,
		metadata *rail.BoostMetadata) *rail.PaymentOutcome
}

// Request describes a payment to be split across multiple recipients.
type Request struct {
	// Recipients are the payees, in the order they are to be paid.
	Recipients []*recipient.Recipient

	// Total is the amount to distribute.
	Total btcutil.Amount

	// InvoicePayer and KeysendPayer are the wallet's payment rails.
	InvoicePayer rail.InvoicePayer
	KeysendPayer rail.KeysendPayer

	// Message is an optional boost message.
	Message string

	// Metadata is optional boost metadata attached to keysend payments.
	Metadata *rail.BoostMetadata

	// OnProgress is notified about every state change. Optional.
	OnProgress ProgressFunc
}

// Orchestrator pays a list of recipients their share of a total amount.
type Orchestrator struct {
	cfg *Config
}

// New creates a new Orchestrator.
func New(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}

	return &Orchestrator{
		cfg: cfg,
	}, nil
}

// SendMultiRecipientPayment splits req.Total across the recipients and pays
// them one after the other. A failed payment never stops the remaining ones,
// so the result always covers every recipient that was allocated an amount.
//
// Cancelling ctx does not skip or abort payments, it only cuts the pause
// between payments short. Values of ctx are passed on to the payment rails.
func (o *Orchestrator) SendMultiRecipientPayment(ctx context.Context,
	req *Request) *MultiRecipientResult {

	result := &MultiRecipientResult{
		TotalAmount: req.Total,
		Successful:  []*SplitPayment{},
		Failed:      []*SplitPayment{},
		Errors:      []string{},
	}

	allocs := splitcalc.CalculateSplitAmounts(req.Recipients, req.Total)
	if len(allocs) == 0 {
		log.Warnf("Nothing to pay: no recipient was allocated any of "+
			"%v", req.Total)

		result.finalize()
		o.cfg.Metrics.observeResult(result)

		return result
	}

	metadata := boostMetadata(req.Metadata, req.Total, req.Message)

	log.Infof("Paying %v to %d recipients", req.Total, len(allocs))

	for idx, alloc := range allocs {
		if idx > 0 {
			o.pause(ctx)
		}

		address := alloc.Recipient.Address
		req.progress(address, StatusSending, "", alloc.Amount)

		start := o.cfg.Clock.Now()
		outcome := o.pay(ctx, alloc, req, metadata)
		took := o.cfg.Clock.Now().Sub(start)

		payment := &SplitPayment{
			Recipient: alloc.Recipient,
			Amount:    alloc.Amount,
			Outcome:   outcome,
		}
		result.record(payment)
		o.cfg.Metrics.observePayment(payment, took)

		if outcome.Success {
			req.progress(address, StatusSuccess, "", alloc.Amount)
		} else {
			req.progress(
				address, StatusFailed, outcome.Error,
				alloc.Amount,
			)
		}
	}

	result.finalize()
	o.cfg.Metrics.observeResult(result)

	log.Infof("Paid %d/%d recipients (%v of %v)", len(result.Successful),
		result.Attempted(), result.PaidAmount(), req.Total)

	return result
}

// pause waits the configured delay between two payments.
func (o *Orchestrator) pause(ctx context.Context) {
	delay := o.cfg.Policy.InterPaymentDelay
	if delay <= 0 {
		return
	}

	select {
	case <-o.cfg.Clock.TickAfter(delay):
	case <-ctx.Done():
	}
}

// pay pays a single allocation, giving up once the per payment timeout
// expires. A payment that was given up on keeps running in the background
// with a cancelled context, its result is discarded. Cancelling the caller's
// context does not reach the rails.
func (o *Orchestrator) pay(ctx context.Context,
	alloc *splitcalc.SplitAllocation, req *Request,
	metadata *rail.BoostMetadata) *rail.PaymentOutcome {

	payCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	outcomeChan := make(chan *rail.PaymentOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := goerrors.Wrap(r, 2)
				log.Errorf("Payment to %v panicked: %v",
					alloc.Recipient.Label(), err.ErrorStack())

				outcomeChan <- failedOutcome(alloc, rail.Classify(err))
			}
		}()

		outcomeChan <- o.cfg.Payer.PayRecipient(
			payCtx, alloc.Recipient, alloc.Amount, req.Message,
			req.InvoicePayer, req.KeysendPayer, metadata,
		)
	}()

	var timeout <-chan time.Time
	if o.cfg.Policy.PerPaymentTimeout > 0 {
		timeout = o.cfg.Clock.TickAfter(o.cfg.Policy.PerPaymentTimeout)
	}

	select {
	case outcome := <-outcomeChan:
		return outcome

	case <-timeout:
		err := &PaymentTimeoutError{After: o.cfg.Policy.PerPaymentTimeout}
		log.Errorf("Payment of %v to %v: %v", alloc.Amount,
			alloc.Recipient.Label(), err)

		return failedOutcome(alloc, err)
	}
}

// failedOutcome creates the outcome of a payment that didn't produce one
// itself.
func failedOutcome(alloc *splitcalc.SplitAllocation,
	err error) *rail.PaymentOutcome {

	return &rail.PaymentOutcome{
		Error:     err.Error(),
		Err:       err,
		Recipient: alloc.Recipient.Address,
		Amount:    alloc.Amount,
	}
}

// boostMetadata returns a copy of md completed with the boost total.
func boostMetadata(md *rail.BoostMetadata, total btcutil.Amount,
	message string) *rail.BoostMetadata {

	var out rail.BoostMetadata
	if md != nil {
		out = *md
	}

	if out.ValueMsatTotal == 0 {
		out.ValueMsatTotal = lnwire.NewMSatFromSatoshis(total)
	}
	if out.Message == "" {
		out.Message = message
	}

	return &out
}

// progress calls the progress callback, if there is one.
func (r *Request) progress(address string, status Status, errMsg string,
	amt btcutil.Amount) {

	if r.OnProgress != nil {
		r.OnProgress(address, status, errMsg, amt)
	}
}
