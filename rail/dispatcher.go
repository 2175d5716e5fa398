package rail

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/routing/route"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/sputn1ck/boostsplit/recipient"
)

// Config holds the configuration of a Dispatcher.
type Config struct {
	// Resolver fetches invoices for Lightning Address recipients. Without
	// a resolver only node recipients can be paid.
	Resolver InvoiceResolver

	// NetParams, if set, enables decoding resolved invoices and checking
	// that they are for the requested amount before they are paid.
	NetParams *chaincfg.Params
}

// PaymentOutcome is the result of paying a single recipient.
type PaymentOutcome struct {
	// Success is true if the payment went through.
	Success bool

	// Preimage is the proof of payment, if the wallet returned one.
	Preimage string

	// Error is the normalized error message of a failed payment.
	Error string

	// Err is the classified error of a failed payment.
	Err error

	// Recipient is the address that was paid.
	Recipient string

	// Amount is the amount that was sent.
	Amount btcutil.Amount
}

// Kind returns the failure category of the outcome. Successful outcomes and
// failures not produced by a rail return KindUnknown.
func (o *PaymentOutcome) Kind() Kind {
	if railErr := Classify(o.Err); railErr != nil {
		return railErr.Kind
	}

	return KindUnknown
}

// Dispatcher pays single recipients over the rail their type selects.
type Dispatcher struct {
	cfg *Config
}

// New creates a new Dispatcher.
func New(cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return &Dispatcher{
		cfg: cfg,
	}, nil
}

// PayRecipient sends amt to r. Lightning Address recipients are paid by
// invoice through invoicePayer, node recipients by keysend through
// keysendPayer. Failures are never returned as errors but reported in the
// outcome with a normalized message.
func (d *Dispatcher) PayRecipient(ctx context.Context, r *recipient.Recipient,
	amt btcutil.Amount, message string, invoicePayer InvoicePayer,
	keysendPayer KeysendPayer, metadata *BoostMetadata) *PaymentOutcome {

	var (
		res *SendResult
		err error
	)
	switch r.Type {
	case recipient.TypeLnAddress:
		res, err = d.payLnAddress(ctx, r, amt, message, invoicePayer)

	case recipient.TypeNode:
		res, err = d.payNode(
			ctx, r, amt, message, keysendPayer, metadata,
		)

	default:
		err = ErrUnsupportedType
	}

	if err == nil {
		switch {
		case res == nil:
			err = ErrNoResult

		case res.Error != "":
			err = ClassifyMessage(res.Error)
		}
	}

	return newOutcome(r, amt, res, err)
}

// newOutcome builds the outcome of a payment attempt.
func newOutcome(r *recipient.Recipient, amt btcutil.Amount, res *SendResult,
	err error) *PaymentOutcome {

	outcome := &PaymentOutcome{
		Recipient: r.Address,
		Amount:    amt,
	}

	if err != nil {
		railErr := Classify(err)
		log.Errorf("Payment of %v to %v failed (%v): %v", amt,
			r.Label(), railErr.Kind, err)

		outcome.Err = railErr
		outcome.Error = railErr.Error()

		return outcome
	}

	log.Infof("Paid %v to %v", amt, r.Label())

	outcome.Success = true
	outcome.Preimage = res.Preimage

	return outcome
}

// payLnAddress resolves an invoice for the recipient and pays it.
func (d *Dispatcher) payLnAddress(ctx context.Context, r *recipient.Recipient,
	amt btcutil.Amount, message string,
	payer InvoicePayer) (*SendResult, error) {

	if !recipient.IsLightningAddress(r.Address) {
		return nil, fmt.Errorf("%w: %q is not a lightning address",
			ErrInvalidAddress, r.Address)
	}
	if payer == nil {
		return nil, fmt.Errorf("invoice payments not supported")
	}
	if d.cfg.Resolver == nil {
		return nil, fmt.Errorf("%w for %v", ErrNoResolver, r.Address)
	}

	invoice, err := d.cfg.Resolver.RequestInvoice(
		ctx, r.Address, amt, message,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to get invoice from %v: %w",
			r.Address, err)
	}

	if d.cfg.NetParams != nil {
		if err := checkInvoice(invoice, amt, d.cfg.NetParams); err != nil {
			return nil, err
		}
	}

	log.Debugf("Paying invoice of %v for %v", r.Address, amt)

	return payer.PayInvoice(ctx, invoice)
}

// payNode sends a keysend payment to the recipient.
func (d *Dispatcher) payNode(ctx context.Context, r *recipient.Recipient,
	amt btcutil.Amount, message string, payer KeysendPayer,
	metadata *BoostMetadata) (*SendResult, error) {

	dest, err := route.NewVertexFromStr(r.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if payer == nil {
		return nil, fmt.Errorf("keysend not supported")
	}

	md := metadata.forRecipient(r, amt, message)
	records, err := customRecords(r, md)
	if err != nil {
		return nil, err
	}

	log.Debugf("Sending keysend of %v to %v with %d custom records",
		amt, r.Address, len(records))

	return payer.Keysend(ctx, &KeysendRequest{
		Pubkey:        r.Address,
		Destination:   dest,
		Amount:        amt,
		Message:       message,
		Metadata:      md,
		CustomRecords: records,
	})
}

// checkInvoice makes sure invoice is a valid invoice over exactly amt.
func checkInvoice(invoice string, amt btcutil.Amount,
	params *chaincfg.Params) error {

	inv, err := zpay32.Decode(invoice, params)
	if err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	want := lnwire.NewMSatFromSatoshis(amt)
	if inv.MilliSat == nil || *inv.MilliSat != want {
		return fmt.Errorf("%w: want %v", ErrInvoiceAmountMismatch, want)
	}

	return nil
}
