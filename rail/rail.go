package rail

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/record"
	"github.com/lightningnetwork/lnd/routing/route"
)

// SendResult is what a wallet reports back for a single payment. Wallets
// either return an error or fill in Error, both are treated the same.
type SendResult struct {
	// Preimage is the proof of payment, if the wallet returned one.
	Preimage string

	// Error is an error message reported by the wallet.
	Error string
}

// KeysendRequest describes a single keysend payment.
type KeysendRequest struct {
	// Pubkey is the hex encoded destination node public key.
	Pubkey string

	// Destination is the decoded form of Pubkey.
	Destination route.Vertex

	// Amount is the amount to send.
	Amount btcutil.Amount

	// Message is the optional boost message.
	Message string

	// Metadata is the boost metadata for this recipient.
	Metadata *BoostMetadata

	// CustomRecords holds the TLV records to attach to the payment,
	// including the encoded Metadata.
	CustomRecords record.CustomSet
}

// InvoicePayer pays bolt11 invoices.
type InvoicePayer interface {
	// PayInvoice pays the given invoice.
	PayInvoice(ctx context.Context, invoice string) (*SendResult, error)
}

// KeysendPayer sends keysend payments.
type KeysendPayer interface {
	// Keysend sends a spontaneous payment to a node.
	Keysend(ctx context.Context, req *KeysendRequest) (*SendResult, error)
}

// InvoiceResolver turns a Lightning Address into an invoice for a given
// amount, usually by means of LNURL-pay.
type InvoiceResolver interface {
	// RequestInvoice requests an invoice over amt from address. The
	// comment is passed along if the service supports it.
	RequestInvoice(ctx context.Context, address string, amt btcutil.Amount,
		comment string) (string, error)
}

// InvoicePayerFunc is a function that implements InvoicePayer.
type InvoicePayerFunc func(ctx context.Context, invoice string) (*SendResult,
	error)

// PayInvoice calls f.
func (f InvoicePayerFunc) PayInvoice(ctx context.Context,
	invoice string) (*SendResult, error) {

	return f(ctx, invoice)
}

// KeysendPayerFunc is a function that implements KeysendPayer.
type KeysendPayerFunc func(ctx context.Context,
	req *KeysendRequest) (*SendResult, error)

// Keysend calls f.
func (f KeysendPayerFunc) Keysend(ctx context.Context,
	req *KeysendRequest) (*SendResult, error) {

	return f(ctx, req)
}

// InvoiceResolverFunc is a function that implements InvoiceResolver.
type InvoiceResolverFunc func(ctx context.Context, address string,
	amt btcutil.Amount, comment string) (string, error)

// RequestInvoice calls f.
func (f InvoiceResolverFunc) RequestInvoice(ctx context.Context,
	address string, amt btcutil.Amount, comment string) (string, error) {

	return f(ctx, address, amt, comment)
}
