package multipay

import (
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sputn1ck/boostsplit/rail"
	"github.com/sputn1ck/boostsplit/recipient"
)

// Status is the state of a single recipient's payment.
type Status string

const (
	// StatusPending is the state of a recipient not yet paid.
	StatusPending Status = "pending"

	// StatusSending is the state of a payment in flight.
	StatusSending Status = "sending"

	// StatusSuccess is the state of a completed payment.
	StatusSuccess Status = "success"

	// StatusFailed is the state of a failed or timed out payment.
	StatusFailed Status = "failed"
)

// ProgressFunc is notified whenever a recipient's payment changes state.
// errMsg is only set for StatusFailed.
type ProgressFunc func(address string, status Status, errMsg string,
	amt btcutil.Amount)

// PaymentTimeoutError is reported for payments the orchestrator gave up on.
// It is distinct from a timeout reported by the wallet itself.
type PaymentTimeoutError struct {
	After time.Duration
}

// Error implements the error interface.
func (e *PaymentTimeoutError) Error() string {
	return fmt.Sprintf("Payment timeout after %s seconds",
		strconv.FormatFloat(e.After.Seconds(), 'f', -1, 64))
}

// SplitPayment is a recipient together with its share and the outcome of
// paying it.
type SplitPayment struct {
	Recipient *recipient.Recipient
	Amount    btcutil.Amount
	Outcome   *rail.PaymentOutcome
}

// errorLine returns a human-readable description of a failed payment.
func (s *SplitPayment) errorLine() string {
	return fmt.Sprintf("%s: %s", s.Recipient.Label(), s.Outcome.Error)
}

// MultiRecipientResult is the aggregated result of a multi recipient
// payment.
type MultiRecipientResult struct {
	// Success is true if at least one payment succeeded.
	Success bool

	// TotalAmount is the amount that was to be distributed.
	TotalAmount btcutil.Amount

	// Successful and Failed hold the attempted payments in dispatch
	// order.
	Successful []*SplitPayment
	Failed     []*SplitPayment

	// Errors holds one line per failed payment, or a single summary line
	// in case of a partial success.
	Errors []string

	// PrimaryPreimage is the preimage of the first successful payment and
	// serves as the receipt of the whole boost.
	PrimaryPreimage string

	// SuccessRate is the ratio of successful to attempted payments.
	SuccessRate float64

	// IsPartialSuccess is true if at least half, but not all, payments
	// succeeded.
	IsPartialSuccess bool
}

// Attempted returns the number of attempted payments.
func (r *MultiRecipientResult) Attempted() int {
	return len(r.Successful) + len(r.Failed)
}

// PaidAmount returns the sum of all successful payments.
func (r *MultiRecipientResult) PaidAmount() btcutil.Amount {
	var paid btcutil.Amount
	for _, p := range r.Successful {
		paid += p.Amount
	}

	return paid
}

// record appends the payment to the matching list.
func (r *MultiRecipientResult) record(p *SplitPayment) {
	if p.Outcome.Success {
		r.Successful = append(r.Successful, p)
		if len(r.Successful) == 1 {
			r.PrimaryPreimage = p.Outcome.Preimage
		}

		return
	}

	r.Failed = append(r.Failed, p)
	r.Errors = append(r.Errors, p.errorLine())
}

// finalize derives the summary fields once all payments were attempted.
func (r *MultiRecipientResult) finalize() {
	attempted := r.Attempted()
	successful := len(r.Successful)

	if attempted > 0 {
		r.SuccessRate = float64(successful) / float64(attempted)
	}
	r.Success = successful > 0
	r.IsPartialSuccess = r.SuccessRate >= 0.5 && r.SuccessRate < 1.0

	if r.IsPartialSuccess {
		r.Errors = []string{fmt.Sprintf("Partial success: %d/%d "+
			"recipients received payment", successful, attempted)}
	}
}
