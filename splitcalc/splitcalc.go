package splitcalc

import (
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sputn1ck/boostsplit/recipient"
)

// floorEpsilon absorbs float noise such as 0.29*100 = 28.999999999999996
// before an amount is floored.
const floorEpsilon = 1e-9

// SplitAllocation pairs a recipient with the amount it is to be paid.
type SplitAllocation struct {
	// Recipient is the payee.
	Recipient *recipient.Recipient

	// Amount is the amount in satoshis, always at least 1.
	Amount btcutil.Amount
}

// CalculateSplitAmounts distributes total across the recipients
// proportionally to their splits. The returned amounts always add up to
// exactly total. Every recipient with a positive split receives at least one
// satoshi unless total is smaller than the number of such recipients, in
// which case some recipients are dropped from the result.
//
// Rounding differences are settled on the largest allocation that isn't a
// fee recipient. Ties are broken by input order.
func CalculateSplitAmounts(recipients []*recipient.Recipient,
	total btcutil.Amount) []*SplitAllocation {

	if total <= 0 {
		return []*SplitAllocation{}
	}

	var totalSplits float64
	for _, r := range recipients {
		if r.Split > 0 {
			totalSplits += r.Split
		}
	}

	if totalSplits == 0 {
		log.Warnf("Unable to split %v: recipients have no usable "+
			"splits", total)
		return []*SplitAllocation{}
	}

	allocs := make([]*SplitAllocation, 0, len(recipients))
	var allocated btcutil.Amount
	for _, r := range recipients {
		if r.Split <= 0 {
			continue
		}

		share := r.Split / totalSplits * float64(total)
		amt := btcutil.Amount(math.Floor(share + floorEpsilon))
		if amt < 1 {
			amt = 1
		}

		allocs = append(allocs, &SplitAllocation{
			Recipient: r,
			Amount:    amt,
		})
		allocated += amt
	}

	difference := total - allocated
	if difference != 0 {
		log.Debugf("Settling rounding difference of %d sat on largest "+
			"allocation", int64(difference))
	}

	switch {
	case difference > 0:
		allocs[largest(allocs)].Amount += difference

	// The minimum of one satoshi per recipient may over-allocate by more
	// than the largest allocation can give back, so the deficit moves on
	// to the next largest one until it is settled.
	case difference < 0:
		for difference < 0 {
			a := allocs[largest(allocs)]
			take := a.Amount
			if -difference < take {
				take = -difference
			}

			a.Amount -= take
			difference += take
		}
	}

	result := allocs[:0]
	for _, a := range allocs {
		if a.Amount <= 0 {
			log.Debugf("Dropping %v from split: no amount left",
				a.Recipient.Label())
			continue
		}

		result = append(result, a)
	}

	return result
}

// largest returns the index of the first allocation with the biggest amount.
// Fee allocations and allocations with nothing left are only considered if
// there is no other allocation, so the fee recipient is paid the fee as
// calculated.
func largest(allocs []*SplitAllocation) int {
	idx := -1
	for i, a := range allocs {
		if a.Recipient.Fee || a.Amount <= 0 {
			continue
		}
		if idx < 0 || a.Amount > allocs[idx].Amount {
			idx = i
		}
	}
	if idx >= 0 {
		return idx
	}

	idx = 0
	for i, a := range allocs {
		if a.Amount > allocs[idx].Amount {
			idx = i
		}
	}

	return idx
}

// Sum returns the sum of all allocated amounts.
func Sum(allocs []*SplitAllocation) btcutil.Amount {
	var sum btcutil.Amount
	for _, a := range allocs {
		sum += a.Amount
	}

	return sum
}
