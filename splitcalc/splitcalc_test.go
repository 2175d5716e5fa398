package splitcalc

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sputn1ck/boostsplit/recipient"
	"github.com/stretchr/testify/require"
)

var nodeAddr = strings.Repeat("0", 66)

func makeRecipients(splits ...float64) []*recipient.Recipient {
	recipients := make([]*recipient.Recipient, 0, len(splits))
	for i, split := range splits {
		recipients = append(recipients, &recipient.Recipient{
			Name:    fmt.Sprintf("r%d", i),
			Type:    recipient.TypeNode,
			Address: nodeAddr,
			Split:   split,
		})
	}

	return recipients
}

func amounts(allocs []*SplitAllocation) []btcutil.Amount {
	amts := make([]btcutil.Amount, 0, len(allocs))
	for _, a := range allocs {
		amts = append(amts, a.Amount)
	}

	return amts
}

// TestCalculateSplitAmounts tests the allocation of fixed scenarios.
func TestCalculateSplitAmounts(t *testing.T) {
	t.Parallel()

	mixed := []*recipient.Recipient{
		{Type: recipient.TypeLnAddress, Address: "a@x.com", Split: 60},
		{Type: recipient.TypeNode, Address: nodeAddr, Split: 40},
	}

	tests := []struct {
		name       string
		recipients []*recipient.Recipient
		total      btcutil.Amount
		want       []btcutil.Amount
	}{
		{
			name:       "sixty forty",
			recipients: mixed,
			total:      1000,
			want:       []btcutil.Amount{600, 400},
		},
		{
			name:       "thirds without adjustment",
			recipients: makeRecipients(33, 33, 34),
			total:      100,
			want:       []btcutil.Amount{33, 33, 34},
		},
		{
			name:       "rounding loss goes to largest",
			recipients: makeRecipients(33, 33, 34),
			total:      10,
			want:       []btcutil.Amount{4, 3, 3},
		},
		{
			name:       "splits not summing to 100",
			recipients: makeRecipients(1, 3),
			total:      100,
			want:       []btcutil.Amount{25, 75},
		},
		{
			name:       "float noise",
			recipients: makeRecipients(29, 71),
			total:      100,
			want:       []btcutil.Amount{29, 71},
		},
		{
			name:       "tiny splits get one sat",
			recipients: makeRecipients(99.9, 0.05, 0.05),
			total:      100,
			want:       []btcutil.Amount{98, 1, 1},
		},
		{
			name:       "tie goes to first",
			recipients: makeRecipients(50, 50),
			total:      3,
			want:       []btcutil.Amount{2, 1},
		},
		{
			name:       "total below recipient count",
			recipients: makeRecipients(20, 20, 20, 20, 20),
			total:      3,
			want:       []btcutil.Amount{1, 1, 1},
		},
		{
			name:       "non positive splits are skipped",
			recipients: makeRecipients(0, 50, -10, 50),
			total:      10,
			want:       []btcutil.Amount{5, 5},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			allocs := CalculateSplitAmounts(tt.recipients, tt.total)
			require.Equal(t, tt.want, amounts(allocs))
			require.Equal(t, tt.total, Sum(allocs))
		})
	}
}

// TestCalculateSplitAmounts_Empty tests the cases where nobody is paid.
func TestCalculateSplitAmounts_Empty(t *testing.T) {
	t.Parallel()

	require.Empty(t, CalculateSplitAmounts(nil, 1000))
	require.Empty(t, CalculateSplitAmounts(makeRecipients(0, 0), 1000))
	require.Empty(t, CalculateSplitAmounts(makeRecipients(50, 50), 0))
}

// TestCalculateSplitAmounts_KeepsOrder makes sure allocations reference the
// input recipients in input order.
func TestCalculateSplitAmounts_KeepsOrder(t *testing.T) {
	t.Parallel()

	recipients := makeRecipients(10, 70, 20)
	allocs := CalculateSplitAmounts(recipients, 1000)
	require.Len(t, allocs, 3)

	for i, a := range allocs {
		require.Same(t, recipients[i], a.Recipient)
	}
}

// TestCalculateSplitAmounts_FeeRecipient tests that rounding differences are
// never settled on a fee recipient while another allocation can take them.
func TestCalculateSplitAmounts_FeeRecipient(t *testing.T) {
	t.Parallel()

	withFee := func(feeSplit float64,
		splits ...float64) []*recipient.Recipient {

		recipients := makeRecipients(splits...)
		return append(recipients, &recipient.Recipient{
			Type:    recipient.TypeLnAddress,
			Address: "fees@boost.example",
			Split:   feeSplit,
			Fee:     true,
		})
	}

	tests := []struct {
		name       string
		recipients []*recipient.Recipient
		total      btcutil.Amount
		want       []btcutil.Amount
		wantFee    btcutil.Amount
	}{
		{
			name:       "surplus skips largest fee",
			recipients: withFee(80, 10, 10),
			total:      13,
			want:       []btcutil.Amount{2, 1, 10},
			wantFee:    10,
		},
		{
			name:       "deficit skips largest fee",
			recipients: withFee(98, 1, 1),
			total:      3,
			want:       []btcutil.Amount{1, 2},
			wantFee:    2,
		},
		{
			name:       "fee only",
			recipients: withFee(100),
			total:      5,
			want:       []btcutil.Amount{5},
			wantFee:    5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			allocs := CalculateSplitAmounts(tt.recipients, tt.total)
			require.Equal(t, tt.want, amounts(allocs))
			require.Equal(t, tt.total, Sum(allocs))

			last := allocs[len(allocs)-1]
			require.True(t, last.Recipient.Fee)
			require.Equal(t, tt.wantFee, last.Amount)
		})
	}
}

// TestCalculateSplitAmounts_Invariants checks the sum and minimum-one
// invariants as well as determinism over random recipient sets.
func TestCalculateSplitAmounts_Invariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(12) + 1
		splits := make([]float64, n)
		for j := range splits {
			if rng.Intn(4) == 0 {
				splits[j] = float64(rng.Intn(1000)) / 100
			} else {
				splits[j] = float64(rng.Intn(100) + 1)
			}
		}

		var total btcutil.Amount
		switch rng.Intn(3) {
		case 0:
			total = btcutil.Amount(rng.Intn(n) + 1)
		case 1:
			total = btcutil.Amount(rng.Intn(10_000) + 1)
		default:
			total = btcutil.Amount(rng.Int63n(2_100_000_000) + 1)
		}

		recipients := makeRecipients(splits...)
		allocs := CalculateSplitAmounts(recipients, total)

		var positive int
		for _, s := range splits {
			if s > 0 {
				positive++
			}
		}

		msg := fmt.Sprintf("splits=%v total=%v", splits, total)
		if positive == 0 {
			require.Empty(t, allocs, msg)
			continue
		}

		require.Equal(t, total, Sum(allocs), msg)
		for _, a := range allocs {
			require.GreaterOrEqual(t, a.Amount, btcutil.Amount(1), msg)
		}
		require.LessOrEqual(t, len(allocs), positive, msg)

		again := CalculateSplitAmounts(recipients, total)
		require.Equal(t, amounts(allocs), amounts(again), msg)
	}
}
