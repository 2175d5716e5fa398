package recipient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidateValueSplits tests the advisory recipient set validation.
func TestValidateValueSplits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		recipients  []*Recipient
		valid       bool
		errContains []string
	}{
		{
			name: "valid mixed set",
			recipients: []*Recipient{
				{Type: TypeNode, Address: testPubkey, Split: 60},
				{
					Type:    TypeLnAddress,
					Address: "artist@wavlake.com",
					Split:   40,
				},
			},
			valid: true,
		},
		{
			name:        "empty",
			errContains: []string{"No recipients"},
		},
		{
			name: "splits above 100",
			recipients: []*Recipient{
				{Type: TypeNode, Address: testPubkey, Split: 80},
				{Type: TypeNode, Address: testPubkey, Split: 30},
			},
			errContains: []string{"exceeds 100%"},
		},
		{
			name: "zero total",
			recipients: []*Recipient{
				{Type: TypeNode, Address: testPubkey},
			},
			errContains: []string{
				"greater than 0", "split must be greater than 0",
			},
		},
		{
			name: "bad addresses",
			recipients: []*Recipient{
				{
					Name:    "Bob",
					Type:    TypeLnAddress,
					Address: "not-an-address",
					Split:   50,
				},
				{Type: TypeNode, Address: "abcd", Split: 50},
			},
			errContains: []string{
				"Recipient 1 (Bob): invalid lightning address",
				"Recipient 2: invalid node pubkey",
			},
		},
		{
			name: "missing address and split",
			recipients: []*Recipient{
				{Name: "Eve", Type: TypeNode},
			},
			errContains: []string{
				"Recipient 1 (Eve): split must be greater than 0",
				"Recipient 1 (Eve): missing address",
			},
		},
		{
			name: "missing address and unknown type",
			recipients: []*Recipient{
				{Type: TypeNode, Split: 50},
				{Type: "wallet", Address: "x", Split: 50},
			},
			errContains: []string{
				"Recipient 1: missing address",
				`unsupported type "wallet"`,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := ValidateValueSplits(tt.recipients)
			require.Equal(t, tt.valid, res.Valid)

			if tt.valid {
				require.Empty(t, res.Errors)
				return
			}

			all := strings.Join(res.Errors, "\n")
			for _, want := range tt.errContains {
				require.Contains(t, all, want)
			}
		})
	}
}

// TestAddressSyntax tests the address syntax helpers.
func TestAddressSyntax(t *testing.T) {
	t.Parallel()

	require.True(t, IsLightningAddress("a@x.com"))
	require.True(t, IsLightningAddress("some.one+tag@sub.getalby.com"))
	require.False(t, IsLightningAddress("a@x"))
	require.False(t, IsLightningAddress("@x.com"))
	require.False(t, IsLightningAddress(testPubkey))

	require.True(t, IsNodePubkey(testPubkey))
	require.True(t, IsNodePubkey(strings.Repeat("0", 66)))
	require.False(t, IsNodePubkey(strings.Repeat("0", 64)))
	require.False(t, IsNodePubkey(strings.Repeat("g", 66)))
}
