package recipient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPubkey = "03ae9f91a0cb8ff43840e3c322c4c61f019d8c1c3cea15a25cfc425ac605e61a4a"

// TestParseValueRecipients tests normalization of raw recipient descriptors.
func TestParseValueRecipients(t *testing.T) {
	t.Parallel()

	raw := &RawValue{
		Type:   "lightning",
		Method: "keysend",
		Recipients: []*RawRecipient{
			{
				Name:    "Host",
				Address: testPubkey,
				Split:   "90",
			},
			{
				Name:    "Guest",
				Type:    "LNAddress",
				Address: " guest@getalby.com ",
				Split:   "9.7",
				Fee:     "TRUE",
			},
			{
				Name:  "No address",
				Split: "50",
			},
			{
				Name:    "Zero split",
				Address: testPubkey,
				Split:   "0",
			},
			{
				Name:    "Garbage split",
				Address: testPubkey,
				Split:   "abc",
			},
			nil,
		},
	}

	recipients := ParseValueRecipients(raw)
	require.Len(t, recipients, 2)

	require.Equal(t, &Recipient{
		Name:    "Host",
		Type:    TypeNode,
		Address: testPubkey,
		Split:   90,
	}, recipients[0])

	require.Equal(t, "Guest", recipients[1].Name)
	require.Equal(t, TypeLnAddress, recipients[1].Type)
	require.Equal(t, "guest@getalby.com", recipients[1].Address)
	require.Equal(t, float64(9), recipients[1].Split)
	require.True(t, recipients[1].Fee)
}

// TestParseValueRecipients_Empty makes sure an unpayable declaration yields
// an empty list instead of nil or an error.
func TestParseValueRecipients_Empty(t *testing.T) {
	t.Parallel()

	require.Empty(t, ParseValueRecipients(nil))
	require.NotNil(t, ParseValueRecipients(nil))

	raw := &RawValue{
		Recipients: []*RawRecipient{
			{Address: "", Split: "100"},
			{Address: testPubkey, Split: "-5"},
		},
	}
	recipients := ParseValueRecipients(raw)
	require.NotNil(t, recipients)
	require.Empty(t, recipients)
}

// TestParseValueRecipients_CustomPair tests that the custom key/value pair
// resolves the same from attributes and nested elements.
func TestParseValueRecipients_CustomPair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       *RawRecipient
		wantKey   string
		wantValue string
	}{
		{
			name: "attributes",
			raw: &RawRecipient{
				Address:     testPubkey,
				Split:       "100",
				CustomKey:   "696969",
				CustomValue: "abc123",
			},
			wantKey:   "696969",
			wantValue: "abc123",
		},
		{
			name: "nested elements",
			raw: &RawRecipient{
				Address: testPubkey,
				Split:   "100",
				Elements: []RawElement{
					{Key: "customKey", Value: " 696969 "},
					{Key: "customValue", Value: "abc123"},
				},
			},
			wantKey:   "696969",
			wantValue: "abc123",
		},
		{
			name: "attribute wins",
			raw: &RawRecipient{
				Address:   testPubkey,
				Split:     "100",
				CustomKey: "112111100",
				Elements: []RawElement{
					{Key: "customKey", Value: "696969"},
					{Key: "customValue", Value: "wal_123"},
				},
			},
			wantKey:   "112111100",
			wantValue: "wal_123",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recipients := ParseValueRecipients(&RawValue{
				Recipients: []*RawRecipient{tt.raw},
			})
			require.Len(t, recipients, 1)
			require.Equal(t, tt.wantKey, recipients[0].CustomKey)
			require.Equal(t, tt.wantValue, recipients[0].CustomValue)
		})
	}
}

// TestDecodeValueXML tests decoding a podcast:value block in both the
// attribute and the nested element form.
func TestDecodeValueXML(t *testing.T) {
	t.Parallel()

	const block = `
<podcast:value xmlns:podcast="https://podcastindex.org/namespace/1.0"
	type="lightning" method="keysend" suggested="0.00000005000">
	<podcast:valueRecipient name="Band" type="node"
		address="` + testPubkey + `" split="95"
		customKey="696969" customValue="band"/>
	<podcast:valueRecipient name="Producer" type="lnaddress"
		address="producer@fountain.fm" split="4">
		<customKey>112111100</customKey>
		<customValue>producer-wallet</customValue>
	</podcast:valueRecipient>
	<podcast:valueRecipient name="App" type="node"
		address="` + testPubkey + `" split="1" fee="true"/>
</podcast:value>`

	raw, err := DecodeValueXML(strings.NewReader(block))
	require.NoError(t, err)
	require.Equal(t, "lightning", raw.Type)
	require.Equal(t, "keysend", raw.Method)
	require.Len(t, raw.Recipients, 3)

	recipients := ParseValueRecipients(raw)
	require.Len(t, recipients, 3)

	require.Equal(t, "696969", recipients[0].CustomKey)
	require.Equal(t, "band", recipients[0].CustomValue)

	require.Equal(t, TypeLnAddress, recipients[1].Type)
	require.Equal(t, "112111100", recipients[1].CustomKey)
	require.Equal(t, "producer-wallet", recipients[1].CustomValue)

	require.True(t, recipients[2].Fee)
	require.Equal(t, float64(100), TotalSplit(recipients))
}

// TestDecodeValueXML_Invalid tests that malformed input is reported.
func TestDecodeValueXML_Invalid(t *testing.T) {
	t.Parallel()

	_, err := DecodeValueXML(strings.NewReader("<value"))
	require.Error(t, err)
}
