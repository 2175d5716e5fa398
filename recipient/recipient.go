package recipient

import (
	"regexp"
	"strings"
)

// Type selects the payment rail used to pay a recipient.
type Type string

const (
	// TypeNode is a recipient addressed by node public key and paid via
	// keysend.
	TypeNode Type = "node"

	// TypeLnAddress is a recipient addressed by Lightning Address and
	// paid via an invoice fetched over LNURL-pay.
	TypeLnAddress Type = "lnaddress"
)

var (
	// lnAddressPattern matches the email-like Lightning Address syntax.
	lnAddressPattern = regexp.MustCompile(
		`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
	)

	// nodePubkeyPattern matches a hex encoded compressed public key.
	nodePubkeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{66}$`)
)

// Recipient is one payee in a value split.
type Recipient struct {
	// Name is an optional display label.
	Name string `json:"name,omitempty"`

	// Type selects the payment rail.
	Type Type `json:"type"`

	// Address is either a node public key or a Lightning Address,
	// depending on Type.
	Address string `json:"address"`

	// Split is the recipient's share in percentage points. Splits of a
	// recipient set are not required to sum to 100.
	Split float64 `json:"split"`

	// CustomKey and CustomValue are opaque metadata forwarded to keysend
	// payments.
	CustomKey   string `json:"customKey,omitempty"`
	CustomValue string `json:"customValue,omitempty"`

	// Fee marks the recipient as a fee recipient. Fee recipients are still
	// paid.
	Fee bool `json:"fee,omitempty"`

	// The following fields are resolved out-of-band and only carried
	// along.
	KeysendFallback string `json:"keysendFallback,omitempty"`
	NostrPubkey     string `json:"nostrPubkey,omitempty"`
	LnurlFallback   string `json:"lnurlFallback,omitempty"`
}

// Label returns the name of the recipient, or its address if it has none.
func (r *Recipient) Label() string {
	if r.Name != "" {
		return r.Name
	}

	return r.Address
}

// Copy returns a shallow copy of the recipient.
func (r *Recipient) Copy() *Recipient {
	c := *r
	return &c
}

// IsLightningAddress returns true if addr has Lightning Address syntax.
func IsLightningAddress(addr string) bool {
	return lnAddressPattern.MatchString(addr)
}

// IsNodePubkey returns true if addr looks like a hex encoded 33 byte node
// public key.
func IsNodePubkey(addr string) bool {
	return nodePubkeyPattern.MatchString(addr)
}

// ParseType normalizes a raw type string. An empty string yields TypeNode.
// Unknown types are kept as-is so the dispatcher can reject them.
func ParseType(s string) Type {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeNode
	}

	return Type(s)
}

// TotalSplit returns the sum of the splits of all recipients.
func TotalSplit(recipients []*Recipient) float64 {
	var total float64
	for _, r := range recipients {
		total += r.Split
	}

	return total
}
