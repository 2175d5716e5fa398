package recipient

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// RawValue is a value declaration as produced by a feed parser, before any
// normalization took place.
type RawValue struct {
	XMLName xml.Name `xml:"value"`

	// Type is the value type, e.g. "lightning".
	Type string `xml:"type,attr" json:"type"`

	// Method is the payment method, e.g. "keysend".
	Method string `xml:"method,attr" json:"method"`

	// Suggested is the suggested amount as declared by the feed.
	Suggested string `xml:"suggested,attr" json:"suggested,omitempty"`

	// Recipients holds the raw recipient descriptors.
	Recipients []*RawRecipient `xml:"valueRecipient" json:"recipients"`
}

// RawRecipient is a single recipient descriptor as found in a feed. All
// values are kept as strings since third party feeds are frequently sloppy.
type RawRecipient struct {
	Name        string `xml:"name,attr" json:"name,omitempty"`
	Type        string `xml:"type,attr" json:"type,omitempty"`
	Address     string `xml:"address,attr" json:"address,omitempty"`
	Split       string `xml:"split,attr" json:"split,omitempty"`
	Fee         string `xml:"fee,attr" json:"fee,omitempty"`
	CustomKey   string `xml:"customKey,attr" json:"customKey,omitempty"`
	CustomValue string `xml:"customValue,attr" json:"customValue,omitempty"`

	KeysendFallback string `xml:"-" json:"keysendFallback,omitempty"`
	NostrPubkey     string `xml:"-" json:"nostrPubkey,omitempty"`
	LnurlFallback   string `xml:"-" json:"lnurlFallback,omitempty"`

	// Elements holds nested sub-elements. Some feeds carry the custom
	// key/value pair as child elements instead of attributes.
	Elements []RawElement `xml:",any" json:"elements,omitempty"`
}

// RawElement is a nested key/value sub-element of a recipient descriptor.
type RawElement struct {
	XMLName xml.Name `json:"-"`
	Key     string   `xml:"-" json:"key"`
	Value   string   `xml:",chardata" json:"value"`
}

// name returns the element's key, which is either set explicitly or taken
// from the local XML element name.
func (e *RawElement) name() string {
	if e.Key != "" {
		return e.Key
	}

	return e.XMLName.Local
}

// customPair resolves the custom key/value pair of the descriptor. Attribute
// values take precedence over nested elements.
func (r *RawRecipient) customPair() (string, string) {
	key := strings.TrimSpace(r.CustomKey)
	value := strings.TrimSpace(r.CustomValue)

	for i := range r.Elements {
		elem := &r.Elements[i]
		switch strings.ToLower(elem.name()) {
		case "customkey":
			if key == "" {
				key = strings.TrimSpace(elem.Value)
			}

		case "customvalue":
			if value == "" {
				value = strings.TrimSpace(elem.Value)
			}
		}
	}

	return key, value
}

// parseSplit parses a split as an integer percentage. Fractional values are
// truncated, anything unparseable is 0.
func parseSplit(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return math.Trunc(f)
}

// ParseValueRecipients turns a raw value declaration into a list of
// normalized recipients. Descriptors without an address or without a
// positive split are skipped. An empty result means nothing is payable.
func ParseValueRecipients(raw *RawValue) []*Recipient {
	if raw == nil {
		return []*Recipient{}
	}

	recipients := make([]*Recipient, 0, len(raw.Recipients))
	for idx, rr := range raw.Recipients {
		if rr == nil {
			continue
		}

		address := strings.TrimSpace(rr.Address)
		split := parseSplit(rr.Split)

		if address == "" {
			log.Debugf("Skipping value recipient %d (%q): missing "+
				"address", idx, rr.Name)
			continue
		}
		if split <= 0 {
			log.Debugf("Skipping value recipient %d (%q): invalid "+
				"split %q", idx, rr.Name, rr.Split)
			continue
		}

		customKey, customValue := rr.customPair()

		recipients = append(recipients, &Recipient{
			Name:            strings.TrimSpace(rr.Name),
			Type:            ParseType(rr.Type),
			Address:         address,
			Split:           split,
			CustomKey:       customKey,
			CustomValue:     customValue,
			Fee:             strings.EqualFold(strings.TrimSpace(rr.Fee), "true"),
			KeysendFallback: rr.KeysendFallback,
			NostrPubkey:     rr.NostrPubkey,
			LnurlFallback:   rr.LnurlFallback,
		})
	}

	if len(recipients) == 0 && len(raw.Recipients) > 0 {
		log.Warnf("No payable recipients in value block with %d "+
			"descriptors", len(raw.Recipients))
	}

	return recipients
}

// DecodeValueXML decodes a single value element, e.g. a <podcast:value>
// block lifted out of a feed.
func DecodeValueXML(r io.Reader) (*RawValue, error) {
	var raw RawValue
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode value block: %w", err)
	}

	return &raw, nil
}
