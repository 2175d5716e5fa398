package rail

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/record"
	"github.com/sputn1ck/boostsplit/recipient"
)

// BoostagramType is the TLV record type carrying boost metadata as JSON.
const BoostagramType uint64 = 7629169

// BoostMetadata is the boostagram payload attached to keysend payments.
type BoostMetadata struct {
	Podcast      string `json:"podcast,omitempty"`
	FeedID       string `json:"feedID,omitempty"`
	GUID         string `json:"guid,omitempty"`
	Episode      string `json:"episode,omitempty"`
	EpisodeGUID  string `json:"episode_guid,omitempty"`
	URL          string `json:"url,omitempty"`
	Action       string `json:"action,omitempty"`
	AppName      string `json:"app_name,omitempty"`
	AppVersion   string `json:"app_version,omitempty"`
	SenderName   string `json:"sender_name,omitempty"`
	Message      string `json:"message,omitempty"`
	TimestampSec int64  `json:"ts,omitempty"`

	// ValueMsatTotal is the amount of the whole boost, ValueMsat the
	// share of the recipient the record is sent to.
	ValueMsatTotal lnwire.MilliSatoshi `json:"value_msat_total,omitempty"`
	ValueMsat      lnwire.MilliSatoshi `json:"value_msat,omitempty"`

	// Name is the name of the recipient the record is sent to.
	Name string `json:"name,omitempty"`
}

// forRecipient returns a copy of the metadata completed with the
// recipient specific fields.
func (m *BoostMetadata) forRecipient(r *recipient.Recipient,
	amt btcutil.Amount, message string) *BoostMetadata {

	var md BoostMetadata
	if m != nil {
		md = *m
	}

	if md.Action == "" {
		md.Action = "boost"
	}
	if message != "" {
		md.Message = message
	}
	md.Name = r.Name
	md.ValueMsat = lnwire.NewMSatFromSatoshis(amt)

	return &md
}

// customRecords builds the TLV records of a keysend payment: the
// boostagram and, if present, the recipient's own custom key/value pair.
func customRecords(r *recipient.Recipient,
	md *BoostMetadata) (record.CustomSet, error) {

	boostagram, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boostagram: %w", err)
	}

	records := record.CustomSet{
		BoostagramType: boostagram,
	}

	if r.CustomKey != "" {
		key, err := strconv.ParseUint(r.CustomKey, 10, 64)
		switch {
		case err != nil:
			log.Warnf("Ignoring custom key %q of %v: %v",
				r.CustomKey, r.Label(), err)

		case key < record.CustomTypeStart:
			log.Warnf("Ignoring custom key %d of %v: below custom "+
				"range", key, r.Label())

		case key == BoostagramType:
			log.Warnf("Ignoring custom key of %v: collides with "+
				"boostagram record", r.Label())

		default:
			records[key] = []byte(r.CustomValue)
		}
	}

	if err := records.Validate(); err != nil {
		return nil, err
	}

	return records, nil
}
