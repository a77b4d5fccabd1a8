package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"ajochain/integrations/audit"
)

type jsonlRow struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	PlanID     *uint64           `json:"planId,omitempty"`
	Account    string            `json:"account,omitempty"`
	Asset      string            `json:"asset,omitempty"`
	Amount     string            `json:"amount,omitempty"`
	RecordedAt string            `json:"recordedAt"`
	Attributes map[string]string `json:"attributes"`
}

// EventsJSONL builds a JSON Lines export of audit records and returns the
// serialised payload alongside a checksum.
func EventsJSONL(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		evt, err := record.Event()
		if err != nil {
			return nil, "", err
		}
		row := jsonlRow{
			Sequence:   record.Sequence,
			Type:       record.Type,
			PlanID:     record.PlanID,
			Account:    record.Account,
			Asset:      record.Asset,
			Amount:     record.Amount,
			RecordedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
			Attributes: evt.Attributes,
		}
		if err := encoder.Encode(row); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
