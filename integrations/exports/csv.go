package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"time"

	"ajochain/integrations/audit"
)

var csvHeader = []string{"sequence", "type", "plan_id", "account", "asset", "amount", "recorded_at", "attributes"}

// EventsCSV builds a CSV export of audit records and returns the serialised
// data alongside a SHA-256 checksum of the payload.
func EventsCSV(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for _, record := range records {
		row := []string{
			strconv.FormatUint(record.Sequence, 10),
			record.Type,
			planIDColumn(record.PlanID),
			record.Account,
			record.Asset,
			record.Amount,
			record.CreatedAt.UTC().Format(time.RFC3339Nano),
			record.Attributes,
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

func planIDColumn(id *uint64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(*id, 10)
}
