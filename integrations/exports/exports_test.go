package exports

import (
	"strings"
	"testing"
	"time"

	"ajochain/integrations/audit"
)

func sampleRecords() []audit.Record {
	planID := uint64(7)
	return []audit.Record{
		{
			Sequence:   1,
			Type:       "savings.payout",
			PlanID:     &planID,
			Account:    "ajo1recipient",
			Asset:      "NGN",
			Amount:     "19800",
			Attributes: `{"net":"19800","planId":"7"}`,
			CreatedAt:  time.Unix(1700, 0).UTC(),
		},
		{
			Sequence:   2,
			Type:       "bank.mint",
			Attributes: `{"amount":"5"}`,
			CreatedAt:  time.Unix(1800, 0).UTC(),
		},
	}
}

func TestEventsCSV(t *testing.T) {
	data, checksum, err := EventsCSV(sampleRecords())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(data) == 0 || len(checksum) != 64 {
		t.Fatalf("expected data and checksum")
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %d", len(lines))
	}
	if lines[0] != "sequence,type,plan_id,account,asset,amount,recorded_at,attributes" {
		t.Fatalf("missing header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,savings.payout,7,ajo1recipient,NGN,19800,") {
		t.Fatalf("unexpected row: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2,bank.mint,,") {
		t.Fatalf("plan column must be empty for non-plan events: %s", lines[2])
	}
}

func TestEventsJSONL(t *testing.T) {
	data, checksum, err := EventsJSONL(sampleRecords())
	if err != nil {
		t.Fatalf("jsonl: %v", err)
	}
	if checksum == "" {
		t.Fatalf("expected checksum")
	}
	output := string(data)
	if !strings.Contains(output, `"planId":7`) || !strings.Contains(output, `"net":"19800"`) {
		t.Fatalf("unexpected payload: %s", output)
	}
	if strings.Count(output, "\n") != 2 {
		t.Fatalf("expected one line per record: %s", output)
	}
}

func TestEventsJSONLRejectsCorruptAttributes(t *testing.T) {
	records := []audit.Record{{Sequence: 1, Type: "x", Attributes: "{"}}
	if _, _, err := EventsJSONL(records); err == nil {
		t.Fatalf("expected decode error")
	}
}
