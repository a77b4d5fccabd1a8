package events

import (
	"math/big"
	"testing"
)

func TestBufferDrain(t *testing.T) {
	var buf Buffer
	buf.Emit(Transfer{Asset: "ajo", Amount: big.NewInt(10)})
	buf.Emit(Transfer{Asset: "ajo", Amount: big.NewInt(20)})
	drained := buf.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 events, got %d", len(drained))
	}
	if len(buf.Drain()) != 0 {
		t.Fatalf("expected buffer to be empty after drain")
	}
}

func TestTransferEventAttributes(t *testing.T) {
	evt := Transfer{Asset: " stx ", Amount: big.NewInt(250), Memo: "contribution"}.Event()
	if evt.Type != TypeTransfer {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	if evt.Attribute("asset") != "STX" {
		t.Fatalf("unexpected asset %q", evt.Attribute("asset"))
	}
	if evt.Attribute("amount") != "250" {
		t.Fatalf("unexpected amount %q", evt.Attribute("amount"))
	}
	if evt.Attribute("memo") != "contribution" {
		t.Fatalf("unexpected memo %q", evt.Attribute("memo"))
	}
}

func TestBroadcasterDeliversClones(t *testing.T) {
	b := NewBroadcaster(4)
	ch, cancel := b.Subscribe()
	defer cancel()
	b.Emit(Mint{Asset: "STX", Amount: big.NewInt(5), Balance: big.NewInt(5)})
	got := <-ch
	if got.Type != TypeMint {
		t.Fatalf("unexpected type %s", got.Type)
	}
	got.Attributes["amount"] = "tampered"
	b.Emit(Mint{Asset: "STX", Amount: big.NewInt(5), Balance: big.NewInt(10)})
	next := <-ch
	if next.Attribute("amount") != "5" {
		t.Fatalf("subscriber mutation leaked: %q", next.Attribute("amount"))
	}
}

func TestBroadcasterCancel(t *testing.T) {
	b := NewBroadcaster(1)
	_, cancel := b.Subscribe()
	if b.Subscribers() != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	cancel()
	if b.Subscribers() != 0 {
		t.Fatalf("expected subscription released")
	}
}

func TestMultiSkipsNil(t *testing.T) {
	var a, c Buffer
	Multi{&a, nil, &c}.Emit(Transfer{Asset: "STX"})
	if len(a.Drain()) != 1 || len(c.Drain()) != 1 {
		t.Fatalf("expected both buffers to receive the event")
	}
}
