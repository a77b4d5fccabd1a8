package webhooks

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ajochain/core/events"
	"ajochain/core/types"
)

type rawEvent struct{ evt *types.Event }

func (r rawEvent) EventType() string   { return r.evt.Type }
func (r rawEvent) Event() *types.Event { return r.evt }

func TestDispatcherSignsPayload(t *testing.T) {
	var (
		mu        sync.Mutex
		signature string
		body      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		signature = r.Header.Get(HeaderSignature)
		body = data
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer dispatcher.Close()

	dispatcher.Emit(events.Mint{Asset: "NGN", Amount: big.NewInt(5), Balance: big.NewInt(5)})
	waitFor(func() bool { mu.Lock(); defer mu.Unlock(); return signature != "" }, time.Second)

	mu.Lock()
	defer mu.Unlock()
	if signature != Sign([]byte("secret"), body) {
		t.Fatalf("signature mismatch: %s", signature)
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Type != events.TypeMint || payload.Attributes["amount"] != "5" || payload.DeliveryID == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDispatcherRetries(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRetryPolicy(5, time.Millisecond*10, time.Millisecond*20))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer dispatcher.Close()
	dispatcher.Emit(rawEvent{&types.Event{Type: "savings.payout", Attributes: map[string]string{"planId": "1"}}})
	waitFor(func() bool { return atomic.LoadInt32(&attempts) >= 3 }, time.Second)
	if atomic.LoadInt32(&attempts) < 3 {
		t.Fatalf("expected retries, got %d", attempts)
	}
}

func TestDispatcherTopicFilter(t *testing.T) {
	var received sync.Map
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Store(r.Header.Get(HeaderEvent), true)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithTopics("savings.*"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer dispatcher.Close()

	dispatcher.Emit(rawEvent{&types.Event{Type: events.TypeTransfer, Attributes: map[string]string{}}})
	dispatcher.Emit(rawEvent{&types.Event{Type: "savings.payout", Attributes: map[string]string{}}})
	waitFor(func() bool { _, ok := received.Load("savings.payout"); return ok }, time.Second)

	if _, ok := received.Load("savings.payout"); !ok {
		t.Fatalf("expected savings event delivery")
	}
	if _, ok := received.Load(events.TypeTransfer); ok {
		t.Fatalf("transfer must be filtered out")
	}
}

func TestNewDispatcherValidation(t *testing.T) {
	if _, err := NewDispatcher(" ", []byte("secret")); err == nil {
		t.Fatalf("expected endpoint error")
	}
	if _, err := NewDispatcher("http://example.invalid", nil); err == nil {
		t.Fatalf("expected secret error")
	}
}

func waitFor(cond func() bool, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond * 10)
	}
}
