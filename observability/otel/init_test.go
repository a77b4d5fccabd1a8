package otel

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = secret ,, broken, =novalue,tenant=ajo")
	if len(got) != 2 || got["api-key"] != "secret" || got["tenant"] != "ajo" {
		t.Fatalf("unexpected headers %v", got)
	}
}

func TestInitRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), Config{Traces: true}); err == nil {
		t.Fatalf("expected error without service name")
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "ajod"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSamplerDescriptions(t *testing.T) {
	if got := Sampler(0).Description(); got == "" {
		t.Fatalf("expected sampler description")
	}
	if Sampler(0.25).Description() == Sampler(1).Description() {
		t.Fatalf("ratio sampler should differ from always-on")
	}
}

func TestResourceAttributesDescribeLedger(t *testing.T) {
	attrs := ResourceAttributes(Config{
		ServiceName:  "ajod",
		Environment:  "staging",
		Assets:       []string{"usdc", " ngn"},
		StateVersion: 1,
		Store:        "leveldb",
	})
	got := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		got[kv.Key] = kv.Value
	}
	if got["service.name"].AsString() != "ajod" || got["service.namespace"].AsString() != ServiceNamespace {
		t.Fatalf("unexpected service attributes %v", attrs)
	}
	if got["deployment.environment"].AsString() != "staging" {
		t.Fatalf("environment missing: %v", attrs)
	}
	if assets := got[AttrLedgerAssets].AsStringSlice(); len(assets) != 2 || assets[0] != "NGN" || assets[1] != "USDC" {
		t.Fatalf("unexpected assets %v", assets)
	}
	if got[AttrLedgerStateVersion].AsInt64() != 1 || got[AttrLedgerStore].AsString() != "leveldb" {
		t.Fatalf("unexpected ledger attributes %v", attrs)
	}
	if _, ok := got["service.version"]; ok {
		t.Fatalf("empty version must be omitted")
	}
}

func TestShutdownAllReportsEveryFailure(t *testing.T) {
	var order []int
	first := errors.New("first")
	second := errors.New("second")
	err := shutdownAll(context.Background(), []ShutdownFunc{
		func(context.Context) error { order = append(order, 1); return first },
		func(context.Context) error { order = append(order, 2); return second },
	})
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if len(order) != 2 || order[0] != 2 {
		t.Fatalf("providers must stop in reverse order, got %v", order)
	}
}
