package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ajochain/core"
	"ajochain/crypto"
	"ajochain/storage"
)

var testJWTSecret = []byte("rpc-test-secret")

var (
	ownerAccount     = crypto.DeriveAccount("rpc-owner")
	collectorAccount = crypto.DeriveAccount("rpc-collector")
	creatorAccount   = crypto.DeriveAccount("rpc-creator")
	memberAccount    = crypto.DeriveAccount("rpc-member")
	outsiderAccount  = crypto.DeriveAccount("rpc-outsider")
)

type testEnv struct {
	node    *core.Node
	server  *Server
	handler http.Handler
}

func newTestEnv(t testing.TB, mutate func(*ServerConfig)) *testEnv {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := core.NewNode(db, core.Options{
		Owner:        ownerAccount,
		FeeCollector: collectorAccount,
		FeeBps:       100,
		Assets:       []string{"NGN"},
		Now:          func() int64 { return 1_700_000_000 },
	})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	cfg := ServerConfig{
		JWT:          JWTConfig{Secret: testJWTSecret, Issuer: "rpc-tests", Audience: "unit-tests"},
		EnableFaucet: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := NewServer(node, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testEnv{node: node, server: srv, handler: srv.Handler()}
}

func tokenFor(t testing.TB, account [20]byte) string {
	t.Helper()
	token, err := IssueToken(testJWTSecret, account, "rpc-tests", "unit-tests", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func marshalParam(t testing.TB, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal param: %v", err)
	}
	return raw
}

// call posts a single JSON-RPC request through the full handler stack.
func (e *testEnv) call(t testing.TB, token, method string, params interface{}) (*httptest.ResponseRecorder, json.RawMessage, *RPCError) {
	t.Helper()
	body, err := json.Marshal(RPCRequest{
		JSONRPC: jsonRPCVersion,
		ID:      1,
		Method:  method,
		Params:  []json.RawMessage{marshalParam(t, params)},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "192.0.2.10:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, req)
	result, rpcErr := decodeRPCResponse(t, recorder)
	return recorder, result, rpcErr
}

func decodeRPCResponse(t testing.TB, recorder *httptest.ResponseRecorder) (json.RawMessage, *RPCError) {
	t.Helper()
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Result, resp.Error
}

func (e *testEnv) mustCall(t testing.TB, token, method string, params, out interface{}) {
	t.Helper()
	_, result, rpcErr := e.call(t, token, method, params)
	if rpcErr != nil {
		t.Fatalf("%s: unexpected error %+v", method, rpcErr)
	}
	if out != nil {
		if err := json.Unmarshal(result, out); err != nil {
			t.Fatalf("%s: decode result: %v", method, err)
		}
	}
}

func (e *testEnv) mint(t testing.TB, to [20]byte, amount string) {
	t.Helper()
	e.mustCall(t, tokenFor(t, ownerAccount), "bank_mint", map[string]string{
		"to":     crypto.FormatAccount(to),
		"asset":  "NGN",
		"amount": amount,
	}, nil)
}

func createPlanPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":               "Market women",
		"description":        "Weekly esusu",
		"totalParticipants":  2,
		"contributionAmount": "10000",
		"frequency":          "weekly",
		"durationMonths":     1,
		"asset":              "NGN",
	}
}
