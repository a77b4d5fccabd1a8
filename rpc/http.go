package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ajochain/core"
	"ajochain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
	codeFaucetDisabled = -32030
)

// ServerConfig tunes the RPC server.
type ServerConfig struct {
	JWT       JWTConfig
	RateLimit RateLimitConfig
	// EnableFaucet exposes bank_mint to the platform owner.
	EnableFaucet bool
	// CallerMetadataMaxTTL bounds the replay window for nonce-bearing calls.
	CallerMetadataMaxTTL time.Duration
	ReadHeaderTimeout    time.Duration
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	Logger               *slog.Logger
}

type Server struct {
	node    *core.Node
	cfg     ServerConfig
	auth    *authenticator
	limiter *rateLimiter
	logger  *slog.Logger

	callerNonceMu        sync.Mutex
	callerNonces         map[string]callerNonceState
	callerMetadataMaxTTL time.Duration
	nowFn                func() time.Time
}

func NewServer(node *core.Node, cfg ServerConfig) (*Server, error) {
	if node == nil {
		return nil, errors.New("rpc: node required")
	}
	auth, err := newAuthenticator(cfg.JWT)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxTTL := cfg.CallerMetadataMaxTTL
	if maxTTL <= 0 {
		maxTTL = 10 * time.Minute
	}
	return &Server{
		node:                 node,
		cfg:                  cfg,
		auth:                 auth,
		limiter:              newRateLimiter(cfg.RateLimit),
		logger:               logger.With("component", "rpc"),
		callerNonces:         make(map[string]callerNonceState),
		callerMetadataMaxTTL: maxTTL,
		nowFn:                time.Now,
	}, nil
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(gr chi.Router) {
		gr.Use(s.limiter.Middleware)
		gr.Post("/", s.handle)
		gr.Get("/ws/events", s.handleEventsWS)
	})
	return otelhttp.NewHandler(r, "ajo-rpc")
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: durationOr(s.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       durationOr(s.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      durationOr(s.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       durationOr(s.cfg.IdleTimeout, 60*time.Second),
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

type route struct {
	handler handlerFunc
	// mutating routes resolve the caller from the bearer token.
	mutating bool
}

func (s *Server) routes() map[string]route {
	return map[string]route{
		"savings_createPlan":         {s.handleCreatePlan, true},
		"savings_requestToJoin":      {s.handleRequestToJoin, true},
		"savings_approveJoinRequest": {s.handleApproveJoinRequest, true},
		"savings_denyJoinRequest":    {s.handleDenyJoinRequest, true},
		"savings_contribute":         {s.handleContribute, true},
		"savings_closeCycle":         {s.handleCloseCycle, true},
		"savings_pausePlan":          {s.handlePausePlan, true},
		"savings_reactivatePlan":     {s.handleReactivatePlan, true},
		"savings_setPlatformFee":     {s.handleSetPlatformFee, true},
		"savings_setFeeCollector":    {s.handleSetFeeCollector, true},
		"savings_pauseModule":        {s.handlePauseModule, true},
		"savings_resumeModule":       {s.handleResumeModule, true},
		"savings_getPlan":            {s.handleGetPlan, false},
		"savings_listPlans":          {s.handleListPlans, false},
		"savings_plansByCreator":     {s.handlePlansByCreator, false},
		"savings_plansByParticipant": {s.handlePlansByParticipant, false},
		"savings_participants":       {s.handleParticipants, false},
		"savings_joinRequests":       {s.handleJoinRequests, false},
		"savings_isParticipant":      {s.handleIsParticipant, false},
		"savings_cycleStatus":        {s.handleCycleStatus, false},
		"savings_trustScore":         {s.handleTrustScore, false},
		"savings_platformConfig":     {s.handlePlatformConfig, false},
		"bank_balance":               {s.handleBalance, false},
		"bank_mint":                  {s.handleMint, true},
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(recorder, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(recorder, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(recorder, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(recorder, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	defer func() {
		module, _, _ := strings.Cut(req.Method, "_")
		observability.ModuleMetrics().Observe(module, req.Method, recorder.status, time.Since(start))
	}()

	rt, ok := s.routes()[req.Method]
	if !ok {
		writeError(recorder, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	if rt.mutating {
		caller, authErr := s.auth.authenticate(r)
		if authErr != nil {
			s.logger.Info("rpc authentication failed", "method", req.Method, "error", authErr.Message)
			writeError(recorder, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		r = r.WithContext(withCaller(r.Context(), caller))
	}
	rt.handler(recorder, r, req)
}

// decodeParams unmarshals the single parameter object of a request.
func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "invalid_params", Data: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid_params", Data: err.Error()}
	}
	return nil
}

func writeParamError(w http.ResponseWriter, req *RPCRequest, err error) {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
}
