package rpc

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"ajochain/core"
	"ajochain/crypto"
	"ajochain/native/bank"
	"ajochain/native/savings"
)

const codeInsufficientBalance = -32040

type metadataCarrier interface {
	metadata() callerMetadataParams
}

func (p callerMetadataParams) metadata() callerMetadataParams { return p }

type createPlanParams struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	TotalParticipants  uint32 `json:"totalParticipants"`
	ContributionAmount string `json:"contributionAmount"`
	Frequency          string `json:"frequency"`
	DurationMonths     uint32 `json:"durationMonths"`
	TrustScoreRequired uint64 `json:"trustScoreRequired"`
	AllowPartial       bool   `json:"allowPartial"`
	Asset              string `json:"asset"`
	callerMetadataParams
}

type planIDParams struct {
	PlanID uint64 `json:"planId"`
	callerMetadataParams
}

type requesterParams struct {
	PlanID    uint64 `json:"planId"`
	Requester string `json:"requester"`
	callerMetadataParams
}

type contributeParams struct {
	PlanID uint64 `json:"planId"`
	Amount string `json:"amount"`
	callerMetadataParams
}

type feeParams struct {
	FeeBps uint32 `json:"feeBps"`
	callerMetadataParams
}

type collectorParams struct {
	Collector string `json:"collector"`
	callerMetadataParams
}

type metadataOnlyParams struct {
	callerMetadataParams
}

type mintParams struct {
	To     string `json:"to"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
	callerMetadataParams
}

type addressParams struct {
	Address string `json:"address"`
}

type planAddressParams struct {
	PlanID  uint64 `json:"planId"`
	Address string `json:"address"`
}

type pageParams struct {
	Page     uint64 `json:"page"`
	PageSize uint64 `json:"pageSize"`
}

type balanceParams struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
}

func parseBech32Address(addr string) ([20]byte, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("address required")
	}
	return crypto.ParseAccount(trimmed)
}

// parseAmount accepts any non-negative decimal integer; the ledger enforces
// domain minimums.
func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// beginMutation decodes params and checks the optional replay metadata. The
// caller was resolved from the bearer token by the dispatcher.
func (s *Server) beginMutation(w http.ResponseWriter, r *http.Request, req *RPCRequest, params metadataCarrier) ([20]byte, bool) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "caller not authenticated", nil)
		return [20]byte{}, false
	}
	if rpcErr := decodeParams(req, params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return [20]byte{}, false
	}
	if err := s.validateCallerMetadata(caller, params.metadata()); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_metadata", err.Error())
		return [20]byte{}, false
	}
	return caller, true
}

func ledgerErrorStatus(code savings.ErrorCode) int {
	switch code {
	case savings.CodeOwnerOnly, savings.CodeNotAuthorized, savings.CodeNotParticipant, savings.CodeInsufficientTrustScore:
		return http.StatusForbidden
	case savings.CodePlanNotFound, savings.CodeRequestNotFound:
		return http.StatusNotFound
	case savings.CodeAlreadyParticipant, savings.CodePlanFull, savings.CodeAlreadyContributed,
		savings.CodePlanInactive, savings.CodeCycleIncomplete:
		return http.StatusConflict
	case savings.CodeModulePaused:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeLedgerError maps ledger failures onto their stable numeric codes.
func writeLedgerError(w http.ResponseWriter, req *RPCRequest, err error) {
	if code, ok := savings.Code(err); ok {
		writeError(w, ledgerErrorStatus(code), req.ID, int(code), err.Error(), nil)
		return
	}
	switch {
	case errors.Is(err, bank.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, req.ID, codeInsufficientBalance, err.Error(), nil)
	case errors.Is(err, core.ErrAssetNotSupported), errors.Is(err, bank.ErrInvalidAmount), errors.Is(err, bank.ErrAssetRequired):
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal error", err.Error())
	}
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params createPlanParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	amount, err := parseAmount(params.ContributionAmount)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	frequency, err := savings.ParseFrequency(params.Frequency)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	id, err := s.node.CreatePlan(r.Context(), caller, savings.CreatePlanParams{
		Name:               params.Name,
		Description:        params.Description,
		TotalParticipants:  params.TotalParticipants,
		ContributionAmount: amount,
		Frequency:          frequency,
		DurationMonths:     params.DurationMonths,
		TrustScoreRequired: params.TrustScoreRequired,
		AllowPartial:       params.AllowPartial,
		Asset:              params.Asset,
	})
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"planId": id})
}

func (s *Server) handleRequestToJoin(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params planIDParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	request, err := s.node.RequestToJoin(r.Context(), params.PlanID, caller)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, JoinRequestResult{
		PlanID:      request.PlanID,
		Requester:   crypto.FormatAccount(request.Requester),
		RequestedAt: request.RequestedAt,
	})
}

func (s *Server) handleApproveJoinRequest(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.resolveJoinRequest(w, r, req, true)
}

func (s *Server) handleDenyJoinRequest(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.resolveJoinRequest(w, r, req, false)
}

func (s *Server) resolveJoinRequest(w http.ResponseWriter, r *http.Request, req *RPCRequest, approve bool) {
	var params requesterParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	requester, err := parseBech32Address(params.Requester)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	var resolution *savings.JoinResolution
	if approve {
		resolution, err = s.node.ApproveJoinRequest(r.Context(), params.PlanID, caller, requester)
	} else {
		resolution, err = s.node.DenyJoinRequest(r.Context(), params.PlanID, caller, requester)
	}
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, resolutionResult(resolution))
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params contributeParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	receipt, err := s.node.Contribute(r.Context(), params.PlanID, caller, amount)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, contributionResult(receipt))
}

func (s *Server) handleCloseCycle(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params planIDParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	payout, err := s.node.CloseCycle(r.Context(), params.PlanID, caller)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, payoutResult(payout))
}

func (s *Server) handlePausePlan(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params planIDParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	if err := s.node.PausePlan(r.Context(), caller, params.PlanID); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleReactivatePlan(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params planIDParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	if err := s.node.ReactivatePlan(r.Context(), caller, params.PlanID); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleSetPlatformFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params feeParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	if err := s.node.SetPlatformFeeBps(r.Context(), caller, params.FeeBps); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]uint32{"feeBps": params.FeeBps})
}

func (s *Server) handleSetFeeCollector(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params collectorParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	collector, err := parseBech32Address(params.Collector)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	if err := s.node.SetFeeCollector(r.Context(), caller, collector); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"feeCollector": crypto.FormatAccount(collector)})
}

func (s *Server) handlePauseModule(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params metadataOnlyParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	if err := s.node.PauseModule(r.Context(), caller); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": true})
}

func (s *Server) handleResumeModule(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params metadataOnlyParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	if err := s.node.ResumeModule(r.Context(), caller); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": false})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.cfg.EnableFaucet {
		writeError(w, http.StatusForbidden, req.ID, codeFaucetDisabled, "faucet disabled", nil)
		return
	}
	var params mintParams
	caller, ok := s.beginMutation(w, r, req, &params)
	if !ok {
		return
	}
	to, err := parseBech32Address(params.To)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	balance, err := s.node.Mint(r.Context(), caller, to, params.Asset, amount)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, BalanceResult{
		Address: crypto.FormatAccount(to),
		Asset:   savings.NormalizeAsset(params.Asset),
		Balance: amountString(balance),
	})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params planIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	plan, err := s.node.Plan(params.PlanID)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, planResult(plan))
}

func (s *Server) handleListPlans(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params pageParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	window, plans, err := s.node.PlansPage(params.Page, params.PageSize)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	result := PlansPageResult{
		StartID:    window.StartID,
		EndID:      window.EndID,
		TotalCount: window.TotalCount,
		Plans:      make([]PlanResult, 0, len(plans)),
	}
	for _, plan := range plans {
		result.Plans = append(result.Plans, planResult(plan))
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handlePlansByCreator(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.plansByAddress(w, req, s.node.PlansByCreator)
}

func (s *Server) handlePlansByParticipant(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.plansByAddress(w, req, s.node.PlansByParticipant)
}

func (s *Server) plansByAddress(w http.ResponseWriter, req *RPCRequest, lookup func([20]byte) ([]uint64, error)) {
	var params addressParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	ids, err := lookup(addr)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, map[string][]uint64{"planIds": ids})
}

func (s *Server) handleParticipants(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.planAccounts(w, req, s.node.Participants, "participants")
}

func (s *Server) handleJoinRequests(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.planAccounts(w, req, s.node.JoinRequests, "requests")
}

func (s *Server) planAccounts(w http.ResponseWriter, req *RPCRequest, lookup func(uint64) ([][20]byte, error), key string) {
	var params planIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	if _, err := s.node.Plan(params.PlanID); err != nil {
		writeLedgerError(w, req, err)
		return
	}
	accounts, err := lookup(params.PlanID)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string][]string{key: formatAccounts(accounts)})
}

func (s *Server) handleIsParticipant(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params planAddressParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	member, err := s.node.IsParticipant(params.PlanID, addr)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"isParticipant": member})
}

func (s *Server) handleCycleStatus(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params planAddressParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	status, err := s.node.ParticipantCycleStatus(params.PlanID, addr)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, cycleStatusResult(status))
}

func (s *Server) handleTrustScore(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params addressParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	score, err := s.node.TrustScore(addr)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"trustScore": score})
}

func (s *Server) handlePlatformConfig(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	cfg, err := s.node.PlatformConfig()
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	paused, err := s.node.ModulePaused()
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, PlatformConfigResult{
		Owner:        optionalAccount(cfg.Owner),
		FeeBps:       cfg.FeeBps,
		FeeCollector: optionalAccount(cfg.FeeCollector),
		ModulePaused: paused,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params balanceParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeParamError(w, req, rpcErr)
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeParamError(w, req, err)
		return
	}
	balance, err := s.node.Balance(addr, params.Asset)
	if err != nil {
		writeLedgerError(w, req, err)
		return
	}
	writeResult(w, req.ID, BalanceResult{
		Address: crypto.FormatAccount(addr),
		Asset:   savings.NormalizeAsset(params.Asset),
		Balance: amountString(balance),
	})
}
