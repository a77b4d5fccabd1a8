package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"ajochain/native/savings"
)

type storedPlan struct {
	ID                 uint64
	Name               string
	Description        string
	Creator            [20]byte
	TotalParticipants  uint64
	ContributionAmount *big.Int
	Frequency          uint8
	DurationMonths     uint64
	TrustScoreRequired uint64
	AllowPartial       bool
	Asset              string
	CurrentCycle       uint64
	IsActive           bool
	PayoutIndex        uint64
	Balance            *big.Int
	CreatedAt          uint64
	Completed          bool
}

func newStoredPlan(p *savings.Plan) *storedPlan {
	createdAt := uint64(0)
	if p.CreatedAt > 0 {
		createdAt = uint64(p.CreatedAt)
	}
	return &storedPlan{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Creator:            p.Creator,
		TotalParticipants:  uint64(p.TotalParticipants),
		ContributionAmount: nonNil(p.ContributionAmount),
		Frequency:          uint8(p.Frequency),
		DurationMonths:     uint64(p.DurationMonths),
		TrustScoreRequired: p.TrustScoreRequired,
		AllowPartial:       p.AllowPartial,
		Asset:              p.Asset,
		CurrentCycle:       p.CurrentCycle,
		IsActive:           p.IsActive,
		PayoutIndex:        p.PayoutIndex,
		Balance:            nonNil(p.Balance),
		CreatedAt:          createdAt,
		Completed:          p.Completed,
	}
}

func (s *storedPlan) toPlan() *savings.Plan {
	return &savings.Plan{
		ID:                 s.ID,
		Name:               s.Name,
		Description:        s.Description,
		Creator:            s.Creator,
		TotalParticipants:  uint32(s.TotalParticipants),
		ContributionAmount: nonNil(s.ContributionAmount),
		Frequency:          savings.Frequency(s.Frequency),
		DurationMonths:     uint32(s.DurationMonths),
		TrustScoreRequired: s.TrustScoreRequired,
		AllowPartial:       s.AllowPartial,
		Asset:              s.Asset,
		CurrentCycle:       s.CurrentCycle,
		IsActive:           s.IsActive,
		PayoutIndex:        s.PayoutIndex,
		Balance:            nonNil(s.Balance),
		CreatedAt:          int64(s.CreatedAt),
		Completed:          s.Completed,
	}
}

type storedJoinRequest struct {
	PlanID      uint64
	Requester   [20]byte
	Approvals   [][20]byte
	Denials     [][20]byte
	RequestedAt uint64
}

type storedEntry struct {
	PlanID      uint64
	Participant [20]byte
	Cycle       uint64
	Contributed *big.Int
	Debt        *big.Int
}

type storedPlatformConfig struct {
	Owner        [20]byte
	FeeBps       uint64
	FeeCollector [20]byte
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func encodeID(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, '/')
		}
		buf = append(buf, part...)
	}
	return buf
}

func savingsPlanKey(id uint64) []byte { return prefixedKey(savingsPlanPrefix, encodeID(id)) }

func savingsParticipantsKey(id uint64) []byte {
	return prefixedKey(savingsParticipantsPrefix, encodeID(id))
}

func savingsRequestKey(id uint64, addr [20]byte) []byte {
	return prefixedKey(savingsRequestPrefix, encodeID(id), addr[:])
}

func savingsRequestIndexKey(id uint64) []byte {
	return prefixedKey(savingsRequestIndexPrefix, encodeID(id))
}

func savingsEntryKey(id uint64, addr [20]byte) []byte {
	return prefixedKey(savingsEntryPrefix, encodeID(id), addr[:])
}

func savingsTrustKey(addr [20]byte) []byte { return prefixedKey(savingsTrustPrefix, addr[:]) }

func savingsCreatorKey(addr [20]byte) []byte { return prefixedKey(savingsCreatorPrefix, addr[:]) }

func savingsMemberKey(addr [20]byte) []byte { return prefixedKey(savingsMemberPrefix, addr[:]) }

// SavingsPlanGet loads a plan by identifier.
func (m *Manager) SavingsPlanGet(id uint64) (*savings.Plan, bool, error) {
	var stored storedPlan
	ok, err := m.KVGet(savingsPlanKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toPlan(), true, nil
}

// SavingsPlanPut persists the plan record.
func (m *Manager) SavingsPlanPut(plan *savings.Plan) error {
	if plan == nil {
		return fmt.Errorf("savings: nil plan")
	}
	if plan.ID == 0 {
		return fmt.Errorf("savings: plan id required")
	}
	return m.KVPut(savingsPlanKey(plan.ID), newStoredPlan(plan))
}

// SavingsPlanCount returns the highest assigned plan identifier.
func (m *Manager) SavingsPlanCount() (uint64, error) {
	var count uint64
	if _, err := m.KVGet(savingsPlanCountKey, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// SavingsSetPlanCount records the highest assigned plan identifier.
func (m *Manager) SavingsSetPlanCount(count uint64) error {
	return m.KVPut(savingsPlanCountKey, count)
}

func (m *Manager) addressList(key []byte) ([][20]byte, error) {
	var raw [][]byte
	if err := m.KVGetList(key, &raw); err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 20 {
			return nil, fmt.Errorf("state: malformed address entry (%d bytes)", len(entry))
		}
		var addr [20]byte
		copy(addr[:], entry)
		out = append(out, addr)
	}
	return out, nil
}

func (m *Manager) idList(key []byte) ([]uint64, error) {
	var raw [][]byte
	if err := m.KVGetList(key, &raw); err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 8 {
			return nil, fmt.Errorf("state: malformed id entry (%d bytes)", len(entry))
		}
		out = append(out, binary.BigEndian.Uint64(entry))
	}
	return out, nil
}

// SavingsParticipants returns the plan's participants in enrolment order.
func (m *Manager) SavingsParticipants(planID uint64) ([][20]byte, error) {
	return m.addressList(savingsParticipantsKey(planID))
}

// SavingsAddParticipant enrols addr and indexes the plan under it.
func (m *Manager) SavingsAddParticipant(planID uint64, addr [20]byte) error {
	if err := m.KVAppend(savingsParticipantsKey(planID), addr[:]); err != nil {
		return err
	}
	return m.KVAppend(savingsMemberKey(addr), encodeID(planID))
}

// SavingsJoinRequestGet loads a pending join request.
func (m *Manager) SavingsJoinRequestGet(planID uint64, requester [20]byte) (*savings.JoinRequest, bool, error) {
	var stored storedJoinRequest
	ok, err := m.KVGet(savingsRequestKey(planID, requester), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &savings.JoinRequest{
		PlanID:      stored.PlanID,
		Requester:   stored.Requester,
		Approvals:   append([][20]byte(nil), stored.Approvals...),
		Denials:     append([][20]byte(nil), stored.Denials...),
		RequestedAt: int64(stored.RequestedAt),
	}, true, nil
}

// SavingsJoinRequestPut stores a pending join request and indexes it.
func (m *Manager) SavingsJoinRequestPut(req *savings.JoinRequest) error {
	if req == nil {
		return fmt.Errorf("savings: nil join request")
	}
	requestedAt := uint64(0)
	if req.RequestedAt > 0 {
		requestedAt = uint64(req.RequestedAt)
	}
	stored := &storedJoinRequest{
		PlanID:      req.PlanID,
		Requester:   req.Requester,
		Approvals:   append([][20]byte{}, req.Approvals...),
		Denials:     append([][20]byte{}, req.Denials...),
		RequestedAt: requestedAt,
	}
	if err := m.KVPut(savingsRequestKey(req.PlanID, req.Requester), stored); err != nil {
		return err
	}
	return m.KVAppend(savingsRequestIndexKey(req.PlanID), req.Requester[:])
}

// SavingsJoinRequestDelete removes a pending join request.
func (m *Manager) SavingsJoinRequestDelete(planID uint64, requester [20]byte) error {
	if err := m.KVDelete(savingsRequestKey(planID, requester)); err != nil {
		return err
	}
	return m.KVRemove(savingsRequestIndexKey(planID), requester[:])
}

// SavingsJoinRequests lists the requesters with a pending request in
// submission order.
func (m *Manager) SavingsJoinRequests(planID uint64) ([][20]byte, error) {
	return m.addressList(savingsRequestIndexKey(planID))
}

// SavingsEntryGet loads a participant's contribution record.
func (m *Manager) SavingsEntryGet(planID uint64, addr [20]byte) (*savings.ParticipantEntry, bool, error) {
	var stored storedEntry
	ok, err := m.KVGet(savingsEntryKey(planID, addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &savings.ParticipantEntry{
		PlanID:      stored.PlanID,
		Participant: stored.Participant,
		Cycle:       stored.Cycle,
		Contributed: nonNil(stored.Contributed),
		Debt:        nonNil(stored.Debt),
	}, true, nil
}

// SavingsEntryPut persists a participant's contribution record.
func (m *Manager) SavingsEntryPut(entry *savings.ParticipantEntry) error {
	if entry == nil {
		return fmt.Errorf("savings: nil entry")
	}
	if entry.Contributed != nil && entry.Contributed.Sign() < 0 {
		return fmt.Errorf("savings: negative contribution")
	}
	if entry.Debt != nil && entry.Debt.Sign() < 0 {
		return fmt.Errorf("savings: negative debt")
	}
	return m.KVPut(savingsEntryKey(entry.PlanID, entry.Participant), &storedEntry{
		PlanID:      entry.PlanID,
		Participant: entry.Participant,
		Cycle:       entry.Cycle,
		Contributed: nonNil(entry.Contributed),
		Debt:        nonNil(entry.Debt),
	})
}

// SavingsTrustGet returns the stored trust score of addr.
func (m *Manager) SavingsTrustGet(addr [20]byte) (uint64, bool, error) {
	var score uint64
	ok, err := m.KVGet(savingsTrustKey(addr), &score)
	if err != nil {
		return 0, false, err
	}
	return score, ok, nil
}

// SavingsTrustPut records the trust score of addr.
func (m *Manager) SavingsTrustPut(addr [20]byte, score uint64) error {
	if score > savings.MaxTrustScore {
		return fmt.Errorf("savings: trust score %d out of range", score)
	}
	return m.KVPut(savingsTrustKey(addr), score)
}

// SavingsConfig loads the persisted platform configuration.
func (m *Manager) SavingsConfig() (*savings.PlatformConfig, bool, error) {
	var stored storedPlatformConfig
	ok, err := m.KVGet(savingsConfigKey, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &savings.PlatformConfig{
		Owner:        stored.Owner,
		FeeBps:       uint32(stored.FeeBps),
		FeeCollector: stored.FeeCollector,
	}, true, nil
}

// SavingsConfigPut persists the platform configuration.
func (m *Manager) SavingsConfigPut(cfg *savings.PlatformConfig) error {
	if cfg == nil {
		return fmt.Errorf("savings: nil config")
	}
	if cfg.FeeBps > savings.MaxPlatformFeeBps {
		return fmt.Errorf("savings: fee bps %d out of range", cfg.FeeBps)
	}
	return m.KVPut(savingsConfigKey, &storedPlatformConfig{
		Owner:        cfg.Owner,
		FeeBps:       uint64(cfg.FeeBps),
		FeeCollector: cfg.FeeCollector,
	})
}

// SavingsIndexCreator records planID under its creator.
func (m *Manager) SavingsIndexCreator(addr [20]byte, planID uint64) error {
	return m.KVAppend(savingsCreatorKey(addr), encodeID(planID))
}

// SavingsPlansByCreator lists the plans created by addr.
func (m *Manager) SavingsPlansByCreator(addr [20]byte) ([]uint64, error) {
	return m.idList(savingsCreatorKey(addr))
}

// SavingsPlansByParticipant lists the plans addr is enrolled in.
func (m *Manager) SavingsPlansByParticipant(addr [20]byte) ([]uint64, error) {
	return m.idList(savingsMemberKey(addr))
}
