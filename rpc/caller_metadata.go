package rpc

import (
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

const expirySkew = 5 * time.Second

// callerMetadataParams lets clients bind a mutating call to a nonce so a
// captured request cannot be replayed within its expiry window.
type callerMetadataParams struct {
	Nonce     *uint64 `json:"nonce,omitempty"`
	ExpiresAt *int64  `json:"expiresAt,omitempty"`
	TTL       *int64  `json:"ttl,omitempty"`
}

type callerNonceState struct {
	nonce   uint64
	expires time.Time
}

func callerKeyFromAddress(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

func (s *Server) validateCallerMetadata(caller [20]byte, params callerMetadataParams) error {
	now := s.nowFn()
	expiry, err := parseMetadataExpiry(now, params.ExpiresAt, params.TTL, s.callerMetadataMaxTTL)
	if err != nil {
		return err
	}
	if params.Nonce == nil {
		return nil
	}
	if *params.Nonce == 0 {
		return fmt.Errorf("nonce must be greater than zero")
	}
	if expiry.IsZero() {
		return fmt.Errorf("expiresAt or ttl required when nonce is provided")
	}
	return s.trackCallerNonce(callerKeyFromAddress(caller), *params.Nonce, expiry, now)
}

func parseMetadataExpiry(now time.Time, expiresAt, ttl *int64, maxTTL time.Duration) (time.Time, error) {
	if expiresAt != nil && ttl != nil {
		return time.Time{}, fmt.Errorf("provide at most one of expiresAt or ttl")
	}
	var expiry time.Time
	if expiresAt != nil {
		if *expiresAt <= 0 {
			return time.Time{}, fmt.Errorf("expiresAt must be positive")
		}
		expiry = time.Unix(*expiresAt, 0)
	} else if ttl != nil {
		if *ttl <= 0 {
			return time.Time{}, fmt.Errorf("ttl must be positive seconds")
		}
		if *ttl > int64(math.MaxInt64/int64(time.Second)) {
			return time.Time{}, fmt.Errorf("ttl exceeds supported range")
		}
		duration := time.Duration(*ttl) * time.Second
		if maxTTL > 0 && duration > maxTTL {
			return time.Time{}, fmt.Errorf("ttl exceeds maximum of %d seconds", int64(maxTTL/time.Second))
		}
		expiry = now.Add(duration)
	}
	if !expiry.IsZero() {
		if maxTTL > 0 && expiry.After(now.Add(maxTTL)) {
			return time.Time{}, fmt.Errorf("expiry exceeds maximum ttl of %s", maxTTL)
		}
		if expiry.Before(now.Add(-expirySkew)) {
			return time.Time{}, fmt.Errorf("expiry must be in the future")
		}
	}
	return expiry, nil
}

func (s *Server) trackCallerNonce(actorKey string, nonce uint64, expiry, now time.Time) error {
	s.callerNonceMu.Lock()
	defer s.callerNonceMu.Unlock()
	for key, state := range s.callerNonces {
		if now.After(state.expires) {
			delete(s.callerNonces, key)
		}
	}
	if state, ok := s.callerNonces[actorKey]; ok && nonce <= state.nonce {
		return fmt.Errorf("nonce must be greater than %d", state.nonce)
	}
	s.callerNonces[actorKey] = callerNonceState{nonce: nonce, expires: expiry}
	return nil
}
