package savings

import (
	"fmt"
	"math/big"
	"unicode/utf8"
)

const (
	MinParticipants    = 2
	MaxParticipants    = 100
	MinDurationMonths  = 1
	MaxDurationMonths  = 60
	MinNameLength      = 3
	MaxNameLength      = 50
	MaxDescriptionSize = 500

	// MinTrustScore and MaxTrustScore bound every stored trust score.
	MinTrustScore uint64 = 0
	MaxTrustScore uint64 = 100
	// DefaultTrustScore is reported for principals that were never scored.
	DefaultTrustScore uint64 = 50
	// TrustScoreStep is added on each completed cycle contribution.
	TrustScoreStep uint64 = 1

	// MaxPlatformFeeBps caps the platform fee at 10%.
	MaxPlatformFeeBps uint32 = 1_000
	bpsDenominator    uint64 = 10_000
)

// MinContribution is the protocol floor applied to every contribution and to
// the per-cycle amount of a plan.
var MinContribution = big.NewInt(100)

// ValidateCreateParams checks the plan definition against the protocol bounds
// and returns a normalised copy. assets lists the symbols the node accepts; an
// empty set accepts any non-empty symbol.
func ValidateCreateParams(params CreatePlanParams, assets map[string]struct{}) (CreatePlanParams, error) {
	out := params
	nameLen := utf8.RuneCountInString(params.Name)
	if nameLen < MinNameLength || nameLen > MaxNameLength {
		return out, fmt.Errorf("%w: name must be %d-%d characters", ErrInvalidPlanParameters, MinNameLength, MaxNameLength)
	}
	if utf8.RuneCountInString(params.Description) > MaxDescriptionSize {
		return out, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidPlanParameters, MaxDescriptionSize)
	}
	if params.TotalParticipants < MinParticipants || params.TotalParticipants > MaxParticipants {
		return out, fmt.Errorf("%w: total participants must be between %d and %d", ErrInvalidPlanParameters, MinParticipants, MaxParticipants)
	}
	if params.ContributionAmount == nil || params.ContributionAmount.Cmp(MinContribution) < 0 {
		return out, fmt.Errorf("%w: contribution amount must be at least %s", ErrInvalidPlanParameters, MinContribution)
	}
	if params.DurationMonths < MinDurationMonths || params.DurationMonths > MaxDurationMonths {
		return out, fmt.Errorf("%w: duration must be between %d and %d months", ErrInvalidPlanParameters, MinDurationMonths, MaxDurationMonths)
	}
	if params.TrustScoreRequired > MaxTrustScore {
		return out, fmt.Errorf("%w: trust score requirement must not exceed %d", ErrInvalidPlanParameters, MaxTrustScore)
	}
	if !params.Frequency.Valid() {
		return out, fmt.Errorf("%w: unsupported frequency", ErrInvalidPlanParameters)
	}
	asset := NormalizeAsset(params.Asset)
	if asset == "" {
		return out, fmt.Errorf("%w: asset required", ErrInvalidPlanParameters)
	}
	if len(assets) > 0 {
		if _, ok := assets[asset]; !ok {
			return out, fmt.Errorf("%w: unsupported asset %s", ErrInvalidPlanParameters, asset)
		}
	}
	out.Asset = asset
	out.ContributionAmount = new(big.Int).Set(params.ContributionAmount)
	return out, nil
}
