package savings

import (
	"errors"

	"ajochain/native/common"
)

var (
	ErrOwnerOnly                    = errors.New("savings: caller is not the platform owner")
	ErrNotAuthorized                = errors.New("savings: caller not authorized")
	ErrPlanNotFound                 = errors.New("savings: plan not found")
	ErrAlreadyParticipant           = errors.New("savings: already a participant or pending")
	ErrPlanFull                     = errors.New("savings: plan is full")
	ErrInsufficientTrustScore       = errors.New("savings: insufficient trust score")
	ErrRequestNotFound              = errors.New("savings: join request not found")
	ErrAlreadyContributed           = errors.New("savings: already contributed this cycle")
	ErrNotParticipant               = errors.New("savings: not a participant")
	ErrPlanInactive                 = errors.New("savings: plan is inactive")
	ErrInvalidPlanParameters        = errors.New("savings: invalid plan parameters")
	ErrContributionExceedsRemaining = errors.New("savings: contribution exceeds amount owed")
	ErrContributionBelowMinimum     = errors.New("savings: contribution below minimum")
	ErrPartialPaymentNotAllowed     = errors.New("savings: partial payment not allowed")
	ErrCycleIncomplete              = errors.New("savings: cycle has outstanding contributions")
	ErrModulePaused                 = common.ErrModulePaused

	errNilState = errors.New("savings engine: state not configured")
	errNilBank  = errors.New("savings engine: bank not configured")
)

// ErrorCode is the stable numeric identifier exposed to clients.
type ErrorCode uint32

const (
	CodeOwnerOnly                    ErrorCode = 100
	CodeNotAuthorized                ErrorCode = 101
	CodePlanNotFound                 ErrorCode = 102
	CodeAlreadyParticipant           ErrorCode = 103
	CodePlanFull                     ErrorCode = 104
	CodeInsufficientTrustScore       ErrorCode = 105
	CodeRequestNotFound              ErrorCode = 106
	CodeAlreadyContributed           ErrorCode = 107
	CodeNotParticipant               ErrorCode = 108
	CodePlanInactive                 ErrorCode = 109
	CodeInvalidPlanParameters        ErrorCode = 110
	CodeContributionExceedsRemaining ErrorCode = 111
	CodeContributionBelowMinimum     ErrorCode = 112
	CodePartialPaymentNotAllowed     ErrorCode = 113
	CodeCycleIncomplete              ErrorCode = 114
	CodeModulePaused                 ErrorCode = 115
)

var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrOwnerOnly, CodeOwnerOnly},
	{ErrNotAuthorized, CodeNotAuthorized},
	{ErrPlanNotFound, CodePlanNotFound},
	{ErrAlreadyParticipant, CodeAlreadyParticipant},
	{ErrPlanFull, CodePlanFull},
	{ErrInsufficientTrustScore, CodeInsufficientTrustScore},
	{ErrRequestNotFound, CodeRequestNotFound},
	{ErrAlreadyContributed, CodeAlreadyContributed},
	{ErrNotParticipant, CodeNotParticipant},
	{ErrPlanInactive, CodePlanInactive},
	{ErrInvalidPlanParameters, CodeInvalidPlanParameters},
	{ErrContributionExceedsRemaining, CodeContributionExceedsRemaining},
	{ErrContributionBelowMinimum, CodeContributionBelowMinimum},
	{ErrPartialPaymentNotAllowed, CodePartialPaymentNotAllowed},
	{ErrCycleIncomplete, CodeCycleIncomplete},
	{ErrModulePaused, CodeModulePaused},
}

// Code returns the numeric code of a ledger error. The boolean is false for
// errors outside the closed set, such as storage or transfer failures.
func Code(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code, true
		}
	}
	return 0, false
}
