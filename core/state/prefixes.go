package state

var (
	balancePrefix = []byte("bank/balance/")
	mintNonceKey  = []byte("bank/mint-nonce")

	savingsPlanPrefix         = []byte("savings/plan/")
	savingsPlanCountKey       = []byte("savings/plan-count")
	savingsParticipantsPrefix = []byte("savings/participants/")
	savingsRequestPrefix      = []byte("savings/request/")
	savingsRequestIndexPrefix = []byte("savings/requests/")
	savingsEntryPrefix        = []byte("savings/entry/")
	savingsTrustPrefix        = []byte("savings/trust/")
	savingsCreatorPrefix      = []byte("savings/by-creator/")
	savingsMemberPrefix       = []byte("savings/by-participant/")
	savingsConfigKey          = []byte("savings/config")
	modulePausePrefix         = []byte("modules/paused")
)
