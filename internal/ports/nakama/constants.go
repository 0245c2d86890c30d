package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create an
	// open table.
	RpcQuickMatch = "quick_match"

	// RpcVoiceToken is the RPC id clients call for a table voice token.
	RpcVoiceToken = "voice_token"

	// MatchNameStockraid is the authoritative match handler name registered
	// with Nakama.
	MatchNameStockraid = "stockraid_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame             int64 = 1
	OpSubmitBid             int64 = 2
	OpConfirmCharacter      int64 = 3
	OpBuy                   int64 = 4
	OpSell                  int64 = 5
	OpUseAbility            int64 = 6
	OpUndo                  int64 = 7
	OpEndTurn               int64 = 8
	OpChooseInstrument      int64 = 9
	OpChooseCharacterTarget int64 = 10
	OpChooseManipulation    int64 = 11
	OpConfirmTarget         int64 = 12
	OpConfirmGamble         int64 = 13
	OpCancelAbility         int64 = 14

	// Server -> Client events
	OpEvtLobbyState           int64 = 100
	OpEvtGameStarted          int64 = 101
	OpEvtPhaseChanged         int64 = 102
	OpEvtFaceUpDiscards       int64 = 103
	OpEvtJackpotGrown         int64 = 104
	OpEvtBidTurn              int64 = 105
	OpEvtBidPlaced            int64 = 106
	OpEvtSelectionTurn        int64 = 107
	OpEvtCharacterOptions     int64 = 108
	OpEvtCharacterChosen      int64 = 109
	OpEvtTurnBegan            int64 = 110
	OpEvtTurnEnded            int64 = 111
	OpEvtBought               int64 = 112
	OpEvtSold                 int64 = 113
	OpEvtCloseSellQueued      int64 = 114
	OpEvtUndone               int64 = 115
	OpEvtPriceChanged         int64 = 116
	OpEvtBankruptcy           int64 = 117
	OpEvtCeiling              int64 = 118
	OpEvtPlayerState          int64 = 119
	OpEvtAbilityUsed          int64 = 120
	OpEvtAbilityBlocked       int64 = 121
	OpEvtAbilityCancelled     int64 = 122
	OpEvtAskCharacterTarget   int64 = 123
	OpEvtAskInstrument        int64 = 124
	OpEvtAskManipChoice       int64 = 125
	OpEvtAskConfirmTarget     int64 = 126
	OpEvtAskGamble            int64 = 127
	OpEvtManipPeek            int64 = 128
	OpEvtJackpotClaimed       int64 = 129
	OpEvtThiefPaid            int64 = 130
	OpEvtManipulationRevealed int64 = 131
	OpEvtCloseSellPaid        int64 = 132
	OpEvtTaxCollected         int64 = 133
	OpEvtRoundEnded           int64 = 134
	OpEvtGameEnded            int64 = 135
	OpEvtNotice               int64 = 136

	OpEvtError int64 = 140
)
