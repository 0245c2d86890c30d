package domain

// CharacterNumber identifies one of the nine numbered roles. Turn order in
// the main phase always follows ascending number, regardless of pick order.
type CharacterNumber int

const (
	CharacterNone CharacterNumber = 0

	CharacterBlocker       CharacterNumber = 1
	CharacterThief         CharacterNumber = 2
	CharacterTrader        CharacterNumber = 3
	CharacterManipulator   CharacterNumber = 4
	CharacterLotteryWinner CharacterNumber = 5
	CharacterBroker        CharacterNumber = 6
	CharacterGambler       CharacterNumber = 7
	CharacterTaxCollector  CharacterNumber = 8
	CharacterInheritor     CharacterNumber = 9

	CharacterCount = 9
)

var characterNames = map[CharacterNumber]string{
	CharacterBlocker:       "Blocker",
	CharacterThief:         "Thief",
	CharacterTrader:        "Trader",
	CharacterManipulator:   "Manipulator",
	CharacterLotteryWinner: "Lottery Winner",
	CharacterBroker:        "Broker",
	CharacterGambler:       "Gambler",
	CharacterTaxCollector:  "Tax Collector",
	CharacterInheritor:     "Inheritor",
}

func (n CharacterNumber) String() string {
	if s, ok := characterNames[n]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether n names a real character.
func (n CharacterNumber) Valid() bool {
	return n >= CharacterBlocker && n <= CharacterInheritor
}

// CharacterCatalogue returns all nine character numbers in ascending order.
func CharacterCatalogue() []CharacterNumber {
	out := make([]CharacterNumber, 0, CharacterCount)
	for n := CharacterBlocker; n <= CharacterInheritor; n++ {
		out = append(out, n)
	}
	return out
}
