package domain

// Instrument is one of the tradable stock colors. The set in play depends on
// player count: Red/Blue/Green always, Yellow only at five players or more.
type Instrument int

const (
	InstrumentRed Instrument = iota
	InstrumentBlue
	InstrumentGreen
	InstrumentYellow

	// InstrumentCount sizes fixed instrument-keyed arrays.
	InstrumentCount
)

var instrumentNames = [InstrumentCount]string{"red", "blue", "green", "yellow"}

func (i Instrument) String() string {
	if i < 0 || i >= InstrumentCount {
		return "unknown"
	}
	return instrumentNames[i]
}

// Valid reports whether i is a real instrument value.
func (i Instrument) Valid() bool {
	return i >= 0 && i < InstrumentCount
}

// InstrumentsFor returns the instruments in play for the given player count.
func InstrumentsFor(playerCount int) []Instrument {
	if playerCount >= 5 {
		return []Instrument{InstrumentRed, InstrumentBlue, InstrumentGreen, InstrumentYellow}
	}
	return []Instrument{InstrumentRed, InstrumentBlue, InstrumentGreen}
}

// ManipulationCard is a hidden price effect queued during a turn and revealed
// at end of round.
type ManipulationCard int

const (
	ManipPlusOne ManipulationCard = iota
	ManipPlusTwo
	ManipPlusFour
	ManipMinusOne
	ManipMinusTwo
	ManipMinusThree
	ManipDividend
)

var manipNames = map[ManipulationCard]string{
	ManipPlusOne:    "+1",
	ManipPlusTwo:    "+2",
	ManipPlusFour:   "+4",
	ManipMinusOne:   "-1",
	ManipMinusTwo:   "-2",
	ManipMinusThree: "-3",
	ManipDividend:   "dividend",
}

func (c ManipulationCard) String() string {
	if s, ok := manipNames[c]; ok {
		return s
	}
	return "unknown"
}

// PriceDelta returns the signed price change the card applies on reveal.
// Dividend cards move no price.
func (c ManipulationCard) PriceDelta() int {
	switch c {
	case ManipPlusOne:
		return 1
	case ManipPlusTwo:
		return 2
	case ManipPlusFour:
		return 4
	case ManipMinusOne:
		return -1
	case ManipMinusTwo:
		return -2
	case ManipMinusThree:
		return -3
	default:
		return 0
	}
}

// IsDividend reports whether the card pays holders instead of moving price.
func (c ManipulationCard) IsDividend() bool {
	return c == ManipDividend
}

// ManipulationDeckComposition is the fixed ten-card deck: two +1, one +2,
// two -1, one -2, one -3, one +4, two dividend.
func ManipulationDeckComposition() []ManipulationCard {
	return []ManipulationCard{
		ManipPlusOne, ManipPlusOne,
		ManipPlusTwo,
		ManipMinusOne, ManipMinusOne,
		ManipMinusTwo,
		ManipMinusThree,
		ManipPlusFour,
		ManipDividend, ManipDividend,
	}
}
