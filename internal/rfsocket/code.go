package rfsocket

// Code is one 433 MHz code word as understood by the RF gateway.
type Code struct {
	Value    uint32 `json:"value"`
	Length   uint8  `json:"length"`
	Protocol uint8  `json:"protocol"`
}

// DefaultRepeats is how often the gateway repeats a sequence unless told
// otherwise. Cheap receivers regularly miss a single burst.
const DefaultRepeats = 3

// CodeSequence is what a Transmitter sends for one command.
type CodeSequence struct {
	Codes   []Code `json:"codes"`
	Repeats int    `json:"repeats"`
}

// NewCodeSequence builds a sequence with DefaultRepeats.
func NewCodeSequence(codes ...Code) CodeSequence {
	return CodeSequence{Codes: append([]Code(nil), codes...), Repeats: DefaultRepeats}
}

// WithRepeats returns a copy of the sequence with the repeat count set.
func (s CodeSequence) WithRepeats(n int) CodeSequence {
	s.Codes = append([]Code(nil), s.Codes...)
	s.Repeats = n
	return s
}

// IsEmpty reports whether the sequence carries no codes.
func (s CodeSequence) IsEmpty() bool { return len(s.Codes) == 0 }

// Transmitter sends code sequences over a one-way channel. Transmit is fire
// and forget: delivery is never acknowledged and failures are the
// implementation's to log.
type Transmitter interface {
	Transmit(seq CodeSequence)
}

// TransmitterFunc adapts a function to the Transmitter interface.
type TransmitterFunc func(seq CodeSequence)

// Transmit calls f(seq).
func (f TransmitterFunc) Transmit(seq CodeSequence) { f(seq) }
