package models

// Quote is one synthetic price snapshot for a symbol. Every field is
// an independent draw from the simulation range, rounded to two
// decimal places; consecutive ticks carry no continuity between them.
type Quote struct {
	Symbol string  `json:"symbol"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}
