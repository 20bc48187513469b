package types

import "time"

// SignalAction is the direction of a trade signal.
type SignalAction string

const (
	SignalActionBuy  SignalAction = "BUY"
	SignalActionSell SignalAction = "SELL"
)

// Signal is an ephemeral trade request produced by a strategy for a single
// bar. It is consumed immediately by the backtest engine and never persisted.
type Signal struct {
	// Time is the bar time the signal was generated at.
	Time time.Time `yaml:"time" json:"time"`
	// Action is the direction of the requested trade.
	Action SignalAction `yaml:"action" json:"action" validate:"required,oneof=BUY SELL"`
	// Size is either an absolute amount in units of the asset, or a fraction
	// in [0,1] when IsPercent is set.
	Size float64 `yaml:"size" json:"size" validate:"gt=0"`
	// Price is the target execution price.
	Price float64 `yaml:"price" json:"price" validate:"gt=0"`
	// IsPercent marks Size as a fraction of available capital (BUY) or of the
	// current position (SELL).
	IsPercent bool `yaml:"is_percent" json:"is_percent"`
	// AdjustSize allows the engine to shrink an oversized BUY to the maximum
	// affordable size instead of rejecting it.
	AdjustSize bool `yaml:"adjust_size" json:"adjust_size"`
	// Reason is a human-readable explanation for the trade.
	Reason string `yaml:"reason" json:"reason"`
}
