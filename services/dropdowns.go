package services

// UnitOptions are suggested units of measure for new catalog entries.
// Free text is still accepted.
var UnitOptions = []string{
	"㎡",
	"m",
	"평",
	"개",
	"EA",
	"set",
	"식",
	"box",
	"roll",
	"can",
	"day",
}

// MarginPresets are the margin percentages offered as quick picks on the
// estimate form.
var MarginPresets = []float64{0, 5, 10, 15, 20, 30}

// DefaultMarginPercent and DefaultQuantity prefill the estimate form.
const (
	DefaultMarginPercent = 10.0
	DefaultQuantity      = 1.0
)
