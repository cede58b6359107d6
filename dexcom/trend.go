package dexcom

// Trend directions as the Share API names them.
const (
	TrendDoubleUp      = "DoubleUp"
	TrendSingleUp      = "SingleUp"
	TrendFortyFiveUp   = "FortyFiveUp"
	TrendFlat          = "Flat"
	TrendFortyFiveDown = "FortyFiveDown"
	TrendSingleDown    = "SingleDown"
	TrendDoubleDown    = "DoubleDown"
)

var trendArrows = map[string]string{
	TrendDoubleUp:      "↑↑",
	TrendSingleUp:      "↑",
	TrendFortyFiveUp:   "↗",
	TrendFlat:          "→",
	TrendFortyFiveDown: "↘",
	TrendSingleDown:    "↓",
	TrendDoubleDown:    "↓↓",
}

var trendDescriptions = map[string]string{
	TrendDoubleUp:      "rising quickly",
	TrendSingleUp:      "rising",
	TrendFortyFiveUp:   "rising slightly",
	TrendFlat:          "steady",
	TrendFortyFiveDown: "falling slightly",
	TrendSingleDown:    "falling",
	TrendDoubleDown:    "falling quickly",
}

func TrendArrow(trend string) string {
	if arrow, ok := trendArrows[trend]; ok {
		return arrow
	}
	return ""
}

func TrendDescription(trend string) string {
	return trendDescriptions[trend]
}

// FallingFast reports whether the trend indicates a rapid drop.
func FallingFast(trend string) bool {
	return trend == TrendSingleDown || trend == TrendDoubleDown
}

// RisingFast reports whether the trend indicates a rapid climb.
func RisingFast(trend string) bool {
	return trend == TrendSingleUp || trend == TrendDoubleUp
}
