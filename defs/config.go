package defs

import (
	"go.uber.org/zap"
)

// Fetch limits, one day's worth at the native 5-minute cadence.
const (
	MinuteLimit = 1440
	CountLimit  = 288
)

// FreshnessWindowMinutes bounds how old a "current" reading may be.
const FreshnessWindowMinutes = 10

type Config struct {
	Dexcom   DexcomConfig  `yaml:"dexcom"`
	Glucose  GlucoseConfig `yaml:"glucose"`
	Address  string        `yaml:"address"`
	Timezone string        `yaml:"timezone"`
	Logger   *zap.Logger   `yaml:"_,omitempty"`
}

type DexcomConfig struct {
	Account  string `yaml:"account"`
	Password string `yaml:"password"`
	Region   string `yaml:"region"`
}

type GlucoseConfig struct {
	Low        int `yaml:"low"`
	High       int `yaml:"high"`
	UrgentLow  int `yaml:"urgentLow"`
	UrgentHigh int `yaml:"urgentHigh"`
}

// Thresholds fills unset fields with the clinical defaults.
func (gc GlucoseConfig) Thresholds() Thresholds {
	t := DefaultThresholds()
	if gc.Low > 0 {
		t.Low = gc.Low
	}
	if gc.High > 0 {
		t.High = gc.High
	}
	if gc.UrgentLow > 0 {
		t.UrgentLow = gc.UrgentLow
	}
	if gc.UrgentHigh > 0 {
		t.UrgentHigh = gc.UrgentHigh
	}
	return t
}
