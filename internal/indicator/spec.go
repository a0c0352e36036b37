// Package indicator holds the indicator taxonomy, the selection set, and
// the pure math functions that turn bar columns into value arrays.
package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// Family is the tagged variant replacing free-form string IDs. A spec is
// parsed and validated once, at selection time; render code never pattern
// matches on strings.
type Family int

const (
	FamilySMA Family = iota
	FamilyEMA
	FamilyWMA
	FamilyDEMA
	FamilyTEMA
	FamilyBB
	FamilyRSI
	FamilyMACD
	FamilyStochastic
	FamilyWilliamsR
	FamilyCCI
	FamilyMFI
	FamilyROC
	FamilyMomentum
	FamilyTRIX
	FamilyATR
	FamilyADX
	FamilyCMF
	FamilyAwesomeOsc
	FamilyUltimateOsc
	FamilyVolumeROC
)

var familyNames = map[Family]string{
	FamilySMA:         "SMA",
	FamilyEMA:         "EMA",
	FamilyWMA:         "WMA",
	FamilyDEMA:        "DEMA",
	FamilyTEMA:        "TEMA",
	FamilyBB:          "BB",
	FamilyRSI:         "RSI",
	FamilyMACD:        "MACD",
	FamilyStochastic:  "STOCH",
	FamilyWilliamsR:   "WILLR",
	FamilyCCI:         "CCI",
	FamilyMFI:         "MFI",
	FamilyROC:         "ROC",
	FamilyMomentum:    "MOM",
	FamilyTRIX:        "TRIX",
	FamilyATR:         "ATR",
	FamilyADX:         "ADX",
	FamilyCMF:         "CMF",
	FamilyAwesomeOsc:  "AO",
	FamilyUltimateOsc: "UO",
	FamilyVolumeROC:   "VROC",
}

func (f Family) String() string { return familyNames[f] }

// Placement says where a family's series live.
type Placement int

const (
	// PlaceOverlay draws on the main price pane, sharing its price scale.
	PlaceOverlay Placement = iota
	// PlaceRSIPane and PlaceMACDPane get dedicated synchronized panes.
	PlaceRSIPane
	PlaceMACDPane
	// PlaceMomentumBand overlays an isolated price-scale band pinned to
	// the bottom margin of the momentum pane.
	PlaceMomentumBand
)

// Placement returns where the family renders. Oscillator families are
// never drawn on the main price scale.
func (f Family) Placement() Placement {
	switch f {
	case FamilyRSI:
		return PlaceRSIPane
	case FamilyMACD:
		return PlaceMACDPane
	case FamilySMA, FamilyEMA, FamilyWMA, FamilyDEMA, FamilyTEMA, FamilyBB:
		return PlaceOverlay
	default:
		return PlaceMomentumBand
	}
}

// Oscillator reports whether the family is bounded-range and needs its own
// price-scale partition.
func (f Family) Oscillator() bool { return f.Placement() != PlaceOverlay }

// Params are the numeric parameters of a spec. Unused fields are zero.
type Params struct {
	Period int     `json:"period,omitempty"`
	Fast   int     `json:"fast,omitempty"`
	Slow   int     `json:"slow,omitempty"`
	Signal int     `json:"signal,omitempty"`
	Mult   float64 `json:"mult,omitempty"`
}

// Spec is one validated indicator selection.
type Spec struct {
	ID     string `json:"id"`
	Family Family `json:"family"`
	Params Params `json:"params"`
}

// Parse validates an indicator tag like "SMA_50", "MACD_12_26_9", or
// "BB_20_2" into a Spec. This is the only place tags are interpreted.
func Parse(id string) (Spec, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(id)), "_")
	if len(parts) == 0 || parts[0] == "" {
		return Spec{}, fmt.Errorf("indicator: empty tag")
	}

	var family Family
	found := false
	for f, name := range familyNames {
		if name == parts[0] {
			family, found = f, true
			break
		}
	}
	if !found {
		return Spec{}, fmt.Errorf("indicator: unknown family %q", parts[0])
	}

	nums := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return Spec{}, fmt.Errorf("indicator: bad parameter %q in %q", p, id)
		}
		nums = append(nums, n)
	}

	spec := Spec{Family: family}
	switch family {
	case FamilyMACD:
		spec.Params = Params{Fast: 12, Slow: 26, Signal: 9}
		switch len(nums) {
		case 0:
		case 3:
			spec.Params = Params{Fast: nums[0], Slow: nums[1], Signal: nums[2]}
		default:
			return Spec{}, fmt.Errorf("indicator: MACD wants fast_slow_signal, got %q", id)
		}
		if spec.Params.Fast >= spec.Params.Slow {
			return Spec{}, fmt.Errorf("indicator: MACD fast %d must be below slow %d", spec.Params.Fast, spec.Params.Slow)
		}
	case FamilyBB:
		spec.Params = Params{Period: 20, Mult: 2}
		switch len(nums) {
		case 0:
		case 2:
			spec.Params = Params{Period: nums[0], Mult: float64(nums[1])}
		default:
			return Spec{}, fmt.Errorf("indicator: BB wants period_mult, got %q", id)
		}
	case FamilyAwesomeOsc, FamilyUltimateOsc:
		if len(nums) != 0 {
			return Spec{}, fmt.Errorf("indicator: %s takes no parameters", family)
		}
	default:
		spec.Params = Params{Period: defaultPeriod(family)}
		switch len(nums) {
		case 0:
		case 1:
			spec.Params = Params{Period: nums[0]}
		default:
			return Spec{}, fmt.Errorf("indicator: %s wants a single period, got %q", family, id)
		}
		if spec.Params.Period < 2 {
			return Spec{}, fmt.Errorf("indicator: %s period must be >= 2", family)
		}
	}
	spec.ID = spec.canonicalID()
	return spec, nil
}

func defaultPeriod(f Family) int {
	switch f {
	case FamilyRSI, FamilyStochastic, FamilyWilliamsR, FamilyMFI, FamilyATR, FamilyADX:
		return 14
	case FamilyCCI:
		return 20
	case FamilyCMF, FamilySMA, FamilyEMA, FamilyWMA, FamilyDEMA, FamilyTEMA:
		return 20
	case FamilyROC, FamilyMomentum, FamilyVolumeROC:
		return 12
	case FamilyTRIX:
		return 15
	default:
		return 14
	}
}

func (s Spec) canonicalID() string {
	switch s.Family {
	case FamilyMACD:
		return fmt.Sprintf("MACD_%d_%d_%d", s.Params.Fast, s.Params.Slow, s.Params.Signal)
	case FamilyBB:
		return fmt.Sprintf("BB_%d_%d", s.Params.Period, int(s.Params.Mult))
	case FamilyAwesomeOsc, FamilyUltimateOsc:
		return s.Family.String()
	default:
		return fmt.Sprintf("%s_%d", s.Family, s.Params.Period)
	}
}

// Warmup is the number of leading bars before the spec's slowest output
// produces its first value. Cascaded-smoothing families (DEMA, TEMA, TRIX)
// need proportionally larger warmups.
func (s Spec) Warmup() int {
	p := s.Params.Period
	switch s.Family {
	case FamilySMA, FamilyEMA, FamilyWMA, FamilyBB, FamilyCMF,
		FamilyWilliamsR, FamilyCCI:
		return p - 1
	case FamilyStochastic:
		// %K needs p-1; the smoothed %D adds two more bars.
		return p + 1
	case FamilyDEMA:
		return 2 * (p - 1)
	case FamilyTEMA:
		return 3 * (p - 1)
	case FamilyTRIX:
		return 3*(p-1) + 1
	case FamilyRSI, FamilyMFI, FamilyROC, FamilyMomentum, FamilyATR, FamilyVolumeROC:
		return p
	case FamilyADX:
		return 2*p - 1
	case FamilyMACD:
		return s.Params.Slow + s.Params.Signal - 2
	case FamilyAwesomeOsc:
		return 33
	case FamilyUltimateOsc:
		return 28
	default:
		return p
	}
}
