package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimplePeriodFamilies(t *testing.T) {
	spec, err := Parse("SMA_50")
	require.NoError(t, err)
	assert.Equal(t, FamilySMA, spec.Family)
	assert.Equal(t, 50, spec.Params.Period)
	assert.Equal(t, "SMA_50", spec.ID)
	assert.Equal(t, 49, spec.Warmup())
}

func TestParse_MACD(t *testing.T) {
	spec, err := Parse("MACD_12_26_9")
	require.NoError(t, err)
	assert.Equal(t, Params{Fast: 12, Slow: 26, Signal: 9}, spec.Params)
	assert.Equal(t, 26+9-2, spec.Warmup())

	// Defaults apply when parameters are omitted.
	spec, err = Parse("MACD")
	require.NoError(t, err)
	assert.Equal(t, "MACD_12_26_9", spec.ID)

	_, err = Parse("MACD_26_12_9")
	assert.Error(t, err, "fast >= slow must be rejected")
}

func TestParse_Bollinger(t *testing.T) {
	spec, err := Parse("BB_20_2")
	require.NoError(t, err)
	assert.Equal(t, 20, spec.Params.Period)
	assert.Equal(t, 2.0, spec.Params.Mult)
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, id := range []string{"", "XXX_5", "SMA_abc", "SMA_0", "SMA_1", "RSI_14_3", "AO_5"} {
		_, err := Parse(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestParse_CanonicalizesCase(t *testing.T) {
	spec, err := Parse(" rsi_14 ")
	require.NoError(t, err)
	assert.Equal(t, "RSI_14", spec.ID)
}

func TestWarmup_CascadedSmoothingGrows(t *testing.T) {
	sma, _ := Parse("SMA_20")
	dema, _ := Parse("DEMA_20")
	tema, _ := Parse("TEMA_20")
	assert.Equal(t, 19, sma.Warmup())
	assert.Equal(t, 38, dema.Warmup())
	assert.Equal(t, 57, tema.Warmup())
}

func TestPlacement(t *testing.T) {
	for id, want := range map[string]Placement{
		"SMA_50":   PlaceOverlay,
		"EMA_20":   PlaceOverlay,
		"BB_20_2":  PlaceOverlay,
		"RSI_14":   PlaceRSIPane,
		"MACD":     PlaceMACDPane,
		"STOCH_14": PlaceMomentumBand,
		"CCI_20":   PlaceMomentumBand,
		"ATR_14":   PlaceMomentumBand,
		"AO":       PlaceMomentumBand,
	} {
		spec, err := Parse(id)
		require.NoError(t, err, id)
		assert.Equal(t, want, spec.Family.Placement(), id)
	}
}

func TestOscillatorNeverOnMainScale(t *testing.T) {
	for _, id := range []string{"RSI_14", "MACD", "STOCH_14", "WILLR_14", "CCI_20", "MFI_14", "ROC_12", "MOM_12", "TRIX_15", "AO", "UO", "ADX_14", "ATR_14", "CMF_20", "VROC_12"} {
		spec, err := Parse(id)
		require.NoError(t, err, id)
		assert.True(t, spec.Family.Oscillator(), id)
	}
}
