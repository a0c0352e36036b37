package indicator

import (
	"fmt"
	"math"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

// Output is one computed value array. Values[i] belongs to bar index
// Warmup+i of the source series; len(Values) = barCount - Warmup.
type Output struct {
	Name   string
	Warmup int
	Values []float64
}

// Compute evaluates a spec against bars. All functions here are pure and
// deterministic: same bars in, same values out. Insufficient data (bar
// count at or below the warmup) yields no outputs and no error.
func Compute(spec Spec, bars []market.Bar) ([]Output, error) {
	if len(bars) <= spec.Warmup() {
		return nil, nil
	}
	closes := market.Closes(bars)
	highs := market.Highs(bars)
	lows := market.Lows(bars)
	volumes := market.Volumes(bars)
	p := spec.Params.Period

	switch spec.Family {
	case FamilySMA:
		return []Output{{spec.ID, p - 1, SMA(closes, p)}}, nil
	case FamilyEMA:
		return []Output{{spec.ID, p - 1, EMA(closes, p)}}, nil
	case FamilyWMA:
		return []Output{{spec.ID, p - 1, WMA(closes, p)}}, nil
	case FamilyDEMA:
		return []Output{{spec.ID, 2 * (p - 1), DEMA(closes, p)}}, nil
	case FamilyTEMA:
		return []Output{{spec.ID, 3 * (p - 1), TEMA(closes, p)}}, nil
	case FamilyBB:
		upper, middle, lower := Bollinger(closes, p, spec.Params.Mult)
		return []Output{
			{spec.ID + ":upper", p - 1, upper},
			{spec.ID + ":middle", p - 1, middle},
			{spec.ID + ":lower", p - 1, lower},
		}, nil
	case FamilyRSI:
		return []Output{{spec.ID, p, RSI(closes, p)}}, nil
	case FamilyMACD:
		macd, signal, hist := MACD(closes, spec.Params.Fast, spec.Params.Slow, spec.Params.Signal)
		slowWarm := spec.Params.Slow - 1
		fullWarm := spec.Params.Slow + spec.Params.Signal - 2
		return []Output{
			{spec.ID + ":macd", slowWarm, macd},
			{spec.ID + ":signal", fullWarm, signal},
			{spec.ID + ":histogram", fullWarm, hist},
		}, nil
	case FamilyStochastic:
		k := StochasticK(highs, lows, closes, p)
		d := SMA(k, 3)
		return []Output{
			{spec.ID + ":k", p - 1, k},
			{spec.ID + ":d", p + 1, d},
		}, nil
	case FamilyWilliamsR:
		return []Output{{spec.ID, p - 1, WilliamsR(highs, lows, closes, p)}}, nil
	case FamilyCCI:
		return []Output{{spec.ID, p - 1, CCI(highs, lows, closes, p)}}, nil
	case FamilyMFI:
		return []Output{{spec.ID, p, MFI(highs, lows, closes, volumes, p)}}, nil
	case FamilyROC:
		return []Output{{spec.ID, p, ROC(closes, p)}}, nil
	case FamilyMomentum:
		return []Output{{spec.ID, p, Momentum(closes, p)}}, nil
	case FamilyTRIX:
		return []Output{{spec.ID, 3*(p-1) + 1, TRIX(closes, p)}}, nil
	case FamilyATR:
		return []Output{{spec.ID, p, ATR(highs, lows, closes, p)}}, nil
	case FamilyADX:
		return []Output{{spec.ID, 2*p - 1, ADX(highs, lows, closes, p)}}, nil
	case FamilyCMF:
		return []Output{{spec.ID, p - 1, CMF(highs, lows, closes, volumes, p)}}, nil
	case FamilyAwesomeOsc:
		return []Output{{spec.ID, 33, AwesomeOsc(highs, lows)}}, nil
	case FamilyUltimateOsc:
		return []Output{{spec.ID, 28, UltimateOsc(highs, lows, closes)}}, nil
	case FamilyVolumeROC:
		return []Output{{spec.ID, p, ROC(volumes, p)}}, nil
	default:
		return nil, fmt.Errorf("indicator: no math for family %v", spec.Family)
	}
}

// SMA returns the simple moving average; output length len(v)-period+1.
func SMA(v []float64, period int) []float64 {
	if len(v) < period || period <= 0 {
		return nil
	}
	out := make([]float64, 0, len(v)-period+1)
	sum := 0.0
	for i, x := range v {
		sum += x
		if i >= period {
			sum -= v[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA returns the exponential moving average seeded with the SMA of the
// first period values; output length len(v)-period+1.
func EMA(v []float64, period int) []float64 {
	if len(v) < period || period <= 0 {
		return nil
	}
	k := 2.0 / float64(period+1)
	seed := 0.0
	for _, x := range v[:period] {
		seed += x
	}
	seed /= float64(period)
	out := make([]float64, 0, len(v)-period+1)
	out = append(out, seed)
	prev := seed
	for _, x := range v[period:] {
		prev = x*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// WMA returns the linearly weighted moving average.
func WMA(v []float64, period int) []float64 {
	if len(v) < period || period <= 0 {
		return nil
	}
	denom := float64(period*(period+1)) / 2
	out := make([]float64, 0, len(v)-period+1)
	for i := period - 1; i < len(v); i++ {
		sum := 0.0
		for j := 0; j < period; j++ {
			sum += v[i-j] * float64(period-j)
		}
		out = append(out, sum/denom)
	}
	return out
}

// DEMA is the double exponential moving average: 2*EMA - EMA(EMA).
func DEMA(v []float64, period int) []float64 {
	e1 := EMA(v, period)
	e2 := EMA(e1, period)
	if e2 == nil {
		return nil
	}
	off := period - 1
	out := make([]float64, len(e2))
	for i := range e2 {
		out[i] = 2*e1[i+off] - e2[i]
	}
	return out
}

// TEMA is the triple exponential moving average: 3*EMA - 3*EMA² + EMA³.
func TEMA(v []float64, period int) []float64 {
	e1 := EMA(v, period)
	e2 := EMA(e1, period)
	e3 := EMA(e2, period)
	if e3 == nil {
		return nil
	}
	off := period - 1
	out := make([]float64, len(e3))
	for i := range e3 {
		out[i] = 3*e1[i+2*off] - 3*e2[i+off] + e3[i]
	}
	return out
}

// Bollinger returns the upper, middle, and lower bands.
func Bollinger(v []float64, period int, mult float64) (upper, middle, lower []float64) {
	middle = SMA(v, period)
	if middle == nil {
		return nil, nil, nil
	}
	upper = make([]float64, len(middle))
	lower = make([]float64, len(middle))
	for i := range middle {
		variance := 0.0
		for j := 0; j < period; j++ {
			d := v[i+j] - middle[i]
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + mult*sd
		lower[i] = middle[i] - mult*sd
	}
	return upper, middle, lower
}

// RSI is the Wilder-smoothed relative strength index; output length
// len(v)-period.
func RSI(v []float64, period int) []float64 {
	if len(v) <= period || period <= 0 {
		return nil
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := v[i] - v[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(v)-period)
	out = append(out, rsiValue(avgGain, avgLoss))
	for i := period + 1; i < len(v); i++ {
		change := v[i] - v[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (warmup slow-1), the signal line, and the
// histogram (both warmup slow+signal-2).
func MACD(v []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	emaFast := EMA(v, fast)
	emaSlow := EMA(v, slow)
	if emaSlow == nil || emaFast == nil {
		return nil, nil, nil
	}
	off := slow - fast
	macd = make([]float64, len(emaSlow))
	for i := range emaSlow {
		macd[i] = emaFast[i+off] - emaSlow[i]
	}
	sig = EMA(macd, signal)
	if sig == nil {
		return macd, nil, nil
	}
	hist = make([]float64, len(sig))
	for i := range sig {
		hist[i] = macd[i+signal-1] - sig[i]
	}
	return macd, sig, hist
}

// StochasticK is the fast %K line.
func StochasticK(highs, lows, closes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	out := make([]float64, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			out = append(out, 50)
			continue
		}
		out = append(out, 100*(closes[i]-ll)/(hh-ll))
	}
	return out
}

// WilliamsR is the Williams %R oscillator, bounded [-100, 0].
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	k := StochasticK(highs, lows, closes, period)
	out := make([]float64, len(k))
	for i, x := range k {
		out[i] = x - 100
	}
	return out
}

// CCI is the commodity channel index over typical price.
func CCI(highs, lows, closes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	tp := make([]float64, len(closes))
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	ma := SMA(tp, period)
	out := make([]float64, len(ma))
	for i := range ma {
		dev := 0.0
		for j := 0; j < period; j++ {
			dev += abs(tp[i+j] - ma[i])
		}
		dev /= float64(period)
		if dev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i+period-1] - ma[i]) / (0.015 * dev)
	}
	return out
}

// MFI is the money flow index; output length len(closes)-period.
func MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	if len(closes) <= period || period <= 0 {
		return nil
	}
	tp := make([]float64, len(closes))
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	out := make([]float64, 0, len(closes)-period)
	for i := period; i < len(closes); i++ {
		var pos, neg float64
		for j := i - period + 1; j <= i; j++ {
			flow := tp[j] * volumes[j]
			if tp[j] > tp[j-1] {
				pos += flow
			} else if tp[j] < tp[j-1] {
				neg += flow
			}
		}
		if neg == 0 {
			out = append(out, 100)
			continue
		}
		out = append(out, 100-100/(1+pos/neg))
	}
	return out
}

// ROC is the rate of change in percent; output length len(v)-period.
func ROC(v []float64, period int) []float64 {
	if len(v) <= period || period <= 0 {
		return nil
	}
	out := make([]float64, 0, len(v)-period)
	for i := period; i < len(v); i++ {
		if v[i-period] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, 100*(v[i]-v[i-period])/v[i-period])
	}
	return out
}

// Momentum is the raw price difference over period bars.
func Momentum(v []float64, period int) []float64 {
	if len(v) <= period || period <= 0 {
		return nil
	}
	out := make([]float64, 0, len(v)-period)
	for i := period; i < len(v); i++ {
		out = append(out, v[i]-v[i-period])
	}
	return out
}

// TRIX is the one-bar rate of change of a triple-smoothed EMA.
func TRIX(v []float64, period int) []float64 {
	e3 := EMA(EMA(EMA(v, period), period), period)
	if len(e3) < 2 {
		return nil
	}
	out := make([]float64, 0, len(e3)-1)
	for i := 1; i < len(e3); i++ {
		if e3[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, 100*(e3[i]-e3[i-1])/e3[i-1])
	}
	return out
}

// ATR is the Wilder-smoothed average true range; output length
// len(closes)-period.
func ATR(highs, lows, closes []float64, period int) []float64 {
	if len(closes) <= period || period <= 0 {
		return nil
	}
	tr := trueRanges(highs, lows, closes)
	seed := 0.0
	for _, x := range tr[:period] {
		seed += x
	}
	seed /= float64(period)
	out := make([]float64, 0, len(closes)-period)
	out = append(out, seed)
	prev := seed
	for _, x := range tr[period:] {
		prev = (prev*float64(period-1) + x) / float64(period)
		out = append(out, prev)
	}
	return out
}

// ADX is the Wilder average directional index; output length
// len(closes)-(2*period-1).
func ADX(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if n < 2*period || period <= 0 {
		return nil
	}
	tr := trueRanges(highs, lows, closes)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}
	smTR := wilderSum(tr, period)
	smPlus := wilderSum(plusDM, period)
	smMinus := wilderSum(minusDM, period)

	dx := make([]float64, len(smTR))
	for i := range smTR {
		if smTR[i] == 0 {
			dx[i] = 0
			continue
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		if plusDI+minusDI == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	seed := 0.0
	for _, x := range dx[:period] {
		seed += x
	}
	seed /= float64(period)
	out := make([]float64, 0, len(dx)-period+1)
	out = append(out, seed)
	prev := seed
	for _, x := range dx[period:] {
		prev = (prev*float64(period-1) + x) / float64(period)
		out = append(out, prev)
	}
	return out
}

// CMF is the Chaikin money flow.
func CMF(highs, lows, closes, volumes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	mfv := make([]float64, len(closes))
	for i := range closes {
		rng := highs[i] - lows[i]
		if rng == 0 {
			continue
		}
		mfm := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rng
		mfv[i] = mfm * volumes[i]
	}
	out := make([]float64, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		var sumMFV, sumVol float64
		for j := i - period + 1; j <= i; j++ {
			sumMFV += mfv[j]
			sumVol += volumes[j]
		}
		if sumVol == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, sumMFV/sumVol)
	}
	return out
}

// AwesomeOsc is the 5/34 median-price SMA difference; warmup 33.
func AwesomeOsc(highs, lows []float64) []float64 {
	if len(highs) < 34 {
		return nil
	}
	med := make([]float64, len(highs))
	for i := range highs {
		med[i] = (highs[i] + lows[i]) / 2
	}
	fast := SMA(med, 5)
	slow := SMA(med, 34)
	out := make([]float64, len(slow))
	for i := range slow {
		out[i] = fast[i+29] - slow[i]
	}
	return out
}

// UltimateOsc is the 7/14/28 ultimate oscillator; warmup 28.
func UltimateOsc(highs, lows, closes []float64) []float64 {
	n := len(closes)
	if n <= 28 {
		return nil
	}
	bp := make([]float64, n-1)
	tr := make([]float64, n-1)
	for i := 1; i < n; i++ {
		lo := min(lows[i], closes[i-1])
		hi := max(highs[i], closes[i-1])
		bp[i-1] = closes[i] - lo
		tr[i-1] = hi - lo
	}
	avg := func(period, end int) float64 {
		var sb, st float64
		for j := end - period + 1; j <= end; j++ {
			sb += bp[j]
			st += tr[j]
		}
		if st == 0 {
			return 0
		}
		return sb / st
	}
	out := make([]float64, 0, n-28)
	for i := 27; i < len(bp); i++ {
		a7, a14, a28 := avg(7, i), avg(14, i), avg(28, i)
		out = append(out, 100*(4*a7+2*a14+a28)/7)
	}
	return out
}

func trueRanges(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := abs(highs[i] - closes[i-1])
		lc := abs(lows[i] - closes[i-1])
		tr[i-1] = max(hl, max(hc, lc))
	}
	return tr
}

// wilderSum is Wilder's smoothed running sum over period; output starts at
// input index period-1.
func wilderSum(v []float64, period int) []float64 {
	if len(v) < period {
		return nil
	}
	sum := 0.0
	for _, x := range v[:period] {
		sum += x
	}
	out := make([]float64, 0, len(v)-period+1)
	out = append(out, sum)
	for _, x := range v[period:] {
		sum = sum - sum/float64(period) + x
		out = append(out, sum)
	}
	return out
}

func abs(x float64) float64 { return math.Abs(x) }
