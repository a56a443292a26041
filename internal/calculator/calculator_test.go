package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

func closesToCandles(closes []float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Time: int64(1700000000 + i*86400), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return candles
}

func trendCandles(start, step float64, n int) []model.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return closesToCandles(closes)
}

func volumeBars(values []float64) []model.VolumeBar {
	bars := make([]model.VolumeBar, len(values))
	for i, v := range values {
		bars[i] = model.VolumeBar{Time: int64(i), Value: v, Direction: model.DirectionUp}
	}
	return bars
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		period   int
		wantLen  int
		wantLast float64
	}{
		{"simple 3-bar", []float64{10, 20, 30}, 3, 1, 20},
		{"5-bar over 7", []float64{10, 11, 12, 13, 14, 15, 16}, 5, 3, 14},
		{"insufficient", []float64{10, 20}, 5, 0, 0},
		{"zero period", []float64{10, 20}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SMA(closesToCandles(tt.closes), tt.period)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				last, ok := got.Last()
				require.True(t, ok)
				assert.InDelta(t, tt.wantLast, last, 1e-9)
			}
		})
	}
}

func TestSMA_MatchesTrailingMean(t *testing.T) {
	closes := []float64{3.2, 7.1, 5.5, 9.9, 1.4, 6.6, 8.8, 2.2, 4.4, 10.1, 7.7, 3.3}
	candles := closesToCandles(closes)
	for _, n := range []int{1, 2, 5, 12} {
		series := SMA(candles, n)
		require.Len(t, series, len(closes)-(n-1))
		for j, p := range series {
			i := j + n - 1
			sum := 0.0
			for k := i - n + 1; k <= i; k++ {
				sum += closes[k]
			}
			assert.InDelta(t, sum/float64(n), p.Value, 1e-9)
			assert.Equal(t, candles[i].Time, p.Time)
		}
	}
}

func TestSMA_ScenarioA(t *testing.T) {
	candles := []model.Candle{
		{Time: 1, Open: 100, High: 105, Low: 99, Close: 103},
		{Time: 2, Open: 103, High: 107, Low: 102, Close: 106},
		{Time: 3, Open: 106, High: 110, Low: 104, Close: 109},
		{Time: 4, Open: 109, High: 112, Low: 107, Close: 111},
		{Time: 5, Open: 111, High: 115, Low: 108, Close: 114},
	}
	last, ok := SMA(candles, 5).Last()
	require.True(t, ok)
	assert.InDelta(t, 108.6, last, 1e-9)
}

func TestRSI(t *testing.T) {
	t.Run("uptrend converges to 100", func(t *testing.T) {
		series := RSI(trendCandles(50, 1, 40), 14)
		require.Len(t, series, 40-14)
		last, _ := series.Last()
		assert.InDelta(t, 100, last, 1e-9)
	})
	t.Run("downtrend converges to 0", func(t *testing.T) {
		series := RSI(trendCandles(100, -1, 40), 14)
		last, _ := series.Last()
		assert.InDelta(t, 0, last, 1e-9)
	})
	t.Run("short input yields empty series", func(t *testing.T) {
		assert.Empty(t, RSI(trendCandles(50, 1, 14), 14))
	})
	t.Run("bounded", func(t *testing.T) {
		closes := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1, 45.9, 46.2, 45.6, 46.3, 46.3, 46.0, 46.4, 46.2, 45.6}
		for _, p := range RSI(closesToCandles(closes), 14) {
			assert.GreaterOrEqual(t, p.Value, 0.0)
			assert.LessOrEqual(t, p.Value, 100.0)
		}
	})
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// period 2: deltas +2, -1, +3
	candles := closesToCandles([]float64{10, 12, 11, 14})
	series := RSI(candles, 2)
	require.Len(t, series, 2)
	// seed: avgGain 1, avgLoss 0.5 -> RS 2 -> 66.67
	assert.InDelta(t, 100-100/3.0, series[0].Value, 1e-9)
	// next: avgGain (1*1+3)/2 = 2, avgLoss (0.5*1+0)/2 = 0.25 -> RS 8
	assert.InDelta(t, 100-100/9.0, series[1].Value, 1e-9)
}

func TestATR(t *testing.T) {
	t.Run("flat series is zero and available", func(t *testing.T) {
		candles := make([]model.Candle, 20)
		for i := range candles {
			candles[i] = model.Candle{Time: int64(i), Open: 50, High: 50, Low: 50, Close: 50}
		}
		got := ATR(candles, 14)
		assert.True(t, got.Available)
		assert.Equal(t, 0.0, got.Value)
	})
	t.Run("short series is unavailable", func(t *testing.T) {
		got := ATR(trendCandles(10, 1, 14), 14)
		assert.False(t, got.Available)
	})
	t.Run("uses gaps against previous close", func(t *testing.T) {
		candles := []model.Candle{
			{Time: 1, Open: 10, High: 11, Low: 9, Close: 10},
			{Time: 2, Open: 13, High: 14, Low: 12.5, Close: 13},
			{Time: 3, Open: 13, High: 13.5, Low: 12, Close: 12},
		}
		got := ATR(candles, 2)
		require.True(t, got.Available)
		// TR2 = max(1.5, 4, 2.5) = 4; TR3 = max(1.5, 0.5, 1) = 1.5
		assert.InDelta(t, 2.75, got.Value, 1e-9)
	})
	t.Run("never negative", func(t *testing.T) {
		got := ATR(trendCandles(100, -3, 30), 14)
		assert.GreaterOrEqual(t, got.Value, 0.0)
	})
}

func TestSpikeRatio_ScenarioB(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 1000
	}
	values[19] = 3000

	ratio, mean, ok := SpikeRatio(volumeBars(values), VolumeWindow)
	require.True(t, ok)
	assert.InDelta(t, 1100, mean, 1e-9)
	assert.InDelta(t, 2.727, ratio, 0.001)
}

func TestSpikeRatio_ScaleInvariant(t *testing.T) {
	values := []float64{120, 340, 90, 560, 210, 75, 430, 980, 150, 310, 260}
	base, _, ok := SpikeRatio(volumeBars(values), VolumeWindow)
	require.True(t, ok)

	for _, k := range []float64{0.001, 3, 1e6} {
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = v * k
		}
		got, _, ok := SpikeRatio(volumeBars(scaled), VolumeWindow)
		require.True(t, ok)
		assert.InDelta(t, base, got, 1e-9)
	}
}

func TestSpikeRatio_ZeroMeanUnavailable(t *testing.T) {
	_, _, ok := SpikeRatio(volumeBars([]float64{0, 0, 0}), VolumeWindow)
	assert.False(t, ok)
	_, _, ok = SpikeRatio(nil, VolumeWindow)
	assert.False(t, ok)
}

func TestHighLow(t *testing.T) {
	candles := []model.Candle{
		{High: 10, Low: 5},
		{High: 30, Low: 1},
		{High: 12, Low: 8},
		{High: 15, Low: 9},
	}
	high, low, ok := HighLow(candles, 2)
	require.True(t, ok)
	assert.Equal(t, 15.0, high)
	assert.Equal(t, 8.0, low)

	high, low, _ = HighLow(candles, 20)
	assert.Equal(t, 30.0, high)
	assert.Equal(t, 1.0, low)

	_, _, ok = HighLow(nil, 20)
	assert.False(t, ok)
}

func TestNear(t *testing.T) {
	assert.True(t, Near(101, 100, 0.01))
	assert.True(t, Near(99, 100, 0.01))
	assert.False(t, Near(98.9, 100, 0.01))
	assert.False(t, Near(1, 0, 0.01))
}

func TestCompute_Availability(t *testing.T) {
	candles := make([]model.Candle, 25)
	volumes := make([]model.VolumeBar, 25)
	for i := range candles {
		p := 100 + float64(i)
		candles[i] = model.Candle{Time: int64(i), Open: p, High: p + 1, Low: p - 1, Close: p}
		volumes[i] = model.VolumeBar{Time: int64(i), Value: 1000}
	}

	set := Compute(candles, volumes)
	ind := set.Latest
	assert.Equal(t, 124.0, ind.Close)
	assert.True(t, ind.HasSMA5)
	assert.True(t, ind.HasSMA20)
	assert.False(t, ind.HasSMA60)
	assert.True(t, ind.HasRSI)
	assert.Equal(t, 100.0, ind.RSI14)
	assert.True(t, ind.HasVolume)
	assert.InDelta(t, 1.0, ind.SpikeRatio, 1e-9)
	assert.InDelta(t, 122.0, ind.SMA5, 1e-9)
	assert.Len(t, set.SMA20, 6)
	assert.Empty(t, set.SMA60)
}
