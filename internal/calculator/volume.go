package calculator

import "StockPulse/internal/model"

// VolumeWindow is the trailing window for mean volume.
const VolumeWindow = 20

// VolumeMean averages the last window volumes, including the current bar.
func VolumeMean(volumes []model.VolumeBar, window int) float64 {
	if len(volumes) == 0 || window <= 0 {
		return 0
	}
	start := len(volumes) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range volumes[start:] {
		sum += v.Value
	}
	return sum / float64(len(volumes)-start)
}

// SpikeRatio divides the current volume by its trailing mean.
// ok is false when there is no volume or the mean is zero.
func SpikeRatio(volumes []model.VolumeBar, window int) (ratio, mean float64, ok bool) {
	mean = VolumeMean(volumes, window)
	if mean == 0 {
		return 0, mean, false
	}
	return volumes[len(volumes)-1].Value / mean, mean, true
}
