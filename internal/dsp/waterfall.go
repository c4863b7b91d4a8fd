package dsp

// TimeAxisLen is the fixed number of samples on the plotted time axis.
const TimeAxisLen = 256

// TimeAxis returns TimeAxisLen points spanning -128..128 samples, converted
// to milliseconds with tsamp (seconds). When the boxcar width exceeds one
// sample the axis is further scaled by width/2.
func TimeAxis(tsamp, width float64) []float64 {
	scale := tsamp * 1000
	if width > 1 {
		scale = tsamp * width * 1000 / 2
	}
	const half = 128.0
	n := TimeAxisLen - 1
	ts := make([]float64, TimeAxisLen)
	for i := range ts {
		// Integer numerators keep ts[i] == -ts[n-i] exactly.
		ts[i] = float64(2*i-n) / float64(n) * half * scale
	}
	return ts
}

// Waterfalls are the plot-ready arrays derived from one candidate.
type Waterfalls struct {
	// FreqTime is (channel, time), channel-flipped, optionally detrended,
	// scrubbed and normalised.
	FreqTime *Matrix
	// DMTime is (DM trial, time), scrubbed only.
	DMTime *Matrix
	// Median and Std are the statistics FreqTime was normalised with.
	Median float64
	Std    float64
}

// Prepare derives the plotted arrays from the stored ones. Neither input is
// modified.
func Prepare(freqTime, dmTime *Matrix, detrend bool) (*Waterfalls, error) {
	ft, err := FlipTranspose(freqTime)
	if err != nil {
		return nil, err
	}
	if detrend {
		if err := Detrend(ft); err != nil {
			return nil, err
		}
	}
	if err := dmTime.validate(); err != nil {
		return nil, err
	}
	dt := dmTime.Clone()

	ScrubNonFinite(dt)
	ScrubNonFinite(ft)
	median, std := Normalize(ft)

	return &Waterfalls{FreqTime: ft, DMTime: dt, Median: median, Std: std}, nil
}
