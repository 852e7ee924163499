package session

// savgolWindow is the Savitzky-Golay window width; shorter series
// pass through unchanged.
const savgolWindow = 5

// savgolWeights are the quadratic convolution weights for a 5-sample
// window, scaled by 35.
var savgolWeights = [savgolWindow]float64{-3, 12, 17, 12, -3}

// Smooth applies a Savitzky-Golay filter (window 5, polyorder 2) and
// returns a new slice. The filter reproduces polynomials up to degree
// 2 exactly; the two samples at each edge are copied through.
func Smooth(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if len(values) < savgolWindow {
		return out
	}

	half := savgolWindow / 2
	for i := half; i < len(values)-half; i++ {
		var acc float64
		for j, w := range savgolWeights {
			acc += w * values[i-half+j]
		}
		out[i] = acc / 35
	}
	return out
}
