package audio

import "math"

// Visualiser derives coarse frequency-bucket levels from raw input chunks
// for live level meters. It accumulates samples into fixed analysis windows
// and, once a window is full, returns bucketed magnitudes covering the vocal
// band. It runs on the raw (native-rate) stream and is independent of the
// recording state.
type Visualiser struct {
	sampleRate int
	windowSize int
	buckets    int
	minHz      float64
	maxHz      float64

	window []float32
	re     []float64
	im     []float64
	hann   []float64
}

// NewVisualiser creates a visualiser producing `buckets` levels from
// windowSize-sample analysis windows. windowSize must be a power of two.
func NewVisualiser(sampleRate, windowSize, buckets int, minHz, maxHz float64) *Visualiser {
	hann := make([]float64, windowSize)
	for i := range hann {
		hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(windowSize-1)))
	}
	return &Visualiser{
		sampleRate: sampleRate,
		windowSize: windowSize,
		buckets:    buckets,
		minHz:      minHz,
		maxHz:      maxHz,
		window:     make([]float32, 0, windowSize),
		re:         make([]float64, windowSize),
		im:         make([]float64, windowSize),
		hann:       hann,
	}
}

// Feed appends chunk to the analysis window. When at least one full window
// has accumulated it computes and returns the bucket levels for the most
// recent window; otherwise it returns nil.
func (v *Visualiser) Feed(chunk []float32) []float32 {
	v.window = append(v.window, chunk...)

	var levels []float32
	for len(v.window) >= v.windowSize {
		levels = v.analyze(v.window[:v.windowSize])
		v.window = append(v.window[:0], v.window[v.windowSize:]...)
	}
	return levels
}

// Reset discards any partially accumulated window.
func (v *Visualiser) Reset() {
	v.window = v.window[:0]
}

func (v *Visualiser) analyze(samples []float32) []float32 {
	for i, s := range samples {
		v.re[i] = float64(s) * v.hann[i]
		v.im[i] = 0
	}
	fft(v.re, v.im)

	binHz := float64(v.sampleRate) / float64(v.windowSize)
	bucketHz := (v.maxHz - v.minHz) / float64(v.buckets)

	levels := make([]float32, v.buckets)
	counts := make([]int, v.buckets)

	for bin := 1; bin < v.windowSize/2; bin++ {
		freq := float64(bin) * binHz
		if freq < v.minHz || freq >= v.maxHz {
			continue
		}
		b := int((freq - v.minHz) / bucketHz)
		if b >= v.buckets {
			b = v.buckets - 1
		}
		mag := math.Hypot(v.re[bin], v.im[bin])
		levels[b] += float32(mag)
		counts[b]++
	}

	// Average per bucket and squash to a 0..1-ish display range.
	for i := range levels {
		if counts[i] > 0 {
			levels[i] /= float32(counts[i])
		}
		levels[i] = float32(math.Log1p(float64(levels[i])))
	}
	return levels
}

// fft performs an in-place radix-2 Cooley-Tukey FFT.
// re and im must have the same power-of-2 length.
func fft(re, im []float64) {
	n := len(re)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation
	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}

	// Cooley-Tukey butterfly
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := -2.0 * math.Pi / float64(size)
		wR := math.Cos(angle)
		wI := math.Sin(angle)

		for start := 0; start < n; start += size {
			tR, tI := 1.0, 0.0
			for k := 0; k < half; k++ {
				u := start + k
				w := u + half

				tmpR := tR*re[w] - tI*im[w]
				tmpI := tR*im[w] + tI*re[w]

				re[w] = re[u] - tmpR
				im[w] = im[u] - tmpI
				re[u] += tmpR
				im[u] += tmpI

				tR, tI = tR*wR-tI*wI, tR*wI+tI*wR
			}
		}
	}
}
