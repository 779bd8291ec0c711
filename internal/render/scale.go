package render

import "math"

// LinearScale maps a value domain onto a continuous output range.
type LinearScale struct {
	Domain [2]float64
	Range  [2]float64
}

// Map projects v. A degenerate domain maps everything to the range start.
func (s LinearScale) Map(v float64) float64 {
	d0, d1 := s.Domain[0], s.Domain[1]
	if d1 == d0 {
		return s.Range[0]
	}
	return s.Range[0] + (v-d0)/(d1-d0)*(s.Range[1]-s.Range[0])
}

// Ticks returns about count round values spanning the domain, using
// 1, 2 and 5 times a power of ten as the step.
func (s LinearScale) Ticks(count int) []float64 {
	start, stop := s.Domain[0], s.Domain[1]
	if count < 1 || stop <= start {
		if stop == start {
			return []float64{start}
		}
		return nil
	}
	step := tickStep(start, stop, count)
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return nil
	}
	lo := math.Ceil(start / step)
	hi := math.Floor(stop / step)
	ticks := make([]float64, 0, int(hi-lo)+1)
	for i := lo; i <= hi; i++ {
		ticks = append(ticks, i*step)
	}
	return ticks
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func tickStep(start, stop float64, count int) float64 {
	raw := (stop - start) / float64(count)
	power := math.Floor(math.Log10(raw))
	base := math.Pow(10, power)
	factor := 1.0
	switch err := raw / base; {
	case err >= e10:
		factor = 10
	case err >= e5:
		factor = 5
	case err >= e2:
		factor = 2
	}
	return factor * base
}

// BandScale splits a continuous range into equal bands, one per domain key,
// with Padding as the inner and outer padding ratio and centered alignment.
type BandScale struct {
	Domain  []string
	Range   [2]float64
	Padding float64
}

func (s BandScale) step() float64 {
	n := float64(len(s.Domain))
	return (s.Range[1] - s.Range[0]) / math.Max(1, n-s.Padding+2*s.Padding)
}

// Bandwidth is the extent of a single band.
func (s BandScale) Bandwidth() float64 {
	return s.step() * (1 - s.Padding)
}

// At is the start of the i-th band.
func (s BandScale) At(i int) float64 {
	step := s.step()
	n := float64(len(s.Domain))
	start := s.Range[0] + (s.Range[1]-s.Range[0]-step*(n-s.Padding))*0.5
	return start + step*float64(i)
}

// Map returns the start of key's band.
func (s BandScale) Map(key string) (float64, bool) {
	for i, k := range s.Domain {
		if k == key {
			return s.At(i), true
		}
	}
	return 0, false
}
