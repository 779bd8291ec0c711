package frame

import (
	"fmt"
	"sort"

	"github.com/keilerkonzept/population-race/internal/dataset"
)

// DefaultK is the number of bars drawn per frame.
const DefaultK = 12

// Entry is one ranked bar of a frame.
type Entry struct {
	Country string
	Color   string
	Icon    string
	Value   float64
	// Rank is the 0-based position in the frame.
	Rank int
}

// Frame is the ranked top-K snapshot of a dataset at one time index.
type Frame struct {
	Entries []Entry
	Index   int
	// Total sums the values of Entries only, not of the whole dataset.
	Total float64
}

// IndexOutOfRangeError reports a time index outside [0, Steps).
type IndexOutOfRangeError struct {
	Index int
	Steps int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("time index %d out of range [0, %d)", e.Index, e.Steps)
}

// Select ranks every series by its value at index and keeps the first k.
// Equal values keep the dataset's enumeration order. k < 1 selects DefaultK.
func Select(ds *dataset.Dataset, index, k int) (Frame, error) {
	if index < 0 || index >= ds.Steps() {
		return Frame{}, &IndexOutOfRangeError{Index: index, Steps: ds.Steps()}
	}
	if k < 1 {
		k = DefaultK
	}

	order := make([]int, ds.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return ds.Value(order[i], index) > ds.Value(order[j], index)
	})
	if len(order) > k {
		order = order[:k]
	}

	f := Frame{
		Entries: make([]Entry, len(order)),
		Index:   index,
	}
	for rank, i := range order {
		country, color, icon := ds.Meta(i)
		v := ds.Value(i, index)
		f.Entries[rank] = Entry{
			Country: country,
			Color:   color,
			Icon:    icon,
			Value:   v,
			Rank:    rank,
		}
		f.Total += v
	}
	return f, nil
}

// Max is the largest value in the frame, 0 for an empty frame.
func (f Frame) Max() float64 {
	if len(f.Entries) == 0 {
		return 0
	}
	return f.Entries[0].Value
}

// Countries lists the frame's countries in rank order.
func (f Frame) Countries() []string {
	out := make([]string, len(f.Entries))
	for i, e := range f.Entries {
		out[i] = e.Country
	}
	return out
}

// Clone returns a deep copy of f.
func (f Frame) Clone() Frame {
	out := f
	out.Entries = make([]Entry, len(f.Entries))
	copy(out.Entries, f.Entries)
	return out
}
