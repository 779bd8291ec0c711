package dataset

import "fmt"

type Reason string

const (
	ReasonEmpty            Reason = "no country series"
	ReasonEmptySeries      Reason = "empty population series"
	ReasonMissingCountry   Reason = "missing country name"
	ReasonDuplicateCountry Reason = "duplicate country"
	ReasonLengthMismatch   Reason = "population length mismatch"
	ReasonBadValue         Reason = "negative or non-finite population"
)

// MalformedDatasetError rejects a payload that cannot produce a single valid frame.
type MalformedDatasetError struct {
	Reason  Reason
	Country string
	// Index is the offending series position, -1 when it is not about one series.
	Index int
	Want  int
	Got   int
}

func (e *MalformedDatasetError) Error() string {
	switch e.Reason {
	case ReasonLengthMismatch:
		return fmt.Sprintf("malformed dataset: %s for %q at series %d: want %d, got %d", e.Reason, e.Country, e.Index, e.Want, e.Got)
	case ReasonEmpty:
		return fmt.Sprintf("malformed dataset: %s", e.Reason)
	case ReasonMissingCountry:
		return fmt.Sprintf("malformed dataset: %s at series %d", e.Reason, e.Index)
	default:
		return fmt.Sprintf("malformed dataset: %s %q at series %d", e.Reason, e.Country, e.Index)
	}
}
