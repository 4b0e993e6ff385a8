package gateway

import (
	"context"
	"errors"
)

// ErrFetchFailed covers every way a quote attempt can go wrong: transport
// error, bad status, unparseable payload, missing or non-positive fields.
// The scheduler treats them all the same way (skip the tick), so the
// distinction lives only in the wrapped message.
var ErrFetchFailed = errors.New("quote fetch failed")

// Quote is a point-in-time observation for one instrument.
type Quote struct {
	Symbol        string
	LastPrice     float64
	PreviousClose float64
	// Open and the 52-week bounds feed the stateless daily/weekly reports,
	// not the sliding-window core.
	Open     float64
	WeekLow  float64
	WeekHigh float64
}

// Fetcher is the quote source contract. Implementations either return a
// complete quote or an error wrapping ErrFetchFailed; partial quotes are
// never handed upstream.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
	Name() string
}
