// Package report builds the stateless weekly and daily tables: a 52-week
// range ranking with a buy/watch/avoid suggestion, and an open-vs-last
// performance snapshot. Both are one-shot classifications over fresh quotes
// with no temporal state.
package report

import (
	"context"
	"sort"

	"stock-analyzer-go/gateway"
)

// Suggestion buckets for the weekly ranking.
type Suggestion string

const (
	SuggestionBuy   Suggestion = "BUY"
	SuggestionWatch Suggestion = "WATCH"
	SuggestionAvoid Suggestion = "AVOID"
)

// WeeklyEntry is one instrument's 52-week range evaluation.
type WeeklyEntry struct {
	Symbol     string
	WeekLow    float64
	WeekHigh   float64
	RangePct   float64
	Suggestion Suggestion
}

// DailyEntry is one instrument's open-vs-last performance.
type DailyEntry struct {
	Symbol string
	Open   float64
	Last   float64
	Net    float64
}

// Classify maps a 52-week range percentage to a suggestion: above 2% is a
// buy, anything positive is worth watching, the rest is avoided.
func Classify(rangePct float64) Suggestion {
	switch {
	case rangePct > 2:
		return SuggestionBuy
	case rangePct > 0:
		return SuggestionWatch
	default:
		return SuggestionAvoid
	}
}

// BuildWeekly evaluates every symbol and returns entries sorted by range
// percentage, best first. Symbols whose quote fails are returned in failed
// and simply left out of the table; one bad symbol never sinks the report.
func BuildWeekly(ctx context.Context, f gateway.Fetcher, symbols []string) (entries []WeeklyEntry, failed []string) {
	for _, sym := range symbols {
		q, err := f.FetchQuote(ctx, sym)
		if err != nil {
			failed = append(failed, sym)
			continue
		}
		var pct float64
		if q.WeekLow > 0 {
			pct = (q.WeekHigh - q.WeekLow) / q.WeekLow * 100
		}
		entries = append(entries, WeeklyEntry{
			Symbol:     sym,
			WeekLow:    q.WeekLow,
			WeekHigh:   q.WeekHigh,
			RangePct:   pct,
			Suggestion: Classify(pct),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RangePct > entries[j].RangePct
	})
	return entries, failed
}

// TopPerformers returns the first n symbols of a sorted weekly table.
func TopPerformers(entries []WeeklyEntry, n int) []string {
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]string, 0, n)
	for _, e := range entries[:n] {
		out = append(out, e.Symbol)
	}
	return out
}

// BuildDaily evaluates every symbol's net move since the open.
func BuildDaily(ctx context.Context, f gateway.Fetcher, symbols []string) (entries []DailyEntry, failed []string) {
	for _, sym := range symbols {
		q, err := f.FetchQuote(ctx, sym)
		if err != nil {
			failed = append(failed, sym)
			continue
		}
		entries = append(entries, DailyEntry{
			Symbol: sym,
			Open:   q.Open,
			Last:   q.LastPrice,
			Net:    q.LastPrice - q.Open,
		})
	}
	return entries, failed
}
