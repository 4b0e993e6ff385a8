// Package recorder persists observation and report history for later
// analysis. It is an append-only audit trail: nothing here is ever read back
// to restore runtime state.
package recorder

import "time"

// ObservationRow is one committed price observation.
type ObservationRow struct {
	Symbol    string
	Ts        time.Time
	Price     float64
	PrevClose float64
	Crash     bool
}

// WeeklyRow is one instrument's entry in a weekly range ranking.
type WeeklyRow struct {
	Symbol     string
	WeekLow    float64
	WeekHigh   float64
	RangePct   float64
	Suggestion string
}

// DailyRow is one instrument's open-vs-last performance snapshot.
type DailyRow struct {
	Symbol string
	Open   float64
	Last   float64
	Net    float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordObservation(row ObservationRow) error
	RecordWeekly(rows []WeeklyRow) error
	RecordDaily(rows []DailyRow) error
	Close() error
}
