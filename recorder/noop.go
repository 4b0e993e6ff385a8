package recorder

// NoopRecorder discards everything. Used when no database path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordObservation(ObservationRow) error { return nil }
func (*NoopRecorder) RecordWeekly([]WeeklyRow) error         { return nil }
func (*NoopRecorder) RecordDaily([]DailyRow) error           { return nil }
func (*NoopRecorder) Close() error                           { return nil }
