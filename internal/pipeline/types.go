package pipeline

import "time"

// StepStats describes one executed step
type StepStats struct {
	Name          string        `json:"name"`
	Duration      time.Duration `json:"duration"`
	ColumnsBefore int           `json:"columns_before"`
	ColumnsAfter  int           `json:"columns_after"`
	// ResidentMemory is the process RSS after the step, 0 when unavailable
	ResidentMemory uint64 `json:"resident_memory_bytes,omitempty"`
}

// ColumnsAdded returns the net column change; negative for dropping steps
func (s StepStats) ColumnsAdded() int {
	return s.ColumnsAfter - s.ColumnsBefore
}

// Stats summarizes a pipeline run
type Stats struct {
	Pipeline  string        `json:"pipeline"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Steps     []StepStats   `json:"steps"`
}
