package model

// Snapshot is the durable projection of the scheduler's job collections.
// Field names are the persisted contract; only non-terminal jobs live in Queue.
type Snapshot struct {
	Queue     []Job  `json:"queue"`
	Completed []Job  `json:"completed"`
	Failed    []Job  `json:"failed"`
	StartTime int64  `json:"startTime"` // epoch milliseconds
	LastSaved string `json:"lastSaved"` // RFC3339
}

// Clone returns a deep copy so the snapshot can be serialized while the
// scheduler keeps mutating its collections.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Queue = append([]Job(nil), s.Queue...)
	out.Completed = append([]Job(nil), s.Completed...)
	out.Failed = append([]Job(nil), s.Failed...)
	return out
}
