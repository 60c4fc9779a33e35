package scheduler

// Event type constants for scheduler module events.
// Following CloudEvents specification reverse domain notation.
const (
	EventTypeJobCompleted = "com.modkit.scheduler.job.completed"
	EventTypeJobFailed    = "com.modkit.scheduler.job.failed"
)

// JobEventData is the payload of job events.
type JobEventData struct {
	Job      string `json:"job"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}
