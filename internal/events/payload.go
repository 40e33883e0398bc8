package events

// Status is the payload of a status event.
type Status struct {
	State  string `json:"state"`
	JobID  string `json:"jobId,omitempty"`
	URL    string `json:"url,omitempty"`
	Output string `json:"output,omitempty"`
	File   string `json:"file,omitempty"`
	Cached bool   `json:"cached,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Log struct {
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}

type ProgressStart struct {
	JobID string `json:"jobId"`
	ID    string `json:"id"`
	Label string `json:"label"`
	Total int    `json:"total"`
}

type ProgressUpdate struct {
	JobID string `json:"jobId"`
	ID    string `json:"id"`
	Value int    `json:"value"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

type ProgressStop struct {
	JobID string `json:"jobId"`
	ID    string `json:"id"`
}
