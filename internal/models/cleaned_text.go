package models

// CleanedText is the per-session artifact persisted after a cleaning run.
// One object per session, overwritten entirely on each run.
type CleanedText struct {
	HTML         string        `json:"html"`
	Raw          string        `json:"raw"`
	Replacements []Replacement `json:"replacements"`
	Timestamp    string        `json:"timestamp"`
}

// Summary is the per-session artifact persisted after a summarization run.
type Summary struct {
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}
