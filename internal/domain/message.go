package domain

// TranscriptLine is the message delivered to transcript subscribers.
type TranscriptLine struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
