// Package domain contains entity without logic, just meta-data
package domain

type (
	// RoomID identifies a signaling room. Opaque, comes from the URL path.
	RoomID string

	// SessionID identifies one interview session. An STT connection and any
	// number of transcript subscribers share the same SessionID.
	SessionID string
)

// Role of a speaker on the audio ingestion stream.
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

// ParseRole maps a query parameter value to a Role, defaulting to candidate.
func ParseRole(s string) Role {
	if Role(s) == RoleInterviewer {
		return RoleInterviewer
	}
	return RoleCandidate
}

// Display returns the label shown next to transcript lines in the UI.
func (r Role) Display() string {
	if r == RoleInterviewer {
		return "Görüşmeci"
	}
	return "Aday"
}
