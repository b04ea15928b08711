package core

// Reply is the assembled answer for one submitted turn.
type Reply struct {
	SessionID       string        `json:"session_id"`
	Seq             int           `json:"seq"`
	Text            string        `json:"text"`
	Agent           AgentLabel    `json:"agent"`
	Crisis          bool          `json:"crisis"`
	Degraded        bool          `json:"degraded"`
	Recommendations []ContentItem `json:"recommendations"`
}
