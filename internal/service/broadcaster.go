package service

// Event types pushed to the owner's socket
const (
	EventMessageAppended = "message_appended"
	EventPhaseChanged    = "phase_changed"
	EventReportReady     = "report_ready"
)

// Broadcaster interface for WebSocket pushes (avoids import cycle)
type Broadcaster interface {
	SendToUser(userID string, msgType string, payload interface{})
}
