package model

import "time"

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system" // only used on the wire to the text generator
)

// Message is one entry in the interview transcript
type Message struct {
	ID        string    `json:"id" bson:"id"`
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	ImageRef  string    `json:"imageRef,omitempty" bson:"imageRef,omitempty"` // blob URL, never raw bytes
}
