package models

import "time"

type CommandStatus string

const (
	CommandPending   CommandStatus = "pending"
	CommandCompleted CommandStatus = "completed"
)

// CommandOutput is what the agent observed running a command. A failing
// command is still a successful report: the failure lives in Stderr and
// ReturnCode.
type CommandOutput struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
}

// Command is a controller-issued text command. DeviceID is empty for
// commands any agent may pick up.
type Command struct {
	ID          string         `json:"id"`
	Text        string         `json:"command"`
	DeviceID    string         `json:"device_id,omitempty"`
	Status      CommandStatus  `json:"status"`
	Output      *CommandOutput `json:"output"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

func (c Command) VisibleTo(deviceID string) bool {
	return c.DeviceID == "" || c.DeviceID == deviceID
}
