package db

import "time"

// Execution records the output of a command this agent ran. Commands stay
// pending on the relay until completion is reported, so a lost report
// would otherwise make the agent run the command again.
type Execution struct {
	ID         uint   `gorm:"primaryKey"`
	CommandID  string `gorm:"size:64;uniqueIndex"`
	Command    string `gorm:"size:8192"`
	Stdout     string
	Stderr     string
	ReturnCode int
	Reported   bool `gorm:"index"`
	ExecutedAt time.Time
	ReportedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
