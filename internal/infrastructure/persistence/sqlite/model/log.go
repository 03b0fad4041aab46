package model

import "time"

type Log struct {
	LogID     uint64    `gorm:"column:log_id;primaryKey;autoIncrement"`
	Title     string    `gorm:"column:title;type:varchar(255);not null"`
	Body      string    `gorm:"column:body;type:text;not null"`
	Subtype   string    `gorm:"column:subtype;type:varchar(32);not null;index"`
	Origin    string    `gorm:"column:origin;type:varchar(32);not null;index"`
	Author    string    `gorm:"column:author;type:varchar(255);not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`

	Attachments []Attachment `gorm:"foreignKey:LogID;references:LogID;constraint:OnDelete:CASCADE"`
	LogRuns     []LogRun     `gorm:"foreignKey:LogID;references:LogID;constraint:OnDelete:CASCADE"`
}

func (Log) TableName() string {
	return "log"
}

// LogRun is the log_runs_run join table.
type LogRun struct {
	LogID     uint64 `gorm:"column:log_id;primaryKey;autoIncrement:false"`
	RunNumber int64  `gorm:"column:run_number;primaryKey;autoIncrement:false;index"`
}

func (LogRun) TableName() string {
	return "log_runs_run"
}
