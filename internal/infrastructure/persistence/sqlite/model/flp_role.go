package model

import "time"

type FlpRole struct {
	FlpName               string    `gorm:"column:flp_name;type:varchar(255);primaryKey"`
	RunNumber             int64     `gorm:"column:run_number;primaryKey;autoIncrement:false;index"`
	FlpHostname           string    `gorm:"column:flp_hostname;type:varchar(255);not null"`
	BytesReadOut          int64     `gorm:"column:bytes_read_out;not null;default:0"`
	NumberOfSubtimeframes int64     `gorm:"column:n_subtimeframes;not null;default:0"`
	NumberOfTimeframes    int64     `gorm:"column:n_timeframes;not null;default:0"`
	CreatedAt             time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt             time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (FlpRole) TableName() string {
	return "flp_role"
}
