package model

type InfoLog struct {
	InfoLogID uint64 `gorm:"column:info_log_id;primaryKey;autoIncrement"`
	Level     string `gorm:"column:level;type:varchar(16);not null"`
	Component string `gorm:"column:component;type:varchar(128);not null;default:''"`
	Message   string `gorm:"column:message;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null;index"`
}

func (InfoLog) TableName() string {
	return "info_log"
}
