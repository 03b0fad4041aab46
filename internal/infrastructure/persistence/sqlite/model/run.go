package model

import "time"

type Run struct {
	RunNumber             int64      `gorm:"column:run_number;primaryKey;autoIncrement:false"`
	TimeO2Start           time.Time  `gorm:"column:time_o2_start;not null"`
	TimeTrgStart          time.Time  `gorm:"column:time_trg_start;not null"`
	TimeO2End             *time.Time `gorm:"column:time_o2_end"`
	TimeTrgEnd            *time.Time `gorm:"column:time_trg_end"`
	ActivityID            string     `gorm:"column:activity_id;type:varchar(255);not null;default:''"`
	RunType               string     `gorm:"column:run_type;type:varchar(255);not null;default:''"`
	RunQuality            string     `gorm:"column:run_quality;type:varchar(64);not null;default:''"`
	NumberOfDetectors     int64      `gorm:"column:n_detectors;not null;default:0"`
	NumberOfEpns          int64      `gorm:"column:n_epns;not null;default:0"`
	NumberOfFlps          int64      `gorm:"column:n_flps;not null;default:0"`
	BytesReadOut          int64      `gorm:"column:bytes_read_out;not null;default:0"`
	NumberOfTimeframes    int64      `gorm:"column:n_timeframes;not null;default:0"`
	NumberOfSubtimeframes int64      `gorm:"column:n_subtimeframes;not null;default:0"`

	FlpRoles  []FlpRole        `gorm:"foreignKey:RunNumber;references:RunNumber;constraint:OnDelete:RESTRICT"`
	Detectors []DetectorsInRun `gorm:"foreignKey:RunNumber;references:RunNumber;constraint:OnDelete:RESTRICT"`
	LogRuns   []LogRun         `gorm:"foreignKey:RunNumber;references:RunNumber;constraint:OnDelete:RESTRICT"`
}

func (Run) TableName() string {
	return "run"
}
