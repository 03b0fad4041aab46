package model

type Detector struct {
	DetectorID   int64  `gorm:"column:detector_id;primaryKey;autoIncrement:false"`
	DetectorName string `gorm:"column:detector_name;type:varchar(255);not null;uniqueIndex"`

	Runs []DetectorsInRun `gorm:"foreignKey:DetectorID;references:DetectorID;constraint:OnDelete:RESTRICT"`
}

func (Detector) TableName() string {
	return "detector"
}

type DetectorsInRun struct {
	RunNumber  int64  `gorm:"column:run_number;primaryKey;autoIncrement:false"`
	DetectorID int64  `gorm:"column:detector_id;primaryKey;autoIncrement:false"`
	RunQuality string `gorm:"column:run_quality;type:varchar(64);not null"`
}

func (DetectorsInRun) TableName() string {
	return "detectors_in_run"
}
