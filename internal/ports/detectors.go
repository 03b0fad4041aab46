package ports

import "context"

type Detector struct {
	DetectorID   int64
	DetectorName string
}

type DetectorInRun struct {
	RunNumber  int64
	Detector   Detector
	RunQuality string
}

type DetectorRepository interface {
	CreateDetector(ctx context.Context, detector Detector) error
	GetDetector(ctx context.Context, detectorID int64) (Detector, error)
	FindDetectorByName(ctx context.Context, name string) (Detector, bool, error)
	ListDetectors(ctx context.Context) ([]Detector, error)
	// UpsertDetectorInRun inserts the pair or overwrites its run_quality.
	UpsertDetectorInRun(ctx context.Context, runNumber int64, detectorID int64, quality string) error
	ListDetectorsInRun(ctx context.Context, runNumber int64) ([]DetectorInRun, error)
}
