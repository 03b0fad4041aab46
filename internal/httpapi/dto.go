package httpapi

import (
	"time"

	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/ports"
)

type runResponse struct {
	RunNumber             int64      `json:"runNumber"`
	TimeO2Start           time.Time  `json:"timeO2Start"`
	TimeTrgStart          time.Time  `json:"timeTrgStart"`
	TimeO2End             *time.Time `json:"timeO2End"`
	TimeTrgEnd            *time.Time `json:"timeTrgEnd"`
	ActivityID            string     `json:"activityId"`
	RunType               string     `json:"runType"`
	RunQuality            string     `json:"runQuality"`
	NumberOfDetectors     int64      `json:"nDetectors"`
	NumberOfEpns          int64      `json:"nEpns"`
	NumberOfFlps          int64      `json:"nFlps"`
	BytesReadOut          int64      `json:"bytesReadOut"`
	NumberOfTimeframes    int64      `json:"nTimeframes"`
	NumberOfSubtimeframes int64      `json:"nSubtimeframes"`
}

func toRunResponse(run ports.Run) runResponse {
	return runResponse{
		RunNumber:             run.RunNumber,
		TimeO2Start:           run.TimeO2Start,
		TimeTrgStart:          run.TimeTrgStart,
		TimeO2End:             run.TimeO2End,
		TimeTrgEnd:            run.TimeTrgEnd,
		ActivityID:            run.ActivityID,
		RunType:               run.RunType,
		RunQuality:            run.RunQuality,
		NumberOfDetectors:     run.NumberOfDetectors,
		NumberOfEpns:          run.NumberOfEpns,
		NumberOfFlps:          run.NumberOfFlps,
		BytesReadOut:          run.BytesReadOut,
		NumberOfTimeframes:    run.NumberOfTimeframes,
		NumberOfSubtimeframes: run.NumberOfSubtimeframes,
	}
}

func toRunResponses(runs []ports.Run) []runResponse {
	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	return out
}

type runDetailResponse struct {
	runResponse
	FlpRoles      []flpResponse           `json:"flpRoles"`
	Detectors     []detectorInRunResponse `json:"detectors"`
	LastFlpReport string                  `json:"lastFlpReport,omitempty"`
}

type flpResponse struct {
	FlpName               string    `json:"flpName"`
	RunNumber             int64     `json:"runNumber"`
	FlpHostname           string    `json:"flpHostname"`
	BytesReadOut          int64     `json:"bytesReadOut"`
	NumberOfSubtimeframes int64     `json:"nSubtimeframes"`
	NumberOfTimeframes    int64     `json:"nTimeframes"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toFlpResponse(role ports.FlpRole) flpResponse {
	return flpResponse{
		FlpName:               role.FlpName,
		RunNumber:             role.RunNumber,
		FlpHostname:           role.FlpHostname,
		BytesReadOut:          role.Counters.BytesReadOut,
		NumberOfSubtimeframes: role.Counters.NumberOfSubtimeframes,
		NumberOfTimeframes:    role.Counters.NumberOfTimeframes,
		UpdatedAt:             role.UpdatedAt,
	}
}

func toFlpResponses(roles []ports.FlpRole) []flpResponse {
	out := make([]flpResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toFlpResponse(role))
	}
	return out
}

type detectorResponse struct {
	DetectorID   int64  `json:"detectorId"`
	DetectorName string `json:"detectorName"`
}

type detectorInRunResponse struct {
	RunNumber int64            `json:"runNumber"`
	Detector  detectorResponse `json:"detector"`
	Quality   string           `json:"runQuality"`
}

func toDetectorResponses(detectors []ports.Detector) []detectorResponse {
	out := make([]detectorResponse, 0, len(detectors))
	for _, detector := range detectors {
		out = append(out, detectorResponse{DetectorID: detector.DetectorID, DetectorName: detector.DetectorName})
	}
	return out
}

func toDetectorInRunResponses(links []ports.DetectorInRun) []detectorInRunResponse {
	out := make([]detectorInRunResponse, 0, len(links))
	for _, link := range links {
		out = append(out, detectorInRunResponse{
			RunNumber: link.RunNumber,
			Detector:  detectorResponse{DetectorID: link.Detector.DetectorID, DetectorName: link.Detector.DetectorName},
			Quality:   link.RunQuality,
		})
	}
	return out
}

type logResponse struct {
	LogID     uint64    `json:"logId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Subtype   string    `json:"subtype"`
	Origin    string    `json:"origin"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"creationTime"`
}

func toLogResponse(entry ports.Log) logResponse {
	return logResponse{
		LogID:     entry.LogID,
		Title:     entry.Title,
		Body:      entry.Body,
		Subtype:   entry.Subtype,
		Origin:    entry.Origin,
		Author:    entry.Author,
		CreatedAt: entry.CreatedAt,
	}
}

func toLogResponses(entries []ports.Log) []logResponse {
	out := make([]logResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toLogResponse(entry))
	}
	return out
}

type logDetailResponse struct {
	logResponse
	Runs            []runResponse `json:"runs"`
	AttachmentCount int64         `json:"attachmentCount"`
}

type attachmentResponse struct {
	AttachmentID uint64    `json:"fileId"`
	LogID        uint64    `json:"logId"`
	FileName     string    `json:"fileName"`
	FileMime     string    `json:"fileMime"`
	FileSize     int64     `json:"fileSize"`
	FileData     string    `json:"fileData"`
	CreatedAt    time.Time `json:"creationTime"`
}

func toAttachmentResponse(attachment ports.Attachment) attachmentResponse {
	return attachmentResponse{
		AttachmentID: attachment.AttachmentID,
		LogID:        attachment.LogID,
		FileName:     attachment.FileName,
		FileMime:     attachment.FileMime,
		FileSize:     attachment.FileSize,
		FileData:     domainlogbook.EncodeAttachmentPayload(attachment.FileData),
		CreatedAt:    attachment.CreatedAt,
	}
}

type permissionResponse struct {
	PermissionID  uint64    `json:"subSystemPermissionId"`
	UserID        uint64    `json:"userId"`
	SubSystemID   uint64    `json:"subSystemId"`
	SubSystemName string    `json:"subSystemName"`
	Description   string    `json:"subSystemTokenDescription"`
	IsMember      bool      `json:"isMember"`
	EditEorReason bool      `json:"editEorReason"`
	CreatedAt     time.Time `json:"creationTime"`
}

func toPermissionResponse(permission ports.SubSystemPermission) permissionResponse {
	return permissionResponse{
		PermissionID:  permission.PermissionID,
		UserID:        permission.UserID,
		SubSystemID:   permission.SubSystem.SubSystemID,
		SubSystemName: permission.SubSystem.Name,
		Description:   permission.TokenDescription,
		IsMember:      permission.IsMember,
		EditEorReason: permission.EditEorReason,
		CreatedAt:     permission.CreatedAt,
	}
}
