package httpapi

import (
	"net/http"

	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/usecase/logbook"
)

type createAttachmentRequest struct {
	LogID    uint64 `json:"logId"`
	FileName string `json:"fileName"`
	FileMime string `json:"fileMime"`
	FileData string `json:"fileData"`
}

func (s *Server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	var req createAttachmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := domainlogbook.DecodeAttachmentPayload(req.FileData)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result := s.services.Attachments.Create(r.Context(), logbook.CreateAttachmentInput{
		LogID:    req.LogID,
		FileName: req.FileName,
		FileMime: req.FileMime,
		FileData: data,
	})
	switch result.Status {
	case logbook.AttachmentOK:
		writeData(w, http.StatusCreated, toAttachmentResponse(result.Attachment), nil)
	case logbook.AttachmentPartialFailure:
		writeFailure(w, result.Err, map[string]any{
			"status":            string(result.Status),
			"diagnosticWritten": result.DiagnosticWritten,
		})
	default:
		writeFailure(w, result.Err, map[string]any{"status": string(result.Status)})
	}
}

func (s *Server) handleAttachmentsByLog(w http.ResponseWriter, r *http.Request) {
	logID, err := uint64Param(r, "logID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items, err := s.services.Attachments.FindByLog(r.Context(), logID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]attachmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toAttachmentResponse(item))
	}
	writeData(w, http.StatusOK, out, nil)
}
