package httpapi

import (
	"net/http"
	"strconv"

	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/errs"
	"jiskefet/internal/usecase/logbook"
)

type createLogRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Subtype string `json:"subtype"`
	Origin  string `json:"origin"`
	Author  string `json:"author"`
}

type linkRunRequest struct {
	RunNumber int64 `json:"runNumber"`
}

// handleCreateLog does not go through fail: the log service already records
// its own diagnostic note when the store rejects the entry.
func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	entry, err := s.services.Logs.Create(r.Context(), logbook.CreateLogInput{
		Title:   req.Title,
		Body:    req.Body,
		Subtype: req.Subtype,
		Origin:  req.Origin,
		Author:  req.Author,
	})
	if err != nil {
		writeFailure(w, err, nil)
		return
	}
	writeData(w, http.StatusCreated, toLogResponse(entry), nil)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, err := intQuery(r, "pageSize")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pageNumber, err := intQuery(r, "pageNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var runNumber int64
	if raw := query.Get("runNumber"); raw != "" {
		runNumber, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(w, r, errs.Validationf("runNumber must be an integer, got %q", raw))
			return
		}
	}

	entries, total, err := s.services.Logs.FindAll(r.Context(), logbook.ListLogsInput{
		PageSize:       pageSize,
		PageNumber:     pageNumber,
		OrderBy:        query.Get("orderBy"),
		OrderDirection: query.Get("orderDirection"),
		Subtype:        query.Get("subtype"),
		Origin:         query.Get("origin"),
		Title:          query.Get("title"),
		RunNumber:      runNumber,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := domainlogbook.NormalizePage(pageSize, pageNumber)
	writeData(w, http.StatusOK, toLogResponses(entries), pageMeta(total, page.Size, page.Number))
}

func (s *Server) handleFindLog(w http.ResponseWriter, r *http.Request) {
	logID, err := uint64Param(r, "logID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	detail, err := s.services.Logs.FindByID(r.Context(), logID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, logDetailResponse{
		logResponse:     toLogResponse(detail.Log),
		Runs:            toRunResponses(detail.Runs),
		AttachmentCount: detail.AttachmentCount,
	}, nil)
}

func (s *Server) handleLinkRun(w http.ResponseWriter, r *http.Request) {
	logID, err := uint64Param(r, "logID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req linkRunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.services.LogRuns.LinkRunToLog(r.Context(), logID, req.RunNumber); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"logId": logID, "runNumber": req.RunNumber}, nil)
}

func (s *Server) handleRunsByLog(w http.ResponseWriter, r *http.Request) {
	logID, err := uint64Param(r, "logID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	runs, err := s.services.LogRuns.FindRunsByLog(r.Context(), logID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toRunResponses(runs), nil)
}
