package httpapi

import (
	"net/http"
	"time"

	domainlogbook "jiskefet/internal/domain/logbook"
	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

type createRunRequest struct {
	RunNumber         int64     `json:"runNumber"`
	TimeO2Start       time.Time `json:"timeO2Start"`
	TimeTrgStart      time.Time `json:"timeTrgStart"`
	ActivityID        string    `json:"activityId"`
	RunType           string    `json:"runType"`
	RunQuality        string    `json:"runQuality"`
	NumberOfDetectors int64     `json:"nDetectors"`
	NumberOfEpns      int64     `json:"nEpns"`
}

type endRunRequest struct {
	TimeO2End  time.Time `json:"timeO2End"`
	TimeTrgEnd time.Time `json:"timeTrgEnd"`
	RunQuality string    `json:"runQuality"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	run, err := s.services.Runs.CreateRun(r.Context(), logbook.CreateRunInput{
		RunNumber:         req.RunNumber,
		TimeO2Start:       req.TimeO2Start,
		TimeTrgStart:      req.TimeTrgStart,
		ActivityID:        req.ActivityID,
		RunType:           req.RunType,
		RunQuality:        req.RunQuality,
		NumberOfDetectors: req.NumberOfDetectors,
		NumberOfEpns:      req.NumberOfEpns,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toRunResponse(run), nil)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
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

	runs, total, err := s.services.Runs.ListRuns(r.Context(), logbook.ListRunsInput{
		PageSize:       pageSize,
		PageNumber:     pageNumber,
		OrderDirection: r.URL.Query().Get("orderDirection"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := domainlogbook.NormalizePage(pageSize, pageNumber)
	writeData(w, http.StatusOK, toRunResponses(runs), pageMeta(total, page.Size, page.Number))
}

func (s *Server) handleFindRun(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	detail, err := s.services.Runs.FindRun(r.Context(), runNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, runDetailResponse{
		runResponse:   toRunResponse(detail.Run),
		FlpRoles:      toFlpResponses(detail.FlpRoles),
		Detectors:     toDetectorInRunResponses(detail.Detectors),
		LastFlpReport: detail.LastFlpReport,
	}, nil)
}

func (s *Server) handleEndRun(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req endRunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	run, err := s.services.Runs.EndRun(r.Context(), runNumber, logbook.EndRunInput{
		TimeO2End:  req.TimeO2End,
		TimeTrgEnd: req.TimeTrgEnd,
		RunQuality: req.RunQuality,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toRunResponse(run), nil)
}

func (s *Server) handleLogsByRun(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	entries, err := s.services.LogRuns.FindLogsByRun(r.Context(), runNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toLogResponses(entries), nil)
}

func (s *Server) handleFlpsByRun(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	roles, err := s.services.Flps.ListByRun(r.Context(), runNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toFlpResponses(roles), nil)
}

func (s *Server) handleDetectorsByRun(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	links, err := s.services.Detectors.FindByRun(r.Context(), runNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDetectorInRunResponses(links), nil)
}

type linkDetectorRequest struct {
	RunQuality string `json:"runQuality"`
}

func (s *Server) handleLinkDetector(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detectorID, err := int64Param(r, "detectorID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req linkDetectorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	link, err := s.services.Detectors.Link(r.Context(), runNumber, detectorID, req.RunQuality)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDetectorInRunResponses([]ports.DetectorInRun{link})[0], nil)
}

type registerDetectorRequest struct {
	DetectorID   int64  `json:"detectorId"`
	DetectorName string `json:"detectorName"`
}

func (s *Server) handleListDetectors(w http.ResponseWriter, r *http.Request) {
	detectors, err := s.services.Registry.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDetectorResponses(detectors), map[string]any{
		"runQualities": s.services.Detectors.Qualities(),
	})
}

func (s *Server) handleRegisterDetector(w http.ResponseWriter, r *http.Request) {
	var req registerDetectorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	detector := ports.Detector{DetectorID: req.DetectorID, DetectorName: req.DetectorName}
	if err := s.services.Registry.Register(r.Context(), detector); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toDetectorResponses([]ports.Detector{detector})[0], nil)
}
