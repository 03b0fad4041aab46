package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jiskefet/internal/usecase/logbook"
)

type createFlpRequest struct {
	FlpName     string `json:"flpName"`
	FlpHostname string `json:"flpHostname"`
	RunNumber   int64  `json:"runNumber"`
}

type patchFlpRequest struct {
	BytesReadOut          *int64 `json:"bytesReadOut"`
	NumberOfSubtimeframes *int64 `json:"nSubtimeframes"`
	NumberOfTimeframes    *int64 `json:"nTimeframes"`
}

func (s *Server) handleCreateFlp(w http.ResponseWriter, r *http.Request) {
	var req createFlpRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	role, err := s.services.Flps.Create(r.Context(), logbook.CreateFlpInput{
		FlpName:   req.FlpName,
		Hostname:  req.FlpHostname,
		RunNumber: req.RunNumber,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toFlpResponse(role), nil)
}

func (s *Server) handleFindFlp(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	role, err := s.services.Flps.FindOne(r.Context(), chi.URLParam(r, "flpName"), runNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toFlpResponse(role), nil)
}

func (s *Server) handlePatchFlp(w http.ResponseWriter, r *http.Request) {
	runNumber, err := int64Param(r, "runNumber")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req patchFlpRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	role, err := s.services.Flps.Patch(r.Context(), chi.URLParam(r, "flpName"), runNumber, logbook.PatchFlpInput{
		BytesReadOut:          req.BytesReadOut,
		NumberOfSubtimeframes: req.NumberOfSubtimeframes,
		NumberOfTimeframes:    req.NumberOfTimeframes,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toFlpResponse(role), nil)
}
