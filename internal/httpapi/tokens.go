package httpapi

import (
	"net/http"

	"jiskefet/internal/usecase/logbook"
)

type issueTokenRequest struct {
	SubSystemID   uint64 `json:"subSystemId"`
	Description   string `json:"subSystemTokenDescription"`
	IsMember      bool   `json:"isMember"`
	EditEorReason bool   `json:"editEorReason"`
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	userID, err := uint64Param(r, "userID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	permissions, err := s.services.Tokens.FindTokensByUserID(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]permissionResponse, 0, len(permissions))
	for _, permission := range permissions {
		out = append(out, toPermissionResponse(permission))
	}
	writeData(w, http.StatusOK, out, nil)
}

// handleIssueToken only lets a user mint tokens for themselves.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	userID, err := uint64Param(r, "userID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if caller, ok := UserIDFromContext(r.Context()); !ok || caller != userID {
		writeError(w, http.StatusForbidden, "forbidden", "tokens can only be issued for the authenticated user", nil)
		return
	}
	var req issueTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	issued, err := s.services.Tokens.IssueToken(r.Context(), logbook.IssueTokenInput{
		UserID:        userID,
		SubSystemID:   req.SubSystemID,
		Description:   req.Description,
		IsMember:      req.IsMember,
		EditEorReason: req.EditEorReason,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, struct {
		permissionResponse
		Token string `json:"token"`
	}{
		permissionResponse: toPermissionResponse(issued.Permission),
		Token:              issued.PlainToken,
	}, nil)
}
