package cli

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rentwatch/ractl/pkg/audit"
	"github.com/rentwatch/ractl/pkg/data"
)

// createAuditRequest is the inbound payload for POST /audit, validated
// once at this boundary.
type createAuditRequest struct {
	Tier            string `json:"tier" validate:"required"`
	PropertyAddress string `json:"property_address" validate:"required"`
	LandlordName    string `json:"landlord_name" validate:"required"`
}

// submitRequest is the inbound payload for POST /audit/{token}/submit.
type submitRequest struct {
	Answers []audit.AnswerRecord `json:"answers" validate:"min=1,dive"`
}

type errorResponse struct {
	Error           string   `json:"error"`
	UnknownIDs      []string `json:"unknown_ids,omitempty"`
	WrongTierIDs    []string `json:"wrong_tier_ids,omitempty"`
	InvalidValueIDs []string `json:"invalid_value_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeValidationError itemizes the offending question ids so a client
// can highlight every problem field in one round trip.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var unknown *audit.UnknownQuestionError
	if errors.As(err, &unknown) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      unknown.Error(),
			UnknownIDs: unknown.IDs,
		})
		return true
	}

	var mismatch *audit.TierMismatchError
	if errors.As(err, &mismatch) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:        mismatch.Error(),
			WrongTierIDs: mismatch.IDs,
		})
		return true
	}

	var invalid *audit.InvalidAnswerValueError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:           invalid.Error(),
			InvalidValueIDs: invalid.IDs,
		})
		return true
	}
	return false
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func questionsHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier := r.URL.Query().Get("tier")
		if !data.Contains(audit.Tiers, tier) {
			writeError(w, http.StatusBadRequest, "unknown or missing tier")
			return
		}

		list, err := data.ListQuestions(r.Context(), cfg.DB, tier)
		if err != nil {
			slog.Error("error listing questions", "tier", tier, "error", err)
			writeError(w, http.StatusInternalServerError, "error listing questions")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createAuditHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAuditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !data.Contains(audit.Tiers, req.Tier) {
			writeError(w, http.StatusBadRequest, "unknown tier: "+req.Tier)
			return
		}

		a, err := data.CreateAudit(r.Context(), cfg.DB, req.Tier, req.PropertyAddress, req.LandlordName)
		if err != nil {
			slog.Error("error creating audit", "error", err)
			writeError(w, http.StatusInternalServerError, "error creating audit")
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func auditHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := data.GetAudit(r.Context(), cfg.DB, r.PathValue("token"))
		if errors.Is(err, data.ErrAuditNotFound) {
			writeError(w, http.StatusNotFound, "audit not found")
			return
		}
		if err != nil {
			slog.Error("error loading audit", "error", err)
			writeError(w, http.StatusInternalServerError, "error loading audit")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func submitHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.PathValue("token")

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := runSubmission(r.Context(), cfg, token, req.Answers)
		if errors.Is(err, data.ErrAuditNotFound) {
			writeError(w, http.StatusNotFound, "audit not found")
			return
		}
		if err != nil {
			if writeValidationError(w, err) {
				return
			}
			slog.Error("error scoring submission", "token", token, "error", err)
			writeError(w, http.StatusInternalServerError, "error scoring submission")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func resultHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.PathValue("token")

		result, err := data.GetResult(r.Context(), cfg.DB, token)
		if errors.Is(err, data.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		if err != nil {
			slog.Error("error loading result", "token", token, "error", err)
			writeError(w, http.StatusInternalServerError, "error loading result")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
