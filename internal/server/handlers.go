package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sms-otp-authenticator/internal/authenticator"
	"sms-otp-authenticator/internal/mfa"
	"sms-otp-authenticator/internal/mfa/domain"
)

const maxBodyBytes = 64 << 10

const errKeyBadRequest = "invalidRequest"

type handlers struct {
	deps     Deps
	validate *requestValidator
}

type evaluateRequest struct {
	UserID     string            `json:"user_id"`
	Attributes map[string]string `json:"attributes"`
}

type evaluateResponse struct {
	Decision string `json:"decision"`
}

type challengeRequest struct {
	SessionID  string            `json:"session_id" validate:"required"`
	UserID     string            `json:"user_id"`
	Attributes map[string]string `json:"attributes"`
}

type challengeResponse struct {
	Template string `json:"template"`
	Phone    string `json:"phone"`
}

type submitRequest struct {
	SessionID   string  `json:"session_id" validate:"required"`
	UserID      string  `json:"user_id"`
	Code        *string `json:"code"`
	Requirement string  `json:"requirement" validate:"required"`
}

type submitResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

type phoneRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type devOTPResponse struct {
	Phone  string `json:"phone"`
	Text   string `json:"text"`
	SentAt string `json:"sent_at"`
}

func (h *handlers) evaluateFactor(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !h.decode(w, r, &req) {
		return
	}
	attrs, ok := h.attributes(w, r, req.UserID, req.Attributes)
	if !ok {
		return
	}
	decision, err := h.deps.Auth.OnFactorEvaluate(r.Context(), req.UserID, attrs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: authenticator.ErrKeyInternal, Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Decision: decision.String()})
}

func (h *handlers) requestChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if !h.decode(w, r, &req) {
		return
	}
	attrs, ok := h.attributes(w, r, req.UserID, req.Attributes)
	if !ok {
		return
	}
	result, err := h.deps.Auth.OnChallengeRequested(r.Context(), req.SessionID, req.UserID, attrs)
	if err != nil {
		log.Printf("server: challenge for session %s: %v", req.SessionID, err)
	}
	if result.Failure != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: result.Failure.ErrorKey, Detail: result.Failure.Detail})
		return
	}
	if result.Render == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: authenticator.ErrKeyInternal})
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse{Template: result.Render.Template, Phone: result.Render.MaskedPhone})
}

func (h *handlers) submitChallenge(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	requirement, ok := domain.ParseRequirement(req.Requirement)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  errKeyBadRequest,
			Fields: map[string]string{"requirement": "requirement must be one of REQUIRED, ALTERNATIVE, CONDITIONAL, DISABLED"},
		})
		return
	}
	decision, err := h.deps.Auth.OnSubmission(r.Context(), req.SessionID, req.UserID, req.Code, requirement)
	if err != nil {
		log.Printf("server: submission for session %s: %v", req.SessionID, err)
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Decision: decision.Action.String(),
		Reason:   string(decision.Reason),
		Error:    authenticator.ErrorKey(decision),
	})
}

func (h *handlers) updatePhone(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req phoneRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.deps.Phone.UpdatePhone(r.Context(), userID, req.Phone)
	switch {
	case errors.Is(err, authenticator.ErrInvalidPhone):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: authenticator.ErrKeyPhoneInvalid})
	case err != nil:
		log.Printf("server: update phone for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: authenticator.ErrKeyInternal})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) configSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mfa.Schema)
}

func (h *handlers) devOTP(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errKeyBadRequest, Fields: map[string]string{"phone": "phone is a required field"}})
		return
	}
	msg, ok := h.deps.DevOTP.Latest(r.Context(), phone)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "notFound"})
		return
	}
	writeJSON(w, http.StatusOK, devOTPResponse{Phone: msg.Phone, Text: msg.Text, SentAt: msg.SentAt.UTC().Format(time.RFC3339)})
}

// attributes returns the inline attributes, or loads them for userID when none were sent.
func (h *handlers) attributes(w http.ResponseWriter, r *http.Request, userID string, inline map[string]string) (authenticator.Attributes, bool) {
	if inline != nil {
		return authenticator.Attributes(inline), true
	}
	if userID == "" || h.deps.Users == nil {
		return authenticator.Attributes{}, true
	}
	attrs, err := h.deps.Users.Attributes(r.Context(), userID)
	if err != nil {
		log.Printf("server: load attributes for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: authenticator.ErrKeyInternal})
		return nil, false
	}
	return authenticator.Attributes(attrs), true
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errKeyBadRequest, Detail: "malformed JSON body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: errKeyBadRequest, Fields: fe})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errKeyBadRequest, Detail: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}
