package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/tradeconsole/internal/console/flow"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type handlers struct {
	session Session
	flow    *flow.Controller
	log     logging.Logger
}

// eventRequest is the union of every field a dialog event may carry.
type eventRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
	Confirm     string `json:"confirmPassword"`
	Credential  string `json:"credential"`
	Tab         string `json:"tab"`
}

const maxEventBody = 64 << 10

type stateResponse struct {
	Flow    models.FlowState `json:"flow"`
	Session models.Session   `json:"session"`
	Error   string           `json:"error,omitempty"`
}

func (h *handlers) loginState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{Flow: h.flow.State(), Session: h.session.Snapshot()})
}

func (h *handlers) loginEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, stateResponse{Flow: h.flow.State(), Session: h.session.Snapshot(), Error: "invalid JSON body"})
		return
	}

	ctx := r.Context()
	event := chi.URLParam(r, "event")

	var err error
	switch event {
	case "open":
		h.flow.Open()
	case "login":
		err = h.flow.Login(ctx, req.Email, req.Password)
	case "signup":
		err = h.flow.Signup(ctx, req.Name, req.Email, req.Password)
	case "otp":
		err = h.flow.VerifyOTP(ctx, req.OTP)
	case "resend":
		err = h.flow.ResendOTP(ctx)
	case "back":
		err = h.flow.Back()
	case "forgot":
		err = h.flow.OpenForgotPassword(req.Email)
	case "forgot-submit":
		err = h.flow.ForgotPassword(ctx, req.Email)
	case "reset":
		err = h.flow.ResetPassword(ctx, req.OTP, req.NewPassword, req.Confirm)
	case "google":
		err = h.flow.GoogleLogin(ctx, req.Credential)
	case "google-error":
		err = h.flow.GoogleFailed()
	case "tab":
		err = h.flow.SelectTab(models.Tab(req.Tab))
	case "close":
		h.flow.Close()
	default:
		writeJSON(w, http.StatusNotFound, stateResponse{Flow: h.flow.State(), Session: h.session.Snapshot(), Error: "unknown event"})
		return
	}

	resp := stateResponse{Flow: h.flow.State(), Session: h.session.Snapshot()}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = resp.Flow.Error
		if resp.Error == "" {
			resp.Error = err.Error()
		}
		h.log.Debug(ctx, "dialog event rejected", "event", event, "status", status, "request_id", middleware.GetReqID(ctx), "error", err)
	}
	writeJSON(w, status, resp)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) placeholder(w http.ResponseWriter, r *http.Request) {
	title := viewTitle(r.URL.Path)
	if plan := chi.URLParam(r, "planName"); plan != "" {
		title += ": " + plan
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>%[1]s</title></head><body><h1>%[1]s</h1></body></html>`, html.EscapeString(title))
}

func statusFor(err error) int {
	var vErr *flow.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, flow.ErrBusy), errors.Is(err, flow.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, flow.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrNotAdmin):
		return http.StatusForbidden
	}
	return http.StatusUnprocessableEntity
}

// viewTitle turns "/admin/all-daily-calls" into "All Daily Calls".
func viewTitle(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 {
		return "Admin"
	}
	words := strings.Split(segs[1], "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
