package gatewaystub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Server exposes a Service over the gateway HTTP contract.
type Server struct {
	*Service
	log logging.Logger
}

func NewServer(secret []byte, tokenValidity time.Duration, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	srv := &Server{log: log}
	srv.Service = NewService(secret, tokenValidity, func(kind, email, code string) {
		log.Info(context.Background(), "one-time code issued", "kind", kind, "email", email, "code", code)
	})
	return srv
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/signup", s.signup)
		r.Post("/verify-otp", s.verifyOTP)
		r.Post("/forgot-password", s.forgotPassword)
		r.Post("/reset-password", s.resetPassword)
		r.Post("/google", s.google)
		r.With(s.authenticate).Get("/me", s.me)
	})
	r.With(s.authenticate).Get("/memberships", s.memberships)

	return r
}

type authResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
	Token       string `json:"token"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	u, token, err := s.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{ID: u.ID, Email: u.Email, Name: u.Name, Token: token, Role: u.Role})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	err := s.Signup(r.Context(), models.SignupPayload{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "OTP sent to your email"})
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	u, token, err := s.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		s.fail(w, r, err, "No pending signup for this email")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{ID: u.ID, Email: u.Email, Name: u.Name, Token: token, Role: u.Role})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	if err := s.ForgotPassword(r.Context(), req.Email); err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset code sent to your email"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	if err := s.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully"})
}

func (s *Server) google(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	u, token, err := s.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid Google credential"})
			return
		}
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{ID: u.ID, Email: u.Email, Name: u.Name, Token: token, Role: u.Role})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value(ctxKey{}).(*User)
	writeJSON(w, http.StatusOK, models.UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

func (s *Server) memberships(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value(ctxKey{}).(*User)
	writeJSON(w, http.StatusOK, s.Memberships(r.Context(), u.ID))
}

// authenticate resolves the bearer token and stores the user in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, found := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), "Bearer ")
		if !found || token == "" {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "No token provided"})
			return
		}

		u, err := s.Authenticate(r.Context(), token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				msg = "Token expired"
			}
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: msg})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

// fail maps service errors to the gateway's status codes and messages.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, detail string) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, ErrMissingFields):
		status, msg = http.StatusBadRequest, "All fields are required"
	case errors.Is(err, ErrPasswordTooShort):
		status, msg = http.StatusUnprocessableEntity, "Password must be at least 6 characters"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, msg = http.StatusConflict, "User already exists"
	case errors.Is(err, common.ErrorInvalidOTP):
		status, msg = http.StatusBadRequest, "Invalid or expired OTP"
	case errors.Is(err, common.ErrorInvalidCredentials):
		status, msg = http.StatusUnauthorized, detail
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, detail
	default:
		s.log.Error(r.Context(), "gateway stub failure", "path", r.URL.Path, "error", err)
		status, msg = http.StatusInternalServerError, "Server error"
	}
	writeJSON(w, status, messageResponse{Message: msg})
}

func decode(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
