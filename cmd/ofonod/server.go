package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ofonogo/core/internal/metrics"
	"github.com/ofonogo/core/internal/modem"
)

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  *modem.Modem
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sms", s.handleSMS)
	mux.HandleFunc("POST /calls/dial", s.handleDial)
	mux.HandleFunc("POST /calls/answer", s.handleAnswer)
	mux.HandleFunc("POST /calls/hangup", s.handleHangup)
	mux.HandleFunc("GET /sim/status", s.handleSIMStatus)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

// handleSMS processes incoming HTTP POST requests to send SMS messages
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "", http.StatusMethodNotAllowed)
		return
	}

	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	if err := s.Modem.SendSMS(r.Context(), req.To, req.Message); err != nil {
		s.Logger.Error("Failed to send SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message))
	w.WriteHeader(http.StatusOK)
}

// handleDial processes incoming HTTP POST requests to place an outgoing call.
func (s *Server) handleDial(w http.ResponseWriter, r *http.Request) {
	type DialRequest struct {
		Number string `json:"number"`
	}

	var req DialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		s.sendError(w, "'number' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Modem.Dial(r.Context(), req.Number); err != nil {
		s.Logger.Error("Failed to dial", "error", err, "number", req.Number)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Call placed", "number", req.Number)
	w.WriteHeader(http.StatusOK)
}

// handleAnswer processes incoming HTTP POST requests to answer a ringing call.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := s.Modem.Answer(r.Context()); err != nil {
		s.Logger.Error("Failed to answer call", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleHangup processes incoming HTTP POST requests to end the active call.
func (s *Server) handleHangup(w http.ResponseWriter, r *http.Request) {
	if err := s.Modem.Hangup(r.Context()); err != nil {
		s.Logger.Error("Failed to hang up", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSIMStatus processes incoming HTTP GET requests for the current SIM
// card status, resolved through the UICC retry loop.
func (s *Server) handleSIMStatus(w http.ResponseWriter, r *http.Request) {
	c, err := s.Modem.SIMStatus(r.Context())
	if err != nil {
		s.Logger.Error("Failed to resolve SIM status", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type SIMStatusResponse struct {
		CardState   string `json:"card_state"`
		AppType     string `json:"app_type"`
		PasswdState string `json:"passwd_state"`
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SIMStatusResponse{
		CardState:   c.CardState.String(),
		AppType:     c.AppType.String(),
		PasswdState: c.PasswdState.String(),
	})
}
