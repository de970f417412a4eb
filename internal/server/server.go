package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goodloop/leads/internal/metrics"
	"github.com/goodloop/leads/internal/service"
)

// Submitter runs the lead-capture flow for one parsed submission.
type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) (*service.Result, error)
}

// Server is the HTTP layer over the submission flow
type Server struct {
	leads Submitter
	log   *logrus.Logger
}

// New creates the HTTP server layer
func New(leads Submitter, log *logrus.Logger) *Server {
	return &Server{leads: leads, log: log}
}

// leadRequest is the inbound JSON body
type leadRequest struct {
	Email    string          `json:"email"`
	School   string          `json:"school"`
	Role     string          `json:"role"`
	Answers  json.RawMessage `json:"answers"`
	Honeypot string          `json:"honeypot"`
}

// Handler returns the handler for the leads endpoint
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleLeads)
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := "success"
	defer func() {
		metrics.RecordSubmitDuration(outcome, time.Since(start).Seconds())
	}()

	reqLog := s.log.WithFields(logrus.Fields{
		"request_id": uuid.New().String(),
		"remote":     clientIP(r),
	})

	if r.Method != http.MethodPost {
		outcome = "failed"
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
		return
	}

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Matches the uncaught-fault contract: a body that cannot be
		// parsed surfaces as server_error with a diagnostic detail.
		outcome = "failed"
		fe := service.InternalErr(err)
		reqLog.WithError(err).Error("failed to decode submission body")
		writeError(w, fe)
		return
	}

	sub := service.Submission{
		Email:     req.Email,
		School:    req.School,
		Role:      req.Role,
		Answers:   req.Answers,
		Honeypot:  req.Honeypot,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}

	result, err := s.leads.Submit(r.Context(), sub)
	if err != nil {
		outcome = "failed"
		var fe *service.Error
		if !errors.As(err, &fe) {
			fe = service.InternalErr(err)
		}
		reqLog.WithFields(logrus.Fields{
			"status": fe.Status,
			"code":   fe.Code,
		}).Warn("submission rejected")
		writeError(w, fe)
		return
	}

	if result.Trapped {
		reqLog.Debug("honeypot trap, responding success")
	} else {
		reqLog.WithFields(logrus.Fields{
			"reused":   result.Reused,
			"duration": time.Since(start),
		}).Info("coupon issued")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeError(w http.ResponseWriter, e *service.Error) {
	body := map[string]string{"error": e.Code}
	if e.Detail != "" {
		body["detail"] = e.Detail
	}
	writeJSON(w, e.Status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
