package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/sparlo/reportd/internal/chat"
	"github.com/sparlo/reportd/internal/pdf"
	"github.com/sparlo/reportd/internal/render"
	"github.com/sparlo/reportd/internal/report"
	"github.com/sparlo/reportd/internal/share"
	"github.com/sparlo/reportd/internal/store"
)

// userHeader carries the authenticated caller's identity. Authentication
// itself happens upstream of this service.
const userHeader = "X-Sparlo-User"

const maxReportBody = 5 << 20

// ChatService is the slice of the chat package the server needs; nil
// disables the chat endpoint.
type ChatService interface {
	Reply(ctx context.Context, rep *report.Report, history []chat.Message, prompt string) (string, error)
}

type Server struct {
	router      chi.Router
	store       *store.Store
	shares      *share.Service
	chat        ChatService
	pdfRenderer pdf.Renderer
	limiter     *rate.Limiter
	log         *logrus.Logger
	tracer      trace.Tracer
}

// Config wires the server's collaborators. RequestsPerSecond of zero
// disables request limiting.
type Config struct {
	Store             *store.Store
	Shares            *share.Service
	Chat              ChatService
	PDFRenderer       pdf.Renderer
	RequestsPerSecond float64
	Log               *logrus.Logger
}

func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}
	s := &Server{
		router:      chi.NewRouter(),
		store:       cfg.Store,
		shares:      cfg.Shares,
		chat:        cfg.Chat,
		pdfRenderer: cfg.PDFRenderer,
		limiter:     limiter,
		log:         log,
		tracer:      otel.Tracer("reportd/httpapi"),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.requestLog)
	s.router.Use(s.traceRequest)
	s.router.Use(s.rateLimit)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Post("/api/reports", s.handleCreateReport)
	s.router.Get("/api/reports/{reportID}", s.handleGetReport)
	s.router.Get("/api/reports/{reportID}/html", s.handleGetReportHTML)
	s.router.Get("/api/reports/{reportID}/pdf", s.handleGetReportPDF)
	s.router.Post("/api/reports/{reportID}/share", s.handleCreateShare)
	s.router.Get("/api/reports/{reportID}/share", s.handleGetShare)
	s.router.Delete("/api/reports/{reportID}/share", s.handleRevokeShare)
	s.router.Post("/api/reports/{reportID}/chat", s.handleChat)

	s.router.Get("/shared/{token}", s.handleSharedView)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

func (s *Server) traceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeShareError maps the share package's error taxonomy onto the response.
func writeShareError(w http.ResponseWriter, err error) {
	var se *share.Error
	if errors.As(err, &se) {
		writeJSON(w, se.Status, map[string]any{"error": se.Message, "code": se.Code})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := strings.TrimSpace(r.Header.Get(userHeader))
	if user == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
		return "", false
	}
	return user, true
}

// loadReport fetches and normalizes a report for the caller; normalization
// happens here, once per fetch.
func (s *Server) loadReport(ctx context.Context, ownerID, reportID string) (*report.Report, error) {
	row, err := s.store.GetReport(ctx, ownerID, reportID)
	if err != nil {
		return nil, err
	}
	return report.Decode(row.Body)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := report.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "report body must be a JSON object")
		return
	}
	id := uuid.NewString()
	err = s.store.InsertReport(r.Context(), store.ReportRow{
		ReportID: id,
		OwnerID:  user,
		Title:    rep.Title,
		Body:     body,
	})
	if err != nil {
		s.log.WithError(err).Error("httpapi: insert report failed")
		writeError(w, http.StatusInternalServerError, "failed to store report")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"report_id": id})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	rep, err := s.loadReport(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report":            rep,
		"toc":               rep.TableOfContents(),
		"read_time_minutes": report.ReadTimeMinutes(rep),
	})
}

func (s *Server) handleGetReportHTML(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	rep, err := s.loadReport(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	doc, err := render.HTMLDocument(rep)
	if err != nil {
		s.log.WithError(err).Error("httpapi: render html failed")
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleGetReportPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if s.pdfRenderer == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf renderer unavailable")
		return
	}
	reportID := chi.URLParam(r, "reportID")
	rep, err := s.loadReport(r.Context(), user, reportID)
	if err != nil {
		s.writeReportError(w, err)
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "pdf.render")
	blob, err := s.pdfRenderer.Render(ctx, rep)
	if err != nil {
		span.End()
		s.log.WithError(err).WithField("report_id", reportID).Error("httpapi: render pdf failed")
		writeError(w, http.StatusInternalServerError, "failed to render pdf")
		return
	}
	span.AddEvent("report_exported")
	span.End()

	filename := sanitizeFilename(rep.Title)
	if filename == "report" {
		filename = sanitizeFilename(reportID)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	info, err := s.shares.GenerateShareLink(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		writeShareError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	info, err := s.shares.GetShareInfo(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		writeShareError(w, err)
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "report has no active share link")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if err := s.shares.RevokeShareLink(r.Context(), user, chi.URLParam(r, "reportID")); err != nil {
		writeShareError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
	Prompt   string         `json:"prompt"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat unavailable")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	rep, err := s.loadReport(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		s.writeReportError(w, err)
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "chat.reply")
	answer, err := s.chat.Reply(ctx, rep, req.Messages, req.Prompt)
	span.End()
	if err != nil {
		s.log.WithError(err).Error("httpapi: chat reply failed")
		writeError(w, http.StatusBadGateway, "chat completion failed")
		return
	}
	answerHTML, err := render.MarkdownToHTML(answer)
	if err != nil {
		answerHTML = ""
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"answer":      answer,
		"answer_html": answerHTML,
	})
}

func (s *Server) handleSharedView(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	row, err := s.store.GetSharedReport(r.Context(), token, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "share link is invalid or has expired")
			return
		}
		s.log.WithError(err).Error("httpapi: shared view lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	rep, err := report.Decode(row.Body)
	if err != nil {
		s.log.WithError(err).Error("httpapi: shared report decode failed")
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	doc, err := render.HTMLDocument(rep)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) writeReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not found")
	case store.IsSchemaError(err):
		s.log.WithError(err).Error("httpapi: database schema out of date")
		writeError(w, http.StatusInternalServerError, "service temporarily unavailable, contact support")
	default:
		s.log.WithError(err).Error("httpapi: report load failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func sanitizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "report"
	}
	v = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
	return v
}
