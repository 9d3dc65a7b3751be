package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"subtrans/internal/config"
	"subtrans/internal/language"
	"subtrans/internal/logging"
	"subtrans/internal/services"
	"subtrans/internal/stats"
	"subtrans/internal/subtitle"
	"subtrans/internal/translate"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	limiter *sessionLimiter

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("api server requires config and daemon")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("server.bind must be set")
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		limiter: newSessionLimiter(cfg.Server.SessionFileLimit, time.Hour),
	}

	token := strings.TrimSpace(cfg.Server.APIToken)
	mux.HandleFunc("/api/translate", authMiddleware(token, srv.handleTranslate))
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/languages", authMiddleware(token, srv.handleLanguages))
	mux.HandleFunc("/api/stats", authMiddleware(token, srv.handleStats))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleTranslate accepts a multipart upload (file, target_lang, speed_mode)
// and responds with the translated subtitle as an attachment. Job statistics
// travel in X-Total-Blocks, X-Retry-Count, and X-Failed-Chunks headers so the
// body stays a plain .srt.
func (s *apiServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session := sessionKey(r)
	if !s.limiter.allow(session) {
		s.writeError(w, http.StatusTooManyRequests, "session file limit reached, try again later")
		return
	}

	maxBytes := s.daemon.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+4096)
	if err := r.ParseMultipartForm(maxBytes + 4096); err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".srt") {
		s.writeError(w, http.StatusBadRequest, "only .srt files are accepted")
		return
	}

	mode, err := translate.ParseMode(r.FormValue("speed_mode"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "speed_mode must be mock, fast, or normal")
		return
	}
	targetLanguage := r.FormValue("target_lang")

	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}
	if int64(len(raw)) > maxBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge,
			"file exceeds the size limit of "+strconv.FormatInt(maxBytes, 10)+" bytes")
		return
	}

	requestID := uuid.NewString()
	ctx := services.WithRequestID(r.Context(), requestID)
	ctx = services.WithFilename(ctx, filename)
	logger := logging.WithContext(ctx, s.log())

	started := time.Now()
	pipeline := s.daemon.NewPipeline(s.logger)
	output, jobStats, err := pipeline.Run(ctx, raw, targetLanguage, mode)
	elapsed := time.Since(started)

	record := stats.Record{
		ID:             requestID,
		Filename:       filename,
		TargetLanguage: targetLanguage,
		Mode:           string(mode),
		TotalBlocks:    jobStats.TotalBlocks,
		TotalChunks:    jobStats.TotalChunks,
		RetryCount:     jobStats.RetryCount,
		FailedChunks:   jobStats.FailedChunks,
		DurationMS:     elapsed.Milliseconds(),
	}
	if err != nil {
		record.Status = stats.StatusFailed
		record.ErrorMessage = err.Error()
	}
	if _, storeErr := s.daemon.store.Add(ctx, record); storeErr != nil {
		logger.Warn("failed to record statistics", logging.Error(storeErr))
	}

	if err != nil {
		logger.Warn("translation request failed",
			logging.Duration("elapsed", elapsed),
			logging.Error(err))
		s.writeError(w, statusForError(err), err.Error())
		return
	}

	logger.Info("translation request finished",
		logging.Int("blocks", jobStats.TotalBlocks),
		logging.Int("retries", jobStats.RetryCount),
		logging.Int("failed_chunks", jobStats.FailedChunks),
		logging.Duration("elapsed", elapsed))

	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+translatedFilename(filename, targetLanguage)+`"`)
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Total-Blocks", strconv.Itoa(jobStats.TotalBlocks))
	w.Header().Set("X-Retry-Count", strconv.Itoa(jobStats.RetryCount))
	w.Header().Set("X-Failed-Chunks", strconv.Itoa(jobStats.FailedChunks))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output); err != nil {
		logger.Warn("failed to write response body", logging.Error(err))
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, statusResponse{
		Running:         status.Running,
		PID:             status.PID,
		Bind:            status.Bind,
		StatsDBPath:     status.StatsDBPath,
		LockFilePath:    status.LockFilePath,
		TargetLanguages: status.TargetLanguages,
	})
}

func (s *apiServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	configured := s.daemon.cfg.Translation.TargetLanguages
	languages := make([]languageEntry, 0, len(configured))
	for _, name := range configured {
		display, ok := language.Resolve(name)
		if !ok {
			display = name
		}
		languages = append(languages, languageEntry{
			Name: display,
			Code: language.ToISO2(display),
		})
	}
	s.writeJSON(w, http.StatusOK, languagesResponse{Languages: languages})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summary, err := s.daemon.store.Totals(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recent, err := s.daemon.store.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	records := make([]recordEntry, 0, len(recent))
	for _, record := range recent {
		records = append(records, recordEntry{
			ID:             record.ID,
			Filename:       record.Filename,
			TargetLanguage: record.TargetLanguage,
			Mode:           record.Mode,
			TotalBlocks:    record.TotalBlocks,
			TotalChunks:    record.TotalChunks,
			RetryCount:     record.RetryCount,
			FailedChunks:   record.FailedChunks,
			DurationMS:     record.DurationMS,
			Status:         record.Status,
			Error:          record.ErrorMessage,
			CreatedAt:      record.CreatedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, statsResponse{
		Totals: summaryEntry{
			TotalRequests:     summary.TotalRequests,
			CompletedRequests: summary.CompletedRequests,
			FailedRequests:    summary.FailedRequests,
			TotalBlocks:       summary.TotalBlocks,
			TotalRetries:      summary.TotalRetries,
			TotalFailedChunks: summary.TotalFailedChunks,
		},
		Recent: records,
	})
}

// statusForError maps the sentinel classification onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrConfiguration), errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrContextDetection), errors.Is(err, services.ErrChunkTranslation):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func translatedFilename(original, targetLanguage string) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	suffix := language.ToISO2(targetLanguage)
	if suffix == "" {
		suffix = "translated"
	}
	return base + "." + suffix + ".srt"
}

func subtitleLimits(cfg *config.Config) subtitle.Limits {
	return subtitle.Limits{
		MaxBytes:  cfg.Server.MaxUploadBytes,
		MaxBlocks: cfg.Translation.MaxBlocks,
	}
}

func sessionKey(r *http.Request) string {
	if session := strings.TrimSpace(r.Header.Get("X-Session-ID")); session != "" {
		return session
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
