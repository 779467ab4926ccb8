package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvrepair/internal/core"
	"github.com/JonMunkholm/csvrepair/internal/history"
	"github.com/JonMunkholm/csvrepair/internal/web/templates"
)

// multipartOverhead is the allowance for boundaries and part headers on top
// of the file itself.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// previewLimit bounds the output shown on the result page.
const previewLimit = 64 << 10

// repairResponse is the JSON body of POST /api/repair.
type repairResponse struct {
	*core.Report
	Output string `json:"output"`
}

type scanResponse struct {
	Count       int               `json:"count"`
	RiskyFields []core.RiskyField `json:"riskyFields"`
}

type historyResponse struct {
	Count int           `json:"count"`
	Runs  []history.Run `json:"runs"`
}

type statusResponse struct {
	Limiter        core.LimiterStatus `json:"limiter"`
	History        string             `json:"history"`
	LineEnding     string             `json:"lineEnding"`
	TranscodeUTF16 bool               `json:"transcodeUtf16"`
	StripNulls     bool               `json:"stripNulls"`
	MaxInputSize   int64              `json:"maxInputSize"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(templates.Index(templates.IndexData{
		LineEnding:     s.cfg.Repair.LineEnding,
		TranscodeUTF16: s.cfg.Repair.TranscodeUTF16,
		MaxInputSize:   s.cfg.Repair.MaxInputSize,
		HistoryBackend: s.historyBackend,
	})).ServeHTTP(w, r)
}

// handleRepairForm repairs a file submitted from the upload form and
// renders the result page.
func (s *Server) handleRepairForm(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readInput(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	report, err := s.service.Repair(withRequestMeta(r.Context(), r), name, data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	preview, truncated := previewText(report.Output, previewLimit)
	w.Header().Set("X-Repair-ID", report.ID.String())
	templ.Handler(templates.Result(templates.ResultData{
		Report:    report,
		Preview:   preview,
		Truncated: truncated,
	})).ServeHTTP(w, r)
}

// handleRepair repairs a raw body or multipart "file" part. The response is
// the repaired CSV with metrics in headers, or a JSON report when the client
// accepts application/json.
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readInput(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	report, err := s.service.Repair(withRequestMeta(r.Context(), r), name, data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	h := w.Header()
	h.Set("X-Repair-ID", report.ID.String())
	h.Set("X-Detected-Encoding", report.Metrics.DetectedEncoding.String())
	h.Set("X-Original-Bytes", strconv.Itoa(report.Metrics.OriginalBytes))
	h.Set("X-Final-Bytes", strconv.Itoa(report.Metrics.FinalBytes))
	h.Set("X-Risky-Fields", strconv.Itoa(report.RiskyCount))

	if acceptsJSON(r) {
		writeJSON(w, repairResponse{Report: report, Output: string(report.Output)})
		return
	}

	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(report.Output)))
	if name != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Output)
}

// handleDetect reports the encoding of the input without repairing it.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readInput(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, s.service.Detect(data))
}

// handleScan repairs the input and lists its formula-injection fields.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	_, data, err := s.readInput(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	risky, err := s.service.Scan(r.Context(), data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, scanResponse{Count: len(risky), RiskyFields: risky})
}

// handleHistory lists recent repair runs. ?limit= is clamped by the service.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, historyResponse{Count: len(runs), Runs: runs})
}

// handleHistoryEntry returns one repair run.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.HistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, run)
}

// handleStatus returns the limiter state and active repair settings.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{
		Limiter:        s.service.LimiterStatus(),
		History:        s.historyBackend,
		LineEnding:     s.cfg.Repair.LineEnding,
		TranscodeUTF16: s.cfg.Repair.TranscodeUTF16,
		StripNulls:     s.cfg.Repair.StripNulls,
		MaxInputSize:   s.cfg.Repair.MaxInputSize,
	})
}

// readInput returns the request's CSV bytes and an optional file name.
// Multipart requests must carry a "file" part; any other request body is
// taken as the raw CSV, named by the ?filename= query parameter.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Repair.MaxInputSize

	if !isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			if isTooLarge(err) {
				return "", nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
			}
			return "", nil, fmt.Errorf("read body: %w", err)
		}
		return r.URL.Query().Get("filename"), data, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return "", nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return "", nil, fmt.Errorf("%w: %v", core.ErrNoInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, core.ErrNoInput
	}
	defer file.Close()

	if header.Size > maxSize {
		return header.Filename, nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, header.Size, maxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return header.Filename, nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// isTooLarge reports whether err came from http.MaxBytesReader. Multipart
// parsing does not always wrap the underlying error, so the text is checked
// as well.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// previewText returns at most limit bytes of b without splitting a rune.
func previewText(b []byte, limit int) (string, bool) {
	if len(b) <= limit {
		return string(b), false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]), true
}
