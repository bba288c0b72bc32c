// Package server exposes the extractor over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/extractor"
	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/textenc"
)

// DefaultMaxBodyBytes bounds request bodies when Server.MaxBodyBytes is unset.
const DefaultMaxBodyBytes int64 = 64 << 20

// Response is the JSON body of a successful POST /extract.
type Response struct {
	Text        string            `json:"text"`
	Metadata    map[string]string `json:"metadata"`
	Strategy    string            `json:"strategy"`
	Format      string            `json:"format"`
	ContentType string            `json:"content_type,omitempty"`
	Encoding    string            `json:"encoding,omitempty"`
}

// Server handles extraction requests. Extractors for query overrides of
// format and encoding are built on first use and shared afterwards.
type Server struct {
	base         extractor.Config
	maxBodyBytes int64
	version      string

	mu         sync.Mutex
	extractors map[string]*extractor.Extractor
}

// New validates base by building the default extractor.
func New(base extractor.Config, maxBodyBytes int64, version string) (*Server, error) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		base:         base,
		maxBodyBytes: maxBodyBytes,
		version:      version,
		extractors:   map[string]*extractor.Extractor{},
	}
	if _, err := s.extractorFor("", ""); err != nil {
		return nil, err
	}
	return s, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/extract", s.handleExtract)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// handleExtract runs one document. The Content-Type header declares the
// document type; application/octet-stream or no header means sniff. The
// optional name query parameter helps sniffing by extension. With raw=1
// the text is returned in the output encoding instead of JSON.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ext, err := s.extractorFor(q.Get("format"), q.Get("encoding"))
	if err != nil {
		writeError(w, err)
		return
	}

	req := extractor.Request{
		Body: http.MaxBytesReader(w, r.Body, s.maxBodyBytes),
		Name: q.Get("name"),
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !mediatype.Is(ct, mediatype.OctetStream) {
		req.ContentType = ct
	}
	res, err := ext.Extract(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	if q.Get("raw") == "1" {
		b, err := res.Bytes()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", rawContentType(res))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
		return
	}

	md := map[string]string{}
	for k, v := range res.Metadata {
		md[k] = v
	}
	writeJSON(w, http.StatusOK, Response{
		Text:        res.Text,
		Metadata:    md,
		Strategy:    string(res.Strategy),
		Format:      string(res.Format),
		ContentType: res.ContentType,
		Encoding:    res.Encoding,
	})
}

// extractorFor returns the extractor for the given query overrides, where
// empty values keep the base configuration. Names are canonicalized first
// so spelling variants share one extractor.
func (s *Server) extractorFor(format, encoding string) (*extractor.Extractor, error) {
	cfg := s.base
	if strings.TrimSpace(format) != "" {
		cfg.Format = format
	}
	f, err := extractor.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = string(f)
	// Main-content variants only take HTML. Each request's Content-Type
	// header still overrides this and is checked again.
	if f.IsMainVariant() && strings.TrimSpace(cfg.ContentType) == "" {
		cfg.ContentType = mediatype.HTML
	}
	if strings.TrimSpace(encoding) != "" {
		_, name, err := textenc.Lookup(encoding)
		if err != nil {
			return nil, &extractor.ConfigError{Field: "encoding", Value: encoding, Reason: "unknown output encoding"}
		}
		cfg.Encoding = name
	}
	key := cfg.Format + "|" + cfg.Encoding

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.extractors[key]; ok {
		return e, nil
	}
	e, err := extractor.New(cfg)
	if err != nil {
		return nil, err
	}
	s.extractors[key] = e
	return e, nil
}

func rawContentType(res *extractor.Result) string {
	ct := mediatype.Text
	switch res.Format {
	case extractor.FormatHTML:
		ct = mediatype.HTML
	case extractor.FormatXML:
		ct = mediatype.XHTML
	}
	return ct + "; charset=" + res.Encoding
}

// statusFor maps extraction errors onto HTTP statuses.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe), errors.Is(err, extractor.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, extractor.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, extractor.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= 500 {
		log.Error().Err(err).Msg("extract")
	} else {
		log.Debug().Err(err).Int("status", code).Msg("extract rejected")
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http")
	})
}
