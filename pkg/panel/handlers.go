package panel

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/adminpanel/pkg/compress"
	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/swr"
	"github.com/matzehuels/adminpanel/pkg/track"
)

// queryResponse mirrors a query's state: data plus error and loading flags.
type queryResponse[T any] struct {
	Data          T          `json:"data"`
	Error         string     `json:"error,omitempty"`
	IsLoading     bool       `json:"isLoading"`
	LastFetchedAt *time.Time `json:"lastFetchedAt,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleContentStats(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.hooks.ContentStats(r.Context()))
}

func (s *Server) handleDisplayCards(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.hooks.AvailableDisplayCards(r.Context()))
}

func (s *Server) handlePWAStats(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.hooks.PWAStats(r.Context()))
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}
	q, err := s.hooks.Media(r.Context(), r.URL.Query().Get("type"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	serveQuery(s, w, r, q)
}

// serveQuery loads q and writes its state. ?refresh=1 forces a refetch
// first. Stale data with an error is still a 200; an error with no data
// maps to the error's status.
func serveQuery[T any](s *Server, w http.ResponseWriter, r *http.Request, q *swr.Query[T]) {
	defer q.Close()
	ctx := r.Context()

	if r.URL.Query().Get("refresh") == "1" {
		_ = q.Refetch(ctx)
	}
	st, _ := q.Load(ctx)

	resp := queryResponse[T]{Data: st.Data, IsLoading: st.IsLoading}
	if !st.LastFetchedAt.IsZero() {
		at := st.LastFetchedAt.UTC()
		resp.LastFetchedAt = &at
	}
	status := http.StatusOK
	if st.Err != nil {
		resp.Error = apperrors.UserMessage(st.Err)
		if !st.HasData {
			status = apperrors.HTTPStatus(st.Err)
		}
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid broadcast payload"))
		return
	}
	res, err := s.hooks.BroadcastPush(r.Context(), payload)
	if err != nil {
		s.logger.Warn("push broadcast failed", "error", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var ev track.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&ev); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid tracking event"))
		return
	}
	if err := apperrors.ValidateCategory(ev.Category); err != nil {
		s.writeError(w, err)
		return
	}
	s.tracker.Mount(r.Context(), ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read upload"))
		return
	}
	if len(data) == 0 {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "empty upload"))
		return
	}

	out := compress.Compress(r.Context(), data, s.compress)

	w.Header().Set("Content-Type", http.DetectContentType(out))
	w.Header().Set("X-Original-Size", strconv.Itoa(len(data)))
	w.Header().Set("X-Compressed-Size", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, apperrors.HTTPStatus(err), map[string]string{
		"error": apperrors.UserMessage(err),
		"code":  string(apperrors.GetCode(err)),
	})
}
