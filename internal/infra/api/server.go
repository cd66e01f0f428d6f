// File: internal/infra/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
	"interview-ai-simulator/internal/infra/logging"
	red "interview-ai-simulator/internal/infra/redis"
	"interview-ai-simulator/internal/usecase"
)

// Limiter throttles chat messages per owner. Satisfied by redis.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	sessions   usecase.SessionUseCase
	interviews usecase.InterviewUseCase
	auth       *AuthManager
	limiter    Limiter // nil disables rate limiting
	msgLimit   int
	log        *zerolog.Logger
}

func NewServer(
	sessions usecase.SessionUseCase,
	interviews usecase.InterviewUseCase,
	auth *AuthManager,
	limiter Limiter,
	msgLimit int,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "api").Logger()
	return &Server{
		sessions:   sessions,
		interviews: interviews,
		auth:       auth,
		limiter:    limiter,
		msgLimit:   msgLimit,
		log:        &l,
	}
}

// Register mounts the session lifecycle routes on the provided router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/session/start", s.handleStart)
			r.Post("/session/chat", s.handleChat)
			r.Post("/session/join", s.handleJoin)
			r.Post("/session/end", s.handleEnd)
			r.Get("/interviews", s.handleListInterviews)
			r.Get("/interviews/{id}", s.handleGetInterview)
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

type ctxKey string

const ctxOwnerID ctxKey = "owner_id"

func ownerFromCtx(ctx context.Context) string {
	if v := ctx.Value(ctxOwnerID); v != nil {
		return v.(string)
	}
	return ""
}

// requireAuth verifies the JWT (bearer header or cookie) and stashes the
// owner id in the request context. The token itself is minted by the
// external auth service; this is only the verification boundary.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxOwnerID, claims.OwnerID())
		ctx = logging.WithOwnerID(ctx, claims.OwnerID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ---- handlers ----

type startRequest struct {
	Role         string `json:"role"`
	Level        int    `json:"level"`
	Instructions string `json:"instructions"`
}

type startResponse struct {
	SessionID       string `json:"sessionId"`
	InitialQuestion string `json:"initialQuestion"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.sessions.Start(r.Context(), ownerFromCtx(r.Context()), req.Role, req.Level, req.Instructions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{SessionID: res.SessionID, InitialQuestion: res.InitialQuestion})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ctx = logging.WithSessID(ctx, req.SessionID)

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.OwnerMessageKey(ownerFromCtx(ctx)), s.msgLimit, time.Minute)
		if err != nil {
			// limiter outage should not take the chat down
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			s.writeError(w, r, domain.ErrRateLimitExceeded)
			return
		}
	}

	reply, err := s.sessions.SendMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		// the live entry is gone: session timed out or never started
		if errors.Is(err, domain.ErrSessionExpired) {
			http.Error(w, "Not Found: Session expired", http.StatusNotFound)
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type joinRequest struct {
	SessionID string `json:"sessionId"`
}

type joinResponse struct {
	Turns []model.Turn `json:"turns"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := logging.WithSessID(r.Context(), req.SessionID)
	turns, err := s.sessions.Join(ctx, req.SessionID, ownerFromCtx(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{Turns: turns})
}

type endRequest struct {
	SessionID string `json:"sessionId"`
}

type endResponse struct {
	Summary      string `json:"summary"`
	AlreadyEnded bool   `json:"alreadyEnded,omitempty"`
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.sessions.End(logging.WithSessID(r.Context(), req.SessionID), req.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, endResponse{Summary: res.Summary, AlreadyEnded: res.AlreadyEnded})
}

type interviewResponse struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Role         string       `json:"role"`
	Level        int          `json:"level"`
	Instructions string       `json:"instructions"`
	StartTime    time.Time    `json:"startTime"`
	EndTime      *time.Time   `json:"endTime,omitempty"`
	Summary      string       `json:"summary"`
	Transcript   []model.Turn `json:"transcript,omitempty"`
}

func toInterviewResponse(iv *model.Interview, withTranscript bool) interviewResponse {
	out := interviewResponse{
		ID:           iv.ID,
		Title:        iv.Title,
		Role:         iv.Role,
		Level:        iv.Level,
		Instructions: iv.Instructions,
		StartTime:    iv.StartTime,
		Summary:      iv.Summary,
	}
	if iv.Finalized() {
		t := iv.EndTime
		out.EndTime = &t
	}
	if withTranscript {
		out.Transcript = iv.Transcript
	}
	return out
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	ivs, err := s.interviews.List(r.Context(), ownerFromCtx(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]interviewResponse, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, toInterviewResponse(iv, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	iv, err := s.interviews.Get(r.Context(), id, ownerFromCtx(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterviewResponse(iv, true))
}

// ---- error mapping ----

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, domain.ErrSessionExpired):
		http.Error(w, "Gone: session data has expired", http.StatusGone)
	case errors.Is(err, domain.ErrSessionBusy):
		http.Error(w, "Conflict: another turn is in flight", http.StatusConflict)
	case errors.Is(err, domain.ErrRateLimitExceeded):
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("internal error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
