// Package api exposes the internal HTTP endpoints called by the message store
// and the pairing service, next to the client websocket route.
package api

import (
	"crypto/subtle"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"journal-live/domain"
	"journal-live/errors"
	"journal-live/services"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	internalKeyHeader = "X-Internal-Key"
	maxBodyBytes      = 1 << 20
)

// ErrorDetail in case of REST error, the response
type ErrorDetail struct {
	Code int    `json:"code"`
	Msg  string `json:"message,omitempty"`
	Type string `json:"type,omitempty"`
}

// StandardResponse standard REST API response
type StandardResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type reactionRequest struct {
	MessageID string           `json:"message_id"`
	Reactions domain.Reactions `json:"reactions"`
}

type pairingsResponse struct {
	StandardResponse
	Pairings []domain.Pairing `json:"pairings"`
}

type participantsResponse struct {
	StandardResponse
	Participants domain.Participants `json:"participants"`
}

type statsResponse struct {
	StandardResponse
	Stats domain.LiveStats `json:"stats"`
}

type Handler struct {
	log         *slog.Logger
	service     services.IJournalService
	internalKey string
}

func NewHandler(log *slog.Logger, service services.IJournalService, internalKey string) *Handler {
	return &Handler{log: log, service: service, internalKey: internalKey}
}

// NewRouter mounts the client websocket, the health probe and the internal API.
func NewRouter(handler *Handler, websocket http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/ws", websocket).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)

	internal := router.PathPrefix("/internal").Subrouter()
	internal.Use(handler.requireInternalKey)
	internal.HandleFunc("/journals/{journalID}/messages", handler.PostMessage).Methods(http.MethodPost)
	internal.HandleFunc("/journals/{journalID}/reactions", handler.PostReactions).Methods(http.MethodPost)
	internal.HandleFunc("/journals/{journalID}/participants", handler.PutParticipants).Methods(http.MethodPut)
	internal.HandleFunc("/journals/{journalID}/participants", handler.GetParticipants).Methods(http.MethodGet)
	internal.HandleFunc("/pairings", handler.ListPairings).Methods(http.MethodGet)
	internal.HandleFunc("/stats", handler.Stats).Methods(http.MethodGet)
	return router
}

func (h *Handler) requireInternalKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(internalKeyHeader)
		if h.internalKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.internalKey)) != 1 {
			h.reply(w, r, http.StatusUnauthorized, errorResponse(http.StatusUnauthorized, "invalid internal key", ""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.reply(w, r, http.StatusOK, StandardResponse{Success: true})
}

// PostMessage is called by the message store once a message is committed.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	journalID := domain.JournalID(mux.Vars(r)["journalID"])
	var message domain.Message
	if err := decode(r, &message); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.BroadcastMessage(r.Context(), journalID, message); err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, r, http.StatusAccepted, StandardResponse{Success: true})
}

func (h *Handler) PostReactions(w http.ResponseWriter, r *http.Request) {
	journalID := domain.JournalID(mux.Vars(r)["journalID"])
	var body reactionRequest
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.BroadcastReaction(r.Context(), journalID, body.MessageID, body.Reactions); err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, r, http.StatusAccepted, StandardResponse{Success: true})
}

// PutParticipants is called by the pairing service when two users are paired.
func (h *Handler) PutParticipants(w http.ResponseWriter, r *http.Request) {
	journalID := domain.JournalID(mux.Vars(r)["journalID"])
	var participants domain.Participants
	if err := decode(r, &participants); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.SetParticipants(r.Context(), journalID, participants); err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, r, http.StatusOK, StandardResponse{Success: true})
}

func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	journalID := domain.JournalID(mux.Vars(r)["journalID"])
	participants, err := h.service.Participants(r.Context(), journalID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, r, http.StatusOK, participantsResponse{
		StandardResponse: StandardResponse{Success: true},
		Participants:     participants,
	})
}

func (h *Handler) ListPairings(w http.ResponseWriter, r *http.Request) {
	pairings, err := h.service.Pairings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if pairings == nil {
		pairings = []domain.Pairing{}
	}
	h.reply(w, r, http.StatusOK, pairingsResponse{
		StandardResponse: StandardResponse{Success: true},
		Pairings:         pairings,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.reply(w, r, http.StatusOK, statsResponse{
		StandardResponse: StandardResponse{Success: true},
		Stats:            h.service.Stats(),
	})
}

func decode(r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("Internal API call failed", "path", r.URL.Path, "error", err)
	} else {
		h.log.Debug("Internal API call rejected", "path", r.URL.Path, "error", err)
	}
	h.reply(w, r, code, errorResponse(code, err.Error(), errors.TypeOf(err)))
}

func statusOf(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidEvent), stderrors.Is(err, errors.ErrInvalidPairing):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrPairingNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func errorResponse(code int, message, errType string) StandardResponse {
	return StandardResponse{Error: &ErrorDetail{Code: code, Msg: message, Type: errType}}
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, code int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to write response", "path", r.URL.Path, "error", err)
	}
}
