// Package api exposes the webhook-facing HTTP handlers for the relay.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"example.com/activityrelay/internal/domain"
)

// Publisher forwards a raw event payload onto the async transport.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

// Handler answers subscription validation requests and receives webhook events.
type Handler struct {
	publisher Publisher
	topic     string
	logger    *log.Logger
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used to report publish failures.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler builds a Handler that publishes activity events to the given topic.
func NewHandler(publisher Publisher, topic string, opts ...Option) *Handler {
	h := &Handler{
		publisher: publisher,
		topic:     topic,
		logger:    log.New(log.Writer(), "[api] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", h.webhook)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.validate(w, r)
	case http.MethodPost:
		h.receive(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// validate answers the provider's one-time subscription handshake: echo the
// challenge token back under the same key, nothing else.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("hub.challenge")
	if challenge == "" {
		h.logger.Printf("validation request without hub.challenge")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid request"))
		return
	}

	h.logger.Printf("subscription validation challenge received")
	writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// receive accepts an event notification. Activity events are forwarded to the
// transport topic; publish failures are logged but never surfaced, since the
// provider treats any non-200 as a reason to retry the whole handshake. Other
// object types are acknowledged and dropped.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	var event domain.ActivityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if event.ObjectType != domain.ObjectActivity {
		h.logger.Printf("ignoring event (object_type=%s)", event.ObjectType)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := event.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	headers := map[string]string{
		"event_id":    uuid.NewString(),
		"object_type": string(event.ObjectType),
		"aspect_type": string(event.AspectType),
	}
	key := strconv.FormatInt(event.OwnerID, 10)

	if err := h.publisher.Publish(r.Context(), h.topic, key, body, headers); err != nil {
		h.logger.Printf("failed to publish to %s: %v", h.topic, err)
	} else {
		h.logger.Printf("activity event published (activity=%d, aspect=%s)", event.ObjectID, event.AspectType)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
