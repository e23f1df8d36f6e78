// Package relay implements the event processor: resolve credentials, fetch the
// activity, format a message, and deliver it to the chat destination.
package relay

import (
	"context"
	"fmt"
	"log"

	"example.com/activityrelay/internal/domain"
	"example.com/activityrelay/internal/observability"
	"example.com/activityrelay/internal/strava"
)

// TokenSource resolves an access token for an athlete.
type TokenSource interface {
	AccessToken(ctx context.Context, athleteID int64) (string, error)
}

// ActivityProvider fetches activity and athlete records from the tracking API.
type ActivityProvider interface {
	Activity(ctx context.Context, accessToken string, id int64) (*strava.Activity, error)
	Athlete(ctx context.Context, accessToken string) (*strava.Athlete, error)
}

// ChatDestination posts and edits messages at the chat webhook. Post returns
// the destination-assigned message id.
type ChatDestination interface {
	Post(ctx context.Context, msg Message) (string, error)
	Edit(ctx context.Context, messageID string, msg Message) error
}

// DeliveryStore persists the activity id to message id mapping. Get returns an
// empty id when no record exists.
type DeliveryStore interface {
	GetDelivery(ctx context.Context, activityID int64) (string, error)
	PutDelivery(ctx context.Context, activityID int64, messageID string) error
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service is the relay processor core.
type Service struct {
	tokens     TokenSource
	provider   ActivityProvider
	chat       ChatDestination
	deliveries DeliveryStore
	logger     *log.Logger
}

// NewService constructs a Service.
func NewService(tokens TokenSource, provider ActivityProvider, chat ChatDestination, deliveries DeliveryStore, opts ...Option) *Service {
	s := &Service{
		tokens:     tokens,
		provider:   provider,
		chat:       chat,
		deliveries: deliveries,
		logger:     log.New(log.Writer(), "[relay] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process handles one event: resolve the owner's token, then branch on object
// and aspect type. The delivery record alone decides edit versus post; there is
// no reconciliation against the destination's own state.
func (s *Service) Process(ctx context.Context, event domain.ActivityEvent) error {
	token, err := s.tokens.AccessToken(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("resolve token for athlete %d: %w", event.OwnerID, err)
	}

	switch event.ObjectType {
	case domain.ObjectActivity:
		switch event.AspectType {
		case domain.AspectCreate:
			msg, err := s.buildMessage(ctx, token, event.ObjectID)
			if err != nil {
				return err
			}
			return s.postNew(ctx, event.ObjectID, msg)
		case domain.AspectUpdate:
			msg, err := s.buildMessage(ctx, token, event.ObjectID)
			if err != nil {
				return err
			}
			return s.postOrEdit(ctx, event.ObjectID, msg)
		case domain.AspectDelete:
			// No behaviour is defined for deletions: the chat message and the
			// delivery record are both left in place.
			s.logger.Printf("ignoring delete for activity %d", event.ObjectID)
			observability.RecordEventSkipped(string(event.ObjectType), string(event.AspectType))
			return nil
		default:
			s.logger.Printf("ignoring unknown aspect %q", event.AspectType)
			observability.RecordEventSkipped(string(event.ObjectType), string(event.AspectType))
			return nil
		}
	case domain.ObjectAthlete:
		// Athlete events carry nothing the relay displays.
		s.logger.Printf("ignoring athlete event for %d", event.ObjectID)
		observability.RecordEventSkipped(string(event.ObjectType), string(event.AspectType))
		return nil
	default:
		s.logger.Printf("ignoring unknown object type %q", event.ObjectType)
		observability.RecordEventSkipped(string(event.ObjectType), string(event.AspectType))
		return nil
	}
}

func (s *Service) buildMessage(ctx context.Context, token string, activityID int64) (Message, error) {
	activity, err := s.provider.Activity(ctx, token, activityID)
	if err != nil {
		return Message{}, fmt.Errorf("fetch activity %d: %w", activityID, err)
	}

	athlete, err := s.provider.Athlete(ctx, token)
	if err != nil {
		return Message{}, fmt.Errorf("fetch athlete: %w", err)
	}

	return BuildMessage(activity, athlete), nil
}

// postNew sends the message as a new post and records the assigned message id
// so later updates can edit it in place.
func (s *Service) postNew(ctx context.Context, activityID int64, msg Message) error {
	messageID, err := s.chat.Post(ctx, msg)
	if err != nil {
		return fmt.Errorf("post message for activity %d: %w", activityID, err)
	}

	if err := s.deliveries.PutDelivery(ctx, activityID, messageID); err != nil {
		return fmt.Errorf("record delivery for activity %d: %w", activityID, err)
	}

	s.logger.Printf("posted activity %d as message %s", activityID, messageID)
	observability.RecordMessagePosted()
	return nil
}

// postOrEdit edits the previously posted message when a delivery record
// exists, otherwise it falls back to a fresh post with the activity id
// threaded through so the fallback still records its delivery.
func (s *Service) postOrEdit(ctx context.Context, activityID int64, msg Message) error {
	messageID, err := s.deliveries.GetDelivery(ctx, activityID)
	if err != nil {
		return fmt.Errorf("look up delivery for activity %d: %w", activityID, err)
	}

	if messageID == "" {
		return s.postNew(ctx, activityID, msg)
	}

	if err := s.chat.Edit(ctx, messageID, msg); err != nil {
		return fmt.Errorf("edit message %s for activity %d: %w", messageID, activityID, err)
	}

	s.logger.Printf("edited message %s for activity %d", messageID, activityID)
	observability.RecordMessageEdited()
	return nil
}
