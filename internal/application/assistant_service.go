package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wayfinder-labs/service-wayfinding/internal/dialogue"
	destinationDomain "github.com/wayfinder-labs/service-wayfinding/internal/domain/destination"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/metrics"
	"github.com/wayfinder-labs/service-wayfinding/internal/speech"
	"go.uber.org/zap"
)

// Turn outcomes.
const (
	OutcomeRouted        = "routed"
	OutcomeNoDestination = "no_destination"
	OutcomeUnresolved    = "unresolved"
	OutcomeCancelled     = "cancelled"
	OutcomeFailed        = "failed"
)

// Dialogue is the conversational gateway. *dialogue.Client satisfies it.
type Dialogue interface {
	Launch(ctx context.Context, userID string) (dialogue.Replies, error)
	SendText(ctx context.Context, userID, text string) (dialogue.Replies, error)
}

// Router computes routes. *NavigationService satisfies it.
type Router interface {
	Navigate(ctx context.Context, req NavigateRequest) (*RouteDTO, error)
}

// UtteranceRequest is one user utterance for a session.
type UtteranceRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

// SpeakRequest asks for synthesized speech.
type SpeakRequest struct {
	Text string `json:"text" binding:"required"`
}

// TurnResult is the outcome of one assistant turn.
type TurnResult struct {
	SessionID   string    `json:"session_id"`
	Utterance   string    `json:"utterance"`
	Reply       string    `json:"reply"`
	Destination string    `json:"destination,omitempty"`
	Route       *RouteDTO `json:"route,omitempty"`
	Outcome     string    `json:"outcome"`
}

// AssistantService runs the voice turn pipeline:
// dialogue engine, destination lookup, routing, then the spoken reply.
type AssistantService struct {
	dialogue     Dialogue
	destinations destinationDomain.Repository
	router       Router
	tts          speech.Synthesizer
	turns        *TurnCoordinator
	turnTimeout  time.Duration
	logger       *zap.Logger
}

// NewAssistantService creates a new AssistantService. tts may be nil to disable speech output.
func NewAssistantService(
	dlg Dialogue,
	destinations destinationDomain.Repository,
	router Router,
	tts speech.Synthesizer,
	turns *TurnCoordinator,
	turnTimeout time.Duration,
	logger *zap.Logger,
) *AssistantService {
	if turns == nil {
		turns = NewTurnCoordinator()
	}
	return &AssistantService{
		dialogue:     dlg,
		destinations: destinations,
		router:       router,
		tts:          tts,
		turns:        turns,
		turnTimeout:  turnTimeout,
		logger:       logger,
	}
}

// Launch starts the conversation for sessionID and returns the greeting.
func (s *AssistantService) Launch(ctx context.Context, sessionID string) (string, error) {
	began := time.Now()
	replies, err := s.dialogue.Launch(ctx, sessionID)
	observe("dialogue", "launch", began)
	if err != nil {
		s.logger.Error("dialogue launch failed", zap.String("session_id", sessionID), zap.Error(err))
		return "", domain.NewUpstreamError("dialogue", err)
	}
	return s.replyText(sessionID, replies), nil
}

// HandleUtterance runs one turn. Only one turn per session is in flight; a newer utterance
// cancels an older one, which then returns ErrTurnSuperseded.
func (s *AssistantService) HandleUtterance(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if sessionID == "" {
		return nil, domain.NewValidationError("session_id is required")
	}
	if text == "" {
		return nil, domain.NewValidationError("utterance is empty")
	}

	turnCtx, end, err := s.turns.Begin(ctx, sessionID)
	if err != nil {
		metrics.Turns.WithLabelValues(OutcomeCancelled).Inc()
		return nil, err
	}
	defer end()

	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(turnCtx, s.turnTimeout)
		defer cancel()
	}

	result, err := s.runTurn(turnCtx, sessionID, text)
	if err != nil {
		if cause := context.Cause(turnCtx); errors.Is(cause, ErrTurnSuperseded) {
			s.logger.Info("turn superseded", zap.String("session_id", sessionID))
			metrics.Turns.WithLabelValues(OutcomeCancelled).Inc()
			return nil, ErrTurnSuperseded
		}
		metrics.Turns.WithLabelValues(OutcomeFailed).Inc()
		return nil, err
	}
	metrics.Turns.WithLabelValues(result.Outcome).Inc()
	return result, nil
}

func (s *AssistantService) runTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	result := &TurnResult{SessionID: sessionID, Utterance: text}

	began := time.Now()
	replies, err := s.dialogue.SendText(ctx, sessionID, text)
	observe("dialogue", "text", began)
	if err != nil {
		s.logger.Error("dialogue request failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, domain.NewUpstreamError("dialogue", err)
	}
	result.Reply = s.replyText(sessionID, replies)

	dest, err := s.destinations.Latest(ctx)
	if err != nil {
		if domain.IsNotFound(err) {
			s.logger.Info("no destination recorded", zap.String("session_id", sessionID))
			result.Outcome = OutcomeNoDestination
			return result, nil
		}
		return nil, err
	}
	result.Destination = dest.Name()

	route, err := s.router.Navigate(ctx, NavigateRequest{Destination: dest.Name()})
	if err != nil {
		if domain.IsNotFound(err) {
			result.Outcome = OutcomeUnresolved
			return result, nil
		}
		return nil, err
	}
	result.Route = route
	result.Outcome = OutcomeRouted
	return result, nil
}

// Speak synthesizes text. It fails with a validation error when speech output is disabled.
func (s *AssistantService) Speak(ctx context.Context, text string) (*speech.Audio, error) {
	if s.tts == nil {
		return nil, domain.NewValidationError("speech synthesis is disabled")
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewValidationError("text is required")
	}

	began := time.Now()
	audio, err := s.tts.Synthesize(ctx, text)
	observe("speech", "synthesize", began)
	if err != nil {
		s.logger.Error("speech synthesis failed", zap.Error(err))
		return nil, domain.NewUpstreamError("speech", err)
	}
	return audio, nil
}

// SpeechEnabled reports whether Speak can produce audio.
func (s *AssistantService) SpeechEnabled() bool {
	return s.tts != nil
}

func (s *AssistantService) replyText(sessionID string, replies dialogue.Replies) string {
	msg, err := replies.Message()
	if err != nil {
		s.logger.Debug("dialogue returned no message", zap.String("session_id", sessionID))
		return ""
	}
	return msg
}
