package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/provider"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/repository"
)

// MessageTypeButtonReply is the inbound message type Infobip reports when a
// contact taps an interactive button.
const MessageTypeButtonReply = "INTERACTIVE_BUTTON_REPLY"

// ErrMalformedAnswerID is returned when a button reply carries a non-numeric id.
var ErrMalformedAnswerID = errors.New("malformed answer id")

// InboundMessage is the message part of one inbound webhook result.
type InboundMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// InboundEvent is one message entry within a webhook delivery batch.
type InboundEvent struct {
	MessageID string         `json:"messageId"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Message   InboundMessage `json:"message"`
}

// Policy configures the outbound side effects of the processor. The campaign
// ran two near-identical entry points differing only in these options; one
// processor plus a policy replaces both.
type Policy struct {
	WelcomeText        string
	OnboardingMediaURL string
	ClosingText        string // empty disables the closing acknowledgement
	RealtimeChannel    string // empty disables the realtime publish
}

// InboundService processes inbound webhook batches
type InboundService interface {
	// ProcessBatch handles every event in the batch, each independently and
	// concurrently, and returns only after all per-event work has finished
	// (the webhook acknowledges synchronously). One event's failure never
	// blocks its siblings; the first error encountered is returned for
	// diagnostics.
	ProcessBatch(ctx context.Context, events []InboundEvent) error
}

type inboundService struct {
	users     repository.UserRepository
	answers   repository.AnswerRepository
	messenger provider.Messenger
	realtime  provider.Publisher
	policy    Policy
	log       *logrus.Logger
}

// NewInboundService creates a new InboundService. realtime may be nil when no
// realtime channel is configured.
func NewInboundService(
	users repository.UserRepository,
	answers repository.AnswerRepository,
	messenger provider.Messenger,
	realtime provider.Publisher,
	policy Policy,
	log *logrus.Logger,
) InboundService {
	return &inboundService{
		users:     users,
		answers:   answers,
		messenger: messenger,
		realtime:  realtime,
		policy:    policy,
		log:       log,
	}
}

func (s *inboundService) ProcessBatch(ctx context.Context, events []InboundEvent) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, event := range events {
		wg.Add(1)
		go func(ev InboundEvent) {
			defer wg.Done()
			if err := s.processEvent(ctx, ev); err != nil {
				s.log.WithFields(logrus.Fields{"messageId": ev.MessageID, "from": ev.From}).
					WithError(err).Error("failed to process inbound event")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(event)
	}

	wg.Wait()
	return firstErr
}

// processEvent runs the per-event state machine: onboard, record a button
// reply if present, acknowledge. Store failures are returned; messaging and
// realtime failures are logged and never unwind committed state.
func (s *inboundService) processEvent(ctx context.Context, ev InboundEvent) error {
	// Onboarding runs before reply handling so a first-ever message that is
	// itself a button reply still gets welcomed.
	userID, wasNew, err := s.users.RegisterIfAbsent(ctx, ev.From)
	if err != nil {
		return fmt.Errorf("register contact %s: %w", ev.From, err)
	}
	if wasNew {
		s.sendOrLog(ctx, ev.From, s.policy.WelcomeText)
		if s.policy.OnboardingMediaURL != "" {
			if err := s.messenger.SendImage(ctx, ev.From, s.policy.OnboardingMediaURL); err != nil {
				s.log.WithField("to", ev.From).WithError(err).Warn("failed to send onboarding media")
			}
		}
	}

	if ev.Message.Type == MessageTypeButtonReply {
		if err := s.handleButtonReply(ctx, userID, ev); err != nil {
			return err
		}
	}

	if err := s.messenger.MarkAsRead(ctx, ev.To, ev.MessageID); err != nil {
		s.log.WithField("messageId", ev.MessageID).WithError(err).Warn("failed to mark message as read")
	}

	if s.policy.ClosingText != "" {
		s.sendOrLog(ctx, ev.From, s.policy.ClosingText)
	}
	return nil
}

func (s *inboundService) handleButtonReply(ctx context.Context, userID int, ev InboundEvent) error {
	answerID, err := strconv.Atoi(ev.Message.ID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedAnswerID, ev.Message.ID)
	}

	questionID, err := s.answers.RecordAnswer(ctx, userID, answerID)
	if err != nil {
		return fmt.Errorf("record answer for user %d: %w", userID, err)
	}

	if s.realtime != nil && s.policy.RealtimeChannel != "" {
		payload, _ := json.Marshal(map[string]int{
			"userId":     userID,
			"answerId":   answerID,
			"questionId": questionID,
		})
		if err := s.realtime.Publish(ctx, s.policy.RealtimeChannel, "answer", string(payload)); err != nil {
			s.log.WithField("channel", s.policy.RealtimeChannel).WithError(err).Warn("failed to publish answer event")
		}
	}
	return nil
}

func (s *inboundService) sendOrLog(ctx context.Context, to, text string) {
	if err := s.messenger.SendText(ctx, to, text); err != nil {
		s.log.WithField("to", to).WithError(err).Warn("failed to send text message")
	}
}
