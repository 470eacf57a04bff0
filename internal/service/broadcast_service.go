package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/model"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/provider"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/repository"
)

// The fixed coupon script sent around each code.
const (
	couponApologyText = "SORRY! I goofed, here is the correct links & the coupon code"
	couponDetailsText = "Your €20 coupon code to use on the infobip platform is valid for 14 days. " +
		"To register an account head to https://r.elsmore.me/3rsyW38, and apply the following code " +
		"in the referrals section in the bottom left:"
	couponDiscordText = "Any questions, need help, or just want to chat head to our discord at https://discord.com/invite/G9Gr6fk2e4"
	couponSlidesText  = "And for those that care, my slide https://r.elsmore.me/3LD7iHK"
)

// QuestionBroadcast is the confirmation returned to the broadcast caller,
// independent of per-recipient delivery outcome.
type QuestionBroadcast struct {
	Question model.Question
	Buttons  []provider.Button
}

// BroadcastService fans questions and coupons out to registered contacts.
type BroadcastService interface {
	// BroadcastQuestion sends the question as an interactive-buttons message
	// to every registered contact. A recipient failure is logged and skipped.
	BroadcastQuestion(ctx context.Context, questionID int) (*QuestionBroadcast, error)
	// BroadcastCoupons assigns one coupon per contact in registration order
	// until the pool runs out, returning how many were assigned. Exhaustion
	// is an expected terminal condition, not an error.
	BroadcastCoupons(ctx context.Context) (int, error)
	// Questions lists the seeded questions for the admin index.
	Questions(ctx context.Context) ([]model.Question, error)
}

type broadcastService struct {
	users     repository.UserRepository
	questions repository.QuestionRepository
	coupons   repository.CouponRepository
	messenger provider.Messenger
	log       *logrus.Logger
}

// NewBroadcastService creates a new BroadcastService
func NewBroadcastService(
	users repository.UserRepository,
	questions repository.QuestionRepository,
	coupons repository.CouponRepository,
	messenger provider.Messenger,
	log *logrus.Logger,
) BroadcastService {
	return &broadcastService{
		users:     users,
		questions: questions,
		coupons:   coupons,
		messenger: messenger,
		log:       log,
	}
}

func (s *broadcastService) BroadcastQuestion(ctx context.Context, questionID int) (*QuestionBroadcast, error) {
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", questionID, err)
	}

	options, err := s.questions.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load answers for question %d: %w", questionID, err)
	}

	buttons := make([]provider.Button, 0, len(options))
	for _, option := range options {
		buttons = append(buttons, provider.Button{
			Type:  "REPLY",
			ID:    strconv.Itoa(option.ID),
			Title: option.Text,
		})
	}

	phones, err := s.users.ListPhones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	for _, phone := range phones {
		if err := s.messenger.SendInteractiveButtons(ctx, phone, question.Text, buttons); err != nil {
			s.log.WithFields(logrus.Fields{"to": phone, "questionId": questionID}).
				WithError(err).Warn("failed to send question")
		}
	}

	return &QuestionBroadcast{Question: *question, Buttons: buttons}, nil
}

func (s *broadcastService) BroadcastCoupons(ctx context.Context) (int, error) {
	contacts, err := s.users.ListContacts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list contacts: %w", err)
	}

	assigned := 0
	for _, contact := range contacts {
		coupon, err := s.coupons.AllocateNext(ctx)
		if errors.Is(err, repository.ErrCouponsExhausted) {
			s.log.WithField("assigned", assigned).Info("coupon pool exhausted, remaining contacts receive nothing")
			break
		}
		if err != nil {
			return assigned, fmt.Errorf("claim coupon: %w", err)
		}

		s.sendCouponScript(ctx, contact.Phone, coupon.Code)

		// The coupon is already claimed; a failed finalization here is an
		// inconsistency an operator must see, not something to retry forever.
		if err := s.coupons.AssignTo(ctx, coupon.ID, contact.ID); err != nil {
			return assigned, fmt.Errorf("assign coupon %d to user %d: %w", coupon.ID, contact.ID, err)
		}
		assigned++
	}

	return assigned, nil
}

func (s *broadcastService) Questions(ctx context.Context) ([]model.Question, error) {
	return s.questions.List(ctx)
}

// sendCouponScript delivers the fixed message sequence around one code.
// Delivery is best-effort; a failed send does not stop the run or release
// the claimed coupon.
func (s *broadcastService) sendCouponScript(ctx context.Context, phone, code string) {
	for _, text := range []string{couponApologyText, couponDetailsText, code, couponDiscordText, couponSlidesText} {
		if err := s.messenger.SendText(ctx, phone, text); err != nil {
			s.log.WithField("to", phone).WithError(err).Warn("failed to send coupon message")
		}
	}
}
