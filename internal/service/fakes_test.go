package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/model"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/provider"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memRegistry implements repository.UserRepository with the same atomicity
// contract as the SQL implementation: one row per phone, wasNew true for
// exactly one of any set of concurrent registrations.
type memRegistry struct {
	mu      sync.Mutex
	nextID  int
	byPhone map[string]int
}

func newMemRegistry() *memRegistry {
	return &memRegistry{byPhone: make(map[string]int)}
}

func (r *memRegistry) RegisterIfAbsent(_ context.Context, phone string) (int, bool, error) {
	if phone == "" {
		return 0, false, fmt.Errorf("empty phone: %w", repository.ErrNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPhone[phone]; ok {
		return id, false, nil
	}
	r.nextID++
	r.byPhone[phone] = r.nextID
	return r.nextID, true, nil
}

func (r *memRegistry) LookupIDByPhone(_ context.Context, phone string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return 0, fmt.Errorf("phone %s: %w", phone, repository.ErrNotFound)
	}
	return id, nil
}

func (r *memRegistry) ListContacts(_ context.Context) ([]model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contacts := make([]model.Contact, 0, len(r.byPhone))
	for phone, id := range r.byPhone {
		contacts = append(contacts, model.Contact{ID: id, Phone: phone})
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

func (r *memRegistry) ListPhones(ctx context.Context) ([]string, error) {
	contacts, err := r.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	phones := make([]string, 0, len(contacts))
	for _, c := range contacts {
		phones = append(phones, c.Phone)
	}
	return phones, nil
}

type answerKey struct{ userID, questionID int }

// memLedger implements repository.AnswerRepository with last-write-wins upserts.
type memLedger struct {
	mu               sync.Mutex
	questionByAnswer map[int]int
	rows             map[answerKey]int
}

func newMemLedger(questionByAnswer map[int]int) *memLedger {
	return &memLedger{questionByAnswer: questionByAnswer, rows: make(map[answerKey]int)}
}

func (l *memLedger) RecordAnswer(_ context.Context, userID, answerID int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	questionID, ok := l.questionByAnswer[answerID]
	if !ok {
		return 0, fmt.Errorf("answer %d: %w", answerID, repository.ErrUnknownAnswer)
	}
	l.rows[answerKey{userID, questionID}] = answerID
	return questionID, nil
}

func (l *memLedger) get(userID, questionID int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	answerID, ok := l.rows[answerKey{userID, questionID}]
	return answerID, ok
}

func (l *memLedger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

// memQuestions implements repository.QuestionRepository over fixed content.
type memQuestions struct {
	questions []model.Question
	answers   []model.Answer
}

func (q *memQuestions) FindByID(_ context.Context, id int) (*model.Question, error) {
	for _, question := range q.questions {
		if question.ID == id {
			found := question
			return &found, nil
		}
	}
	return nil, fmt.Errorf("question %d: %w", id, repository.ErrNotFound)
}

func (q *memQuestions) List(_ context.Context) ([]model.Question, error) {
	return q.questions, nil
}

func (q *memQuestions) ListAnswers(_ context.Context, questionID int) ([]model.Answer, error) {
	var options []model.Answer
	for _, a := range q.answers {
		if a.QuestionID == questionID {
			options = append(options, a)
		}
	}
	return options, nil
}

// memCoupons implements repository.CouponRepository with an atomic
// claim-if-unclaimed transition.
type memCoupons struct {
	mu      sync.Mutex
	coupons []*model.Coupon
	claimed map[int]bool
}

func newMemCoupons(codes ...string) *memCoupons {
	pool := &memCoupons{claimed: make(map[int]bool)}
	for i, code := range codes {
		pool.coupons = append(pool.coupons, &model.Coupon{ID: i + 1, Code: code})
	}
	return pool
}

func (p *memCoupons) AllocateNext(_ context.Context) (*model.Coupon, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.coupons {
		if !p.claimed[c.ID] {
			p.claimed[c.ID] = true
			return &model.Coupon{ID: c.ID, Code: c.Code}, nil
		}
	}
	return nil, repository.ErrCouponsExhausted
}

func (p *memCoupons) AssignTo(_ context.Context, couponID, userID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.coupons {
		if c.ID == couponID {
			if c.UserID != nil {
				return fmt.Errorf("coupon %d: %w", couponID, repository.ErrCouponAlreadyAssigned)
			}
			uid := userID
			c.UserID = &uid
			return nil
		}
	}
	return fmt.Errorf("coupon %d: %w", couponID, repository.ErrNotFound)
}

func (p *memCoupons) assignedUsers() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var users []int
	for _, c := range p.coupons {
		if c.UserID != nil {
			users = append(users, *c.UserID)
		}
	}
	return users
}

type sentMessage struct {
	To   string
	Text string
}

type interactiveMessage struct {
	To      string
	Body    string
	Buttons []provider.Button
}

// fakeMessenger records outbound calls; failAll makes every send fail to
// exercise best-effort semantics.
type fakeMessenger struct {
	mu          sync.Mutex
	texts       []sentMessage
	images      []sentMessage
	interactive []interactiveMessage
	reads       []string
	failAll     bool
	failTextTo  string
}

func (m *fakeMessenger) SendText(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll || (m.failTextTo != "" && to == m.failTextTo) {
		return fmt.Errorf("provider unavailable")
	}
	m.texts = append(m.texts, sentMessage{To: to, Text: text})
	return nil
}

func (m *fakeMessenger) SendImage(_ context.Context, to, mediaURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("provider unavailable")
	}
	m.images = append(m.images, sentMessage{To: to, Text: mediaURL})
	return nil
}

func (m *fakeMessenger) SendInteractiveButtons(_ context.Context, to, bodyText string, buttons []provider.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll || (m.failTextTo != "" && to == m.failTextTo) {
		return fmt.Errorf("provider unavailable")
	}
	m.interactive = append(m.interactive, interactiveMessage{To: to, Body: bodyText, Buttons: buttons})
	return nil
}

func (m *fakeMessenger) MarkAsRead(_ context.Context, _, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("provider unavailable")
	}
	m.reads = append(m.reads, messageID)
	return nil
}

func (m *fakeMessenger) textsTo(to string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, msg := range m.texts {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}

type publishedEvent struct {
	Channel string
	Name    string
	Data    string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel, name, data string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Channel: channel, Name: name, Data: data})
	return nil
}
