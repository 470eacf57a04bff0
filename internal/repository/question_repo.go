package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/model"
)

// QuestionRepository reads the externally seeded quiz content.
type QuestionRepository interface {
	FindByID(ctx context.Context, id int) (*model.Question, error)
	List(ctx context.Context) ([]model.Question, error)
	ListAnswers(ctx context.Context, questionID int) ([]model.Answer, error)
}

type questionRepository struct {
	db DB
}

// NewQuestionRepository creates a new QuestionRepository
func NewQuestionRepository(db DB) QuestionRepository {
	return &questionRepository{db: db}
}

// FindByID retrieves a question by its id
func (r *questionRepository) FindByID(ctx context.Context, id int) (*model.Question, error) {
	q := &model.Question{}
	sql := `SELECT id, question FROM questions WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&q.ID, &q.Text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find question by id: %w", err)
	}
	return q, nil
}

// List retrieves all questions ordered by id
func (r *questionRepository) List(ctx context.Context) ([]model.Question, error) {
	rows, err := r.db.Query(ctx, `SELECT id, question FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return questions, nil
}

// ListAnswers retrieves the answer options for a question ordered by id
func (r *questionRepository) ListAnswers(ctx context.Context, questionID int) ([]model.Answer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, question_id, answer FROM answers WHERE question_id = $1 ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text); err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer rows: %w", err)
	}
	return answers, nil
}
