package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// AnswerRepository is the answer ledger: at most one row per
// (user, question), last reply wins.
type AnswerRepository interface {
	// RecordAnswer resolves the answer's parent question and upserts the
	// user's choice for it, returning the resolved question id. Returns
	// ErrUnknownAnswer when the answer id does not exist; the ledger is left
	// unchanged in that case.
	RecordAnswer(ctx context.Context, userID, answerID int) (questionID int, err error)
}

type answerRepository struct {
	db DB
}

// NewAnswerRepository creates a new AnswerRepository
func NewAnswerRepository(db DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) RecordAnswer(ctx context.Context, userID, answerID int) (int, error) {
	// Resolving question_id from the answer row keeps the ledger referentially
	// consistent at write time: the stored question always is the answer's parent.
	var questionID int
	err := r.db.QueryRow(ctx, `SELECT question_id FROM answers WHERE id = $1`, answerID).Scan(&questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("answer %d: %w", answerID, ErrUnknownAnswer)
		}
		return 0, fmt.Errorf("failed to resolve answer question: %w", err)
	}

	sql := `INSERT INTO user_answers (user_id, question_id, answer_id) VALUES ($1, $2, $3)
            ON CONFLICT (user_id, question_id) DO UPDATE SET answer_id = $3`
	if _, err := r.db.Exec(ctx, sql, userID, questionID, answerID); err != nil {
		return 0, fmt.Errorf("failed to record answer: %w", err)
	}
	return questionID, nil
}
