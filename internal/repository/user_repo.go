package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/model"
)

// UserRepository is the contact registry: at most one user per phone.
type UserRepository interface {
	// RegisterIfAbsent inserts the phone if unseen and reports whether this
	// call created the row. Concurrent calls for the same new phone yield one
	// row and exactly one wasNew=true.
	RegisterIfAbsent(ctx context.Context, phone string) (id int, wasNew bool, err error)
	LookupIDByPhone(ctx context.Context, phone string) (int, error)
	ListPhones(ctx context.Context) ([]string, error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

// RegisterIfAbsent relies on the conditional insert itself to decide newness.
// A separate existence check would race with concurrent webhook deliveries of
// the same phone; ON CONFLICT DO NOTHING RETURNING id yields a row only for
// the call that actually created the user.
func (r *userRepository) RegisterIfAbsent(ctx context.Context, phone string) (int, bool, error) {
	if phone == "" {
		return 0, false, fmt.Errorf("register user: phone cannot be empty")
	}

	var id int
	sql := `INSERT INTO users (phone) VALUES ($1) ON CONFLICT (phone) DO NOTHING RETURNING id`
	err := r.db.QueryRow(ctx, sql, phone).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to register user: %w", err)
	}

	// Conflict path: the phone was already registered, fetch the existing id.
	id, err = r.LookupIDByPhone(ctx, phone)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// LookupIDByPhone retrieves a user's id by phone number
func (r *userRepository) LookupIDByPhone(ctx context.Context, phone string) (int, error) {
	var id int
	sql := `SELECT id FROM users WHERE phone = $1`
	err := r.db.QueryRow(ctx, sql, phone).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user with phone %s: %w", phone, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to find user by phone: %w", err)
	}
	return id, nil
}

// ListPhones returns every registered phone number in registration order.
func (r *userRepository) ListPhones(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT phone FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query phones: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("failed to scan phone row: %w", err)
		}
		phones = append(phones, phone)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating phone rows: %w", err)
	}
	return phones, nil
}

// ListContacts returns id and phone for every registered user in
// registration order.
func (r *userRepository) ListContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := r.db.Query(ctx, `SELECT id, phone FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}
	return contacts, nil
}
