package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")

// CreateUser creates a new user
func (db *DB) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, password_hash, display_name, preferred_language, plan_key, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	return db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.Language, user.PlanKey, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, display_name, preferred_language, plan_key, is_admin, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user := &User{}
	err := db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Language, &user.PlanKey, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password_hash, display_name, preferred_language, plan_key, is_admin, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &User{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Language, &user.PlanKey, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateUserPlan changes a user's plan tier
func (db *DB) UpdateUserPlan(ctx context.Context, userID, planKey string) error {
	query := `
		UPDATE users
		SET plan_key = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := db.ExecContext(ctx, query, planKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return checkAffected(result)
}

// UpdateUserLanguage changes a user's preferred language
func (db *DB) UpdateUserLanguage(ctx context.Context, userID, language string) error {
	query := `
		UPDATE users
		SET preferred_language = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := db.ExecContext(ctx, query, language, userID)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	return checkAffected(result)
}

// CreateSession creates a new chat session with a zeroed response counter
func (db *DB) CreateSession(ctx context.Context, userID string) (*ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (user_id, bot_response_count)
		VALUES ($1, 0)
		RETURNING id, user_id, bot_response_count, created_at, updated_at
	`

	session := &ChatSession{}
	err := db.QueryRowContext(ctx, query, userID).Scan(
		&session.ID, &session.UserID, &session.BotResponseCount,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSessionByID retrieves a chat session by ID
func (db *DB) GetSessionByID(ctx context.Context, id string) (*ChatSession, error) {
	query := `
		SELECT id, user_id, bot_response_count, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1
	`

	session := &ChatSession{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.BotResponseCount,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// SaveMessage saves a chat message, optionally tagged with a matched disease
func (db *DB) SaveMessage(ctx context.Context, sessionID, userID, role, content string, diseaseID *string) (*Message, error) {
	query := `
		INSERT INTO messages (session_id, user_id, role, content, disease_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, user_id, role, content, disease_id, created_at
	`

	msg := &Message{}
	err := db.QueryRowContext(ctx, query, sessionID, userID, role, content, diseaseID).Scan(
		&msg.ID, &msg.SessionID, &msg.UserID, &msg.Role, &msg.Content, &msg.DiseaseID, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return msg, nil
}

// GetRecentMessages retrieves the N most recent messages for a user in
// chronological order
func (db *DB) GetRecentMessages(ctx context.Context, userID string, limit int) ([]Message, error) {
	query := `
		SELECT id, session_id, user_id, role, content, disease_id, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.UserID, &msg.Role,
			&msg.Content, &msg.DiseaseID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
