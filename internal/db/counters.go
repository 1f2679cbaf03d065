package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/themobileprof/medimatch-be/internal/plan"
)

// This file implements usage.CounterStore on Postgres. The increment-and-
// check must be one atomic statement: a separate SELECT followed by an
// UPDATE would let two concurrent requests both pass the limit check.

// IncrementChats atomically bumps the (userID, day) chat counter when it is
// below the limit. The conditional upsert returns no row when the limit is
// already reached, which is a denial, not an error.
func (db *DB) IncrementChats(ctx context.Context, userID, day string, limit plan.Limit) (bool, int, error) {
	if limit.Unlimited {
		query := `
			INSERT INTO daily_usage (user_id, date, chat_count)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id, date)
			DO UPDATE SET chat_count = daily_usage.chat_count + 1, updated_at = CURRENT_TIMESTAMP
			RETURNING chat_count
		`
		var count int
		if err := db.QueryRowContext(ctx, query, userID, day).Scan(&count); err != nil {
			return false, 0, fmt.Errorf("failed to increment chat counter: %w", err)
		}
		return true, count, nil
	}

	query := `
		INSERT INTO daily_usage (user_id, date, chat_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, date)
		DO UPDATE SET chat_count = daily_usage.chat_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE daily_usage.chat_count < $3
		RETURNING chat_count
	`

	var count int
	err := db.QueryRowContext(ctx, query, userID, day, limit.N).Scan(&count)
	if err == sql.ErrNoRows {
		used, err := db.ChatsToday(ctx, userID, day)
		if err != nil {
			return false, 0, err
		}
		return false, used, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment chat counter: %w", err)
	}

	return true, count, nil
}

// IncrementResponses atomically bumps a session's bot response counter when
// it is below the limit.
func (db *DB) IncrementResponses(ctx context.Context, sessionID string, limit plan.Limit) (bool, int, error) {
	if limit.Unlimited {
		query := `
			UPDATE chat_sessions
			SET bot_response_count = bot_response_count + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1
			RETURNING bot_response_count
		`
		var count int
		err := db.QueryRowContext(ctx, query, sessionID).Scan(&count)
		if err == sql.ErrNoRows {
			return false, 0, ErrNotFound
		}
		if err != nil {
			return false, 0, fmt.Errorf("failed to increment response counter: %w", err)
		}
		return true, count, nil
	}

	query := `
		UPDATE chat_sessions
		SET bot_response_count = bot_response_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND bot_response_count < $2
		RETURNING bot_response_count
	`

	var count int
	err := db.QueryRowContext(ctx, query, sessionID, limit.N).Scan(&count)
	if err == sql.ErrNoRows {
		// Either the limit is reached or the session does not exist.
		session, err := db.GetSessionByID(ctx, sessionID)
		if err != nil {
			return false, 0, err
		}
		return false, session.BotResponseCount, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment response counter: %w", err)
	}

	return true, count, nil
}

// ChatsToday reads the (userID, day) chat counter; a missing row is zero.
func (db *DB) ChatsToday(ctx context.Context, userID, day string) (int, error) {
	query := `
		SELECT chat_count
		FROM daily_usage
		WHERE user_id = $1 AND date = $2
	`

	var count int
	err := db.QueryRowContext(ctx, query, userID, day).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get chat counter: %w", err)
	}

	return count, nil
}
