// internal/session/transcript.go
package session

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"
)

// Transcript records conversation turns outside the session store.
type Transcript interface {
	Append(ctx context.Context, sessionID string, intent models.Intent, messages ...models.Message) error
}

// TranscriptRepository writes turns to the conversation_turns table.
type TranscriptRepository struct {
	db *sql.DB
}

func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

const insertTurnSQL = `
INSERT INTO conversation_turns (id, session_id, role, content, intent, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

const listTurnsSQL = `
SELECT id, role, content, created_at
FROM conversation_turns
WHERE session_id = $1
ORDER BY created_at ASC, id ASC`

// Append stores messages in one transaction. Only assistant turns carry the intent.
func (r *TranscriptRepository) Append(ctx context.Context, sessionID string, intent models.Intent, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	for _, m := range messages {
		var turnIntent sql.NullString
		if m.Role == models.RoleAssistant && intent != "" {
			turnIntent = sql.NullString{String: string(intent), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insertTurnSQL, m.ID, sessionID, string(m.Role), m.Content, turnIntent, m.CreatedAt); err != nil {
			return apperrors.NewDatabaseInsertFailedError(fmt.Errorf("insert turn %s: %w", m.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// List returns the stored turns of a session, oldest first.
func (r *TranscriptRepository) List(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, listTurnsSQL, sessionID)
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError("list transcript", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var (
			m    models.Message
			role string
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, apperrors.NewSessionStoreFailedError("scan transcript", err)
		}
		m.Role = models.Role(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewSessionStoreFailedError("list transcript", err)
	}
	return messages, nil
}
