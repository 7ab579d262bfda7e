package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one saved generation.
type Record struct {
	ID           string          `json:"id"`
	Caller       string          `json:"caller"`
	Prompt       string          `json:"prompt"`
	Markup       string          `json:"markup"`
	PostID       *int64          `json:"post_id,omitempty"`
	PostType     string          `json:"post_type"`
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	StopReason   string          `json:"stop_reason"`
	Validation   json.RawMessage `json:"validation"`
	CreatedAt    string          `json:"created_at"`
}

// Store persists generation records.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Save inserts a generation record and returns its assigned id.
func (s *Store) Save(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if len(rec.Validation) == 0 {
		rec.Validation = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO history(id, caller, prompt, markup, post_id, post_type, model, input_tokens, output_tokens, stop_reason, validation_json, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Caller, rec.Prompt, rec.Markup, rec.PostID, rec.PostType,
		rec.Model, rec.InputTokens, rec.OutputTokens, rec.StopReason,
		string(rec.Validation), rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert history: %w", err)
	}
	return rec.ID, nil
}

// List returns the most recent records, optionally filtered by caller.
func (s *Store) List(ctx context.Context, caller string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, caller, prompt, markup, post_id, post_type, model, input_tokens, output_tokens, stop_reason, validation_json, created_at
		FROM history`
	args := []any{}
	if caller != "" {
		query += ` WHERE caller = ?`
		args = append(args, caller)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var postID sql.NullInt64
		var validation string
		if err := rows.Scan(&rec.ID, &rec.Caller, &rec.Prompt, &rec.Markup, &postID, &rec.PostType,
			&rec.Model, &rec.InputTokens, &rec.OutputTokens, &rec.StopReason, &validation, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if postID.Valid {
			rec.PostID = &postID.Int64
		}
		rec.Validation = json.RawMessage(validation)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AddAttachment indexes a media item for image reference resolution.
func (s *Store) AddAttachment(ctx context.Context, url, file, title string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments(url, file, title) VALUES(?, ?, ?)`, url, file, title)
	if err != nil {
		return 0, fmt.Errorf("insert attachment: %w", err)
	}
	return res.LastInsertId()
}
