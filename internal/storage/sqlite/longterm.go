package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

// LongTermRepo is the durable long-term log. Rows are only ever inserted.
type LongTermRepo struct {
	db *sql.DB
}

func NewLongTermRepo(db *sql.DB) *LongTermRepo {
	return &LongTermRepo{db: db}
}

func (r *LongTermRepo) Append(ctx context.Context, entries []core.LongTermEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Entries already stored by an earlier partially failed flush are skipped.
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO long_term_log
		(id, session_id, seq, role, agent, text, reason, valence, arousal, content_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.ID, e.SessionID, e.Seq, string(e.Role), string(e.Agent), e.Text, string(e.Reason),
			e.Valence, e.Arousal, strings.Join(e.ContentIDs, ","), e.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert long-term entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.FromCtx(ctx).Debug().Int("count", len(entries)).Msg("stored long-term entries")
	return nil
}

func (r *LongTermRepo) List(ctx context.Context, sessionID string) ([]core.LongTermEntry, error) {
	query := `SELECT id, session_id, seq, role, agent, text, reason, valence, arousal, content_ids, created_at
		FROM long_term_log WHERE session_id = ? ORDER BY created_at, seq, rowid`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query long-term log: %w", err)
	}
	defer rows.Close()

	var entries []core.LongTermEntry
	for rows.Next() {
		var (
			e                   core.LongTermEntry
			role, agent, reason string
			contentIDs          sql.NullString
			createdAt           time.Time
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &role, &agent, &e.Text, &reason,
			&e.Valence, &e.Arousal, &contentIDs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan long-term entry: %w", err)
		}

		e.Role = core.TurnRole(role)
		e.Agent = core.AgentLabel(agent)
		e.Reason = core.SignificanceReason(reason)
		e.CreatedAt = createdAt.UTC()
		if contentIDs.Valid && contentIDs.String != "" {
			e.ContentIDs = strings.Split(contentIDs.String, ",")
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
