package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout has fixed-width fractions so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// SQLiteRepository stores tool calls in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository on db, which must carry the
// tool_calls table.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts call. ID and CreatedAt are filled in when empty.
func (r *SQLiteRepository) Create(ctx context.Context, call *ToolCall) error {
	if call.ID == "" {
		call.ID = "call-" + uuid.NewString()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}

	var argsJSON *string
	if len(call.Arguments) > 0 {
		b, err := json.Marshal(call.Arguments)
		if err != nil {
			return fmt.Errorf("marshalling tool call arguments: %w", err)
		}
		s := string(b)
		argsJSON = &s
	}

	var errText *string
	if call.Error != "" {
		errText = &call.Error
	}

	success := 0
	if call.Success {
		success = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tool_calls (id, tool_name, category, arguments, success, error, duration_ms, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.ID, call.ToolName, call.Category, argsJSON, success, errText,
		call.DurationMS, call.Source, call.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting tool call: %w", err)
	}
	return nil
}

// List returns the tool calls matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		conditions []string
		args       []any
	)
	if filter.ToolName != "" {
		conditions = append(conditions, "tool_name = ?")
		args = append(args, filter.ToolName)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM tool_calls " + where //nolint:gosec // WHERE holds only placeholders
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting tool calls: %w", err)
	}

	query := "SELECT id, tool_name, category, arguments, success, error, duration_ms, source, created_at FROM tool_calls " + //nolint:gosec // WHERE holds only placeholders
		where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	defer rows.Close()

	calls := []ToolCall{}
	for rows.Next() {
		call, err := scanToolCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool calls: %w", err)
	}

	return &ListResult{Calls: calls, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func scanToolCall(rows *sql.Rows) (ToolCall, error) {
	var (
		call      ToolCall
		argsJSON  sql.NullString
		errText   sql.NullString
		success   int
		createdAt string
	)
	if err := rows.Scan(&call.ID, &call.ToolName, &call.Category, &argsJSON, &success,
		&errText, &call.DurationMS, &call.Source, &createdAt); err != nil {
		return ToolCall{}, fmt.Errorf("scanning tool call: %w", err)
	}

	call.Success = success == 1
	call.Error = errText.String
	if argsJSON.Valid && argsJSON.String != "" {
		if err := json.Unmarshal([]byte(argsJSON.String), &call.Arguments); err != nil {
			return ToolCall{}, fmt.Errorf("parsing arguments of tool call %s: %w", call.ID, err)
		}
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return ToolCall{}, fmt.Errorf("parsing tool call timestamp %q: %w", createdAt, err)
	}
	call.CreatedAt = t
	return call, nil
}
