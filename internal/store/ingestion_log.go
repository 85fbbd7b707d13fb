package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Ingestion 一次导入尝试
type Ingestion struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	SourceName   string     `json:"sourceName,omitempty"`
	TextHash     string     `json:"textHash"`
	RecordDate   string     `json:"recordDate,omitempty"`
	Policy       string     `json:"policy"`
	State        string     `json:"state"`
	Outcome      string     `json:"outcome"`
	Row          int        `json:"row,omitempty"`
	DuplicateRow int        `json:"duplicateRow,omitempty"`
	BackupPath   string     `json:"backupPath,omitempty"`
	Warnings     []string   `json:"warnings"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// IngestionResult 导入结束时回写的字段
type IngestionResult struct {
	RecordDate   string
	State        string
	Outcome      string
	Row          int
	DuplicateRow int
	BackupPath   string
	Warnings     []string
	ErrorMessage string
}

// CreateIngestion 记录一次导入开始，返回尝试 ID
func (s *Store) CreateIngestion(source, sourceName, textHash, policy string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO ingestions (id, source, source_name, text_hash, policy, state)
		VALUES (?, ?, ?, ?, ?, 'received')
	`, id, source, sourceName, textHash, policy)
	if err != nil {
		return "", fmt.Errorf("failed to create ingestion: %w", err)
	}
	return id, nil
}

// CompleteIngestion 回写导入结果
func (s *Store) CompleteIngestion(id string, r IngestionResult) error {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE ingestions SET
			record_date = ?,
			state = ?,
			outcome = ?,
			row_index = ?,
			duplicate_row = ?,
			backup_path = ?,
			warnings_json = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.RecordDate, r.State, r.Outcome, r.Row, r.DuplicateRow, r.BackupPath, string(warningsJSON), r.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update ingestion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ingestion %s: %w", id, ErrNotFound)
	}
	return nil
}

const ingestionColumns = `
	id, source, source_name, text_hash, record_date, policy, state, outcome,
	row_index, duplicate_row, backup_path, warnings_json, error_message,
	started_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIngestion(sc rowScanner) (Ingestion, error) {
	var (
		it           Ingestion
		warningsJSON string
		completedAt  sql.NullTime
	)
	err := sc.Scan(
		&it.ID, &it.Source, &it.SourceName, &it.TextHash, &it.RecordDate, &it.Policy, &it.State, &it.Outcome,
		&it.Row, &it.DuplicateRow, &it.BackupPath, &warningsJSON, &it.ErrorMessage,
		&it.StartedAt, &completedAt,
	)
	if err != nil {
		return Ingestion{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		it.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(warningsJSON), &it.Warnings); err != nil || it.Warnings == nil {
		it.Warnings = []string{}
	}
	return it, nil
}

// GetIngestion 按 ID 查询
func (s *Store) GetIngestion(id string) (Ingestion, error) {
	row := s.db.QueryRow(`SELECT `+ingestionColumns+` FROM ingestions WHERE id = ?`, id)
	it, err := scanIngestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ingestion{}, ErrNotFound
		}
		return Ingestion{}, fmt.Errorf("query ingestion failed: %w", err)
	}
	return it, nil
}

// ListIngestions 最近的导入记录（新的在前）
func (s *Store) ListIngestions(limit int) ([]Ingestion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT `+ingestionColumns+`
		FROM ingestions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ingestions failed: %w", err)
	}
	defer rows.Close()

	out := []Ingestion{}
	for rows.Next() {
		it, err := scanIngestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingestion failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingestions failed: %w", err)
	}
	return out, nil
}
