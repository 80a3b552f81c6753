package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"formflow-analytics/internal/domain"
)

func (s *Store) AppendResponse(ctx context.Context, response domain.Response) error {
	raw, err := json.Marshal(response.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO responses (response_id, form_id, answers_json, submitted_at_unix) VALUES (?, ?, ?, ?)`,
		response.ID,
		response.FormID,
		string(raw),
		response.SubmittedAt.UnixNano(),
	)
	return err
}

func (s *Store) ListResponses(ctx context.Context, formID string) ([]domain.Response, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT response_id, answers_json, submitted_at_unix FROM responses WHERE form_id = ? ORDER BY seq`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Response{}
	for rows.Next() {
		var (
			response      = domain.Response{FormID: formID}
			raw           string
			submittedUnix int64
		)
		if err := rows.Scan(&response.ID, &raw, &submittedUnix); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &response.Answers); err != nil {
			return nil, err
		}
		response.SubmittedAt = time.Unix(0, submittedUnix).UTC()
		out = append(out, response)
	}
	return out, rows.Err()
}

func (s *Store) SaveSummary(ctx context.Context, summary domain.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO summaries (form_id, data_json) VALUES (?, ?)`,
		summary.FormID,
		string(raw),
	)
	return err
}

func (s *Store) GetSummary(ctx context.Context, formID string) (domain.Summary, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data_json FROM summaries WHERE form_id = ?`, formID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Summary{}, domain.ErrSummaryNotFound
		}
		return domain.Summary{}, err
	}
	var summary domain.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return domain.Summary{}, err
	}
	return summary, nil
}
