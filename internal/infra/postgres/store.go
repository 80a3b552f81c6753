package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formflow-analytics/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store persists forms, responses and summaries as JSONB in Postgres.
// The schema lives in the migrations package.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) SaveForm(ctx context.Context, form domain.Form) error {
	raw, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("marshal form: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO forms (id, data, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		form.ID, raw, form.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	return nil
}

func (s *Store) GetForm(ctx context.Context, formID string) (domain.Form, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM forms WHERE id=$1`, formID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Form{}, domain.ErrFormNotFound
	}
	if err != nil {
		return domain.Form{}, fmt.Errorf("load form: %w", err)
	}
	return decodeForm(raw)
}

func (s *Store) UpdateForm(ctx context.Context, formID string, fn func(*domain.Form) error) (domain.Form, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Form{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT data FROM forms WHERE id=$1 FOR UPDATE`, formID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Form{}, domain.ErrFormNotFound
	}
	if err != nil {
		return domain.Form{}, fmt.Errorf("load form: %w", err)
	}
	form, err := decodeForm(raw)
	if err != nil {
		return domain.Form{}, err
	}
	if err := fn(&form); err != nil {
		return domain.Form{}, err
	}
	if raw, err = json.Marshal(form); err != nil {
		return domain.Form{}, fmt.Errorf("marshal form: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE forms SET data=$2 WHERE id=$1`, formID, raw); err != nil {
		return domain.Form{}, fmt.Errorf("update form: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Form{}, fmt.Errorf("commit: %w", err)
	}
	return form, nil
}

func (s *Store) ListForms(ctx context.Context) ([]domain.Form, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM forms ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var forms []domain.Form
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		form, err := decodeForm(raw)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

func (s *Store) AppendResponse(ctx context.Context, response domain.Response) error {
	raw, err := json.Marshal(response.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO responses (id, form_id, answers, submitted_at) VALUES ($1, $2, $3, $4)`,
		response.ID, response.FormID, raw, response.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (s *Store) ListResponses(ctx context.Context, formID string) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, answers, submitted_at FROM responses WHERE form_id=$1 ORDER BY seq`, formID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	out := []domain.Response{}
	for rows.Next() {
		response := domain.Response{FormID: formID}
		var raw []byte
		if err := rows.Scan(&response.ID, &raw, &response.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal(raw, &response.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		out = append(out, response)
	}
	return out, rows.Err()
}

func (s *Store) SaveSummary(ctx context.Context, summary domain.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO summaries (form_id, data) VALUES ($1, $2)
		 ON CONFLICT (form_id) DO UPDATE SET data = EXCLUDED.data`,
		summary.FormID, raw)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (s *Store) GetSummary(ctx context.Context, formID string) (domain.Summary, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM summaries WHERE form_id=$1`, formID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Summary{}, domain.ErrSummaryNotFound
	}
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load summary: %w", err)
	}
	var summary domain.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return summary, nil
}

func decodeForm(raw []byte) (domain.Form, error) {
	var form domain.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return domain.Form{}, fmt.Errorf("unmarshal form: %w", err)
	}
	return form, nil
}
