package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"formflow-analytics/internal/domain"
)

func (s *Store) SaveForm(ctx context.Context, form domain.Form) error {
	raw, err := json.Marshal(form)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO forms (form_id, data_json, created_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(form_id) DO UPDATE SET data_json = excluded.data_json`,
		form.ID,
		string(raw),
		form.CreatedAt.UnixNano(),
	)
	return err
}

func (s *Store) GetForm(ctx context.Context, formID string) (domain.Form, error) {
	return getForm(ctx, s.db, formID)
}

func (s *Store) UpdateForm(ctx context.Context, formID string, fn func(*domain.Form) error) (domain.Form, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Form{}, err
	}
	defer tx.Rollback()

	form, err := getForm(ctx, tx, formID)
	if err != nil {
		return domain.Form{}, err
	}
	if err := fn(&form); err != nil {
		return domain.Form{}, err
	}
	raw, err := json.Marshal(form)
	if err != nil {
		return domain.Form{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE forms SET data_json = ? WHERE form_id = ?`, string(raw), formID); err != nil {
		return domain.Form{}, err
	}
	return form, tx.Commit()
}

func (s *Store) ListForms(ctx context.Context) ([]domain.Form, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data_json FROM forms ORDER BY created_at_unix`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []domain.Form
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var form domain.Form
		if err := json.Unmarshal([]byte(raw), &form); err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getForm(ctx context.Context, q queryRower, formID string) (domain.Form, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT data_json FROM forms WHERE form_id = ?`, formID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Form{}, domain.ErrFormNotFound
		}
		return domain.Form{}, err
	}
	var form domain.Form
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return domain.Form{}, err
	}
	return form, nil
}
