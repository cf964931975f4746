package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/voxlog/voxlog/internal/ports"
)

type logRepo struct {
	db *sql.DB
}

func NewLogRepo(db *sql.DB) ports.LogRepo {
	return &logRepo{db: db}
}

func (r *logRepo) Create(ctx context.Context, log ports.ConversionLog) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO conversion_logs (user_id, type, language, input_text, output_filename, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, log.UserID, log.Type, log.Language, log.InputText, log.OutputFilename, time.Now()).Scan(&id)
	return id, err
}

func (r *logRepo) GetByID(ctx context.Context, id int64) (ports.ConversionLog, error) {
	var l ports.ConversionLog
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, language, input_text, output_filename, timestamp
		FROM conversion_logs
		WHERE id = $1
	`, id).Scan(
		&l.ID,
		&l.UserID,
		&l.Type,
		&l.Language,
		&l.InputText,
		&l.OutputFilename,
		&l.Timestamp,
	)
	return l, err
}

func (r *logRepo) ListByUser(ctx context.Context, userID int64) ([]ports.ConversionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, language, input_text, output_filename, timestamp
		FROM conversion_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ports.ConversionLog
	for rows.Next() {
		var l ports.ConversionLog
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Type,
			&l.Language,
			&l.InputText,
			&l.OutputFilename,
			&l.Timestamp,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversion_logs WHERE id = $1`, id)
	return err
}
