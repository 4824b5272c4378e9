package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, request_id, source_path, instruction, output_dir, output_file, status, stage, clips_total, clips_synthesized, clips_cached, clips_failed, duration_ms, error_kind, error_message, created_at, updated_at"

// Create inserts a pending job for a new request.
func (s *Store) Create(ctx context.Context, requestID, sourcePath, instruction, outputDir string) (*Job, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, errors.New("request id is required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.exec(ctx,
		`INSERT INTO jobs (request_id, source_path, instruction, output_dir, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		nullableString(sourcePath),
		nullableString(instruction),
		nullableString(outputDir),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by row id. A missing row yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetByRequestID fetches a job by its request id. A missing row yields (nil, nil).
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE request_id = ?`, requestID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists every mutable field of job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.exec(ctx,
		`UPDATE jobs
         SET output_file = ?, status = ?, stage = ?, clips_total = ?, clips_synthesized = ?,
             clips_cached = ?, clips_failed = ?, duration_ms = ?, error_kind = ?, error_message = ?,
             updated_at = ?
         WHERE id = ?`,
		nullableString(job.OutputFile),
		job.Status,
		nullableString(job.Stage),
		job.ClipsTotal,
		job.ClipsSynthesized,
		job.ClipsCached,
		job.ClipsFailed,
		job.DurationMS,
		nullableString(job.ErrorKind),
		nullableString(job.ErrorMessage),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Stats counts jobs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Remove deletes a single job by request id.
func (s *Store) Remove(ctx context.Context, requestID string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM jobs WHERE request_id = ?`, requestID)
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ClearFinished removes completed and failed jobs, returning how many went.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM jobs WHERE status IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear finished jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) mustGet(ctx context.Context, requestID string) (*Job, error) {
	job, err := s.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return job, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		sourcePath   sql.NullString
		instruction  sql.NullString
		outputDir    sql.NullString
		outputFile   sql.NullString
		status       string
		stage        sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.RequestID,
		&sourcePath,
		&instruction,
		&outputDir,
		&outputFile,
		&status,
		&stage,
		&job.ClipsTotal,
		&job.ClipsSynthesized,
		&job.ClipsCached,
		&job.ClipsFailed,
		&job.DurationMS,
		&errorKind,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.SourcePath = sourcePath.String
	job.Instruction = instruction.String
	job.OutputDir = outputDir.String
	job.OutputFile = outputFile.String
	job.Status = Status(status)
	job.Stage = stage.String
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
