// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a SQLite database connection for persisting match logs
// and the ingest work queue.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store with the given data source name.
// Use ":memory:" for an in-memory database.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertUploadBatch inserts an UploadBatch and returns its assigned ID.
func (s *Store) InsertUploadBatch(ctx context.Context, batch *UploadBatch) (int64, error) {
	const query = `
		INSERT INTO upload_batches (created_by, created_at)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		nullString(batch.CreatedBy),
		batch.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert upload_batch: %w", err)
	}
	return result.LastInsertId()
}

// InsertMatchFile inserts a match_files row and returns its assigned ID.
func (s *Store) InsertMatchFile(ctx context.Context, mf *MatchFile) (int64, error) {
	const query = `
		INSERT INTO match_files (name, sha256, fs_path, batch_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	var batchID any
	if mf.BatchID != nil {
		batchID = *mf.BatchID
	}
	result, err := s.db.ExecContext(ctx, query,
		mf.Name,
		mf.SHA256,
		nullString(mf.FsPath),
		batchID,
		mf.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert match_file: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get match_file id: %w", err)
	}
	mf.ID = id
	return id, nil
}

// GetMatchFileByID returns a match file by ID, or nil if not found.
func (s *Store) GetMatchFileByID(ctx context.Context, id int64) (*MatchFile, error) {
	const query = `
		SELECT id, name, sha256, fs_path, batch_id, created_at
		FROM match_files
		WHERE id = ?
	`
	return scanMatchFile(s.db.QueryRowContext(ctx, query, id))
}

// GetMatchFileBySHA256 returns a match file by content hash, or nil if
// not found.
func (s *Store) GetMatchFileBySHA256(ctx context.Context, sha256 string) (*MatchFile, error) {
	const query = `
		SELECT id, name, sha256, fs_path, batch_id, created_at
		FROM match_files
		WHERE sha256 = ?
		LIMIT 1
	`
	return scanMatchFile(s.db.QueryRowContext(ctx, query, sha256))
}

func scanMatchFile(row *sql.Row) (*MatchFile, error) {
	var mf MatchFile
	var fsPath sql.NullString
	var batchID sql.NullInt64
	var createdAt string
	if err := row.Scan(
		&mf.ID,
		&mf.Name,
		&mf.SHA256,
		&fsPath,
		&batchID,
		&createdAt,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get match_file: %w", err)
	}
	mf.FsPath = fsPath.String
	if batchID.Valid {
		mf.BatchID = &batchID.Int64
	}
	mf.CreatedAt = parseTime(createdAt)
	return &mf, nil
}

// InsertWork inserts a Work job and returns its assigned ID.
func (s *Store) InsertWork(ctx context.Context, work *Work) (int64, error) {
	const query = `
		INSERT INTO work (match_file_id, stage, status, attempt, available_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		work.MatchFileID,
		work.Stage,
		work.Status,
		work.Attempt,
		work.AvailableAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert work: %w", err)
	}
	return result.LastInsertId()
}

// ClaimWork atomically claims a queued job for a stage, returning nil
// if none available.
func (s *Store) ClaimWork(ctx context.Context, stage, workerID string) (*Work, error) {
	nowStr := time.Now().UTC().Format(time.RFC3339)

	const query = `
		UPDATE work
		SET status = 'running',
		    locked_by = ?,
		    locked_at = ?,
		    started_at = COALESCE(started_at, ?),
		    attempt = attempt + 1
		WHERE id = (
			SELECT id FROM work
			WHERE stage = ?
			  AND status = 'queued'
			  AND available_at <= ?
			ORDER BY available_at
			LIMIT 1
		)
		RETURNING id, match_file_id, stage, status, attempt, available_at,
		          locked_by, locked_at, started_at, finished_at, error_code, error_message
	`

	row := s.db.QueryRowContext(ctx, query, workerID, nowStr, nowStr, stage, nowStr)
	work, err := scanWork(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim work: %w", err)
	}
	return work, nil
}

// FinishWork updates a job's status to ok or failed with optional
// error info.
func (s *Store) FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error {
	const query = `
		UPDATE work
		SET status = ?,
		    finished_at = ?,
		    error_code = ?,
		    error_message = ?,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		status,
		time.Now().UTC().Format(time.RFC3339),
		nullString(errorCode),
		nullString(errorMsg),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish work: %w", err)
	}
	return nil
}

// ResetFailedWork resets failed jobs for a stage back to queued,
// returning the count reset.
func (s *Store) ResetFailedWork(ctx context.Context, stage string) (int, error) {
	const query = `
		UPDATE work
		SET status = 'queued',
		    available_at = ?,
		    locked_by = NULL,
		    locked_at = NULL,
		    finished_at = NULL,
		    error_code = NULL,
		    error_message = NULL
		WHERE stage = ?
		  AND status = 'failed'
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), stage)
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// GetFailedWork returns all failed jobs for a stage.
func (s *Store) GetFailedWork(ctx context.Context, stage string) ([]Work, error) {
	const query = `
		SELECT id, match_file_id, stage, status, attempt, available_at,
		       locked_by, locked_at, started_at, finished_at, error_code, error_message
		FROM work
		WHERE stage = ?
		  AND status = 'failed'
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, stage)
	if err != nil {
		return nil, fmt.Errorf("get failed work: %w", err)
	}
	defer rows.Close()

	var works []Work
	for rows.Next() {
		work, err := scanWorkRows(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, *work)
	}
	return works, rows.Err()
}

// InsertMatch inserts a Match and returns its assigned ID.
func (s *Store) InsertMatch(ctx context.Context, m *Match) (int64, error) {
	const query = `
		INSERT INTO matches (match_file_id, ref, game_length, has_aka, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	hasAka := 0
	if m.HasAka {
		hasAka = 1
	}
	result, err := s.db.ExecContext(ctx, query,
		m.MatchFileID,
		nullString(m.Ref),
		m.GameLength,
		hasAka,
		m.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get match id: %w", err)
	}
	m.ID = id
	return id, nil
}

// InsertPlayer inserts one seat of a match.
func (s *Store) InsertPlayer(ctx context.Context, p *Player) error {
	const query = `
		INSERT INTO players (match_id, seat, name)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, p.MatchID, p.Seat, p.Name); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// InsertKyoku inserts a KyokuRow and returns its assigned ID.
func (s *Store) InsertKyoku(ctx context.Context, k *KyokuRow) (int64, error) {
	const query = `
		INSERT INTO kyokus (
			match_id, seq, kyoku_num, honba, kyotaku, end_kind,
			score_0, score_1, score_2, score_3,
			delta_0, delta_1, delta_2, delta_3
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		k.MatchID,
		k.Seq,
		k.KyokuNum,
		k.Honba,
		k.Kyotaku,
		k.EndKind,
		k.Scoreboard[0], k.Scoreboard[1], k.Scoreboard[2], k.Scoreboard[3],
		k.ScoreDeltas[0], k.ScoreDeltas[1], k.ScoreDeltas[2], k.ScoreDeltas[3],
	)
	if err != nil {
		return 0, fmt.Errorf("insert kyoku: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get kyoku id: %w", err)
	}
	k.ID = id
	return id, nil
}

// InsertHoraDetail inserts a HoraRow and returns its assigned ID.
func (s *Store) InsertHoraDetail(ctx context.Context, h *HoraRow) (int64, error) {
	const query = `
		INSERT INTO hora_details (kyoku_id, seq, who, target, delta_0, delta_1, delta_2, delta_3)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		h.KyokuID,
		h.Seq,
		h.Who,
		h.Target,
		h.ScoreDeltas[0], h.ScoreDeltas[1], h.ScoreDeltas[2], h.ScoreDeltas[3],
	)
	if err != nil {
		return 0, fmt.Errorf("insert hora_detail: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get hora_detail id: %w", err)
	}
	h.ID = id
	return id, nil
}

// TableStats returns row counts for all tables.
func (s *Store) TableStats(ctx context.Context) (map[string]int64, error) {
	tables := []string{
		"upload_batches", "match_files", "work",
		"matches", "players", "kyokus", "hora_details",
	}
	stats := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}

func scanWork(row *sql.Row) (*Work, error) {
	var w Work
	var availableAt, lockedBy, lockedAt, startedAt, finishedAt, errorCode, errorMessage sql.NullString
	if err := row.Scan(
		&w.ID, &w.MatchFileID, &w.Stage, &w.Status, &w.Attempt, &availableAt,
		&lockedBy, &lockedAt, &startedAt, &finishedAt, &errorCode, &errorMessage,
	); err != nil {
		return nil, err
	}
	w.AvailableAt = parseTime(availableAt.String)
	w.LockedBy = nullStringPtr(lockedBy)
	w.LockedAt = parseTimePtr(lockedAt)
	w.StartedAt = parseTimePtr(startedAt)
	w.FinishedAt = parseTimePtr(finishedAt)
	w.ErrorCode = nullStringPtr(errorCode)
	w.ErrorMessage = nullStringPtr(errorMessage)
	return &w, nil
}

func scanWorkRows(rows *sql.Rows) (*Work, error) {
	var w Work
	var availableAt, lockedBy, lockedAt, startedAt, finishedAt, errorCode, errorMessage sql.NullString
	if err := rows.Scan(
		&w.ID, &w.MatchFileID, &w.Stage, &w.Status, &w.Attempt, &availableAt,
		&lockedBy, &lockedAt, &startedAt, &finishedAt, &errorCode, &errorMessage,
	); err != nil {
		return nil, err
	}
	w.AvailableAt = parseTime(availableAt.String)
	w.LockedBy = nullStringPtr(lockedBy)
	w.LockedAt = parseTimePtr(lockedAt)
	w.StartedAt = parseTimePtr(startedAt)
	w.FinishedAt = parseTimePtr(finishedAt)
	w.ErrorCode = nullStringPtr(errorCode)
	w.ErrorMessage = nullStringPtr(errorMessage)
	return &w, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, ns.String); err == nil {
		return &t
	}
	return nil
}
