// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package model defines the persistence types and SQLite store for
// decoded match logs and the ingest work queue.
package model

import "time"

// UploadBatch groups files ingested together.
type UploadBatch struct {
	ID        int64     `json:"id"        db:"id"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MatchFile is one raw log file as ingested: original name, content
// hash for dedupe, and where the copy lives under the data directory.
type MatchFile struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	SHA256    string    `json:"sha256"    db:"sha256"`
	FsPath    string    `json:"fsPath"    db:"fs_path"`
	BatchID   *int64    `json:"batchId,omitempty" db:"batch_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Work stage and status values.
const (
	WorkStageDecode = "decode"

	WorkStatusQueued  = "queued"
	WorkStatusRunning = "running"
	WorkStatusOk      = "ok"
	WorkStatusFailed  = "failed"
)

// Work is one queued decode job.
type Work struct {
	ID           int64      `json:"id"          db:"id"`
	MatchFileID  int64      `json:"matchFileId" db:"match_file_id"`
	Stage        string     `json:"stage"       db:"stage"`
	Status       string     `json:"status"      db:"status"`
	Attempt      int        `json:"attempt"     db:"attempt"`
	AvailableAt  time.Time  `json:"availableAt" db:"available_at"`
	LockedBy     *string    `json:"lockedBy,omitempty"     db:"locked_by"`
	LockedAt     *time.Time `json:"lockedAt,omitempty"     db:"locked_at"`
	StartedAt    *time.Time `json:"startedAt,omitempty"    db:"started_at"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"   db:"finished_at"`
	ErrorCode    *string    `json:"errorCode,omitempty"    db:"error_code"`
	ErrorMessage *string    `json:"errorMessage,omitempty" db:"error_message"`
}

// Match is one decoded match log.
type Match struct {
	ID          int64     `json:"id"          db:"id"`
	MatchFileID int64     `json:"matchFileId" db:"match_file_id"`
	Ref         string    `json:"ref"         db:"ref"`
	GameLength  int       `json:"gameLength"  db:"game_length"`
	HasAka      bool      `json:"hasAka"      db:"has_aka"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// Player is one seat in a match. Seat 3 exists even in three-player
// games; its name is empty.
type Player struct {
	MatchID int64  `json:"matchId" db:"match_id"`
	Seat    int    `json:"seat"    db:"seat"`
	Name    string `json:"name"    db:"name"`
}

// KyokuRow is one round of a persisted match. Seq is the 0-based
// position in document order; the scoreboard and ryukyoku deltas are
// flattened into per-seat columns.
type KyokuRow struct {
	ID       int64  `json:"id"       db:"id"`
	MatchID  int64  `json:"matchId"  db:"match_id"`
	Seq      int    `json:"seq"      db:"seq"`
	KyokuNum int    `json:"kyokuNum" db:"kyoku_num"`
	Honba    int    `json:"honba"    db:"honba"`
	Kyotaku  int    `json:"kyotaku"  db:"kyotaku"`
	EndKind  string `json:"endKind"  db:"end_kind"`

	Scoreboard  [4]int `json:"scoreboard"  db:"-"`
	ScoreDeltas [4]int `json:"scoreDeltas" db:"-"`
}

// HoraRow is one winner of a won round, in encounter order.
type HoraRow struct {
	ID      int64 `json:"id"      db:"id"`
	KyokuID int64 `json:"kyokuId" db:"kyoku_id"`
	Seq     int   `json:"seq"     db:"seq"`
	Who     int   `json:"who"     db:"who"`
	Target  int   `json:"target"  db:"target"`

	ScoreDeltas [4]int `json:"scoreDeltas" db:"-"`
}
