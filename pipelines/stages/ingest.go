// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package stages implements the ingest and decode pipeline over the
// work queue.
package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mdhender/tenlog/model"
	"github.com/spf13/afero"
)

// IngestService copies raw log files into the data directory and
// queues decode jobs for them.
type IngestService struct {
	store   IngestStore
	dataDir string
	fs      afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	InsertUploadBatch(ctx context.Context, batch *model.UploadBatch) (int64, error)
	GetMatchFileBySHA256(ctx context.Context, sha256 string) (*model.MatchFile, error)
	InsertMatchFile(ctx context.Context, mf *model.MatchFile) (int64, error)
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(store IngestStore, dataDir string) *IngestService {
	return &IngestService{
		store:   store,
		dataDir: dataDir,
		fs:      afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// IngestRequest contains the parameters for ingesting one file.
type IngestRequest struct {
	Filename string // original filename
	Data     []byte // file content
}

// IngestResult contains the result of an ingest operation.
type IngestResult struct {
	MatchFileID int64
	WorkID      int64
	Duplicate   bool // true if file was already ingested (idempotent no-op)
}

// IngestFile ingests a single file. Content is deduplicated by hash:
// re-ingesting the same bytes returns the existing row with
// Duplicate=true and queues nothing.
func (s *IngestService) IngestFile(ctx context.Context, batchID int64, req IngestRequest) (*IngestResult, error) {
	hash := sha256.Sum256(req.Data)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.store.GetMatchFileBySHA256(ctx, hashStr)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if existing != nil {
		return &IngestResult{
			MatchFileID: existing.ID,
			Duplicate:   true,
		}, nil
	}

	name := filepath.Base(req.Filename)
	fsPath := filepath.Join("batches", fmt.Sprintf("%d", batchID), name)
	fullPath := filepath.Join(s.dataDir, fsPath)

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, &ErrWriteFile{Op: "mkdir", Path: filepath.Dir(fullPath), Err: err}
	}
	if err := afero.WriteFile(s.fs, fullPath, req.Data, 0644); err != nil {
		return nil, &ErrWriteFile{Op: "write", Path: fullPath, Err: err}
	}

	mf := &model.MatchFile{
		Name:      name,
		SHA256:    hashStr,
		FsPath:    fsPath,
		BatchID:   &batchID,
		CreatedAt: time.Now().UTC(),
	}
	mfID, err := s.store.InsertMatchFile(ctx, mf)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert match_file", Err: err}
	}

	work := &model.Work{
		MatchFileID: mfID,
		Stage:       model.WorkStageDecode,
		Status:      model.WorkStatusQueued,
		Attempt:     0,
		AvailableAt: time.Now().UTC(),
	}
	workID, err := s.store.InsertWork(ctx, work)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert work", Err: err}
	}

	return &IngestResult{
		MatchFileID: mfID,
		WorkID:      workID,
		Duplicate:   false,
	}, nil
}

// IngestBatch creates a batch and ingests multiple files.
func (s *IngestService) IngestBatch(ctx context.Context, createdBy string, files []IngestRequest) (int64, []IngestResult, error) {
	batch := &model.UploadBatch{
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	batchID, err := s.store.InsertUploadBatch(ctx, batch)
	if err != nil {
		return 0, nil, &ErrDatabase{Op: "insert batch", Err: err}
	}

	var results []IngestResult
	for _, file := range files {
		result, err := s.IngestFile(ctx, batchID, file)
		if err != nil {
			return batchID, results, err
		}
		results = append(results, *result)
	}

	return batchID, results, nil
}
