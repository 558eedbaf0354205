// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdhender/tenlog/adapters"
	"github.com/mdhender/tenlog/model"
	"github.com/mdhender/tenlog/tenhou"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// WorkerService claims and executes decode jobs.
type WorkerService struct {
	store    WorkerStore
	dataDir  string
	workerID string
	fs       afero.Fs
}

// WorkerStore defines the store operations needed by WorkerService.
type WorkerStore interface {
	ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	GetMatchFileByID(ctx context.Context, id int64) (*model.MatchFile, error)

	// For the decode stage - persist the decoded log
	InsertMatch(ctx context.Context, m *model.Match) (int64, error)
	InsertPlayer(ctx context.Context, p *model.Player) error
	InsertKyoku(ctx context.Context, k *model.KyokuRow) (int64, error)
	InsertHoraDetail(ctx context.Context, h *model.HoraRow) (int64, error)
}

// NewWorkerService creates a new WorkerService.
func NewWorkerService(store WorkerStore, dataDir, workerID string) *WorkerService {
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	return &WorkerService{
		store:    store,
		dataDir:  dataDir,
		workerID: workerID,
		fs:       afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (w *WorkerService) SetFS(fs afero.Fs) {
	w.fs = fs
}

// WorkResult represents the outcome of executing a job.
type WorkResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// ClaimJob atomically claims a queued job for the given stage.
// Returns nil if no work is available.
func (w *WorkerService) ClaimJob(ctx context.Context, stage string) (*model.Work, error) {
	return w.store.ClaimWork(ctx, stage, w.workerID)
}

// ExecuteDecode reads the raw log file, decodes it, and persists the
// decoded match.
func (w *WorkerService) ExecuteDecode(ctx context.Context, job *model.Work, mf *model.MatchFile) error {
	fullPath := filepath.Join(w.dataDir, mf.FsPath)

	data, err := afero.ReadFile(w.fs, fullPath)
	if err != nil {
		return &ErrWriteFile{Op: "read", Path: fullPath, Err: err}
	}

	log, err := tenhou.ParseLog(data)
	if err != nil {
		return err
	}

	ref := gjson.GetBytes(data, "ref").String()
	if _, err := adapters.LogToStore(ctx, w.store, mf, ref, log); err != nil {
		return &ErrDatabase{Op: "persist decode result", Err: err}
	}

	return nil
}

// FinishJob marks a job as completed (ok or failed) based on the result.
func (w *WorkerService) FinishJob(ctx context.Context, job *model.Work, result WorkResult) error {
	status := model.WorkStatusOk
	errorCode := ""
	errorMsg := ""

	if !result.Success {
		status = model.WorkStatusFailed
		errorCode = result.ErrorCode
		errorMsg = result.ErrorMessage
	}

	return w.store.FinishWork(ctx, job.ID, status, errorCode, errorMsg)
}

// GetMatchFile retrieves the match file associated with a job.
func (w *WorkerService) GetMatchFile(ctx context.Context, job *model.Work) (*model.MatchFile, error) {
	return w.store.GetMatchFileByID(ctx, job.MatchFileID)
}

// ProcessJob claims, executes, and finishes a single job for the given
// stage. Returns (jobProcessed, error). jobProcessed is true if a job
// was claimed.
func (w *WorkerService) ProcessJob(ctx context.Context, stage string) (bool, error) {
	job, err := w.ClaimJob(ctx, stage)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	mf, err := w.GetMatchFile(ctx, job)
	if err != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: fmt.Sprintf("get match file: %v", err),
		})
		return true, fmt.Errorf("get match file: %w", err)
	}
	if mf == nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: "match file not found",
		})
		return true, fmt.Errorf("match file %d not found", job.MatchFileID)
	}

	var execErr error
	switch stage {
	case model.WorkStageDecode:
		execErr = w.ExecuteDecode(ctx, job, mf)
	default:
		execErr = fmt.Errorf("unknown stage: %s", stage)
	}

	if execErr != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrorCode(execErr),
			ErrorMessage: execErr.Error(),
		})
		return true, execErr
	}

	if err := w.FinishJob(ctx, job, WorkResult{Success: true}); err != nil {
		return true, fmt.Errorf("finish job: %w", err)
	}

	return true, nil
}
