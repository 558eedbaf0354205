// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdhender/tenlog/model"
	"github.com/mdhender/tenlog/pipelines/stages"
	"github.com/mdhender/tenlog/tenhou"
	"github.com/spf13/afero"
)

func newPipeline(t *testing.T) (*model.Store, *stages.IngestService, *stages.WorkerService, afero.Fs) {
	t.Helper()
	store, err := model.NewStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fs := afero.NewMemMapFs()

	ingest := stages.NewIngestService(store, "/data")
	ingest.SetFS(fs)

	worker := stages.NewWorkerService(store, "/data", "test-worker")
	worker.SetFS(fs)

	return store, ingest, worker, fs
}

func TestWorkerService_DecodeSample(t *testing.T) {
	ctx := context.Background()
	store, ingest, worker, _ := newPipeline(t)

	data, err := os.ReadFile(filepath.Join("..", "..", "tenhou", "testdata", "sample.json"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	_, results, err := ingest.IngestBatch(ctx, "test", []stages.IngestRequest{
		{Filename: "sample.json", Data: data},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(results) != 1 || results[0].Duplicate {
		t.Fatalf("ingest: got %+v", results)
	}

	processed, err := worker.ProcessJob(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !processed {
		t.Fatal("process: want a job claimed")
	}

	// queue drained
	processed, err = worker.ProcessJob(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("process empty: %v", err)
	}
	if processed {
		t.Error("process empty: want no job")
	}

	stats, err := store.TableStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["matches"] != 1 {
		t.Errorf("matches: want 1, got %d", stats["matches"])
	}
	if stats["kyokus"] != 11 {
		t.Errorf("kyokus: want 11, got %d", stats["kyokus"])
	}

	failed, err := store.GetFailedWork(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("want no failed jobs, got %+v", failed)
	}
}

func TestWorkerService_DecodeFailureRecordsErrorCode(t *testing.T) {
	ctx := context.Background()
	store, ingest, worker, _ := newPipeline(t)

	// four-player marker makes the decode fail after ingest succeeds
	doc := `{"log":[],"name":["a","b","c","d"],"rule":{"disp":"四鳳南喰赤","aka":1}}`
	_, _, err := ingest.IngestBatch(ctx, "test", []stages.IngestRequest{
		{Filename: "fourplayer.json", Data: []byte(doc)},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	processed, err := worker.ProcessJob(ctx, model.WorkStageDecode)
	if !processed {
		t.Fatal("process: want a job claimed")
	}
	if err == nil {
		t.Fatal("process: want decode error")
	}

	failed, ferr := store.GetFailedWork(ctx, model.WorkStageDecode)
	if ferr != nil {
		t.Fatalf("get failed: %v", ferr)
	}
	if len(failed) != 1 {
		t.Fatalf("want 1 failed job, got %d", len(failed))
	}
	if failed[0].ErrorCode == nil || *failed[0].ErrorCode != tenhou.ErrCodeNotThreePlayer {
		t.Errorf("error code: got %v", failed[0].ErrorCode)
	}

	// reset puts it back on the queue
	n, err := store.ResetFailedWork(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Errorf("reset: want 1, got %d", n)
	}
}

func TestWorkerService_InvalidJSONRecordsErrorCode(t *testing.T) {
	ctx := context.Background()
	store, ingest, worker, _ := newPipeline(t)

	_, _, err := ingest.IngestBatch(ctx, "test", []stages.IngestRequest{
		{Filename: "garbage.json", Data: []byte("<html>not json</html>")},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	processed, err := worker.ProcessJob(ctx, model.WorkStageDecode)
	if !processed || err == nil {
		t.Fatalf("process: want claimed job with error, got processed=%v err=%v", processed, err)
	}

	failed, ferr := store.GetFailedWork(ctx, model.WorkStageDecode)
	if ferr != nil {
		t.Fatalf("get failed: %v", ferr)
	}
	if len(failed) != 1 || failed[0].ErrorCode == nil || *failed[0].ErrorCode != tenhou.ErrCodeInvalidJSON {
		t.Errorf("want one INVALID_JSON failure, got %+v", failed)
	}
}
