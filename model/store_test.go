// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mdhender/tenlog/model"
)

func newTestStore(t *testing.T) *model.Store {
	t.Helper()
	store, err := model.NewStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestFile(t *testing.T, store *model.Store, name, sha string) int64 {
	t.Helper()
	id, err := store.InsertMatchFile(context.Background(), &model.MatchFile{
		Name:      name,
		SHA256:    sha,
		FsPath:    "batches/1/" + name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert match file: %v", err)
	}
	return id
}

func TestMatchFileDedupe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestFile(t, store, "a.json", "abc123")

	got, err := store.GetMatchFileBySHA256(ctx, "abc123")
	if err != nil {
		t.Fatalf("get by sha: %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("get by sha: want id %d, got %+v", id, got)
	}

	missing, err := store.GetMatchFileBySHA256(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("get missing: want nil, got %+v", missing)
	}

	// same content again must violate the unique constraint
	_, err = store.InsertMatchFile(ctx, &model.MatchFile{
		Name:      "b.json",
		SHA256:    "abc123",
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Errorf("duplicate sha256: want error")
	}
}

func TestClaimWorkLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fileID := insertTestFile(t, store, "a.json", "sha-1")
	workID, err := store.InsertWork(ctx, &model.Work{
		MatchFileID: fileID,
		Stage:       model.WorkStageDecode,
		Status:      model.WorkStatusQueued,
		AvailableAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert work: %v", err)
	}

	work, err := store.ClaimWork(ctx, model.WorkStageDecode, "worker-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if work == nil {
		t.Fatal("claim: want a job, got nil")
	}
	if work.ID != workID || work.Status != model.WorkStatusRunning || work.Attempt != 1 {
		t.Errorf("claim: got %+v", work)
	}
	if work.LockedBy == nil || *work.LockedBy != "worker-1" {
		t.Errorf("claim: locked_by not set: %+v", work.LockedBy)
	}

	// nothing else queued
	none, err := store.ClaimWork(ctx, model.WorkStageDecode, "worker-2")
	if err != nil {
		t.Fatalf("claim empty: %v", err)
	}
	if none != nil {
		t.Errorf("claim empty: want nil, got %+v", none)
	}

	if err := store.FinishWork(ctx, work.ID, model.WorkStatusFailed, "INVALID_JSON", "boom"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	failed, err := store.GetFailedWork(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ErrorCode == nil || *failed[0].ErrorCode != "INVALID_JSON" {
		t.Fatalf("get failed: got %+v", failed)
	}

	n, err := store.ResetFailedWork(ctx, model.WorkStageDecode)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Errorf("reset: want 1, got %d", n)
	}

	again, err := store.ClaimWork(ctx, model.WorkStageDecode, "worker-1")
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if again == nil || again.Attempt != 2 {
		t.Errorf("reclaim: got %+v", again)
	}
}

func TestClaimWorkConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const jobs = 8
	for i := 0; i < jobs; i++ {
		fileID := insertTestFile(t, store, "f.json", "sha-"+string(rune('a'+i)))
		if _, err := store.InsertWork(ctx, &model.Work{
			MatchFileID: fileID,
			Stage:       model.WorkStageDecode,
			Status:      model.WorkStatusQueued,
			AvailableAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("insert work: %v", err)
		}
	}

	var mu sync.Mutex
	claimed := make(map[int64]string)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(worker string) {
			defer wg.Done()
			for {
				work, err := store.ClaimWork(ctx, model.WorkStageDecode, worker)
				if err != nil {
					t.Errorf("%s: claim: %v", worker, err)
					return
				}
				if work == nil {
					return
				}
				mu.Lock()
				if prev, dup := claimed[work.ID]; dup {
					t.Errorf("job %d claimed by both %s and %s", work.ID, prev, worker)
				}
				claimed[work.ID] = worker
				mu.Unlock()
				if err := store.FinishWork(ctx, work.ID, model.WorkStatusOk, "", ""); err != nil {
					t.Errorf("%s: finish: %v", worker, err)
					return
				}
			}
		}("worker-" + string(rune('0'+w)))
	}
	wg.Wait()

	if len(claimed) != jobs {
		t.Errorf("want %d jobs claimed, got %d", jobs, len(claimed))
	}
}

func TestMatchPersistence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fileID := insertTestFile(t, store, "a.json", "sha-m")
	matchID, err := store.InsertMatch(ctx, &model.Match{
		MatchFileID: fileID,
		Ref:         "2024030511gm-00b9-0000-e0c07689",
		GameLength:  0,
		HasAka:      true,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert match: %v", err)
	}

	for seat, name := range []string{"mtk", "ASAPIN", "おでん", ""} {
		if err := store.InsertPlayer(ctx, &model.Player{MatchID: matchID, Seat: seat, Name: name}); err != nil {
			t.Fatalf("insert player %d: %v", seat, err)
		}
	}

	kyokuID, err := store.InsertKyoku(ctx, &model.KyokuRow{
		MatchID:    matchID,
		Seq:        0,
		KyokuNum:   0,
		Honba:      0,
		Kyotaku:    0,
		EndKind:    "hora",
		Scoreboard: [4]int{35000, 35000, 35000, 0},
	})
	if err != nil {
		t.Fatalf("insert kyoku: %v", err)
	}

	if _, err := store.InsertHoraDetail(ctx, &model.HoraRow{
		KyokuID:     kyokuID,
		Seq:         0,
		Who:         2,
		Target:      2,
		ScoreDeltas: [4]int{-700, -400, 1100, 0},
	}); err != nil {
		t.Fatalf("insert hora: %v", err)
	}

	stats, err := store.TableStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := map[string]int64{
		"match_files":  1,
		"matches":      1,
		"players":      4,
		"kyokus":       1,
		"hora_details": 1,
		"work":         0,
	}
	for table, count := range want {
		if stats[table] != count {
			t.Errorf("stats[%s]: want %d, got %d", table, count, stats[table])
		}
	}
}
