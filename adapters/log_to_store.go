// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package adapters converts decoded match logs into the persistence
// model and writes them through a store.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/mdhender/tenlog/model"
	"github.com/mdhender/tenlog/tenhou"
)

// MatchStore defines the minimal store interface needed to persist a
// decoded log.
type MatchStore interface {
	InsertMatch(ctx context.Context, m *model.Match) (int64, error)
	InsertPlayer(ctx context.Context, p *model.Player) error
	InsertKyoku(ctx context.Context, k *model.KyokuRow) (int64, error)
	InsertHoraDetail(ctx context.Context, h *model.HoraRow) (int64, error)
}

// StoreResult reports what was persisted for one log.
type StoreResult struct {
	MatchID int64
	Kyokus  int
	Horas   int
}

// LogToStore persists a decoded log against an already-ingested match
// file. All four seats are written, the dummy fourth included, so the
// seat index is stable across three- and four-column queries.
func LogToStore(ctx context.Context, store MatchStore, mf *model.MatchFile, ref string, log *tenhou.Log) (*StoreResult, error) {
	now := time.Now().UTC()

	m := &model.Match{
		MatchFileID: mf.ID,
		Ref:         ref,
		GameLength:  int(log.GameLength),
		HasAka:      log.HasAka,
		CreatedAt:   now,
	}
	matchID, err := store.InsertMatch(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}

	for seat, name := range log.Names {
		p := &model.Player{MatchID: matchID, Seat: seat, Name: name}
		if err := store.InsertPlayer(ctx, p); err != nil {
			return nil, fmt.Errorf("insert player %d: %w", seat, err)
		}
	}

	result := &StoreResult{MatchID: matchID}
	for seq, kyoku := range log.Kyokus {
		row := &model.KyokuRow{
			MatchID:     matchID,
			Seq:         seq,
			KyokuNum:    kyoku.Meta.KyokuNum,
			Honba:       kyoku.Meta.Honba,
			Kyotaku:     kyoku.Meta.Kyotaku,
			EndKind:     string(kyoku.EndStatus.Kind),
			Scoreboard:  kyoku.Scoreboard,
			ScoreDeltas: kyoku.EndStatus.ScoreDeltas,
		}
		kyokuID, err := store.InsertKyoku(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("insert kyoku %d: %w", seq, err)
		}
		result.Kyokus++

		for hseq, hora := range kyoku.EndStatus.Horas {
			h := &model.HoraRow{
				KyokuID:     kyokuID,
				Seq:         hseq,
				Who:         hora.Who,
				Target:      hora.Target,
				ScoreDeltas: hora.ScoreDeltas,
			}
			if _, err := store.InsertHoraDetail(ctx, h); err != nil {
				return nil, fmt.Errorf("insert hora %d.%d: %w", seq, hseq, err)
			}
			result.Horas++
		}
	}

	return result, nil
}
