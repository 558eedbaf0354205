// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package tenhou_test

import (
	"testing"

	"github.com/mdhender/tenlog/tenhou"
)

func threeRoundLog() *tenhou.Log {
	return &tenhou.Log{
		Kyokus: []tenhou.Kyoku{
			{Meta: tenhou.KyokuMeta{KyokuNum: 0, Honba: 0}},
			{Meta: tenhou.KyokuMeta{KyokuNum: 0, Honba: 1}},
			{Meta: tenhou.KyokuMeta{KyokuNum: 1, Honba: 0}},
		},
	}
}

func TestFilterKyokusRetainsMatches(t *testing.T) {
	log := threeRoundLog()
	log.FilterKyokus(func(kyokuNum, honba int) bool {
		return kyokuNum == 0 && honba == 0
	})
	if len(log.Kyokus) != 1 {
		t.Fatalf("survivors: want 1, got %d", len(log.Kyokus))
	}
	if m := log.Kyokus[0].Meta; m.KyokuNum != 0 || m.Honba != 0 {
		t.Errorf("survivor: want kyoku 0 honba 0, got %d/%d", m.KyokuNum, m.Honba)
	}
}

func TestFilterKyokusMatchingNothing(t *testing.T) {
	log := threeRoundLog()
	log.FilterKyokus(func(kyokuNum, honba int) bool { return false })
	if len(log.Kyokus) != 0 {
		t.Errorf("survivors: want 0, got %d", len(log.Kyokus))
	}
}

func TestFilterKyokusPreservesOrder(t *testing.T) {
	log := threeRoundLog()
	log.FilterKyokus(func(kyokuNum, honba int) bool { return kyokuNum == 0 })
	if len(log.Kyokus) != 2 {
		t.Fatalf("survivors: want 2, got %d", len(log.Kyokus))
	}
	if log.Kyokus[0].Meta.Honba != 0 || log.Kyokus[1].Meta.Honba != 1 {
		t.Errorf("survivor order changed: got honba %d then %d",
			log.Kyokus[0].Meta.Honba, log.Kyokus[1].Meta.Honba)
	}
}

func TestParseRoundFilter(t *testing.T) {
	f, err := tenhou.ParseRoundFilter("E1,S3.2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		kyokuNum, honba int
		want            bool
	}{
		{0, 0, true},  // E1
		{0, 3, true},  // E1 any honba
		{1, 0, false}, // E2
		{6, 2, true},  // S3.2
		{6, 0, false}, // S3 wrong honba
		{10, 0, false},
	}
	for _, tc := range tests {
		if got := f.Test(tc.kyokuNum, tc.honba); got != tc.want {
			t.Errorf("Test(%d, %d): want %v, got %v", tc.kyokuNum, tc.honba, tc.want, got)
		}
	}
}

func TestParseRoundFilterWestRounds(t *testing.T) {
	f, err := tenhou.ParseRoundFilter("W4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !f.Test(11, 0) {
		t.Errorf("W4 must match kyoku 11")
	}
	if f.Test(8, 0) {
		t.Errorf("W4 must not match kyoku 8")
	}
}

func TestParseRoundFilterErrors(t *testing.T) {
	for _, expr := range []string{"", "N1", "E0", "E5", "Ex", "E1.", "E1.-1", "E1,,S2"} {
		if _, err := tenhou.ParseRoundFilter(expr); err == nil {
			t.Errorf("expr %q: want parse error", expr)
		}
	}
}
