// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package tenhou decodes tenhou.net/6 three-player match records.
//
// The wire format is a JSON document of flat, positional arrays with a
// free-text rule descriptor. ParseLog deserializes it into a RawLog and
// FromRaw transforms that into a Log: a fixed four-seat structure per
// round with a classified outcome (hora or ryukyoku). The transform is
// a pure function; independent documents may be decoded concurrently.
package tenhou

import (
	"encoding/json"
	"strings"
)

// horaStatus is the result-array tag for a won round. Every other tag
// (exhaustive and abortive draws alike) classifies as ryukyoku.
const horaStatus = "和了"

// GameLength is the declared length of a match. The numeric values
// follow the site's game-type encoding.
type GameLength int

const (
	Hanchan GameLength = 0 // East + South rounds
	Tonpuu  GameLength = 4 // East rounds only
)

func (g GameLength) String() string {
	if g == Tonpuu {
		return "tonpuu"
	}
	return "hanchan"
}

// Log is a fully decoded match. Names and seats are always 4-wide even
// though only three seats play; seat 3 is the format's dummy seat.
type Log struct {
	Names      [4]string  `json:"names"`
	GameLength GameLength `json:"gameLength"`
	HasAka     bool       `json:"hasAka"`
	Kyokus     []Kyoku    `json:"kyokus"`
}

// Kyoku is one round of play, from deal to resolution.
type Kyoku struct {
	Meta           KyokuMeta      `json:"meta"`
	Scoreboard     [4]int         `json:"scoreboard"`
	DoraIndicators []Tile         `json:"doraIndicators"`
	UraIndicators  []Tile         `json:"uraIndicators"`
	ActionTables   [4]ActionTable `json:"actionTables"`
	EndStatus      EndStatus      `json:"endStatus"`
}

// ActionTable groups a seat's haipai, takes, and discards for one
// round. The three sequences are carried as-is; length agreement is a
// downstream concern.
type ActionTable struct {
	Haipai   []Tile       `json:"haipai"`
	Takes    []ActionItem `json:"takes"`
	Discards []ActionItem `json:"discards"`
}

// EndKind discriminates EndStatus variants.
type EndKind string

const (
	EndHora     EndKind = "hora"
	EndRyukyoku EndKind = "ryukyoku"
)

// EndStatus is a round's outcome. Exactly one variant applies: hora
// carries the winner details (more than one on a double or triple ron),
// ryukyoku carries a single score-delta array, all zero when the source
// supplies none.
type EndStatus struct {
	Kind        EndKind      `json:"kind"`
	Horas       []HoraDetail `json:"horas,omitempty"`
	ScoreDeltas [4]int       `json:"scoreDeltas"`
}

// HoraDetail is one winner in a won round. Target is the seat the
// winning tile came from; it equals Who on a self-draw.
type HoraDetail struct {
	Who         int    `json:"who"`
	Target      int    `json:"target"`
	ScoreDeltas [4]int `json:"scoreDeltas"`
}

// ParseLog decodes a tenhou.net/6 document from JSON text.
func ParseLog(data []byte) (*Log, error) {
	var raw RawLog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ErrInvalidJSON{Err: err}
	}
	return FromRaw(&raw)
}

// FromRaw transforms a raw document into a Log. The raw document is not
// retained; all decoded data is owned by the returned Log. Any failure
// aborts the whole decode; no partial result is returned.
func FromRaw(raw *RawLog) (*Log, error) {
	if isFourPlayer(raw.Rule.Disp) {
		return nil, &ErrNotThreePlayer{Disp: raw.Rule.Disp}
	}

	gameLength := Hanchan
	if isEastOnly(raw.Rule.Disp) {
		gameLength = Tonpuu
	}
	hasAka := raw.Rule.Aka+raw.Rule.Aka51+raw.Rule.Aka52+raw.Rule.Aka53 > 0

	kyokus := make([]Kyoku, 0, len(raw.Logs))
	for _, rk := range raw.Logs {
		k := Kyoku{
			Meta:           rk.Meta,
			Scoreboard:     rk.Scoreboard,
			DoraIndicators: rk.DoraIndicators,
			UraIndicators:  rk.UraIndicators,
		}
		for seat := 0; seat < 4; seat++ {
			k.ActionTables[seat] = ActionTable{
				Haipai:   rk.Haipai[seat],
				Takes:    rk.Takes[seat],
				Discards: rk.Discards[seat],
			}
		}
		end, err := classifyResults(rk.Results, rk.Meta)
		if err != nil {
			return nil, err
		}
		k.EndStatus = end
		kyokus = append(kyokus, k)
	}

	return &Log{
		Names:      raw.Names,
		GameLength: gameLength,
		HasAka:     hasAka,
		Kyokus:     kyokus,
	}, nil
}

// isFourPlayer reports whether the rule text declares a four-player
// game. The site writes it in one of two localized forms; other
// phrasings are a known gap.
func isFourPlayer(disp string) bool {
	return strings.Contains(disp, "四") || strings.Contains(disp, "4-Player")
}

// isEastOnly reports whether the rule text declares an east-only game.
// Absence of a marker means hanchan.
func isEastOnly(disp string) bool {
	return strings.Contains(disp, "東") || strings.Contains(disp, "East")
}

// classifyResults destructures a round's result array into an
// EndStatus. The first element is a status tag; a win tag is followed
// by non-overlapping (score-delta, winner-descriptor) pairs, anything
// else by an optional score-delta array. A trailing unpaired element
// after win pairs is ignored, matching the wire format's padding.
func classifyResults(results []json.RawMessage, meta KyokuMeta) (EndStatus, error) {
	end := EndStatus{Kind: EndRyukyoku}
	if len(results) == 0 {
		return end, nil
	}

	var status string
	if err := json.Unmarshal(results[0], &status); err != nil || status != horaStatus {
		if len(results) > 1 {
			var deltas [4]int
			if err := json.Unmarshal(results[1], &deltas); err == nil {
				end.ScoreDeltas = deltas
			}
		}
		return end, nil
	}

	end = EndStatus{Kind: EndHora}
	for i := 1; i+1 < len(results); i += 2 {
		detail, err := decodeHoraPair(results[i], results[i+1])
		if err != nil {
			return EndStatus{}, &ErrInvalidHoraDetail{KyokuNum: meta.KyokuNum, Honba: meta.Honba}
		}
		end.Horas = append(end.Horas, detail)
	}
	if len(end.Horas) == 0 {
		// the tag said win but no detail pairs were present
		return EndStatus{}, &ErrInvalidHoraDetail{KyokuNum: meta.KyokuNum, Honba: meta.Honba}
	}
	return end, nil
}

// decodeHoraPair decodes one (score-delta array, winner descriptor)
// pair. The descriptor's first two entries must be non-negative seat
// numbers; the rest (point text, yaku list) is not this layer's
// business.
func decodeHoraPair(rawDeltas, rawDescriptor json.RawMessage) (HoraDetail, error) {
	var detail HoraDetail
	if err := json.Unmarshal(rawDeltas, &detail.ScoreDeltas); err != nil {
		return HoraDetail{}, err
	}

	var descriptor []json.RawMessage
	if err := json.Unmarshal(rawDescriptor, &descriptor); err != nil {
		return HoraDetail{}, err
	}
	if len(descriptor) < 2 {
		return HoraDetail{}, errShortDescriptor
	}
	if err := json.Unmarshal(descriptor[0], &detail.Who); err != nil {
		return HoraDetail{}, err
	}
	if err := json.Unmarshal(descriptor[1], &detail.Target); err != nil {
		return HoraDetail{}, err
	}
	if detail.Who < 0 || detail.Target < 0 {
		return HoraDetail{}, errNegativeSeat
	}
	return detail, nil
}

type horaPairError string

func (e horaPairError) Error() string { return string(e) }

const (
	errShortDescriptor = horaPairError("winner descriptor too short")
	errNegativeSeat    = horaPairError("negative seat number")
)
