// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package tenhou

import (
	"encoding/json"
	"fmt"
)

// Tile is a tenhou tile identifier (11..47, with 51/52/53 for red fives).
type Tile int

// ActionItem is a single take or discard event: a plain tile number, or
// the site's string notation for calls, riichi declarations, and kan
// ("p464646", "r24", "f44", ...). The value is carried verbatim; this
// layer never interprets call strings.
type ActionItem struct {
	Tile Tile
	Call string
}

func (a *ActionItem) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Call)
	}
	return json.Unmarshal(data, &a.Tile)
}

func (a ActionItem) MarshalJSON() ([]byte, error) {
	if a.Call != "" {
		return json.Marshal(a.Call)
	}
	return json.Marshal(a.Tile)
}

// IsCall reports whether the event is string notation rather than a tile.
func (a ActionItem) IsCall() bool {
	return a.Call != ""
}

// Rule is the rule descriptor of a raw document. Disp is free text
// ("三鳳南喰赤" and friends); the aka fields count red tiles in play.
type Rule struct {
	Disp  string `json:"disp"`
	Aka   int    `json:"aka"`
	Aka51 int    `json:"aka51"`
	Aka52 int    `json:"aka52"`
	Aka53 int    `json:"aka53"`
}

// KyokuMeta is the per-round header: round number (0 = East 1), honba
// repeat count, and riichi sticks carried on the table.
type KyokuMeta struct {
	KyokuNum int `json:"kyoku"`
	Honba    int `json:"honba"`
	Kyotaku  int `json:"kyotaku"`
}

// RawLog mirrors the tenhou.net/6 wire document. Everything past Logs,
// Names, and Rule is incidental metadata that the transformer ignores.
type RawLog struct {
	Logs  []RawKyoku `json:"log"`
	Names [4]string  `json:"name"`
	Rule  Rule       `json:"rule"`

	Ver        float64           `json:"ver,omitempty"`
	Ref        string            `json:"ref,omitempty"`
	Lobby      int               `json:"lobby,omitempty"`
	RatingC    string            `json:"ratingc,omitempty"`
	Dan        []string          `json:"dan,omitempty"`
	Rate       []float64         `json:"rate,omitempty"`
	Sx         []string          `json:"sx,omitempty"`
	Sc         []float64         `json:"sc,omitempty"`
	Connection []json.RawMessage `json:"connection,omitempty"`
}

// rawKyokuFields is the number of positional elements in a round entry:
// meta, scoreboard, dora, ura, then (haipai, takes, discards) per seat,
// then the result array.
const rawKyokuFields = 4 + 3*4 + 1

// RawKyoku is one round entry. On the wire it is a 17-element
// heterogeneous array; the custom unmarshaler decodes it positionally.
// Results stays raw until outcome classification.
type RawKyoku struct {
	Meta           KyokuMeta
	Scoreboard     [4]int
	DoraIndicators []Tile
	UraIndicators  []Tile
	Haipai         [4][]Tile
	Takes          [4][]ActionItem
	Discards       [4][]ActionItem
	Results        []json.RawMessage
}

func (k *RawKyoku) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != rawKyokuFields {
		return fmt.Errorf("kyoku entry: want %d fields, got %d", rawKyokuFields, len(fields))
	}

	var meta [3]int
	if err := json.Unmarshal(fields[0], &meta); err != nil {
		return fmt.Errorf("kyoku meta: %w", err)
	}
	k.Meta = KyokuMeta{KyokuNum: meta[0], Honba: meta[1], Kyotaku: meta[2]}

	if err := json.Unmarshal(fields[1], &k.Scoreboard); err != nil {
		return fmt.Errorf("kyoku scoreboard: %w", err)
	}
	if err := json.Unmarshal(fields[2], &k.DoraIndicators); err != nil {
		return fmt.Errorf("kyoku dora indicators: %w", err)
	}
	if err := json.Unmarshal(fields[3], &k.UraIndicators); err != nil {
		return fmt.Errorf("kyoku ura indicators: %w", err)
	}

	for seat := 0; seat < 4; seat++ {
		base := 4 + 3*seat
		if err := json.Unmarshal(fields[base], &k.Haipai[seat]); err != nil {
			return fmt.Errorf("seat %d haipai: %w", seat, err)
		}
		if err := json.Unmarshal(fields[base+1], &k.Takes[seat]); err != nil {
			return fmt.Errorf("seat %d takes: %w", seat, err)
		}
		if err := json.Unmarshal(fields[base+2], &k.Discards[seat]); err != nil {
			return fmt.Errorf("seat %d discards: %w", seat, err)
		}
	}

	if err := json.Unmarshal(fields[rawKyokuFields-1], &k.Results); err != nil {
		return fmt.Errorf("kyoku results: %w", err)
	}
	return nil
}
