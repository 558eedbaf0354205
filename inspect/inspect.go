// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package inspect reports surface facts about a raw tenhou.net/6
// document without running the full decoder. It is tolerant of fields
// the decoder would reject; the point is a quick look at what a file
// claims to be.
package inspect

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Summary is the shallow view of one document.
type Summary struct {
	Ref     string
	Rule    string
	Names   []string
	Dan     []string
	Ratings []float64
	Rounds  int
	HasAka  bool
}

// File reads and summarizes one document.
func File(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Bytes summarizes a document already in memory.
func Bytes(data []byte) (*Summary, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not a json document")
	}
	doc := gjson.ParseBytes(data)

	s := &Summary{
		Ref:    doc.Get("ref").String(),
		Rule:   doc.Get("rule.disp").String(),
		Rounds: len(doc.Get("log").Array()),
	}

	doc.Get("name").ForEach(func(_, v gjson.Result) bool {
		s.Names = append(s.Names, v.String())
		return true
	})
	doc.Get("dan").ForEach(func(_, v gjson.Result) bool {
		s.Dan = append(s.Dan, v.String())
		return true
	})
	doc.Get("rate").ForEach(func(_, v gjson.Result) bool {
		s.Ratings = append(s.Ratings, v.Float())
		return true
	})

	aka := doc.Get("rule.aka").Int() +
		doc.Get("rule.aka51").Int() +
		doc.Get("rule.aka52").Int() +
		doc.Get("rule.aka53").Int()
	s.HasAka = aka > 0

	return s, nil
}
