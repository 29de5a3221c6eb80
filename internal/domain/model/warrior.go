// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel kinds for invalid warriors.
var (
	ErrEmptyName     = errors.New("name must not be empty")
	ErrNegativeCount = errors.New("fight counts must not be negative")
	ErrNotInteger    = errors.New("value is not an integer")
)

// Warrior is the record the pipeline moves from the seed object into the table.
// ID is the table key; re-upserting an ID overwrites the previous values.
type Warrior struct {
	ID         int64
	Name       string
	FightsWon  int64
	FightsLoss int64
}

// Validate checks the record invariants.
func (w Warrior) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("warrior %d: %w", w.ID, ErrEmptyName)
	}
	if w.FightsWon < 0 || w.FightsLoss < 0 {
		return fmt.Errorf("warrior %d: %w", w.ID, ErrNegativeCount)
	}
	return nil
}

// Number is an integer that decodes from a JSON number or a numeric string.
// Uploaded payloads carry both forms, e.g. {"warriorId": 1} and {"warriorId": "1"}.
type Number int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("null: %w", ErrNotInteger)
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}
	v, err := parseInteger(string(raw))
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// MarshalJSON implements json.Marshaler; numbers are always written as JSON numbers.
func (n Number) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(n), 10), nil
}

// parseInteger parses s without going through float64 when s is an integer
// literal, so every int64 survives. Integral floats such as "20.0" or "2e1"
// are accepted when they fit.
func parseInteger(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q: %w", s, ErrNotInteger)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%q out of range: %w", s, ErrNotInteger)
	}
	return int64(f), nil
}

// WireWarrior is the shape of one element of the seed object payload.
type WireWarrior struct {
	WarriorID  Number `json:"warriorId"`
	Name       string `json:"name"`
	FightsWon  Number `json:"fightsWon"`
	FightsLoss Number `json:"fightsLoss"`
}

// Warrior converts the wire form to the domain form.
func (w WireWarrior) Warrior() Warrior {
	return Warrior{
		ID:         int64(w.WarriorID),
		Name:       w.Name,
		FightsWon:  int64(w.FightsWon),
		FightsLoss: int64(w.FightsLoss),
	}
}

// Wire converts the domain form to the wire form.
func (w Warrior) Wire() WireWarrior {
	return WireWarrior{
		WarriorID:  Number(w.ID),
		Name:       w.Name,
		FightsWon:  Number(w.FightsWon),
		FightsLoss: Number(w.FightsLoss),
	}
}

// Item is the record table representation keyed by id.
type Item struct {
	ID         int64  `dynamodbav:"id" json:"id"`
	Name       string `dynamodbav:"name" json:"name"`
	FightsWon  int64  `dynamodbav:"fightsWon" json:"fightsWon"`
	FightsLoss int64  `dynamodbav:"fightsLoss" json:"fightsLoss"`
}

// Item converts the domain form to the table form.
func (w Warrior) Item() Item {
	return Item(w)
}

// Warrior converts the table form to the domain form.
func (i Item) Warrior() Warrior {
	return Warrior(i)
}
