package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ContentType of every payload object.
const ContentType = "application/json"

// Sentinel kinds for payload decoding.
var (
	ErrInvalidUTF8   = errors.New("payload is not valid UTF-8")
	ErrNotAnArray    = errors.New("payload is not a JSON array")
	ErrTrailingBytes = errors.New("payload has trailing data")
	ErrMissingField  = errors.New("required field is missing")
)

// payloadElement tracks which numeric fields an element actually carried.
type payloadElement struct {
	WarriorID  *Number `json:"warriorId"`
	Name       string  `json:"name"`
	FightsWon  *Number `json:"fightsWon"`
	FightsLoss *Number `json:"fightsLoss"`
}

func (e payloadElement) warrior() (Warrior, error) {
	for _, f := range []struct {
		name string
		v    *Number
	}{
		{"warriorId", e.WarriorID},
		{"fightsWon", e.FightsWon},
		{"fightsLoss", e.FightsLoss},
	} {
		if f.v == nil {
			return Warrior{}, fmt.Errorf("%s: %w", f.name, ErrMissingField)
		}
	}
	return WireWarrior{
		WarriorID:  *e.WarriorID,
		Name:       e.Name,
		FightsWon:  *e.FightsWon,
		FightsLoss: *e.FightsLoss,
	}.Warrior(), nil
}

// EncodePayload serializes warriors into the object payload.
func EncodePayload(warriors []Warrior) ([]byte, error) {
	wire := make([]WireWarrior, len(warriors))
	for i, w := range warriors {
		wire[i] = w.Wire()
	}
	return json.Marshal(wire)
}

// ParsePayload decodes an object payload into warriors, keeping payload order.
// Numeric fields are coerced and every warrior is validated.
func ParsePayload(body []byte) ([]Warrior, error) {
	if !utf8.Valid(body) {
		return nil, ErrInvalidUTF8
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotAnArray
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var wire []payloadElement
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if dec.More() {
		return nil, ErrTrailingBytes
	}

	out := make([]Warrior, 0, len(wire))
	for i, el := range wire {
		w, err := el.warrior()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, w)
	}
	return out, nil
}
