package seed

import (
	"errors"
	"fmt"
	"os"

	"github.com/okian/acolyte/internal/domain/model"
)

// ErrEmptyRoster is returned for a roster file without warriors.
var ErrEmptyRoster = errors.New("roster is empty")

// ReadRoster loads a roster from a JSON file in payload shape. An empty path
// yields the default roster.
func ReadRoster(path string) ([]model.Warrior, error) {
	if path == "" {
		return DefaultRoster(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	roster, err := model.ParsePayload(b)
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyRoster)
	}
	return roster, nil
}
