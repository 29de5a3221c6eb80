package smoke

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/okian/acolyte/internal/domain/model"
)

// Limits for generated fight counts.
const maxFights = 100

var names = []string{"Cena", "Edge", "Batista", "Mysterio", "Jericho", "Christian", "Sheamus", "Punk"}

// randomInt returns a value in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}

// generateWarriors builds n warriors with ids from uploadIDBase up.
func generateWarriors(n int) []model.Warrior {
	out := make([]model.Warrior, n)
	for i := range out {
		id := int64(uploadIDBase + i)
		out[i] = model.Warrior{
			ID:         id,
			Name:       names[randomInt(int64(len(names)))] + "-" + strconv.FormatInt(id, 10),
			FightsWon:  randomInt(maxFights),
			FightsLoss: randomInt(maxFights),
		}
	}
	return out
}
