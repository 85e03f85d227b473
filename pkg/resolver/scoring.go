package resolver

import (
	"regexp"
	"time"

	"github.com/parlwatch/hemicycle/pkg/models"
)

// trustedIDPattern matches official parliament identifiers. Records carrying
// one get a scoring boost over records with locally minted ids.
var trustedIDPattern = regexp.MustCompile(`^person/\d+$`)

const (
	scoreProfileURL = 10
	scoreEmail      = 5
	scorePhoto      = 3
	scoreBirthDate  = 2
	scoreTrustedID  = 5

	recencyBonusMax    = 3.0
	recencyBonusWindow = 30 * 24 * time.Hour
)

// Score rates how complete and fresh a record is. The highest-scoring record
// in a duplicate group survives the merge.
func Score(mep *models.MEP, now time.Time) float64 {
	var score float64

	if mep.ProfileURL != nil && *mep.ProfileURL != "" {
		score += scoreProfileURL
	}
	if mep.Email != nil && *mep.Email != "" {
		score += scoreEmail
	}
	if mep.PhotoURL != nil && *mep.PhotoURL != "" {
		score += scorePhoto
	}
	if mep.BirthDate != nil {
		score += scoreBirthDate
	}
	if trustedIDPattern.MatchString(mep.ID) {
		score += scoreTrustedID
	}

	score += recencyBonus(mep.CreatedAt, now)

	return score
}

// recencyBonus decays linearly from recencyBonusMax at age zero down to zero
// at thirty days.
func recencyBonus(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	if age >= recencyBonusWindow {
		return 0
	}
	return recencyBonusMax * (1 - float64(age)/float64(recencyBonusWindow))
}

// selectSurvivor returns the index of the highest-scoring record. Ties keep
// the earliest record in input order, so selection is deterministic for a
// fixed query order.
func selectSurvivor(group []models.MEP, now time.Time) int {
	best := 0
	bestScore := Score(&group[0], now)

	for i := 1; i < len(group); i++ {
		if s := Score(&group[i], now); s > bestScore {
			best = i
			bestScore = s
		}
	}

	return best
}
