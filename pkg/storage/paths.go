package storage

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/pkg/derivative"
)

// DailyKey builds {tier}/{family}/{user}/{date}/{token}.jpg.
func DailyKey(tier derivative.Tier, familyID, userID uuid.UUID, date, token string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s.jpg", tier, familyID, userID, date, token)
}

// DailyKeys returns one key per tier, all sharing the same token.
func DailyKeys(tiers []derivative.Tier, familyID, userID uuid.UUID, date, token string) map[derivative.Tier]string {
	keys := make(map[derivative.Tier]string, len(tiers))
	for _, t := range tiers {
		keys[t] = DailyKey(t, familyID, userID, date, token)
	}
	return keys
}

// NewToken returns a fresh upload token.
func NewToken() string {
	return uuid.NewString()
}

// AvatarKey is the fixed, overwritten-in-place location of a user's avatar.
func AvatarKey(userID uuid.UUID) string {
	return fmt.Sprintf("avatars/%s.jpg", userID)
}
