package domain

import (
	"time"

	"github.com/google/uuid"
)

// SeedQuotes returns the example quotes a fresh store starts with. Each
// call yields new IDs; timestamps are relative to now.
func SeedQuotes(now time.Time) []Quote {
	ms := now.UnixMilli()

	return []Quote{
		{
			ID:        uuid.NewString(),
			Name:      "Herr Müller",
			Text:      "Geschichte besteht nicht nur aus Daten und Namen, sie ist der Klatsch der Vergangenheit.",
			Type:      RoleTeacher,
			Timestamp: ms - 100_000_000,
		},
		{
			ID:        uuid.NewString(),
			Name:      "Sarah Jenkins",
			Text:      "Können wir heute bitte draußen Unterricht machen? Die Sonne ruft förmlich meinen Namen.",
			Type:      RoleStudent,
			Timestamp: ms - 50_000_000,
		},
	}
}
