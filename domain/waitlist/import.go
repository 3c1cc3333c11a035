package waitlist

import (
	"context"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
)

type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// ImportFileEntries copies file-backend signups into the database, keeping their
// original timestamps. Emails already in the database are skipped. The file is
// never modified.
func ImportFileEntries(ctx context.Context, file *FileStore, database *DatabaseStore, logger *log.Logger) (*ImportReport, error) {
	entries, err := file.Read(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !signupEmailPattern.MatchString(entry.Email) {
			logger.Warn("Skipping file entry with invalid email", "id", entry.ID)
			report.Invalid++
			continue
		}

		inserted, err := database.ImportEntry(ctx, entry.Email, parseFileTimestamp(entry.Timestamp))
		if err != nil {
			return report, err
		}

		if inserted {
			report.Imported++
		} else {
			report.Skipped++
		}
	}

	logger.Info("File entries imported", "imported", report.Imported, "skipped", report.Skipped, "invalid", report.Invalid)
	return report, nil
}

func parseFileTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}
