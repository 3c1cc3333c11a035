package waitlist

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"gorm.io/gorm"
)

// DatabaseStore is the primary stage. Every call runs behind a circuit breaker
// so a dead database fails fast into the file stage.
type DatabaseStore struct {
	db      *gorm.DB
	breaker *circuitbreaker.Breaker
}

// NewDatabaseCircuitBreaker counts only database errors against the circuit;
// duplicates and cancelled requests leave it alone. Transitions are logged
// when logger is set.
func NewDatabaseCircuitBreaker(config *circuitbreaker.Config, logger *log.Logger) *circuitbreaker.Breaker {
	cfg := *circuitbreaker.DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return false
			}
			return apperrors.IsType(err, apperrors.ErrorTypeDatabaseError)
		}
	}
	if cfg.OnStateChange == nil && logger != nil {
		cfg.OnStateChange = func(from, to circuitbreaker.State) {
			logger.Warn("Database circuit changed state", "from", from.String(), "to", to.String())
		}
	}
	return circuitbreaker.New(&cfg)
}

func NewDatabaseStore(db *gorm.DB, breaker *circuitbreaker.Breaker) *DatabaseStore {
	if breaker == nil {
		breaker = NewDatabaseCircuitBreaker(nil, nil)
	}
	return &DatabaseStore{db: db, breaker: breaker}
}

func (s *DatabaseStore) Name() StorageKind {
	return StorageDatabase
}

func (s *DatabaseStore) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return apperrors.NewDatabaseError("database circuit is open", err)
	}
	return err
}

func (s *DatabaseStore) Submit(ctx context.Context, email string) (string, error) {
	var id string

	err := s.guard(ctx, func(ctx context.Context) error {
		var existing models.WaitlistEntry
		err := s.db.WithContext(ctx).Select("id").Where("email = ?", email).Take(&existing).Error
		if err == nil {
			return apperrors.NewDuplicateError(MessageDuplicateEmail, nil)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewDatabaseError("failed to look up waitlist email", err)
		}

		entry := models.WaitlistEntry{Email: email}
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			// Lost a race against a concurrent insert of the same email.
			if errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err) {
				return apperrors.NewDuplicateError(MessageDuplicateEmail, err)
			}
			return apperrors.NewDatabaseError("failed to insert waitlist entry", err)
		}

		id = strconv.FormatUint(uint64(entry.ID), 10)
		return nil
	})

	return id, err
}

func (s *DatabaseStore) List(ctx context.Context) (*ListWaitlistResponse, error) {
	var resp *ListWaitlistResponse

	err := s.guard(ctx, func(ctx context.Context) error {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error; err != nil {
			return apperrors.NewDatabaseError("failed to count waitlist entries", err)
		}

		var rows []models.WaitlistEntry
		if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
			return apperrors.NewDatabaseError("failed to fetch waitlist entries", err)
		}

		listed := make([]ListedEntry, 0, len(rows))
		for i := range rows {
			listed = append(listed, ToDatabaseListedEntry(&rows[i]))
		}

		resp = newListResponse(StorageDatabase, listed)
		resp.Count = int(count)
		return nil
	})

	return resp, err
}

// ImportEntry inserts email with its original creation time unless the email
// is already stored. It reports whether a row was written.
func (s *DatabaseStore) ImportEntry(ctx context.Context, email string, createdAt time.Time) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, apperrors.NewDatabaseError("failed to look up waitlist email", err)
	}
	if count > 0 {
		return false, nil
	}

	entry := models.WaitlistEntry{Email: email, CreatedAt: createdAt}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, apperrors.NewDatabaseError("failed to insert waitlist entry", err)
	}
	return true, nil
}
