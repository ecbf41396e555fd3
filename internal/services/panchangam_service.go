package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puja-service/internal/models"
)

type PanchangamService struct {
	DB       *gorm.DB
	Client   AstroFetcher
	Pause    time.Duration
	Location *time.Location
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewPanchangamService(db *gorm.DB, client AstroFetcher, pause time.Duration, loc *time.Location) *PanchangamService {
	if loc == nil {
		loc = time.Local
	}
	return &PanchangamService{DB: db, Client: client, Pause: pause, Location: loc, sleep: sleepCtx}
}

type SyncError struct {
	FactType string `json:"fact_type"`
	Date     string `json:"date"`
	Error    string `json:"error"`
}

type SyncReport struct {
	Fetched []string    `json:"fetched"`
	Skipped []string    `json:"skipped"`
	Errors  []SyncError `json:"errors"`
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SyncDaily caches every fact type for the day of now and the day after.
// Days already cached are skipped, so repeated runs add nothing. A failed
// fetch is recorded in the report and the sync moves on.
func (s *PanchangamService) SyncDaily(ctx context.Context, now time.Time) (SyncReport, error) {
	report := SyncReport{Fetched: []string{}, Skipped: []string{}, Errors: []SyncError{}}

	today := now.In(s.Location)
	days := []time.Time{today, today.AddDate(0, 0, 1)}

	calls := 0
	for _, factType := range FactTypes {
		for _, day := range days {
			date := day.Format(time.DateOnly)
			label := factType + "/" + date

			cached, err := s.exists(factType, date)
			if err != nil {
				return report, err
			}
			if cached {
				report.Skipped = append(report.Skipped, label)
				continue
			}

			if calls > 0 {
				if err := s.sleep(ctx, s.Pause); err != nil {
					return report, err
				}
			}
			calls++

			if err := s.fetchAndStore(ctx, factType, day); err != nil {
				panchangamFetchesTotal.WithLabelValues(factType, "error").Inc()
				log.WithError(err).WithFields(log.Fields{"fact_type": factType, "date": date}).Warn("Panchangam fetch failed")
				report.Errors = append(report.Errors, SyncError{FactType: factType, Date: date, Error: err.Error()})
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				continue
			}
			panchangamFetchesTotal.WithLabelValues(factType, "ok").Inc()
			report.Fetched = append(report.Fetched, label)
		}
	}

	log.WithFields(log.Fields{
		"fetched": len(report.Fetched),
		"skipped": len(report.Skipped),
		"errors":  len(report.Errors),
	}).Info("Panchangam sync finished")
	return report, nil
}

func (s *PanchangamService) exists(factType, date string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.PanchangamEntry{}).
		Where("fact_type = ? AND date = ?", factType, date).
		Count(&count).Error
	return count > 0, err
}

func (s *PanchangamService) fetchAndStore(ctx context.Context, factType string, day time.Time) error {
	output, err := s.Client.Fetch(ctx, factType, day)
	if err != nil {
		return err
	}
	entries, err := NormalizeAstroOutput(factType, day.Format(time.DateOnly), output)
	if err != nil {
		return err
	}
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
}

// Get returns the cached rows for date, optionally of one fact type.
func (s *PanchangamService) Get(date, factType string) ([]models.PanchangamEntry, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, wrap(ErrValidation, "date must be YYYY-MM-DD")
	}
	if factType != "" {
		if _, ok := factEndpoints[factType]; !ok {
			return nil, wrap(ErrValidation, fmt.Sprintf("unknown fact type %q", factType))
		}
	}

	query := s.DB.Where("date = ?", date)
	if factType != "" {
		query = query.Where("fact_type = ?", factType)
	}

	var entries []models.PanchangamEntry
	if err := query.Order("fact_type, seq").Find(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, wrap(ErrNotFound, "no panchangam cached for "+date)
	}
	return entries, nil
}

// Prune removes cached days before cutoff.
func (s *PanchangamService) Prune(cutoff time.Time) (int64, error) {
	res := s.DB.Where("date < ?", cutoff.In(s.Location).Format(time.DateOnly)).Delete(&models.PanchangamEntry{})
	return res.RowsAffected, res.Error
}

// StartScheduler runs SyncDaily on the cron schedule and prunes entries older than
// retention once a day. The returned cron must be stopped on shutdown.
func (s *PanchangamService) StartScheduler(spec string, retention time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.Location))

	_, err := c.AddFunc(spec, func() {
		log.Info("Running scheduled panchangam sync...")
		if _, err := s.SyncDaily(context.Background(), time.Now()); err != nil {
			log.WithError(err).Error("Scheduled panchangam sync failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule panchangam sync: %w", err)
	}

	if retention > 0 {
		_, err = c.AddFunc("30 1 * * *", func() {
			n, err := s.Prune(time.Now().Add(-retention))
			if err != nil {
				log.WithError(err).Error("Panchangam prune failed")
				return
			}
			log.WithField("deleted", n).Info("Pruned old panchangam entries")
		})
		if err != nil {
			return nil, fmt.Errorf("schedule panchangam prune: %w", err)
		}
	}

	c.Start()
	log.WithField("spec", spec).Info("Panchangam scheduler started")
	return c, nil
}
