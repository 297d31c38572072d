package repository

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"substack-digest-go/internal/models"
	"substack-digest-go/internal/sanitize"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertEmails persists extracted emails keyed on message_id. The batch
// goes in as a single statement, so a write failure persists nothing and
// re-runs over an overlapping window update rows instead of duplicating
// them. Free-text fields are redacted before they reach storage.
func (r *Repository) UpsertEmails(emails []models.ExtractedEmail) error {
	if len(emails) == 0 {
		return nil
	}

	rows := make([]models.Email, len(emails))
	for i, e := range emails {
		rows[i] = models.Email{
			MessageID:        e.MessageID,
			Subject:          sanitize.Redact(e.Subject),
			Sender:           sanitize.Redact(e.Sender),
			NewsletterName:   e.NewsletterName,
			ReceivedAt:       e.ReceivedAt,
			ProcessedAt:      e.ProcessedAt,
			RawHTML:          sanitize.Redact(e.HTML),
			CleanText:        sanitize.Redact(e.Text),
			ProcessingStatus: "completed",
		}
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subject", "sender", "newsletter_name", "received_at",
			"processed_at", "raw_html", "clean_text", "processing_status",
		}),
	}).Create(&rows)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert emails: %w", result.Error)
	}

	return nil
}

// Stats aggregates email counts: all time, trailing 7 days, and the top
// ten newsletters of the trailing 30 days by message count.
func (r *Repository) Stats() (*models.StatsResponse, error) {
	stats := &models.StatsResponse{}

	if err := r.db.Model(&models.Email{}).Count(&stats.TotalEmails).Error; err != nil {
		return nil, fmt.Errorf("failed to count emails: %w", err)
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := r.db.Model(&models.Email{}).
		Where("received_at > ?", weekAgo).
		Count(&stats.RecentEmails).Error; err != nil {
		return nil, fmt.Errorf("failed to count recent emails: %w", err)
	}

	monthAgo := time.Now().AddDate(0, 0, -30)
	var names []string
	if err := r.db.Model(&models.Email{}).
		Where("received_at > ?", monthAgo).
		Pluck("newsletter_name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to load newsletter names: %w", err)
	}

	stats.TopNewsletters = topNewsletters(names, 10)
	return stats, nil
}

// topNewsletters groups, counts and sorts client-side
func topNewsletters(names []string, limit int) []models.NewsletterCount {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}

	top := make([]models.NewsletterCount, 0, len(counts))
	for name, count := range counts {
		top = append(top, models.NewsletterCount{Name: name, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Name < top[j].Name
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// RecentEmails returns the newest stored rows for the listing endpoint
func (r *Repository) RecentEmails(limit int) ([]models.Email, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.Email
	if err := r.db.Order("received_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load emails: %w", err)
	}
	return rows, nil
}

// TestConnection probes the database; any error reads as unhealthy
func (r *Repository) TestConnection() bool {
	return r.db.Exec("SELECT 1").Error == nil
}
