package models

import (
	"time"
)

// Email represents a stored newsletter email. Re-ingesting the same
// provider message must update, never duplicate, the row — message_id
// carries the uniqueness invariant.
type Email struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID        string    `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Subject          string    `json:"subject" gorm:"type:varchar(998)"`
	Sender           string    `json:"sender" gorm:"type:varchar(255);index"`
	NewsletterName   string    `json:"newsletter_name" gorm:"type:varchar(255);index"`
	ReceivedAt       time.Time `json:"received_at" gorm:"index"`
	ProcessedAt      time.Time `json:"processed_at"`
	RawHTML          string    `json:"raw_html" gorm:"type:longtext"`
	CleanText        string    `json:"clean_text" gorm:"type:longtext"`
	ProcessingStatus string    `json:"processing_status" gorm:"type:varchar(50);not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Email
func (Email) TableName() string {
	return "emails"
}

// ExtractedEmail is the in-flight record produced by the message
// extractor. It lives for a single ingestion run; the sanitized
// projection lands in the emails table.
type ExtractedEmail struct {
	ID             string    `json:"id"`
	MessageID      string    `json:"message_id"`
	Subject        string    `json:"subject"`
	Sender         string    `json:"sender"`
	NewsletterName string    `json:"newsletter_name"`
	HTML           string    `json:"html"`
	Text           string    `json:"text"`
	ReceivedAt     time.Time `json:"received_at"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// NewsletterCount is one entry of the top-newsletters aggregation
type NewsletterCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsResponse represents the stats endpoint payload
type StatsResponse struct {
	TotalEmails    int64             `json:"total_emails"`
	RecentEmails   int64             `json:"recent_emails"`
	TopNewsletters []NewsletterCount `json:"top_newsletters"`
}

// IngestResponse represents the result of one on-demand ingestion run
type IngestResponse struct {
	DaysBack int       `json:"days_back"`
	Stored   int       `json:"stored"`
	RanAt    time.Time `json:"ran_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Gmail     string            `json:"gmail"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
