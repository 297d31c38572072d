package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"substack-digest-go/internal/config"
	"substack-digest-go/internal/gmailbox"
	"substack-digest-go/internal/metrics"
	"substack-digest-go/internal/models"
	"substack-digest-go/internal/ratelimit"
)

// Burst-limiter key for the whole fetch operation. One unit is consumed
// per run, before any network I/O.
const (
	burstResource  = "gmail-api"
	burstOperation = "daily-fetch"
)

var (
	// ErrRateLimited means the burst ceiling was already reached and the
	// run performed no network calls.
	ErrRateLimited = errors.New("fetch rate limit exceeded")

	// ErrProviderList means a listing page request failed. Pagination is
	// token-chained, so a mid-walk failure aborts the whole run.
	ErrProviderList = errors.New("mailbox listing failed")

	// ErrStorage means the batch write failed after extraction resolved.
	ErrStorage = errors.New("email storage failed")
)

// MessageRef is an opaque listing handle, discarded after extraction
type MessageRef struct {
	ProviderID string
	ThreadID   string
}

// Store persists extracted emails idempotently, keyed on message id
type Store interface {
	UpsertEmails(emails []models.ExtractedEmail) error
}

// Pipeline runs the newsletter ingestion: burst gate, query window,
// paginated listing, bounded concurrent extraction, batch upsert.
type Pipeline struct {
	mailbox gmailbox.Mailbox
	limiter ratelimit.Limiter
	store   Store
	metrics *metrics.Metrics
	cfg     config.IngestConfig
	domain  string
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(mailbox gmailbox.Mailbox, limiter ratelimit.Limiter, store Store, m *metrics.Metrics, cfg config.IngestConfig, domain string) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Pipeline{
		mailbox: mailbox,
		limiter: limiter,
		store:   store,
		metrics: m,
		cfg:     cfg,
		domain:  domain,
	}
}

// FetchDailySubstacks ingests newsletter emails received within the
// trailing daysBack window and returns the stored records. Per-message
// failures are logged and skipped; rate-limit, listing and storage
// failures abort the run.
func (p *Pipeline) FetchDailySubstacks(ctx context.Context, daysBack int) ([]models.ExtractedEmail, error) {
	started := time.Now()
	p.metrics.FetchRuns.Inc()

	allowed, err := p.limiter.Allow(ctx, burstResource, burstOperation, p.cfg.MaxFetchesPerHour, p.cfg.BurstWindow)
	if err != nil {
		return nil, fmt.Errorf("burst limit check: %w", err)
	}
	if !allowed {
		p.metrics.RateLimitedRuns.Inc()
		logrus.WithFields(logrus.Fields{
			"resource":  burstResource,
			"operation": burstOperation,
			"max_calls": p.cfg.MaxFetchesPerHour,
			"window":    p.cfg.BurstWindow.String(),
		}).Warn("Ingestion run rejected by burst limiter")
		return nil, ErrRateLimited
	}

	window := NewFetchWindow(time.Now(), daysBack)
	query := window.Query(p.domain)

	logrus.WithFields(logrus.Fields{
		"days_back": window.DaysBack,
		"start":     window.Start.Format(time.RFC3339),
		"end":       window.End.Format(time.RFC3339),
		"query":     query,
	}).Info("Starting newsletter ingestion run")

	refs, err := p.listAll(ctx, query)
	if err != nil {
		return nil, err
	}
	p.metrics.MessagesListed.Add(float64(len(refs)))

	results := p.processAll(ctx, refs, p.cfg.Concurrency)

	emails := make([]models.ExtractedEmail, 0, len(results))
	for _, r := range results {
		if r != nil {
			emails = append(emails, *r)
		}
	}

	if err := p.store.UpsertEmails(emails); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	p.metrics.EmailsStored.Add(float64(len(emails)))
	p.metrics.RunDuration.Observe(time.Since(started).Seconds())

	logrus.WithFields(logrus.Fields{
		"listed":   len(refs),
		"stored":   len(emails),
		"skipped":  len(refs) - len(emails),
		"duration": time.Since(started).String(),
	}).Info("Newsletter ingestion run completed")

	return emails, nil
}

// listAll walks the paged listing endpoint with continuation tokens
// until exhausted. Any page failure aborts: the token chain cannot be
// resumed safely.
func (p *Pipeline) listAll(ctx context.Context, query string) ([]MessageRef, error) {
	var refs []MessageRef
	pageToken := ""
	page := 0

	for {
		resp, err := p.mailbox.ListMessages(ctx, query, pageToken, p.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrProviderList, page, err)
		}
		page++

		for _, m := range resp.Messages {
			refs = append(refs, MessageRef{ProviderID: m.Id, ThreadID: m.ThreadId})
		}
		p.metrics.PagesFetched.Inc()

		logrus.WithFields(logrus.Fields{
			"page":      page,
			"page_size": len(resp.Messages),
			"total":     len(refs),
		}).Info("Fetched message page")

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return refs, nil
}

// processAll runs the extractor over all refs with a fixed worker
// ceiling. The result slice preserves input order: worker i writes slot
// i only, nil marks a failed or discarded message.
func (p *Pipeline) processAll(ctx context.Context, refs []MessageRef, concurrency int) []*models.ExtractedEmail {
	results := make([]*models.ExtractedEmail, len(refs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, ref := range refs {
		wg.Add(1)
		go func(idx int, ref MessageRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = p.extract(ctx, ref)
		}(i, ref)
	}

	wg.Wait()
	return results
}

// TestConnection probes the mailbox with a profile call. Any error is
// reported as unhealthy, never propagated.
func (p *Pipeline) TestConnection(ctx context.Context) bool {
	profile, err := p.mailbox.Profile(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Mailbox connection probe failed")
		return false
	}
	logrus.Debugf("Mailbox connection verified for %s", profile.EmailAddress)
	return true
}
