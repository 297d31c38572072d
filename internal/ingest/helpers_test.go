package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"substack-digest-go/internal/config"
	"substack-digest-go/internal/metrics"
	"substack-digest-go/internal/models"
)

// Prometheus collectors register globally, so the package shares one set
var testMetrics = metrics.NewMetrics()

func testConfig() config.IngestConfig {
	return config.IngestConfig{
		DaysBack:          30,
		Concurrency:       5,
		PageSize:          100,
		MaxFetchesPerHour: 5,
		BurstWindow:       time.Hour,
	}
}

// fakeMailbox serves canned pages and messages
type fakeMailbox struct {
	mu         sync.Mutex
	pages      []*gmail.ListMessagesResponse
	listErrAt  int // page index that fails, -1 for none
	messages   map[string]*gmail.Message
	getErr     map[string]error
	getDelay   map[string]time.Duration
	profileErr error
	listCalls  int
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		listErrAt: -1,
		messages:  make(map[string]*gmail.Message),
		getErr:    make(map[string]error),
		getDelay:  make(map[string]time.Duration),
	}
}

func (f *fakeMailbox) ListMessages(ctx context.Context, query, pageToken string, pageSize int64) (*gmail.ListMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	page := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &page)
	}
	f.listCalls++

	if page == f.listErrAt {
		return nil, fmt.Errorf("listing blew up on page %d", page)
	}
	if page >= len(f.pages) {
		return &gmail.ListMessagesResponse{}, nil
	}
	return f.pages[page], nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	f.mu.Lock()
	delay := f.getDelay[id]
	err := f.getErr[id]
	msg := f.messages[id]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (f *fakeMailbox) Profile(ctx context.Context) (*gmail.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &gmail.Profile{EmailAddress: "reader@example.com"}, nil
}

// stubLimiter answers every check the same way
type stubLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubLimiter) Allow(ctx context.Context, resource, operation string, maxCalls int, window time.Duration) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

// captureStore records the batches it receives
type captureStore struct {
	batches [][]models.ExtractedEmail
	err     error
}

func (s *captureStore) UpsertEmails(emails []models.ExtractedEmail) error {
	s.batches = append(s.batches, emails)
	return s.err
}

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

// htmlMessage builds a full message whose first part is a text/html leaf
func htmlMessage(id, subject, from, body string) *gmail.Message {
	return &gmail.Message{
		Id: id,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: from},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
				{Name: "Message-ID", Value: "<" + id + "@mail.example.com>"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encodeBody("plain")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encodeBody(body)}},
			},
		},
	}
}

func longBody(prefix string) string {
	body := "<p>" + prefix
	for len(body) < 400 {
		body += " lorem ipsum dolor sit amet"
	}
	return body + "</p>"
}

func testPipeline(mailbox *fakeMailbox, limiter *stubLimiter, store *captureStore) *Pipeline {
	return NewPipeline(mailbox, limiter, store, testMetrics, testConfig(), "substack.com")
}
