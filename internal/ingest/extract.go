package ingest

import (
	"context"
	"encoding/base64"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"
	gmail "google.golang.org/api/gmail/v1"

	"substack-digest-go/internal/htmltext"
	"substack-digest-go/internal/models"
)

// minTextLength is the content gate: extracted text shorter than this is
// discarded so near-empty receipts and footers never reach storage.
const minTextLength = 100

// extract fetches and parses one message. It never propagates an error:
// every failure is logged and mapped to nil so sibling messages are
// unaffected.
func (p *Pipeline) extract(ctx context.Context, ref MessageRef) *models.ExtractedEmail {
	msg, err := p.mailbox.GetMessage(ctx, ref.ProviderID)
	if err != nil {
		p.metrics.ExtractFailures.Inc()
		logrus.WithError(err).WithField("provider_id", ref.ProviderID).Warn("Failed to fetch message")
		return nil
	}

	if msg == nil || msg.Payload == nil {
		p.metrics.ExtractFailures.Inc()
		logrus.WithField("provider_id", ref.ProviderID).Warn("Message missing expected payload schema")
		return nil
	}

	now := time.Now()

	subject := headerValue(msg.Payload.Headers, "Subject", "No Subject")
	from := headerValue(msg.Payload.Headers, "From", "")
	sender := from
	if sender == "" {
		sender = "Unknown Sender"
	}
	messageID := headerValue(msg.Payload.Headers, "Message-ID", msg.Id)
	receivedAt := parseDate(headerValue(msg.Payload.Headers, "Date", ""), now)

	html := extractHTML(msg.Payload)
	text := htmltext.Normalize(html)

	if len(text) < minTextLength {
		p.metrics.EmailsDiscarded.Inc()
		logrus.WithFields(logrus.Fields{
			"provider_id": msg.Id,
			"length":      len(text),
		}).Info("Discarding email with insufficient content")
		return nil
	}

	p.metrics.EmailsExtracted.Inc()

	return &models.ExtractedEmail{
		ID:             msg.Id,
		MessageID:      messageID,
		Subject:        subject,
		Sender:         sender,
		NewsletterName: DeriveNewsletterName(from, p.domain),
		HTML:           html,
		Text:           text,
		ReceivedAt:     receivedAt,
		ProcessedAt:    now,
	}
}

// headerValue returns the first non-empty value for name, or fallback
func headerValue(headers []*gmail.MessagePartHeader, name, fallback string) string {
	for _, h := range headers {
		if h.Name == name && h.Value != "" {
			return h.Value
		}
	}
	return fallback
}

// Date headers in the wild drift from RFC 5322; these cover the variants
// net/mail rejects.
var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
}

func parseDate(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	if t, err := mail.ParseDate(value); err == nil {
		return t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}

// extractHTML walks the MIME part tree for an HTML payload with ordered
// fallbacks: first text/html leaf among the parts (including one nested
// level), then a text/html top-level payload, then whatever top-level
// body exists even if it is not HTML.
func extractHTML(payload *gmail.MessagePart) string {
	for _, part := range payload.Parts {
		if part.MimeType == "text/html" {
			if s := decodeBody(part.Body); s != "" {
				return s
			}
		}
		for _, sub := range part.Parts {
			if sub.MimeType == "text/html" {
				if s := decodeBody(sub.Body); s != "" {
					return s
				}
			}
		}
	}

	if payload.MimeType == "text/html" {
		if s := decodeBody(payload.Body); s != "" {
			return s
		}
	}

	return decodeBody(payload.Body)
}

func decodeBody(body *gmail.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	data, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(body.Data)
		if err != nil {
			return ""
		}
	}
	return string(data)
}
