package gmailbox

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"substack-digest-go/internal/config"
)

// Mailbox is the slice of the Gmail API the ingestion pipeline consumes.
type Mailbox interface {
	ListMessages(ctx context.Context, query, pageToken string, pageSize int64) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	Profile(ctx context.Context) (*gmail.Profile, error)
}

// Client wraps an authenticated Gmail service for one mailbox. A client
// owns its own OAuth state, so per-tenant refresh tokens stay isolated.
type Client struct {
	service   *gmail.Service
	userEmail string
}

// NewClient creates a Gmail client from OAuth2 credentials and a refresh token
func NewClient(cfg *config.GmailConfig) (*Client, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	userEmail := cfg.UserEmail
	if userEmail == "" {
		userEmail = "me"
	}

	return &Client{
		service:   service,
		userEmail: userEmail,
	}, nil
}

// ListMessages lists message references matching the query, one page at a time
func (c *Client) ListMessages(ctx context.Context, query, pageToken string, pageSize int64) (*gmail.ListMessagesResponse, error) {
	call := c.service.Users.Messages.List(c.userEmail).
		Q(query).
		MaxResults(pageSize).
		IncludeSpamTrash(false)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Context(ctx).Do()
}

// GetMessage fetches the full payload for one message
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	return c.service.Users.Messages.Get(c.userEmail, id).Format("full").Context(ctx).Do()
}

// Profile fetches the mailbox profile, used as a connectivity probe
func (c *Client) Profile(ctx context.Context) (*gmail.Profile, error) {
	return c.service.Users.GetProfile(c.userEmail).Context(ctx).Do()
}
