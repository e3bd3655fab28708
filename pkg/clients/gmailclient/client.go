package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
)

// Client wraps the Gmail API client used to email availability links
type Client struct {
	service      *gmail.Service
	sender       string
	interval     time.Duration
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client that mints access tokens from the
// configured refresh token. No interactive consent flow is needed.
func NewClient(ctx context.Context, cfg *config.GmailConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gmail is not configured")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:  service,
		sender:   cfg.Sender,
		interval: EmailInterval,
	}, nil
}
