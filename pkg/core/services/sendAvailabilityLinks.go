package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// Mailer sends a plain text email
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// MemberDirectory lists members
type MemberDirectory interface {
	ListMembers(ctx context.Context) ([]db.Member, error)
}

// LinkSent represents a member who was successfully sent their availability link
type LinkSent struct {
	MemberID   string
	MemberName string
	Email      string
	Link       string
}

// FailedEmail represents a member whose email could not be sent
type FailedEmail struct {
	MemberID   string
	MemberName string
	Email      string
	Error      string
}

// SendAvailabilityLinks emails every active member their personal
// availability link for targetMonth.
// Returns members who were sent links and those where sending failed.
func SendAvailabilityLinks(
	ctx context.Context,
	members MemberDirectory,
	mailer Mailer,
	cfg *config.Config,
	logger *zap.Logger,
	targetMonth string,
) ([]LinkSent, []FailedEmail, error) {
	logger.Debug("Starting sendAvailabilityLinks", zap.String("target_month", targetMonth))

	month, err := model.ParseMonth(targetMonth)
	if err != nil {
		return nil, nil, err
	}
	if cfg.PublicBaseURL == "" {
		return nil, nil, fmt.Errorf("publicBaseURL must be configured to build availability links")
	}
	base, err := url.Parse(cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid publicBaseURL: %w", err)
	}

	logger.Debug("Fetching members")
	all, err := members.ListMembers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch members: %w", err)
	}
	logger.Debug("Found members", zap.Int("count", len(all)))

	recipients := []db.Member{}
	for _, m := range all {
		if !m.Active {
			logger.Debug("Skipping inactive member", zap.String("member_id", m.ID))
			continue
		}
		if m.Email == "" || m.AvailabilityToken == "" {
			logger.Warn("Skipping member without email or availability token", zap.String("member_id", m.ID))
			continue
		}
		recipients = append(recipients, m)
	}

	if len(recipients) == 0 {
		logger.Info("No members to send availability links to")
		return []LinkSent{}, []FailedEmail{}, nil
	}

	monthName := month.Format("January 2006")
	sent := []LinkSent{}
	failed := []FailedEmail{}

	for _, m := range recipients {
		link := availabilityLink(base, m.AvailabilityToken, targetMonth)
		subject := fmt.Sprintf("Your availability for %s", monthName)
		body := fmt.Sprintf("Hi %s\n\nPlease let us know which Sundays you can serve in %s:\n%s\n\nYou can change your answers until the 20th of this month.\n\nThanks\nThe worship team\n",
			firstName(m.Name), monthName, link)

		logger.Info("Sending availability link", zap.String("member_id", m.ID), zap.String("email", m.Email))

		if err := mailer.SendEmail(m.Email, subject, body); err != nil {
			logger.Warn("Failed to send availability link",
				zap.String("member_id", m.ID),
				zap.String("email", m.Email),
				zap.Error(err))

			failed = append(failed, FailedEmail{
				MemberID:   m.ID,
				MemberName: m.Name,
				Email:      m.Email,
				Error:      err.Error(),
			})
			continue
		}

		sent = append(sent, LinkSent{
			MemberID:   m.ID,
			MemberName: m.Name,
			Email:      m.Email,
			Link:       link,
		})
	}

	// If all emails failed, return error
	if len(failed) == len(recipients) {
		return nil, nil, fmt.Errorf("all %d availability link email attempts failed", len(failed))
	}

	logger.Debug("Send availability links completed",
		zap.Int("links_sent", len(sent)),
		zap.Int("links_failed", len(failed)))

	return sent, failed, nil
}

func availabilityLink(base *url.URL, token, targetMonth string) string {
	u := base.JoinPath("availability", token)
	q := u.Query()
	q.Set("targetMonth", targetMonth)
	u.RawQuery = q.Encode()
	return u.String()
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}
