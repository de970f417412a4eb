// Package mailer dispatches coupon notification emails through the Resend
// transactional email API. Dispatch is fire-and-forget, at most once; the
// caller decides whether a send error matters.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/goodloop/leads/internal/metrics"
)

const couponSubject = "Your GoodLoop discount code 🎉"

// Client sends coupon emails through Resend
type Client struct {
	resend *resend.Client
	from   string
	log    *logrus.Logger
}

// NewClient creates a mailer using the given Resend API key and sender
func NewClient(apiKey, from string, log *logrus.Logger) *Client {
	return &Client{
		resend: resend.NewClient(apiKey),
		from:   from,
		log:    log,
	}
}

// SendCoupon renders the coupon email and submits it to the provider
func (c *Client) SendCoupon(ctx context.Context, to, school, code string) error {
	html, err := renderCouponEmail(code, school)
	if err != nil {
		return err
	}

	sent, err := c.resend.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: couponSubject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send coupon email: %w", err)
	}

	metrics.CouponEmails.WithLabelValues("sent").Inc()
	c.log.WithField("send_id", sent.Id).Debug("coupon email sent")
	return nil
}

// Disabled is the mailer used when the provider is unconfigured. Sends are
// skipped and logged; skipping is not an error.
type Disabled struct {
	log *logrus.Logger
}

// NewDisabled creates a mailer that skips every send
func NewDisabled(log *logrus.Logger) *Disabled {
	return &Disabled{log: log}
}

// SendCoupon logs that the send was skipped
func (d *Disabled) SendCoupon(ctx context.Context, to, school, code string) error {
	metrics.CouponEmails.WithLabelValues("skipped").Inc()
	d.log.WithField("email", to).Warn("email provider not configured, skipped coupon email")
	return nil
}
