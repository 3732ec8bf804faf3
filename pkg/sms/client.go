// Package sms sends provider-side template messages through sms.ir.
package sms

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

var ErrNoTemplate = errors.New("sms template not configured")

// Client sends SMS via sms.ir. A disabled client accepts every call and sends nothing.
type Client struct {
	client    *smsir.Client
	templates config.SMSTemplateConfig
	enabled   bool
}

// NewFromConfig creates a new SMS client from the application configuration.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}

	return &Client{
		client:    smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey),
		templates: cfg.SMSIR.Templates,
		enabled:   true,
	}, nil
}

// SendOTP sends code with the OTP template; the template takes a "code" parameter.
func (c *Client) SendOTP(ctx context.Context, phone, code string) error {
	if code == "" {
		return fmt.Errorf("OTP code is required")
	}
	return c.SendTemplate(ctx, phone, c.templates.OTP, map[string]string{"code": code})
}

// AppointmentBooked and AppointmentCancelled take "doctor" and "time" parameters.
func (c *Client) AppointmentBooked(ctx context.Context, phone string, params map[string]string) error {
	return c.SendTemplate(ctx, phone, c.templates.AppointmentBooked, params)
}

func (c *Client) AppointmentCancelled(ctx context.Context, phone string, params map[string]string) error {
	return c.SendTemplate(ctx, phone, c.templates.AppointmentCancelled, params)
}

// SendTemplate sends one UltraFast message.
func (c *Client) SendTemplate(ctx context.Context, phone, templateID string, params map[string]string) error {
	if !c.enabled {
		return nil
	}
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}
	if templateID == "" {
		return ErrNoTemplate
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     phone,
		TemplateID: templateID,
		Parameters: toParameters(params),
	}

	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

func toParameters(params map[string]string) []smsir.UltraFastParameter {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]smsir.UltraFastParameter, 0, len(keys))
	for _, k := range keys {
		out = append(out, smsir.UltraFastParameter{Key: k, Value: params[k]})
	}
	return out
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
