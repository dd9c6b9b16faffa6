package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"konnectia/internal/metrics"
)

// SMSSender hands a text message to the SMS provider.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type twilioSMSService struct {
	client  *twilio.RestClient
	from    string
	timeout time.Duration
}

func NewTwilioSMSService(accountSID, authToken, from string, timeout time.Duration) SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	// Bounds the HTTP call itself, so an abandoned send cannot complete late.
	client.SetTimeout(timeout)
	return &twilioSMSService{client: client, from: from, timeout: timeout}
}

// Send gives up once the timeout or ctx expires. The provider call does not
// take a context; its HTTP client carries the same timeout.
func (s *twilioSMSService) Send(ctx context.Context, to, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	done := make(chan error, 1)
	go func() {
		resp, err := s.client.Api.CreateMessage(params)
		if err == nil && resp.Sid != nil {
			log.Debug().Str("sid", *resp.Sid).Msg("SMS accepted by provider")
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			metrics.MessagesSentTotal.WithLabelValues("sms", "error").Inc()
			return fmt.Errorf("failed to send SMS: %w", err)
		}
		metrics.MessagesSentTotal.WithLabelValues("sms", "success").Inc()
		return nil
	case <-ctx.Done():
		metrics.MessagesSentTotal.WithLabelValues("sms", "timeout").Inc()
		return fmt.Errorf("failed to send SMS: %w", ctx.Err())
	}
}
