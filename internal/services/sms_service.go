package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender delivers a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

var errSMSNotConfigured = errors.New("sms transport is not configured")

type SMSService struct {
	client *twilio.RestClient
	from   string
}

func NewSMSService(accountSID, authToken, from string) *SMSService {
	s := &SMSService{from: from}
	if accountSID != "" && authToken != "" {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return s
}

func (s *SMSService) SendSMS(ctx context.Context, to, body string) error {
	if s.client == nil || s.from == "" {
		return errSMSNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms to %s: %w", to, err)
	}
	if resp.ErrorCode != nil {
		return fmt.Errorf("failed to send sms to %s: code %d", to, *resp.ErrorCode)
	}
	return nil
}
