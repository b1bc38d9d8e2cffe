package messaging

import (
	"context"
	"fmt"

	"github.com/peterssg513/willowandwater-sub001/internal/utils"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
)

type TwilioSender struct {
	client    *twilio.RestClient
	fromPhone string
}

// NewTwilioSender returns nil when credentials or the sender number are
// missing, which callers treat as "SMS not configured".
func NewTwilioSender(accountSID, authToken, fromPhone string) SMSSender {
	if accountSID == "" || authToken == "" || fromPhone == "" {
		utils.Logger.Warn("Twilio is not configured; SMS delivery disabled")
		return nil
	}
	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: twClient, fromPhone: fromPhone}
}

func (s *TwilioSender) SendSMS(_ context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromPhone)
	params.SetBody(body)
	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio create message: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// ValidateTwilioSignature checks X-Twilio-Signature against the full request
// URL and the posted form parameters.
func ValidateTwilioSignature(authToken, url string, params map[string]string, signature string) bool {
	validator := client.NewRequestValidator(authToken)
	return validator.Validate(url, params, signature)
}

// ReplyTwiML renders a messaging response. An empty body renders an empty
// <Response/> so the provider sends nothing back.
func ReplyTwiML(body string) (string, error) {
	var verbs []twiml.Element
	if body != "" {
		verbs = append(verbs, &twiml.MessagingMessage{Body: body})
	}
	return twiml.Messages(verbs)
}
