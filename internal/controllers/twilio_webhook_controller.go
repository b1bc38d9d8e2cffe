package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/services"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type SMSCommandHandler interface {
	Handle(ctx context.Context, msg services.InboundSMS) string
}

type TwilioWebhookController struct {
	authToken string
	publicURL string
	handler   SMSCommandHandler
}

// NewTwilioWebhookController verifies X-Twilio-Signature only when an auth
// token is set. publicURL is the externally visible base URL Twilio posts to;
// when empty it is rebuilt from the request.
func NewTwilioWebhookController(authToken, publicURL string, h SMSCommandHandler) *TwilioWebhookController {
	return &TwilioWebhookController{
		authToken: authToken,
		publicURL: strings.TrimRight(publicURL, "/"),
		handler:   h,
	}
}

// InboundSMSHandler -> POST /api/v1/webhooks/twilio/sms
func (c *TwilioWebhookController) InboundSMSHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid form payload", nil, err)
		return
	}

	if c.authToken != "" {
		params := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		sig := r.Header.Get("X-Twilio-Signature")
		if sig == "" || !messaging.ValidateTwilioSignature(c.authToken, c.requestURL(r), params, sig) {
			utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeUnauthorized, "Invalid Twilio signature", nil)
			return
		}
	}

	reply := c.handler.Handle(r.Context(), services.InboundSMS{
		From:       r.PostForm.Get("From"),
		Body:       r.PostForm.Get("Body"),
		MessageSID: r.PostForm.Get("MessageSid"),
	})

	body, err := messaging.ReplyTwiML(reply)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to render TwiML reply")
		body = emptyTwiML
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (c *TwilioWebhookController) requestURL(r *http.Request) string {
	if c.publicURL != "" {
		return c.publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
