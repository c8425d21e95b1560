// ABOUTME: Decoding and signature verification for Nylas webhook deliveries
// ABOUTME: Unwraps the {type, data.object} envelope into a WebhookNotification
package nylas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/harperreed/shadecal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Nylas-Signature"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrEmptyWebhook     = errors.New("webhook body is empty")
)

type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object wireEvent `json:"object"`
	} `json:"data"`
}

// DecodeWebhook parses a raw delivery body. The grant id is taken from the
// event object since the envelope does not carry one.
func DecodeWebhook(body []byte) (models.WebhookNotification, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return models.WebhookNotification{}, ErrEmptyWebhook
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.WebhookNotification{}, fmt.Errorf("failed to decode webhook: %w", err)
	}

	event := env.Data.Object.toModel()
	return models.WebhookNotification{
		ID:      env.ID,
		Type:    env.Type,
		GrantID: event.GrantID,
		Event:   event,
	}, nil
}

// Sign computes the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC of body in constant time.
func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
