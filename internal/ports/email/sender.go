package email

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("email sender not configured")

// Templates registrados en el proveedor.
const (
	TemplateAccountSetup        = "account-setup"
	TemplateGiftReceived        = "gift-received"
	TemplateGiftPurchaseConfirm = "gift-purchase-confirmation"
	TemplateGiftScheduled       = "gift-scheduled"
	TemplateGiftRenewalReminder = "gift-renewal-reminder"
	TemplateCareUpdate          = "care-update"
	TemplateReviewNotification  = "review-notification"
	TemplateIntegrityAlert      = "integrity-alert"
)

type Message struct {
	To       string
	Template string
	Model    map[string]any
	Tag      string
}

// Sender envía emails transaccionales por template.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
