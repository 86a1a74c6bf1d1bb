package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
)

const (
	EventAccountProvisioned = "account.provisioned"
	EventInvoiceGenerated   = "invoice.generated"
	EventInvoiceRendered    = "invoice.rendered"
	EventInvoiceReconciled  = "invoice.reconciled"
	EventPaymentRecorded    = "payment.recorded"
	EventPaymentPaid        = "payment.paid"
	EventPaymentStatus      = "payment.status_changed"
	EventRentalStatus       = "rental.status_changed"
)

// publishEvent is best-effort: failures are logged and never returned.
func publishEvent(ctx context.Context, eventType string, ref models.Owner, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		config.LogError(config.GetLogger(), "events.go", "publishEvent", "Marshal payload", eventType, err)
		return
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := config.PubSubMessage{
		EventType:     eventType,
		ReferenceType: string(ref.Kind),
		ReferenceId:   ref.ID,
		OccurredAt:    time.Now().UTC(),
		CorrelationId: correlationId,
		Payload:       data,
	}
	if _, err := config.PublishDomainEvent(ctx, msg); err != nil {
		config.LogError(config.GetLogger(), "events.go", "publishEvent", "PublishDomainEvent", msg, err)
	}
}

// HandleDomainEvent reacts to events read back from the subscription.
// Payment changes reconcile their invoice; everything else is ignored.
// Returning an error asks for redelivery.
func HandleDomainEvent(ctx context.Context, msg config.PubSubMessage) error {
	switch msg.EventType {
	case EventPaymentRecorded, EventPaymentPaid, EventPaymentStatus:
	default:
		return nil
	}
	if msg.ReferenceType != string(models.OwnerKindInvoice) || msg.ReferenceId == 0 {
		return nil
	}

	_, err := ReconcileInvoice(ctx, msg.ReferenceId)
	if err == nil {
		return nil
	}
	if utils.IsValidationError(err) || errors.Is(err, utils.ErrorRecordNotFound) {
		// nothing a retry could fix
		config.LogInfo(config.GetLogger(), "events.go", "HandleDomainEvent", "skipped "+msg.EventType, msg.ReferenceId)
		return nil
	}
	return err
}
