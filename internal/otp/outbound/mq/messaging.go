package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpsvc/internal/otp/usecase"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsvc/internal/pkg/messaging"
	"github.com/shandysiswandi/otpsvc/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishTokenIssued(ctx context.Context, msg usecase.TokenIssuedEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishTokenIssued")
	defer span.End()

	body, err := json.Marshal(event.TokenIssuedMessage{
		TokenID:   msg.TokenID,
		UserID:    msg.UserID,
		Kind:      msg.Kind,
		Reason:    msg.Reason,
		IssuedAt:  msg.IssuedAt,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.TokenIssuedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
