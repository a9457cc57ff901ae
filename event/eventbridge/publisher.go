// Package eventbridge provides an event.Serializer backed by AWS
// EventBridge, grounded on the teacher's infrastructure/messaging/eventbridge
// publisher: marshal to JSON, PutEvents with a bounded batch size. Unlike
// the teacher's publisher, Serialize never returns an error to its caller
// (spec.md §7): failures are logged and reported as ok=false.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/gregjan/trellis/event"
)

const source = "trellis.resource-engine"

// Serializer publishes resource lifecycle events to an EventBridge event
// bus and reports the JSON it sent as the "serialized" form.
type Serializer struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// New builds an EventBridge-backed Serializer.
func New(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Serializer {
	return &Serializer{client: client, eventBusName: eventBusName, logger: logger}
}

// Serialize marshals e to JSON and publishes it as a single PutEvents
// entry. Any failure (marshal or publish) is logged and reported as
// ok=false; it is never surfaced as an error to the resource service.
func (s *Serializer) Serialize(e event.Event) (string, bool) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("failed to marshal event", zap.Error(err), zap.String("target", string(e.Target)))
		return "", false
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(s.eventBusName),
		Source:       aws.String(source),
		DetailType:   aws.String(activityLabel(e)),
		Detail:       aws.String(string(data)),
		Time:         aws.Time(e.Created),
		Resources:    []string{fmt.Sprintf("trellis:%s", e.Target)},
	}

	_, err = s.client.PutEvents(context.Background(), &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		s.logger.Error("failed to publish event", zap.Error(err), zap.String("target", string(e.Target)))
		return "", false
	}
	return string(data), true
}

func activityLabel(e event.Event) string {
	if len(e.ActivityTypes) == 0 {
		return "Unknown"
	}
	return string(e.ActivityTypes[0])
}

var _ event.Serializer = (*Serializer)(nil)
