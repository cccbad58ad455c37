// Package adapter defines the downstream notification boundary.
//
// Adapters publish routed event notifications to external systems. The
// gateway owns adapter lifecycle; deployments provide configuration only.
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lingomesh/voxgate/bus"
	"github.com/lingomesh/voxgate/log"
	"github.com/lingomesh/voxgate/types"
)

// ContractVersion identifies the notification payload shape.
const ContractVersion = "1.0"

// Notification is the payload published for each routed event.
// Binary fields never appear here; payloads are serialized with their
// control metadata only.
type Notification struct {
	ContractVersion string          `json:"contract_version"`
	EventID         string          `json:"event_id"`
	Channel         string          `json:"channel"`
	EventType       string          `json:"event_type"`
	TaskID          string          `json:"task_id,omitempty"`
	JobID           string          `json:"job_id,omitempty"`
	Timestamp       string          `json:"timestamp"` // ISO 8601
	Payload         json.RawMessage `json:"payload"`
	Version         string          `json:"gateway_version"`
}

// FromEvent converts a bus event into its notification form.
func FromEvent(event *bus.Event) (*Notification, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ContractVersion: ContractVersion,
		EventID:         event.ID,
		Channel:         event.Channel,
		EventType:       string(event.Type),
		TaskID:          event.TaskID,
		JobID:           event.JobID,
		Timestamp:       event.EmittedAt.UTC().Format(time.RFC3339Nano),
		Payload:         payload,
		Version:         types.Version,
	}, nil
}

// Adapter publishes routed event notifications to a downstream system.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Publish sends one notification to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, n *Notification) error

	// Close releases adapter resources.
	Close() error
}

// Pump drains a bus subscription into one or more adapters.
// Publish failures are logged and dropped; delivery is fire-and-forget
// and one slow or failing adapter never blocks routing.
type Pump struct {
	sub      *bus.Subscription
	adapters []Adapter
	logger   *log.Logger
}

// NewPump creates a pump feeding the given adapters from sub.
func NewPump(sub *bus.Subscription, adapters []Adapter, logger *log.Logger) *Pump {
	if logger == nil {
		logger = log.NewLogger("adapter-pump")
	}
	return &Pump{sub: sub, adapters: adapters, logger: logger}
}

// Run consumes the subscription until the channel closes or ctx is
// canceled. Blocks; callers run it in a goroutine.
func (p *Pump) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.sub.Events():
			if !ok {
				return
			}
			p.dispatch(ctx, event)
		}
	}
}

func (p *Pump) dispatch(ctx context.Context, event *bus.Event) {
	n, err := FromEvent(event)
	if err != nil {
		p.logger.Error("failed to encode notification", map[string]any{
			"event_id": event.ID,
			"channel":  event.Channel,
			"error":    err.Error(),
		})
		return
	}
	for _, a := range p.adapters {
		if err := a.Publish(ctx, n); err != nil {
			p.logger.Error("adapter publish failed", map[string]any{
				"event_id": event.ID,
				"channel":  event.Channel,
				"error":    err.Error(),
			})
		}
	}
}
