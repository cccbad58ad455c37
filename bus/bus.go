// Package bus implements the router's internal event fan-out.
//
// Routed events are published on named channels ("translationCompleted",
// "transcriptionReady", ...) to zero or more subscribers. Emission is
// fire-and-forget: the router hands the event to each subscriber's bounded
// queue and returns without waiting for consumption. When a queue is full
// the oldest queued event is dropped in favor of the new one (drop-oldest;
// a per-subscriber counter records every drop).
package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lingomesh/voxgate/log"
	"github.com/lingomesh/voxgate/types"
)

// Outbound channel names. One per routed event category; subscribers pick
// the channels they care about.
const (
	ChannelTranslationCompleted      = "translationCompleted"
	ChannelTranslationError          = "translationError"
	ChannelTranslationSkipped        = "translationSkipped"
	ChannelAudioProcessCompleted     = "audioProcessCompleted"
	ChannelAudioProcessError         = "audioProcessError"
	ChannelTranscriptionCompleted    = "transcriptionCompleted"
	ChannelTranscriptionReady        = "transcriptionReady"
	ChannelTranscriptionError        = "transcriptionError"
	ChannelVoiceAPISuccess           = "voiceApiSuccess"
	ChannelVoiceAPIError             = "voiceApiError"
	ChannelVoiceJobProgress          = "voiceJobProgress"
	ChannelVoiceProfileResult        = "voiceProfileResult"
	ChannelVoiceProfileError         = "voiceProfileError"
	ChannelVoiceTranslationCompleted = "voiceTranslationCompleted"
	ChannelVoiceTranslationFailed    = "voiceTranslationFailed"
)

// DefaultQueueDepth bounds each subscriber queue unless the subscriber
// asks for a different depth.
const DefaultQueueDepth = 256

// Event is one routed, fully resolved domain event. Payload holds the
// typed per-category struct with binary fields already inlined; ownership
// transfers to subscribers on emission.
type Event struct {
	// ID uniquely identifies this emission.
	ID string
	// Channel is the outbound channel name.
	Channel string
	// Type is the wire discriminant the event was routed from.
	Type types.EventType
	// TaskID and JobID carry the correlation ids from the envelope.
	TaskID string
	JobID  string
	// Payload is the typed payload (*types.TranslationCompleted etc).
	Payload any
	// EmittedAt is the emission timestamp.
	EmittedAt time.Time
}

// Emitter is the publish sink the router writes to.
type Emitter interface {
	// Emit publishes the event. Must not block on subscriber consumption.
	Emit(event *Event)
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(channel string, eventType types.EventType, taskID, jobID string, payload any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Channel:   channel,
		Type:      eventType,
		TaskID:    taskID,
		JobID:     jobID,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}
}

// Subscription is one subscriber's bounded event queue.
type Subscription struct {
	name     string
	channels map[string]bool // nil means all channels
	ch       chan *Event
	dropped  atomic.Int64

	closeOnce sync.Once
}

// Events returns the subscriber's receive channel.
func (s *Subscription) Events() <-chan *Event {
	return s.ch
}

// Name returns the subscriber name given at Subscribe time.
func (s *Subscription) Name() string {
	return s.name
}

// Dropped returns how many events were discarded because this
// subscriber's queue was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Subscription) wants(channel string) bool {
	if s.channels == nil {
		return true
	}
	return s.channels[channel]
}

// Bus is the in-process event emitter.
type Bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
	logger *log.Logger
}

// NewBus creates an empty bus. logger may be nil.
func NewBus(logger *log.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a named subscriber for the given channels.
// A nil or empty channel list subscribes to everything. depth <= 0 uses
// DefaultQueueDepth.
func (b *Bus) Subscribe(name string, channels []string, depth int) *Subscription {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	sub := &Subscription{
		name: name,
		ch:   make(chan *Event, depth),
	}
	if len(channels) > 0 {
		sub.channels = make(map[string]bool, len(channels))
		for _, c := range channels {
			sub.channels[c] = true
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub
}

// Emit publishes the event to every subscriber interested in its channel.
// Never blocks: full queues shed their oldest entry to make room.
func (b *Bus) Emit(event *Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := b.subs
	b.mu.Unlock()

	for _, sub := range subs {
		if !sub.wants(event.Channel) {
			continue
		}
		b.deliver(sub, event)
	}
}

// deliver enqueues the event, dropping the oldest queued entry if the
// queue is full. The retry loop handles a consumer racing the drop.
func (b *Bus) deliver(sub *Subscription, event *Event) {
	for {
		select {
		case sub.ch <- event:
			return
		default:
		}

		select {
		case <-sub.ch:
			sub.dropped.Add(1)
			if b.logger != nil {
				b.logger.Warn("subscriber queue full, dropped oldest event", map[string]any{
					"subscriber": sub.name,
					"channel":    event.Channel,
					"dropped":    sub.dropped.Load(),
				})
			}
		default:
			// Consumer drained the queue between the two selects.
		}
	}
}

// Close stops delivery and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.closeOnce.Do(func() { close(sub.ch) })
	}
}

// Verify Bus implements Emitter.
var _ Emitter = (*Bus)(nil)
