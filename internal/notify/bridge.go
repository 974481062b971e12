package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// priceUpdateMarker is the title substring that signals a price change.
const priceUpdateMarker = "Price Update"

const (
	readLimit      = 1024 * 1024
	readDeadline   = 60 * time.Second
	reconnectDelay = 5 * time.Second
)

// Event is a notification frame from the external event stream.
// Only the title and body are consumed.
type Event struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Bridge subscribes to the event stream and invokes the callback whenever a
// price-change notification arrives. Duplicates and out-of-order events are
// harmless: the callback re-fetches prices, which is idempotent.
type Bridge struct {
	streamURL string
	onChange  func(ctx context.Context)
	logger    *zap.Logger
}

// NewBridge builds a bridge that dials streamURL and calls onChange on each
// price-change event.
func NewBridge(streamURL string, onChange func(ctx context.Context), logger *zap.Logger) *Bridge {
	return &Bridge{
		streamURL: streamURL,
		onChange:  onChange,
		logger:    logger,
	}
}

// Run reads events until ctx is done, reconnecting on stream failures.
func (b *Bridge) Run(ctx context.Context) {
	for {
		if err := b.consume(ctx); err != nil {
			b.logger.Warn("event stream closed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *Bridge) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.streamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	b.logger.Info("subscribed to event stream", zap.String("url", b.streamURL))

	conn.SetReadLimit(readLimit)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		b.dispatch(ctx, message)
	}
}

// dispatch decodes one frame and triggers the callback on price-change titles.
// Malformed frames and unrelated titles are ignored.
func (b *Bridge) dispatch(ctx context.Context, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		b.logger.Debug("ignoring malformed event", zap.Error(err))
		return
	}
	if !strings.Contains(event.Title, priceUpdateMarker) {
		return
	}

	b.logger.Info("price update received", zap.String("title", event.Title), zap.String("body", event.Body))
	if b.onChange != nil {
		b.onChange(ctx)
	}
}
