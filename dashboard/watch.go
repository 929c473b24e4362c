package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// StatusEvent is published whenever a booking's status changes, keyed to the
// therapist it affects.
type StatusEvent struct {
	BookingID   uint   `json:"booking_id"`
	TherapistID uint   `json:"therapist_id"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// channelFor is the pub/sub channel carrying one therapist's booking events.
func channelFor(therapistID uint) string {
	return fmt.Sprintf("booking_status:%d", therapistID)
}

// PublishStatusChange broadcasts a booking status change. A nil client is a
// no-op so the flow still works with Redis disabled.
func PublishStatusChange(ctx context.Context, rdb *redis.Client, ev StatusEvent) error {
	if rdb == nil || ev.TherapistID == 0 {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, channelFor(ev.TherapistID), payload).Err()
}

// shouldRefresh filters out events that do not change what the portal shows.
func shouldRefresh(ev StatusEvent) bool {
	return ev.OldStatus != ev.NewStatus
}

// Watcher subscribes to one therapist's booking events and invokes a callback
// whenever the portal data should be refetched.
type Watcher struct {
	rdb         *redis.Client
	therapistID uint
	onChange    func(StatusEvent)
}

func NewWatcher(rdb *redis.Client, therapistID uint, onChange func(StatusEvent)) *Watcher {
	return &Watcher{rdb: rdb, therapistID: therapistID, onChange: onChange}
}

// Run blocks consuming events until the context is cancelled, then
// unsubscribes and returns. Malformed payloads are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	if w.rdb == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	sub := w.rdb.Subscribe(ctx, channelFor(w.therapistID))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("booking event on %s: %v", msg.Channel, err)
				continue
			}
			if shouldRefresh(ev) && w.onChange != nil {
				w.onChange(ev)
			}
		}
	}
}
