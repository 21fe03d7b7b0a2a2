package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"plane-battle/internal/shared"
)

// Subscribe calls onEvent for every event published on channel until ctx is
// done. Payloads that do not decode are skipped.
func Subscribe(ctx context.Context, rdb *redis.Client, channel string, onEvent func(shared.MatchEvent)) error {
	sub := rdb.Subscribe(ctx, channel)
	// wait for the subscription to be confirmed so no early publish is lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev shared.MatchEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}
