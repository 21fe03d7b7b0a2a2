// Package feed publishes match lifecycle events to a redis pub/sub channel.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"plane-battle/internal/observability"
	"plane-battle/internal/shared"
)

const queueSize = 256

// Publisher implements room.EventSink. Record only enqueues; a background
// worker started with Run does the network I/O.
type Publisher struct {
	rdb     *redis.Client
	channel string
	queue   chan shared.MatchEvent
	log     *zap.Logger
}

func NewPublisher(rdb *redis.Client, channel string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		queue:   make(chan shared.MatchEvent, queueSize),
		log:     log.Named("feed"),
	}
}

// Connect opens a client from either a redis:// URL or a host:port address
// and checks it with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Record queues an event, dropping it when the queue is full.
func (p *Publisher) Record(ev shared.MatchEvent) {
	if p == nil || p.rdb == nil {
		return
	}
	select {
	case p.queue <- ev:
	default:
		observability.BackpressureDrops.WithLabelValues("feed").Inc()
		p.log.Warn("feed queue full, dropped event", zap.String("type", ev.Type), zap.String("room", ev.RoomID))
	}
}

// Run publishes queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	if p == nil || p.rdb == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.queue:
			if err := p.publish(ctx, ev); err != nil {
				p.log.Warn("publish failed", zap.String("type", ev.Type), zap.Error(err))
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ev shared.MatchEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}
