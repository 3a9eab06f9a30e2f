package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultCheckpointInterval = 30 * time.Second
	checkpointTimeout         = 10 * time.Second
)

// Checkpointer periodically truncates the write-ahead log so it does not grow
// without bound between restarts. It runs independently of request handling.
type Checkpointer struct {
	db       *sql.DB
	interval time.Duration
	log      zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCheckpointer creates a Checkpointer. If interval <= 0,
// defaultCheckpointInterval is used.
func NewCheckpointer(db *sql.DB, interval time.Duration, log zerolog.Logger) *Checkpointer {
	if interval <= 0 {
		interval = defaultCheckpointInterval
	}
	return &Checkpointer{
		db:       db,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the checkpoint loop. It stops when ctx is cancelled or Stop
// is called.
func (c *Checkpointer) Start(ctx context.Context) {
	go c.run(ctx)
}

// Stop ends the loop and waits for an in-flight checkpoint to finish. It must
// only be called after Start.
func (c *Checkpointer) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Checkpointer) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.checkpoint(ctx)
		}
	}
}

func (c *Checkpointer) checkpoint(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, checkpointTimeout)
	defer cancel()

	if err := Checkpoint(ctx, c.db, "TRUNCATE"); err != nil {
		c.log.Error().Err(err).Msg("periodic checkpoint failed")
		return
	}
	c.log.Debug().Msg("wal checkpoint")
}
