package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/rs/zerolog"
)

const (
	fetchBackoffBase = 250 * time.Millisecond
	fetchBackoffCap  = 5 * time.Second
	fetchMaxAttempts = 5
)

// RowFetchResult is one element of a BatchFetchRow reply.
type RowFetchResult struct {
	RowID types.RowID
	Row   *DatabaseRow
	Found bool
}

type fetchRowTask struct {
	rowID types.RowID
	seq   uint64
	reply chan *DatabaseRow
}

type batchFetchTask struct {
	rowIDs []types.RowID
	seq    uint64
	reply  chan []RowFetchResult
}

// RowOpener opens the DatabaseRow for rowID, returning an error when it
// cannot (RowBlock's opener reports KindNotFound for an absent row). A
// RowTaskController never knows how persistence is wired; RowBlock
// supplies this closure.
type RowOpener func(ctx context.Context, rowID types.RowID) (*DatabaseRow, error)

// RowTaskController serializes row fetches from persistence behind a
// single worker goroutine, draining a single-row queue ahead of a
// batch queue, deduplicating repeat single-row requests so only the
// newest survives, and retrying transient failures with exponential
// backoff before giving up.
type RowTaskController struct {
	open   RowOpener
	logger zerolog.Logger

	seq atomic.Uint64

	wakeCh chan struct{}
	stopCh chan struct{}

	mu            sync.Mutex
	singleOrder   []types.RowID
	pendingSingle map[types.RowID]*fetchRowTask
	batchQueue    []*batchFetchTask
}

// NewRowTaskController constructs a controller that opens rows via open.
func NewRowTaskController(open RowOpener) *RowTaskController {
	c := &RowTaskController{
		open:          open,
		logger:        log.WithComponent("rowtask"),
		wakeCh:        make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		pendingSingle: make(map[types.RowID]*fetchRowTask),
	}
	go c.run()
	return c
}

func (c *RowTaskController) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}

// Stop shuts down the worker goroutine. Queued requests never receive
// a reply; callers should have their own read timeouts.
func (c *RowTaskController) Stop() {
	close(c.stopCh)
}

// FetchRow enqueues a single-row fetch, returning a buffered-1 channel
// that receives the row (or is closed without a value on failure). If
// rowID already has a pending, undelivered request, that older request
// is dropped and its reply channel closed immediately.
func (c *RowTaskController) FetchRow(rowID types.RowID) <-chan *DatabaseRow {
	task := &fetchRowTask{rowID: rowID, seq: c.seq.Add(1), reply: make(chan *DatabaseRow, 1)}

	c.mu.Lock()
	if old, ok := c.pendingSingle[rowID]; ok {
		close(old.reply)
	} else {
		c.singleOrder = append(c.singleOrder, rowID)
	}
	c.pendingSingle[rowID] = task
	c.mu.Unlock()

	c.wake()
	return task.reply
}

// BatchFetchRow enqueues a fetch for every id in rowIDs, delivered
// together once all complete.
func (c *RowTaskController) BatchFetchRow(rowIDs []types.RowID) <-chan []RowFetchResult {
	task := &batchFetchTask{rowIDs: rowIDs, seq: c.seq.Add(1), reply: make(chan []RowFetchResult, 1)}
	c.mu.Lock()
	c.batchQueue = append(c.batchQueue, task)
	c.mu.Unlock()
	c.wake()
	return task.reply
}

func (c *RowTaskController) dequeue() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.singleOrder) > 0 {
		id := c.singleOrder[0]
		c.singleOrder = c.singleOrder[1:]
		task, ok := c.pendingSingle[id]
		delete(c.pendingSingle, id)
		if ok {
			return task, true
		}
	}
	if len(c.batchQueue) > 0 {
		task := c.batchQueue[0]
		c.batchQueue = c.batchQueue[1:]
		return task, true
	}
	return nil, false
}

func (c *RowTaskController) run() {
	for {
		task, ok := c.dequeue()
		if !ok {
			select {
			case <-c.wakeCh:
				continue
			case <-c.stopCh:
				return
			}
		}
		switch t := task.(type) {
		case *fetchRowTask:
			row, err := c.fetchWithRetry(context.Background(), t.rowID)
			if err != nil {
				c.logger.Warn().Err(err).Str("row_id", string(t.rowID)).Msg("row fetch exhausted retries")
				close(t.reply)
				continue
			}
			t.reply <- row
		case *batchFetchTask:
			out := make([]RowFetchResult, 0, len(t.rowIDs))
			for _, id := range t.rowIDs {
				row, err := c.fetchWithRetry(context.Background(), id)
				if err != nil {
					c.logger.Warn().Err(err).Str("row_id", string(id)).Msg("batch row fetch exhausted retries")
				}
				out = append(out, RowFetchResult{RowID: id, Row: row, Found: err == nil})
			}
			t.reply <- out
		}
	}
}

func (c *RowTaskController) fetchWithRetry(ctx context.Context, rowID types.RowID) (*DatabaseRow, error) {
	backoff := fetchBackoffBase
	var lastErr error
	for attempt := 0; attempt < fetchMaxAttempts; attempt++ {
		row, err := c.open(ctx, rowID)
		if err == nil {
			return row, nil
		}
		lastErr = err
		if attempt < fetchMaxAttempts-1 {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > fetchBackoffCap {
				backoff = fetchBackoffCap
			}
		}
	}
	return nil, lastErr
}
