package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"companion-world/internal/sim"
	"companion-world/internal/store"
)

const (
	persistAttempts = 3
	persistBackoff  = 100 * time.Millisecond
	persistTimeout  = 5 * time.Second
)

// batch is the merged set of writes waiting for the store. Later versions of
// an agent or the game state replace earlier ones.
type batch struct {
	created map[string]sim.Agent
	updated map[string]sim.Agent
	order   []string
	deleted []string
	state   *sim.GameState
	txs     []sim.Transaction
	logs    []sim.LogEntry
}

func newBatch() *batch {
	return &batch{created: map[string]sim.Agent{}, updated: map[string]sim.Agent{}}
}

func (b *batch) empty() bool {
	return len(b.order) == 0 && len(b.deleted) == 0 && b.state == nil && len(b.txs) == 0 && len(b.logs) == 0
}

func (b *batch) merge(c sim.Changes) {
	for _, a := range c.CreatedAgents {
		if _, seen := b.created[a.ID]; !seen {
			if _, upd := b.updated[a.ID]; !upd {
				b.order = append(b.order, a.ID)
			}
		}
		delete(b.updated, a.ID)
		b.created[a.ID] = a
	}
	for _, a := range c.UpdatedAgents {
		if _, ok := b.created[a.ID]; ok {
			b.created[a.ID] = a
			continue
		}
		if _, ok := b.updated[a.ID]; !ok {
			b.order = append(b.order, a.ID)
		}
		b.updated[a.ID] = a
	}
	for _, id := range c.DeletedAgents {
		delete(b.created, id)
		delete(b.updated, id)
		b.deleted = append(b.deleted, id)
	}
	if c.State != nil {
		st := *c.State
		b.state = &st
	}
	b.txs = append(b.txs, c.Transactions...)
	b.logs = append(b.logs, c.Logs...)
}

// persister writes engine changes behind the session loop. enqueue never
// blocks on the store.
type persister struct {
	repo   store.Repository
	userID string

	mu      sync.Mutex
	pending *batch
	notify  chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newPersister(repo store.Repository, userID string) *persister {
	p := &persister{
		repo:    repo,
		userID:  userID,
		pending: newBatch(),
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(c sim.Changes) {
	if c.Empty() {
		return
	}
	p.mu.Lock()
	p.pending.merge(c)
	p.mu.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *persister) take() *batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.pending
	p.pending = newBatch()
	return b
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.notify:
			p.flush()
		case <-p.stop:
			p.flush()
			return
		}
	}
}

// close flushes what is pending and waits for the worker to exit.
func (p *persister) close() {
	p.once.Do(func() { close(p.stop) })
	<-p.done
}

func (p *persister) flush() {
	b := p.take()
	if b.empty() {
		return
	}
	var err error
	for attempt := 0; attempt < persistAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(persistBackoff << (attempt - 1))
		}
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err = p.write(ctx, b)
		cancel()
		if err == nil {
			return
		}
	}
	metricPersistErrors.Inc()
	log.Error().
		Err(err).
		Str("user_id", p.userID).
		Int("agents", len(b.order)).
		Int("transactions", len(b.txs)).
		Int("logs", len(b.logs)).
		Msg("persist changes failed")
}

// write is idempotent so a retried batch converges: records already written
// are skipped and missing rows are created.
func (p *persister) write(ctx context.Context, b *batch) error {
	for _, id := range b.order {
		if a, ok := b.created[id]; ok {
			if err := p.upsertAgent(ctx, a, true); err != nil {
				return err
			}
			delete(b.created, id)
			continue
		}
		if a, ok := b.updated[id]; ok {
			if err := p.upsertAgent(ctx, a, false); err != nil {
				return err
			}
			delete(b.updated, id)
		}
	}
	b.order = b.order[:0]
	for len(b.deleted) > 0 {
		if err := p.repo.DeleteAgent(ctx, b.deleted[0]); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		b.deleted = b.deleted[1:]
	}
	if b.state != nil {
		err := p.repo.UpdateGameState(ctx, *b.state)
		if errors.Is(err, store.ErrNotFound) {
			err = p.repo.CreateGameState(ctx, *b.state)
		}
		if err != nil {
			return err
		}
		b.state = nil
	}
	for len(b.txs) > 0 {
		if err := p.repo.CreateTransaction(ctx, b.txs[0]); err != nil {
			return err
		}
		b.txs = b.txs[1:]
	}
	for len(b.logs) > 0 {
		if err := p.repo.CreateLog(ctx, b.logs[0]); err != nil {
			return err
		}
		b.logs = b.logs[1:]
	}
	return nil
}

func (p *persister) upsertAgent(ctx context.Context, a sim.Agent, created bool) error {
	if created {
		if err := p.repo.CreateAgent(ctx, a); err == nil {
			return nil
		}
	}
	err := p.repo.UpdateAgent(ctx, a)
	if errors.Is(err, store.ErrNotFound) {
		err = p.repo.CreateAgent(ctx, a)
	}
	return err
}
