// Package search keeps a vector index of tasks in step with the task store.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"go.uber.org/zap"
)

const syncTimeout = 30 * time.Second

// DocumentStore is the vector collection the indexer writes to.
type DocumentStore interface {
	Upsert(ctx context.Context, id, text string, meta map[string]interface{}) error
	Delete(ctx context.Context, ids ...string) error
	Query(ctx context.Context, text string, limit int) ([]string, error)
}

type Indexer struct {
	docs    DocumentStore
	log     *zap.SugaredLogger
	pending chan domain.State

	mu      sync.Mutex
	indexed map[string]string // task id -> indexed text
}

func NewIndexer(docs DocumentStore, log *zap.SugaredLogger) *Indexer {
	return &Indexer{
		docs:    docs,
		log:     log.Named("task-index"),
		pending: make(chan domain.State, 1),
		indexed: make(map[string]string),
	}
}

// Document is the text embedded for a task.
func Document(t domain.Task) string {
	var b strings.Builder
	b.WriteString(t.Title)
	if t.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(t.Description)
	}
	for _, st := range t.SubTasks {
		b.WriteString("\n- ")
		b.WriteString(st.Title)
	}
	return b.String()
}

// Sync upserts tasks whose text changed and deletes tasks that are gone.
func (i *Indexer) Sync(ctx context.Context, state domain.State) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	seen := make(map[string]bool, len(state.Tasks))
	for _, t := range state.Tasks {
		seen[t.ID] = true
		text := Document(t)
		if prev, ok := i.indexed[t.ID]; ok && prev == text {
			continue
		}
		meta := map[string]interface{}{
			"task_id":  t.ID,
			"title":    t.Title,
			"priority": string(t.Priority),
		}
		if err := i.docs.Upsert(ctx, t.ID, text, meta); err != nil {
			return err
		}
		i.indexed[t.ID] = text
	}

	var gone []string
	for id := range i.indexed {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	if len(gone) > 0 {
		if err := i.docs.Delete(ctx, gone...); err != nil {
			return err
		}
		for _, id := range gone {
			delete(i.indexed, id)
		}
	}
	return nil
}

// Listen is a task store listener. Only the newest pending state is kept;
// Run applies it.
func (i *Indexer) Listen(state domain.State) {
	select {
	case i.pending <- state:
		return
	default:
	}
	select {
	case <-i.pending:
	default:
	}
	select {
	case i.pending <- state:
	default:
	}
}

// Run applies pending states until ctx is done.
func (i *Indexer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-i.pending:
			syncCtx, cancel := context.WithTimeout(ctx, syncTimeout)
			if err := i.Sync(syncCtx, state); err != nil {
				i.log.Errorw("failed to sync task index", "error", err)
			}
			cancel()
		}
	}
}

// Search returns task ids ranked by similarity to query.
func (i *Indexer) Search(ctx context.Context, query string, limit int) ([]string, error) {
	return i.docs.Query(ctx, query, limit)
}
