package search

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDocs struct {
	docs    map[string]string
	upserts int
	err     error
}

func newMemDocs() *memDocs { return &memDocs{docs: map[string]string{}} }

func (m *memDocs) Upsert(_ context.Context, id, text string, _ map[string]interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.upserts++
	m.docs[id] = text
	return nil
}

func (m *memDocs) Delete(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(m.docs, id)
	}
	return nil
}

func (m *memDocs) Query(_ context.Context, _ string, limit int) ([]string, error) {
	var ids []string
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func TestDocument(t *testing.T) {
	task := domain.Task{
		Title:       "Plan trip",
		Description: "Japan in spring",
		SubTasks:    []domain.SubTask{{Title: "Book flights"}, {Title: "Rail pass"}},
	}
	assert.Equal(t, "Plan trip\n\nJapan in spring\n- Book flights\n- Rail pass", Document(task))
	assert.Equal(t, "Solo", Document(domain.Task{Title: "Solo"}))
}

func TestSync_UpsertsChangesAndDeletesRemoved(t *testing.T) {
	docs := newMemDocs()
	idx := NewIndexer(docs, logger.Nop())
	ctx := context.Background()

	state := domain.State{Tasks: []domain.Task{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}}
	require.NoError(t, idx.Sync(ctx, state))
	assert.Equal(t, 2, docs.upserts)

	require.NoError(t, idx.Sync(ctx, state))
	assert.Equal(t, 2, docs.upserts, "unchanged tasks are not re-embedded")

	state.Tasks[0].Title = "A2"
	state.Tasks = state.Tasks[:1]
	require.NoError(t, idx.Sync(ctx, state))
	assert.Equal(t, 3, docs.upserts)
	assert.Equal(t, map[string]string{"a": "A2"}, docs.docs)

	ids, err := idx.Search(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestSync_ErrorLeavesTaskPending(t *testing.T) {
	docs := newMemDocs()
	docs.err = errors.New("quota")
	idx := NewIndexer(docs, logger.Nop())

	state := domain.State{Tasks: []domain.Task{{ID: "a", Title: "A"}}}
	assert.Error(t, idx.Sync(context.Background(), state))

	docs.err = nil
	require.NoError(t, idx.Sync(context.Background(), state))
	assert.Equal(t, "A", docs.docs["a"])
}

func TestListenAndRun(t *testing.T) {
	docs := newMemDocs()
	idx := NewIndexer(docs, logger.Nop())

	idx.Listen(domain.State{Tasks: []domain.Task{{ID: "old", Title: "old"}}})
	idx.Listen(domain.State{Tasks: []domain.Task{{ID: "new", Title: "new"}}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go idx.Run(ctx)

	assert.Eventually(t, func() bool {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		_, ok := idx.indexed["new"]
		return ok
	}, time.Second, 5*time.Millisecond)

	idx.mu.Lock()
	_, stale := idx.indexed["old"]
	idx.mu.Unlock()
	assert.False(t, stale, "only the newest pending state is applied")
}
