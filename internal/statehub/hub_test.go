package statehub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduflow/eduflow-cli/internal/model"
)

func TestPutGetList(t *testing.T) {
	h := New()
	h.Put(model.Document{ID: "a", Name: "doc-a"})
	h.Put(model.Document{ID: "b", Name: "doc-b"})

	doc, ok := h.Get("a")
	require.True(t, ok)
	assert.Equal(t, "doc-a", doc.Name)

	assert.Len(t, h.List(), 2)

	_, ok = h.Get("missing")
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	h := New()
	h.Put(model.Document{ID: "a", Status: model.StatusPending})

	err := h.Update("a", func(doc model.Document) model.Document {
		doc.Status = model.StatusProcessing
		doc.BatchIndex = 2
		return doc
	})
	require.NoError(t, err)

	doc, _ := h.Get("a")
	assert.Equal(t, model.StatusProcessing, doc.Status)
	assert.Equal(t, 2, doc.BatchIndex)

	assert.Error(t, h.Update("missing", func(d model.Document) model.Document { return d }))
}

func TestSubscribeReceivesEvents(t *testing.T) {
	h := New()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Put(model.Document{ID: "a"})
	ev := <-ch
	assert.Equal(t, EventPut, ev.Kind)
	assert.Equal(t, "a", ev.Document.ID)

	require.NoError(t, h.Update("a", func(d model.Document) model.Document { return d }))
	ev = <-ch
	assert.Equal(t, EventUpdated, ev.Kind)

	h.Remove("a")
	ev = <-ch
	assert.Equal(t, EventRemoved, ev.Kind)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := New()
	_, cancel := h.Subscribe() // never drained
	defer cancel()

	// More events than the buffer holds; Put must not block.
	for i := 0; i < subscriberBuffer*2; i++ {
		h.Put(model.Document{ID: "a"})
	}
}

func TestCancelClosesChannel(t *testing.T) {
	h := New()
	ch, cancel := h.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// Broadcasting after cancel must not panic.
	h.Put(model.Document{ID: "a"})
}
