package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the PostStore contract. tick must make the next
// Create observe a strictly later clock than the previous one.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) (PostStore, func())) {
	ctx := context.Background()
	fields := func(title string) map[string]any {
		return map[string]any{"title": title, "content": "body of " + title, "author": "ann"}
	}

	t.Run("empty collection lists nothing", func(t *testing.T) {
		store, _ := newStore(t)

		docs, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("create then get", func(t *testing.T) {
		store, _ := newStore(t)

		id, err := store.Create(ctx, fields("first"))
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, found, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "first", doc.Fields["title"])
		assert.Equal(t, "body of first", doc.Fields["content"])
		assert.Equal(t, "ann", doc.Fields["author"])
		require.NotNil(t, doc.CreatedAt)
		assert.WithinDuration(t, time.Now(), *doc.CreatedAt, time.Hour)
	})

	t.Run("ids are unique", func(t *testing.T) {
		store, _ := newStore(t)

		a, err := store.Create(ctx, fields("a"))
		require.NoError(t, err)
		b, err := store.Create(ctx, fields("b"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("client cannot supply id or createdAt", func(t *testing.T) {
		store, _ := newStore(t)

		in := fields("sneaky")
		in["id"] = "chosen"
		in["createdAt"] = "1999-01-01T00:00:00.000Z"
		id, err := store.Create(ctx, in)
		require.NoError(t, err)
		assert.NotEqual(t, "chosen", id)

		doc, found, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.NotContains(t, doc.Fields, "id")
		assert.NotContains(t, doc.Fields, "createdAt")
		require.NotNil(t, doc.CreatedAt)
		assert.True(t, doc.CreatedAt.Year() > 1999)
	})

	t.Run("strings that look encoded round trip", func(t *testing.T) {
		store, _ := newStore(t)

		in := map[string]any{
			"title":   "\x00json:{",
			"content": "j:42",
			"author":  "s:ann",
			"tag":     "\x00json:42",
		}
		id, err := store.Create(ctx, in)
		require.NoError(t, err)

		doc, found, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		for k, v := range in {
			assert.Equal(t, v, doc.Fields[k], k)
		}

		_, err = store.UpdateByID(ctx, id, map[string]any{"title": "j:{"})
		require.NoError(t, err)

		docs, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "j:{", docs[0].Fields["title"])
		assert.Equal(t, "j:42", docs[0].Fields["content"])
	})

	t.Run("missing id is absent not an error", func(t *testing.T) {
		store, _ := newStore(t)

		_, found, err := store.GetByID(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("list is newest first", func(t *testing.T) {
		store, tick := newStore(t)

		first, err := store.Create(ctx, fields("p1"))
		require.NoError(t, err)
		tick()
		second, err := store.Create(ctx, fields("p2"))
		require.NoError(t, err)
		tick()
		third, err := store.Create(ctx, fields("p3"))
		require.NoError(t, err)

		docs, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []string{third, second, first}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
		assert.True(t, docs[0].CreatedAt.After(*docs[2].CreatedAt))
	})

	t.Run("update keeps id and createdAt", func(t *testing.T) {
		store, tick := newStore(t)

		id, err := store.Create(ctx, fields("old"))
		require.NoError(t, err)
		before, _, err := store.GetByID(ctx, id)
		require.NoError(t, err)

		tick()
		found, err := store.UpdateByID(ctx, id, map[string]any{"title": "new", "content": "c2", "author": "bob"})
		require.NoError(t, err)
		assert.True(t, found)

		after, found, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, after.ID)
		assert.Equal(t, "new", after.Fields["title"])
		assert.Equal(t, "c2", after.Fields["content"])
		assert.Equal(t, "bob", after.Fields["author"])
		require.NotNil(t, after.CreatedAt)
		assert.True(t, before.CreatedAt.Equal(*after.CreatedAt))
	})

	t.Run("update merges fields", func(t *testing.T) {
		store, _ := newStore(t)

		id, err := store.Create(ctx, map[string]any{"title": "t", "content": "c", "author": "a", "tag": "go"})
		require.NoError(t, err)

		_, err = store.UpdateByID(ctx, id, map[string]any{"title": "t2", "createdAt": "never"})
		require.NoError(t, err)

		doc, _, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "t2", doc.Fields["title"])
		assert.Equal(t, "c", doc.Fields["content"])
		assert.Equal(t, "go", doc.Fields["tag"])
		assert.NotContains(t, doc.Fields, "createdAt")
	})

	t.Run("update of missing id is absent", func(t *testing.T) {
		store, _ := newStore(t)

		found, err := store.UpdateByID(ctx, "ghost", fields("x"))
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = store.GetByID(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, found, "update must not create documents")
	})

	t.Run("delete", func(t *testing.T) {
		store, _ := newStore(t)

		id, err := store.Create(ctx, fields("doomed"))
		require.NoError(t, err)

		found, err := store.DeleteByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, found)

		_, found, err = store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)

		found, err = store.DeleteByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, found, "second delete finds nothing")

		docs, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		store, _ := newStore(t)

		id, err := store.Create(ctx, fields("shared"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, err := store.Create(ctx, fields(fmt.Sprintf("post-%d", i)))
				assert.NoError(t, err)
			}(i)
			go func(i int) {
				defer wg.Done()
				_, err := store.UpdateByID(ctx, id, map[string]any{"title": fmt.Sprintf("rev-%d", i)})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		docs, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 9)

		doc, found, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Regexp(t, `^rev-\d$`, doc.Fields["title"])
		assert.Equal(t, "ann", doc.Fields["author"])
	})
}
