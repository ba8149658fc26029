package qctx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRowJoinColumnIsMonotoneAndUnique(t *testing.T) {
	c := New(context.Background())
	a := c.NextRowJoinColumn()
	b := c.NextRowJoinColumn()
	assert.NotEqual(t, a, b)
	assert.Equal(t, "__row_id_1", a)
	assert.Equal(t, "__row_id_2", b)
}

func TestNextRowJoinColumnIsSafeForConcurrentUse(t *testing.T) {
	c := New(context.Background())
	seen := make(chan string, 100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.NextRowJoinColumn()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]bool)
	for s := range seen {
		unique[s] = true
	}
	assert.Len(t, unique, 100, "every concurrently issued column name must be distinct")
}

func TestContextReturnsUnderlyingContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := New(ctx)
	assert.Equal(t, ctx, c.Context())
}
