package game

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStaticQuestionProviderDealsDistinctOptions(t *testing.T) {
	p := NewStaticQuestionProvider()
	q, err := p.NextQuestion(context.Background(), uuid.New(), 1)
	assert.NoError(t, err)
	assert.Len(t, q.Options, 4)
	assert.Contains(t, q.Options, q.CorrectOption)

	seen := make(map[string]bool)
	for _, o := range q.Options {
		assert.False(t, seen[o], "options must be distinct")
		seen[o] = true
	}
}

// Concurrent round advances share one provider; draws must be serialized.
func TestStaticQuestionProviderConcurrent(t *testing.T) {
	p := NewStaticQuestionProvider()
	sessionID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(round int) {
			defer wg.Done()
			q, err := p.NextQuestion(context.Background(), sessionID, round)
			if !assert.NoError(t, err) {
				return
			}
			assert.Len(t, q.Options, 4)
			assert.Contains(t, q.Options, q.CorrectOption)
		}(i + 1)
	}
	wg.Wait()
}
