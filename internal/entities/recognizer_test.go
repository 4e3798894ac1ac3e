package entities

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDeduplicates(t *testing.T) {
	s := &Static{Bundle: Bundle{
		Persons: []string{"Jane Doe", "Jane Doe", "John Roe"},
		Dates:   []string{"01/02/2024"},
		Money:   []string{"$10", "$10"},
	}}

	got, err := s.Recognize(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, got.Persons)
	assert.Equal(t, []string{"01/02/2024"}, got.Dates)
	assert.Equal(t, []string{"$10"}, got.Money)
	assert.Equal(t, int64(1), s.Calls.Load())
}

func TestStaticConcurrentRecognize(t *testing.T) {
	s := &Static{Bundle: Bundle{Persons: []string{"Jane Doe"}, Money: []string{"$10"}}}

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				got, err := s.Recognize(context.Background(), "text")
				if err != nil || len(got.Persons) != 1 || len(got.Money) != 1 {
					t.Errorf("unexpected result %+v, err %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), s.Calls.Load())
}

func TestStaticReturnsConfiguredError(t *testing.T) {
	boom := errors.New("model unavailable")
	s := &Static{Err: boom}

	_, err := s.Recognize(context.Background(), "text")
	require.ErrorIs(t, err, boom)
}

func TestStaticHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Static{}).Recognize(ctx, "text")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollectorIgnoresUnknownLabelsAndBlanks(t *testing.T) {
	c := newCollector()
	c.add("GPE", "Paris")
	c.add(LabelPerson, "")
	c.add(LabelMoney, "$5")

	b := c.bundle()
	assert.Empty(t, b.Persons)
	assert.Equal(t, []string{"$5"}, b.Money)
	assert.False(t, b.Empty())
	assert.True(t, Bundle{}.Empty())
}

func TestDateAndMoneyBackfillPatterns(t *testing.T) {
	assert.Equal(t, []string{"01/15/2024", "3-4-25"}, dateRule.FindAllString("Start 01/15/2024, end 3-4-25.", -1))
	assert.Equal(t, []string{"$1,200.50", "$ 30"}, moneyRule.FindAllString("Fee $1,200.50 plus $ 30", -1))
}
