package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesCurrentValue(t *testing.T) {
	v := NewValue("idle")

	var got []string
	v.Subscribe(func(s string) { got = append(got, s) })

	require.Equal(t, []string{"idle"}, got)
}

func TestSetNotifiesAllSubscribersInOrder(t *testing.T) {
	v := NewValue(0)

	var calls []string
	v.Subscribe(func(n int) {
		if n > 0 {
			calls = append(calls, "first")
		}
	})
	v.Subscribe(func(n int) {
		if n > 0 {
			calls = append(calls, "second")
		}
	})

	v.Set(1)

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 1, v.Get())
}

func TestSetNotifiesEveryAssignment(t *testing.T) {
	v := NewValue(false)

	var seen []bool
	v.Subscribe(func(b bool) { seen = append(seen, b) })

	v.Set(true)
	v.Set(true)
	v.Set(false)

	assert.Equal(t, []bool{false, true, true, false}, seen)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	v := NewValue(0)

	count := 0
	unsubscribe := v.Subscribe(func(int) { count++ })
	v.Set(1)
	unsubscribe()
	v.Set(2)

	assert.Equal(t, 2, count)
}

func TestListenerCanReadValue(t *testing.T) {
	v := NewValue("a")

	var inside string
	v.Subscribe(func(string) { inside = v.Get() })
	v.Set("b")

	assert.Equal(t, "b", inside)
}

func TestConcurrentSet(t *testing.T) {
	v := NewValue(0)

	var mu sync.Mutex
	total := 0
	v.Subscribe(func(int) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 51, total)
}
