package locks

import (
	"sync"
	"testing"
)

func TestGetReturnsSameMutexForSameUser(t *testing.T) {
	table := NewTable()
	if table.Get(1) != table.Get(1) {
		t.Fatal("expected the same mutex for the same user")
	}
	if table.Get(1) == table.Get(2) {
		t.Fatal("expected distinct mutexes for distinct users")
	}
}

func TestGetIsSafeForConcurrentUse(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup
	counters := make([]int, 4)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := int64(i % len(counters))
			mu := table.Get(userID)
			mu.Lock()
			counters[userID]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	for userID, n := range counters {
		if n != 16 {
			t.Fatalf("expected 16 increments for user %d, got %d", userID, n)
		}
	}
}
