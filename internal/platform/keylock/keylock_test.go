package keylock

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("session-1")
			counter++
			kl.Unlock("session-1")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100 (lost update under same-key lock)", counter)
	}
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	kl := New()
	kl.Lock("a")
	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()
	<-done // must not deadlock while "a" is held
	kl.Unlock("a")
}

func TestKeyLock_ConcurrentFirstUse(t *testing.T) {
	kl := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%5))
			kl.Lock(key)
			kl.Unlock(key)
		}(i)
	}
	wg.Wait()
}
