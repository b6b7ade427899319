package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo_SingleInvocation(t *testing.T) {
	g := NewGroup(Options{})
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fn := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "result", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 3)
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.Do(ctx, "K", fn)
		}(i)
	}

	// Let all three goroutines reach the group before releasing the fetch.
	waitForDepth(t, g, 1)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn invoked %d times, want 1", got)
	}
	for i := 0; i < 3; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d got error: %v", i, errs[i])
		}
		if results[i] != "result" {
			t.Errorf("caller %d got %v, want %q", i, results[i], "result")
		}
	}
}

func TestDo_ErrorPropagation(t *testing.T) {
	g := NewGroup(Options{})
	ctx := context.Background()

	boom := errors.New("upstream failed")
	release := make(chan struct{})
	fn := func() (interface{}, error) {
		<-release
		return nil, boom
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.Do(ctx, "K", fn)
		}(i)
	}
	waitForDepth(t, g, 1)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, boom) {
			t.Errorf("caller %d got %v, want %v", i, err, boom)
		}
	}
}

func TestDo_CleanupAfterSettle(t *testing.T) {
	g := NewGroup(Options{})
	ctx := context.Background()

	if _, err := g.Do(ctx, "K", func() (interface{}, error) {
		return nil, errors.New("first call fails")
	}); err == nil {
		t.Fatal("expected first call to fail")
	}

	if g.Len() != 0 {
		t.Fatalf("key still in flight after settle, len = %d", g.Len())
	}

	// The key must not be stuck: a fresh call runs its own fn.
	called := false
	val, err := g.Do(ctx, "K", func() (interface{}, error) {
		called = true
		return 42, nil
	})
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !called {
		t.Error("second fn was not invoked")
	}
	if val != 42 {
		t.Errorf("second call = %v, want 42", val)
	}
}

func TestDo_QueueFull(t *testing.T) {
	g := NewGroup(Options{MaxInFlight: 3})
	ctx := context.Background()

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Do(ctx, fmt.Sprintf("key-%d", i), func() (interface{}, error) {
				<-release
				return nil, nil
			})
		}(i)
	}
	waitForDepth(t, g, 3)

	// The cap is reached: a new key is rejected immediately.
	start := time.Now()
	_, err := g.Do(ctx, "overflow", func() (interface{}, error) { return nil, nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("got %v, want ErrQueueFull", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("queue-full rejection blocked instead of failing fast")
	}

	// An existing key still attaches to its flight rather than being rejected.
	done := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "key-0", func() (interface{}, error) { return nil, nil })
		done <- err
	}()

	close(release)
	wg.Wait()
	if err := <-done; err != nil {
		t.Errorf("existing-key caller got error: %v", err)
	}
}

func TestDo_ContextCancelledWaiter(t *testing.T) {
	g := NewGroup(Options{})

	release := make(chan struct{})
	go g.Do(context.Background(), "K", func() (interface{}, error) {
		<-release
		return nil, nil
	})
	waitForDepth(t, g, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Do(ctx, "K", func() (interface{}, error) { return nil, nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}

	close(release)
}

func waitForDepth(t *testing.T, g *Group, depth int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for g.Len() < depth {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for depth %d, at %d", depth, g.Len())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWaiting(t *testing.T) {
	g := NewGroup(Options{})
	ctx := context.Background()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = g.Do(ctx, "K", func() (interface{}, error) {
			<-release
			return nil, nil
		})
	}()
	waitForDepth(t, g, 1)

	// Two more callers attach to the in-flight call as waiters.
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Do(ctx, "K", func() (interface{}, error) { return nil, nil })
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for g.Waiting("K") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for 2 waiters, at %d", g.Waiting("K"))
		}
		time.Sleep(time.Millisecond)
	}

	if got := g.Waiting("other"); got != 0 {
		t.Errorf("Waiting(other) = %d, want 0", got)
	}

	close(release)
	wg.Wait()

	if got := g.Waiting("K"); got != 0 {
		t.Errorf("Waiting after settle = %d, want 0", got)
	}
}
