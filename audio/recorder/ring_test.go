package recorder

import (
	"reflect"
	"sync"
	"testing"
)

func last(r *SampleRing, n int) []float32 {
	buf := make([]float32, n)
	r.CopyLast(buf)
	return buf
}

func TestSampleRingEviction(t *testing.T) {
	r := NewSampleRing(3)
	for _, v := range []float32{1, 2, 3, 4, 5} {
		r.Push(v)
		if r.Len() > 3 {
			t.Fatalf("ring holds %d samples, bound is 3", r.Len())
		}
	}

	if res := last(r, 3); !reflect.DeepEqual(res, []float32{3, 4, 5}) {
		t.Fatalf("expected [3 4 5], got %v", res)
	}
}

func TestSampleRingCopyLast(t *testing.T) {
	r := NewSampleRing(8)
	r.PushAll([]float32{1, 2, 3})

	data := []struct {
		n        int
		exp      []float32
		expCount int
	}{
		{0, []float32{}, 0},
		{2, []float32{2, 3}, 2},
		{3, []float32{1, 2, 3}, 3},
		{5, []float32{0, 0, 1, 2, 3}, 3},
	}

	for _, d := range data {
		buf := make([]float32, d.n)
		count := r.CopyLast(buf)
		if count != d.expCount || !reflect.DeepEqual(buf, d.exp) {
			t.Errorf("CopyLast(%d): expected %v (%d), got %v (%d)",
				d.n, d.exp, d.expCount, buf, count)
		}
	}
}

func TestSampleRingSetBound(t *testing.T) {
	r := NewSampleRing(4)
	r.PushAll([]float32{1, 2, 3, 4, 5, 6})

	r.SetBound(2)
	if r.Len() != 2 {
		t.Fatalf("expected 2 samples after shrinking, got %d", r.Len())
	}
	if res := last(r, 3); !reflect.DeepEqual(res, []float32{0, 5, 6}) {
		t.Fatalf("expected [0 5 6], got %v", res)
	}

	r.SetBound(5)
	r.PushAll([]float32{7, 8})
	if res := last(r, 5); !reflect.DeepEqual(res, []float32{0, 5, 6, 7, 8}) {
		t.Fatalf("expected [0 5 6 7 8], got %v", res)
	}

	r.PushAll([]float32{9, 10})
	if res := last(r, 5); !reflect.DeepEqual(res, []float32{6, 7, 8, 9, 10}) {
		t.Fatalf("expected [6 7 8 9 10], got %v", res)
	}
}

func TestSampleRingBoundNeverExceeded(t *testing.T) {
	r := NewSampleRing(0)
	bounds := []int{0, 5, 3, 10, 1, 7, 0, 2}
	v := float32(0)

	for _, b := range bounds {
		r.SetBound(b)
		for i := 0; i < 13; i++ {
			v++
			r.Push(v)
			if r.Len() > b {
				t.Fatalf("ring holds %d samples, bound is %d", r.Len(), b)
			}
		}
	}
}

func TestSampleRingZeroBound(t *testing.T) {
	r := NewSampleRing(0)
	r.PushAll([]float32{1, 2, 3})

	if r.Len() != 0 {
		t.Fatalf("expected empty ring, got %d samples", r.Len())
	}
	if res := last(r, 3); !reflect.DeepEqual(res, []float32{0, 0, 0}) {
		t.Fatalf("expected zeros, got %v", res)
	}
}

func TestSampleRingClear(t *testing.T) {
	r := NewSampleRing(4)
	r.PushAll([]float32{1, 2, 3})
	r.Clear()
	r.Push(9)

	if res := last(r, 2); !reflect.DeepEqual(res, []float32{0, 9}) {
		t.Fatalf("expected [0 9], got %v", res)
	}
}

func TestSampleRingPushDoesNotAllocate(t *testing.T) {
	r := NewSampleRing(16)
	allocs := testing.AllocsPerRun(100, func() {
		r.Push(0.5)
	})
	if allocs != 0 {
		t.Fatalf("expected no allocations, got %v", allocs)
	}
}

func TestSampleRingConcurrentAccess(t *testing.T) {
	r := NewSampleRing(64)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	// audio thread
	go func() {
		defer wg.Done()
		buf := []float32{1, 1, 1, 1, 1, 1, 1, 1}
		for {
			select {
			case <-done:
				return
			default:
				r.PushAll(buf)
			}
		}
	}()

	bounds := []int{64, 3, 0, 17, 128, 1}
	dst := make([]float32, 32)
	for i := 0; i < 2000; i++ {
		r.SetBound(bounds[i%len(bounds)])

		if l, b := r.Len(), r.Bound(); l > b {
			t.Fatalf("%d samples retained with a bound of %d", l, b)
		}

		n := r.CopyLast(dst)
		if n > len(dst) {
			t.Fatalf("CopyLast reported %d samples for a buffer of %d", n, len(dst))
		}
		for j, s := range dst {
			if s != 0 && s != 1 {
				t.Fatalf("unexpected sample %v at %d", s, j)
			}
		}
	}

	close(done)
	wg.Wait()
}
