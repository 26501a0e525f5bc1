package slotpool

import (
	"sync"
	"testing"
)

type benchObj struct {
	ID   int64
	Data [56]byte // 64 bytes total
}

// BenchmarkChurn compares steady-state allocate/release churn against the
// builtin allocator and sync.Pool.
func BenchmarkChurn(b *testing.B) {
	b.Run("SlotPool", func(b *testing.B) {
		p, err := New[benchObj](1024)
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			obj, err := p.Alloc()
			if err != nil {
				b.Fatal(err)
			}
			obj.ID = int64(i)
			if err := p.Free(obj); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Builtin", func(b *testing.B) {
		b.ResetTimer()
		var sink *benchObj
		for i := 0; i < b.N; i++ {
			sink = &benchObj{ID: int64(i)}
		}
		_ = sink
	})

	b.Run("SyncPool", func(b *testing.B) {
		sp := sync.Pool{New: func() any { return new(benchObj) }}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			obj := sp.Get().(*benchObj)
			obj.ID = int64(i)
			sp.Put(obj)
		}
	})
}

// BenchmarkBatch allocates a batch of objects, touches them, and frees the
// batch, the way a frame or request lifecycle would.
func BenchmarkBatch(b *testing.B) {
	const batch = 100

	p, err := New[benchObj](1024)
	if err != nil {
		b.Fatal(err)
	}
	ptrs := make([]*benchObj, batch)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for j := 0; j < batch; j++ {
			obj, err := p.Alloc()
			if err != nil {
				b.Fatal(err)
			}
			obj.ID = int64(j)
			ptrs[j] = obj
		}
		for j := 0; j < batch; j++ {
			if err := p.Free(ptrs[j]); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkParallel measures contended allocate/release from many goroutines.
func BenchmarkParallel(b *testing.B) {
	p, err := New[benchObj](4096)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			obj, err := p.Alloc()
			if err != nil {
				b.Fatal(err)
			}
			if err := p.Free(obj); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkBitmapTake(b *testing.B) {
	bm, err := NewBitmap(MaxBits, false)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		idx := bm.TakeFirstZero()
		if idx < 0 {
			b.Fatal("bitmap full")
		}
		bm.TakeFirstOne()
	}
}

func BenchmarkPoolIsValid(b *testing.B) {
	p, err := New[benchObj](1024)
	if err != nil {
		b.Fatal(err)
	}
	obj, err := p.Alloc()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if !p.IsValid(obj) {
			b.Fatal("live object reported invalid")
		}
	}
}
