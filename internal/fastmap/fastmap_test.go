package fastmap

import (
	"math/rand"
	"testing"
)

type entry struct {
	gen  uint64
	name string
}

// Test basic functionality
func TestMap(t *testing.T) {
	m := &Map[entry]{}

	if _, ok := m.Get(1); ok {
		t.Error("Expected miss for empty map")
	}

	m.Set(1, entry{1, "a"})
	m.Set(2, entry{2, "b"})

	if v, ok := m.Get(1); !ok || v.name != "a" {
		t.Error("Get(1) failed")
	}
	if v, ok := m.Get(2); !ok || v.name != "b" {
		t.Error("Get(2) failed")
	}
	if _, ok := m.Get(3); ok {
		t.Error("Get(3) should miss")
	}

	m.Set(1, entry{3, "c"})
	if v, _ := m.Get(1); v.gen != 3 {
		t.Error("Update failed")
	}

	if m.Len() != 2 {
		t.Errorf("Expected len=2, got %d", m.Len())
	}

	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear failed")
	}
	if _, ok := m.Get(1); ok {
		t.Error("Get after clear should miss")
	}
}

// Test with many entries to trigger growth
func TestMapGrowth(t *testing.T) {
	m := &Map[int]{}

	n := 10000
	for i := 0; i < n; i++ {
		m.Set(uint32(i), i*10)
	}

	if m.Len() != n {
		t.Errorf("Expected len=%d, got %d", n, m.Len())
	}

	for i := 0; i < n; i++ {
		if v, ok := m.Get(uint32(i)); !ok || v != i*10 {
			t.Errorf("Get(%d) failed", i)
		}
	}
}

// Test with key=0
func TestMapZeroKey(t *testing.T) {
	m := &Map[string]{}

	m.Set(0, "zero")
	if v, ok := m.Get(0); !ok || v != "zero" {
		t.Error("Zero key failed")
	}
	if m.Len() != 1 {
		t.Error("Len should be 1")
	}
	if !m.Delete(0) {
		t.Error("Delete(0) failed")
	}
	if _, ok := m.Get(0); ok {
		t.Error("Zero key still present after delete")
	}
}

func TestMapDelete(t *testing.T) {
	m := &Map[int]{}
	if m.Delete(5) {
		t.Error("Delete on empty map reported a hit")
	}
	for i := 0; i < 12; i++ {
		m.Set(uint32(i), i)
	}
	if m.Delete(100) {
		t.Error("Delete of absent key reported a hit")
	}
	for i := 0; i < 12; i += 2 {
		if !m.Delete(uint32(i)) {
			t.Errorf("Delete(%d) failed", i)
		}
	}
	if m.Len() != 6 {
		t.Errorf("Expected len=6, got %d", m.Len())
	}
	for i := 0; i < 12; i++ {
		_, ok := m.Get(uint32(i))
		if ok != (i%2 == 1) {
			t.Errorf("Get(%d) present=%v after delete", i, ok)
		}
	}
}

// Random set/delete against a Go map, exercising probe chains that wrap.
func TestMapDeleteRandom(t *testing.T) {
	m := &Map[uint32]{}
	ref := make(map[uint32]uint32)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20000; i++ {
		k := uint32(rng.Intn(512))
		if rng.Intn(3) == 0 {
			_, want := ref[k]
			if got := m.Delete(k); got != want {
				t.Fatalf("Delete(%d)=%v, want %v", k, got, want)
			}
			delete(ref, k)
			continue
		}
		m.Set(k, k+1)
		ref[k] = k + 1
	}

	if m.Len() != len(ref) {
		t.Fatalf("Len=%d, want %d", m.Len(), len(ref))
	}
	for k, want := range ref {
		if got, ok := m.Get(k); !ok || got != want {
			t.Fatalf("Get(%d)=%d,%v want %d", k, got, ok, want)
		}
	}
	seen := 0
	m.ForEach(func(k, v uint32) {
		if ref[k] != v {
			t.Errorf("ForEach yielded %d=%d", k, v)
		}
		seen++
	})
	if seen != len(ref) {
		t.Errorf("ForEach visited %d entries, want %d", seen, len(ref))
	}
}

// Benchmark: Sequential writes - FastMap
func BenchmarkFastMapSeqWrite(b *testing.B) {
	m := &Map[int]{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Set(uint32(i&0xFFFF), i)
	}
}

// Benchmark: Sequential writes - Go map
func BenchmarkGoMapSeqWrite(b *testing.B) {
	m := make(map[uint32]int)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m[uint32(i&0xFFFF)] = i
	}
}

// Benchmark: Random reads - FastMap
func BenchmarkFastMapRandRead(b *testing.B) {
	m := &Map[int]{}
	for i := 0; i < 1024; i++ {
		m.Set(uint32(i), i)
	}
	keys := make([]uint32, 4096)
	for i := range keys {
		keys[i] = uint32(rand.Intn(1024))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Get(keys[i&4095])
	}
}

// Benchmark: Random reads - Go map
func BenchmarkGoMapRandRead(b *testing.B) {
	m := make(map[uint32]int)
	for i := 0; i < 1024; i++ {
		m[uint32(i)] = i
	}
	keys := make([]uint32, 4096)
	for i := range keys {
		keys[i] = uint32(rand.Intn(1024))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i&4095]]
	}
}
