// Package benchmarks compares mdbxkv with other embedded stores.
package benchmarks

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/Giulio2002/mdbxkv"
)

var benchSizes = []int{10_000, 100_000}

var boltBucket = []byte("bench")

func benchKey(i int) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(i))
	return k[:]
}

func benchValue(i int) []byte {
	v := make([]byte, 32)
	binary.LittleEndian.PutUint64(v, uint64(i))
	return v
}

func formatSize(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dK", n/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// randomKeys returns a fixed-seed sample of keys in [0, size).
func randomKeys(size, n int) [][]byte {
	r := rand.New(rand.NewSource(1))
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = benchKey(r.Intn(size))
	}
	return keys
}

func openMdbxkv(b *testing.B) (*mdbxkv.Env, mdbxkv.DB) {
	b.Helper()
	env, err := mdbxkv.Configure().
		SetMapSize(1 << 32).
		SetFlags(mdbxkv.SafeNoSync | mdbxkv.NoReadAhead).
		Open(b.TempDir(), 0644)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { env.Close() })
	db, err := env.OpenDatabase("")
	if err != nil {
		b.Fatal(err)
	}
	return env, db
}

func populateMdbxkv(b *testing.B, env *mdbxkv.Env, db mdbxkv.DB, size int) {
	b.Helper()
	err := env.Update(func(txn *mdbxkv.WriteTxn) error {
		for i := 0; i < size; i++ {
			if err := txn.Put(db, benchKey(i), benchValue(i), mdbxkv.Append); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
}

func openBolt(b *testing.B) *bolt.DB {
	b.Helper()
	db, err := bolt.Open(filepath.Join(b.TempDir(), "bench.bolt"), 0600, &bolt.Options{NoSync: true})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { db.Close() })
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		b.Fatal(err)
	}
	return db
}

func populateBolt(b *testing.B, db *bolt.DB, size int) {
	b.Helper()
	err := db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(boltBucket)
		bk.FillPercent = 1.0
		for i := 0; i < size; i++ {
			if err := bk.Put(benchKey(i), benchValue(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
}

func openPebble(b *testing.B) *pebble.DB {
	b.Helper()
	db, err := pebble.Open(b.TempDir(), &pebble.Options{})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { db.Close() })
	return db
}

func populatePebble(b *testing.B, db *pebble.DB, size int) {
	b.Helper()
	batch := db.NewBatch()
	for i := 0; i < size; i++ {
		if err := batch.Set(benchKey(i), benchValue(i), nil); err != nil {
			b.Fatal(err)
		}
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkSeqPut measures sequential inserts in one transaction or batch
// per iteration.
func BenchmarkSeqPut(b *testing.B) {
	const perOp = 1000
	b.Run("mdbxkv", func(b *testing.B) {
		env, db := openMdbxkv(b)
		b.ResetTimer()
		for n := 0; n < b.N; n++ {
			err := env.Update(func(txn *mdbxkv.WriteTxn) error {
				for i := 0; i < perOp; i++ {
					if err := txn.Put(db, benchKey(n*perOp+i), benchValue(i), mdbxkv.Upsert); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("bolt", func(b *testing.B) {
		db := openBolt(b)
		b.ResetTimer()
		for n := 0; n < b.N; n++ {
			err := db.Update(func(tx *bolt.Tx) error {
				bk := tx.Bucket(boltBucket)
				for i := 0; i < perOp; i++ {
					if err := bk.Put(benchKey(n*perOp+i), benchValue(i)); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("pebble", func(b *testing.B) {
		db := openPebble(b)
		b.ResetTimer()
		for n := 0; n < b.N; n++ {
			batch := db.NewBatch()
			for i := 0; i < perOp; i++ {
				if err := batch.Set(benchKey(n*perOp+i), benchValue(i), nil); err != nil {
					b.Fatal(err)
				}
			}
			if err := batch.Commit(pebble.NoSync); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkRandGet measures point lookups of existing keys.
func BenchmarkRandGet(b *testing.B) {
	for _, size := range benchSizes {
		keys := randomKeys(size, 4096)

		b.Run(fmt.Sprintf("%s/mdbxkv", formatSize(size)), func(b *testing.B) {
			env, db := openMdbxkv(b)
			populateMdbxkv(b, env, db, size)
			txn, err := env.BeginRead()
			if err != nil {
				b.Fatal(err)
			}
			defer txn.Abort()
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				if _, err := txn.Get(db, keys[n%len(keys)]); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("%s/bolt", formatSize(size)), func(b *testing.B) {
			db := openBolt(b)
			populateBolt(b, db, size)
			tx, err := db.Begin(false)
			if err != nil {
				b.Fatal(err)
			}
			defer tx.Rollback()
			bk := tx.Bucket(boltBucket)
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				if bk.Get(keys[n%len(keys)]) == nil {
					b.Fatal("missing key")
				}
			}
		})
		b.Run(fmt.Sprintf("%s/pebble", formatSize(size)), func(b *testing.B) {
			db := openPebble(b)
			populatePebble(b, db, size)
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				_, closer, err := db.Get(keys[n%len(keys)])
				if err != nil {
					b.Fatal(err)
				}
				closer.Close()
			}
		})
	}
}

// BenchmarkScan measures a full forward scan.
func BenchmarkScan(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("%s/mdbxkv", formatSize(size)), func(b *testing.B) {
			env, db := openMdbxkv(b)
			populateMdbxkv(b, env, db, size)
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				count := 0
				err := env.View(func(txn *mdbxkv.ReadTxn) error {
					c, err := txn.OpenCursor(db)
					if err != nil {
						return err
					}
					it := c.Items()
					for it.Next() {
						count++
					}
					return it.Err()
				})
				if err != nil {
					b.Fatal(err)
				}
				if count != size {
					b.Fatalf("scanned %d, want %d", count, size)
				}
			}
		})
		b.Run(fmt.Sprintf("%s/bolt", formatSize(size)), func(b *testing.B) {
			db := openBolt(b)
			populateBolt(b, db, size)
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				count := 0
				err := db.View(func(tx *bolt.Tx) error {
					c := tx.Bucket(boltBucket).Cursor()
					for k, _ := c.First(); k != nil; k, _ = c.Next() {
						count++
					}
					return nil
				})
				if err != nil {
					b.Fatal(err)
				}
				if count != size {
					b.Fatalf("scanned %d, want %d", count, size)
				}
			}
		})
		b.Run(fmt.Sprintf("%s/pebble", formatSize(size)), func(b *testing.B) {
			db := openPebble(b)
			populatePebble(b, db, size)
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				iter, err := db.NewIter(nil)
				if err != nil {
					b.Fatal(err)
				}
				count := 0
				for iter.First(); iter.Valid(); iter.Next() {
					count++
				}
				if err := iter.Close(); err != nil {
					b.Fatal(err)
				}
				if count != size {
					b.Fatalf("scanned %d, want %d", count, size)
				}
			}
		})
	}
}

// BenchmarkDupSortScan measures iteration over the values of one key.
func BenchmarkDupSortScan(b *testing.B) {
	env, err := mdbxkv.Configure().SetMaxDBs(2).SetMapSize(1 << 30).Open(b.TempDir(), 0644)
	if err != nil {
		b.Fatal(err)
	}
	defer env.Close()
	db, err := env.CreateDatabase("dups", mdbxkv.DupSort|mdbxkv.DupFixed)
	if err != nil {
		b.Fatal(err)
	}

	const dups = 10_000
	err = env.Update(func(txn *mdbxkv.WriteTxn) error {
		for i := 0; i < dups; i++ {
			if err := txn.Put(db, []byte("key"), benchKey(i), mdbxkv.AppendDup); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}

	b.Run("NextDup", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			err := env.View(func(txn *mdbxkv.ReadTxn) error {
				c, err := txn.OpenCursor(db)
				if err != nil {
					return err
				}
				it := c.Dups([]byte("key"))
				for it.Next() {
				}
				return it.Err()
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("GetMultiple", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			err := env.View(func(txn *mdbxkv.ReadTxn) error {
				c, err := txn.OpenCursor(db)
				if err != nil {
					return err
				}
				if _, _, err := c.Get([]byte("key"), nil, mdbxkv.Set); err != nil {
					return err
				}
				total := 0
				m, err := c.GetMultiple(8, false)
				for err == nil {
					total += m.Len()
					m, err = c.GetMultiple(8, true)
				}
				if !mdbxkv.IsNotFound(err) {
					return err
				}
				if total != dups {
					return fmt.Errorf("read %d values, want %d", total, dups)
				}
				return nil
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})
}
