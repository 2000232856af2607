package tests

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/diamondburned/ldb"
)

type Benchmarker struct {
	tb testing.TB
	db *ldb.Database
}

func NewBenchmarker(tb testing.TB, db *ldb.Database) Benchmarker {
	return Benchmarker{tb, db}
}

// DoBenchmark runs all benchmarks in the suite.
func DoBenchmark(b *testing.B, db *ldb.Database) {
	ber := NewBenchmarker(b, db)

	b.Run("Add", ber.BenchmarkAdd)
	b.Run("Search", ber.BenchmarkSearch)
}

// counter keeps DNs unique across benchmark runs on the same database.
var counter uint64

func (ber Benchmarker) BenchmarkAdd(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		n := atomic.AddUint64(&counter, 1)
		dn := "cn=bench" + strconv.FormatUint(n, 10) + ",dc=test"

		if err := ber.db.Add(NewTestMessage(dn)); err != nil {
			b.Fatal("failed to add:", err)
		}
	}
}

func (ber Benchmarker) BenchmarkSearch(b *testing.B) {
	dn := fmt.Sprintf("cn=search%d,dc=test", atomic.AddUint64(&counter, 1))

	if err := ber.db.Add(NewTestMessage(dn)); err != nil {
		b.Fatal("failed to add:", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := ber.db.Search(dn); err != nil {
				b.Error("failed to search:", err)
				return
			}
		}
	})
}
