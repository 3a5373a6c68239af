package redis

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Message ordering rests on NextSeq: every sender in a locality must
// observe strictly increasing values even under concurrency.
func TestProperty_NextSeqStrictIncrement(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("sequential calls produce strictly increasing values",
		prop.ForAll(
			func(locality string, count int) bool {
				ids := make([]int64, count)
				for i := range count {
					id, err := client.NextSeq(ctx, locality)
					if err != nil {
						t.Logf("NextSeq error: %v", err)
						return false
					}
					ids[i] = id
				}
				for i := 1; i < len(ids); i++ {
					if ids[i] != ids[i-1]+1 {
						t.Logf("seq not strictly incrementing: %d -> %d", ids[i-1], ids[i])
						return false
					}
				}
				return true
			},
			genLocality(),
			gen.IntRange(2, 20),
		))

	properties.Property("concurrent calls produce unique gap-free values",
		prop.ForAll(
			func(locality string, workers int, perWorker int) bool {
				total := workers * perWorker
				results := make(chan int64, total)

				var wg sync.WaitGroup
				for range workers {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for range perWorker {
							id, err := client.NextSeq(ctx, locality)
							if err != nil {
								return
							}
							results <- id
						}
					}()
				}
				wg.Wait()
				close(results)

				ids := make([]int64, 0, total)
				for id := range results {
					ids = append(ids, id)
				}
				if len(ids) != total {
					return false
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
				for i := 1; i < len(ids); i++ {
					if ids[i] != ids[i-1]+1 {
						t.Logf("duplicate or gap: %d -> %d", ids[i-1], ids[i])
						return false
					}
				}
				return true
			},
			genLocality(),
			gen.IntRange(2, 8),
			gen.IntRange(2, 10),
		))

	properties.TestingRun(t)
}

func genLocality() gopter.Gen {
	return gen.RegexMatch(`^(chan:[a-z]{3,8}|room:[1-9][0-9]{0,3})$`)
}
