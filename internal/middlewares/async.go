package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/frikords/server/internal/utils"
)

// Async hands the rest of the handler chain to the worker pool and
// blocks until it finishes, so concurrency is bounded by the pool
// size instead of one goroutine per connection. Requests queue rather
// than fail when the pool is saturated. The gin context is only
// touched by one goroutine at a time because we block on done.
func Async(pool *utils.WorkerPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})
		pool.Submit(func() {
			defer close(done)
			c.Next()
		})
		<-done
	}
}
