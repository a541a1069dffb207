package upload_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/school-core/internal/upload"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pool", func() {
	It("returns the job result", func() {
		pool := upload.NewPool(upload.PoolConfig{MaxWorkers: 2}, quietLogger())
		defer pool.Shutdown()

		Expect(pool.Do(context.Background(), func(context.Context) error { return nil })).To(Succeed())

		boom := errors.New("boom")
		Expect(pool.Do(context.Background(), func(context.Context) error { return boom })).To(MatchError(boom))
	})

	It("never runs more jobs than workers at once", func() {
		pool := upload.NewPool(upload.PoolConfig{MaxWorkers: 2, JobQueueSize: 10}, quietLogger())
		defer pool.Shutdown()

		var running, peak int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				err := pool.Do(context.Background(), func(context.Context) error {
					n := atomic.AddInt32(&running, 1)
					for {
						p := atomic.LoadInt32(&peak)
						if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
							break
						}
					}
					time.Sleep(10 * time.Millisecond)
					atomic.AddInt32(&running, -1)
					return nil
				})
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		Expect(atomic.LoadInt32(&peak)).To(BeNumerically("<=", 2))
	})

	It("does not start a job whose context is already done", func() {
		pool := upload.NewPool(upload.PoolConfig{MaxWorkers: 1}, quietLogger())
		defer pool.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		err := pool.Do(ctx, func(context.Context) error {
			ran = true
			return nil
		})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(ran).To(BeFalse())
	})

	It("applies the job timeout", func() {
		pool := upload.NewPool(upload.PoolConfig{MaxWorkers: 1, JobTimeout: 20 * time.Millisecond}, quietLogger())
		defer pool.Shutdown()

		err := pool.Do(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("turns a panic into an error", func() {
		pool := upload.NewPool(upload.PoolConfig{MaxWorkers: 1}, quietLogger())
		defer pool.Shutdown()

		err := pool.Do(context.Background(), func(context.Context) error { panic("bad row") })
		Expect(err).To(MatchError(ContainSubstring("bad row")))
	})

	It("rejects work after shutdown", func() {
		pool := upload.NewPool(upload.PoolConfig{MaxWorkers: 1}, quietLogger())
		pool.Shutdown()

		err := pool.Do(context.Background(), func(context.Context) error { return nil })
		Expect(err).To(MatchError(upload.ErrPoolClosed))
	})
})
