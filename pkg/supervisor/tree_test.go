package supervisor_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Astemirdum/bookstore/pkg/supervisor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeServer struct {
	stop    chan struct{}
	running atomic.Bool
	stopped atomic.Bool
}

func (f *fakeServer) Run() error {
	f.running.Store(true)
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Stop(context.Context) error {
	f.stopped.Store(true)
	close(f.stop)
	return nil
}

type tickJob struct{ runs atomic.Int32 }

func (j *tickJob) Serve(ctx context.Context) error {
	j.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestTree_Lifecycle(t *testing.T) {
	t.Parallel()
	tree := supervisor.NewTree("bookstore-test", supervisor.Config{ShutdownTimeout: time.Second}, zap.NewNop())

	srv := &fakeServer{stop: make(chan struct{})}
	job := &tickJob{}
	tree.AddAPI(supervisor.NewServerService("http", srv, time.Second))
	tree.AddJob(job)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return srv.running.Load() && job.runs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	require.True(t, srv.stopped.Load())
	require.Equal(t, int32(1), job.runs.Load())
}
