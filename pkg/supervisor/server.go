package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type Server interface {
	Run() error
	Stop(ctx context.Context) error
}

// ServerService adapts a Run/Stop server to suture's Serve.
type ServerService struct {
	srv         Server
	name        string
	stopTimeout time.Duration
}

func NewServerService(name string, srv Server, stopTimeout time.Duration) *ServerService {
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	return &ServerService{srv: srv, name: name, stopTimeout: stopTimeout}
}

func (s *ServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Run()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
		defer cancel()
		if err := s.srv.Stop(stopCtx); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *ServerService) String() string {
	return s.name
}
