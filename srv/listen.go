package srv

import (
	"context"
	"net"

	"golang.org/x/sync/errgroup"
)

// ServeNet accepts connections on l and serves each with s until ctx is
// cancelled or Accept fails, mirroring the teacher's ServeNet/ServeLocal
// pair. Per-connection errors are logged, not returned, so one broken
// client can't bring down the listener.
func (s *Server[F]) ServeNet(ctx context.Context, l net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return l.Close()
	})
	for {
		rwc, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return g.Wait()
			default:
				return err
			}
		}
		g.Go(func() error {
			defer rwc.Close()
			if err := s.ServeConn(ctx, rwc); err != nil {
				s.log().WithError(err).WithField("remote", rwc.RemoteAddr()).Debug("srv: connection closed")
			}
			return nil
		})
	}
}

// ListenAndServe is a convenience wrapper that listens on network/addr
// (e.g. "tcp", ":564") and calls ServeNet.
func (s *Server[F]) ListenAndServe(ctx context.Context, network, addr string) error {
	l, err := net.Listen(network, addr)
	if err != nil {
		return err
	}
	return s.ServeNet(ctx, l)
}
