package srv

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go9p.dev/ninep"
	"go9p.dev/ninep/internal/xmath"
)

// Server binds a Fsys implementation to the 9P wire protocol. One Server
// value serves any number of connections concurrently; ServeConn handles
// exactly one.
type Server[F any] struct {
	Fsys Fsys[F]

	// Msize is the largest message size the server will negotiate down to;
	// zero selects ninep.MaxMsize.
	Msize uint32

	Log *logrus.Logger
}

func (s *Server[F]) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

func (s *Server[F]) msize() uint32 {
	if s.Msize == 0 {
		return ninep.MaxMsize
	}
	return s.Msize
}

// fidEntry is the server's bookkeeping for one client fid: the
// filesystem-supplied handle plus whatever the generic dispatcher itself
// must track (open state), guarded by its own mutex since concurrent
// requests may race to use the same fid (spec.md doesn't forbid it, so the
// dispatcher must serialize rather than assume single-threaded access).
type fidEntry[F any] struct {
	mu       sync.Mutex
	handle   F
	open     bool
	openMode uint8
	// dirEntries caches the encoded directory listing across successive
	// Tread calls on a directory fid, following the teacher's own
	// offset/index caching in its readDir handler.
	dirEntries []byte
}

// conn is the per-connection dispatcher state.
type conn[F any] struct {
	srv *Server[F]

	rwc   io.ReadWriteCloser
	dotu  bool
	msize uint32

	writeMu sync.Mutex

	fidMu sync.Mutex
	fids  map[uint32]*fidEntry[F]

	flushMu sync.Mutex
	cancels map[uint16]context.CancelFunc
}

// ServeConn runs the 9P protocol over rwc until the connection closes or
// ctx is cancelled, dispatching every request against s.Fsys. It returns
// after every in-flight request has been given a chance to reply.
func (s *Server[F]) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) error {
	c := &conn[F]{
		srv:     s,
		rwc:     rwc,
		fids:    make(map[uint32]*fidEntry[F]),
		cancels: make(map[uint16]context.CancelFunc),
	}
	defer c.closeAllFids()
	stop := context.AfterFunc(ctx, func() { rwc.Close() })
	defer stop()

	if err := c.negotiateVersion(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for {
		fc, err := ninep.ReadFcall(c.rwc, c.dotu)
		if err != nil {
			break
		}
		fc := fc
		reqCtx, cancel := context.WithCancel(ctx)
		c.flushMu.Lock()
		c.cancels[fc.Tag] = cancel
		c.flushMu.Unlock()

		g.Go(func() error {
			defer func() {
				c.flushMu.Lock()
				delete(c.cancels, fc.Tag)
				c.flushMu.Unlock()
				cancel()
			}()
			reply := c.dispatch(reqCtx, fc)
			reply.Tag = fc.Tag
			return c.writeReply(reply)
		})
	}
	return g.Wait()
}

// negotiateVersion handles the mandatory first exchange (spec.md §4.3). A
// version string that isn't "9P2000" or "9P2000.u" gets "unknown" and the
// connection is abandoned without dispatching any further message, per
// spec.md §4.3/§7 error-kind 7.
func (c *conn[F]) negotiateVersion() error {
	fc, err := ninep.ReadFcall(c.rwc, true)
	if err != nil {
		return err
	}
	if fc.Type != ninep.Tversion {
		if werr := ninep.WriteFcall(c.rwc, &ninep.Fcall{
			Type: ninep.Rerror, Tag: fc.Tag, Ename: "expected Tversion",
		}, false); werr != nil {
			return werr
		}
		return errors.Errorf("srv: first message is %v, not Tversion", fc.Type)
	}

	if fc.Version != ninep.VersionString && fc.Version != ninep.VersionStringU {
		if werr := ninep.WriteFcall(c.rwc, &ninep.Fcall{
			Type: ninep.Rversion, Tag: ninep.NoTag, Version: "unknown",
		}, false); werr != nil {
			return werr
		}
		return errors.Wrapf(ninep.ErrVersionMismatch, "version %q", fc.Version)
	}

	msize := xmath.Min(fc.Msize, c.srv.msize())
	if msize < ninep.MinMsize {
		msize = ninep.MinMsize
	}
	c.msize = msize

	version := ninep.VersionString
	if fc.Version == ninep.VersionStringU {
		c.dotu = true
		version = ninep.VersionStringU
	}

	return ninep.WriteFcall(c.rwc, &ninep.Fcall{
		Type: ninep.Rversion, Tag: ninep.NoTag, Msize: msize, Version: version,
	}, c.dotu)
}

func (c *conn[F]) writeReply(fc *ninep.Fcall) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ninep.WriteFcall(c.rwc, fc, c.dotu)
}

func (c *conn[F]) closeAllFids() {
	c.fidMu.Lock()
	defer c.fidMu.Unlock()
	for num, fe := range c.fids {
		c.srv.Fsys.Clunk(fe.handle)
		delete(c.fids, num)
	}
}

func rerror(err error) *ninep.Fcall {
	if re, ok := err.(*ninep.RemoteError); ok {
		return &ninep.Fcall{Type: ninep.Rerror, Ename: re.Ename, Errno: re.Errno}
	}
	return &ninep.Fcall{Type: ninep.Rerror, Ename: err.Error(), Errno: ninep.EDontCare}
}

// dispatch routes fc to the matching handler. The returned Fcall's Tag is
// left unset; ServeConn fills it in so every handler can use a bare
// zero-value Fcall literal.
func (c *conn[F]) dispatch(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	switch fc.Type {
	case ninep.Tauth:
		return c.handleAuth(ctx, fc)
	case ninep.Tattach:
		return c.handleAttach(ctx, fc)
	case ninep.Tflush:
		return c.handleFlush(fc)
	case ninep.Twalk:
		return c.handleWalk(ctx, fc)
	case ninep.Topen:
		return c.handleOpen(ctx, fc)
	case ninep.Tcreate:
		return c.handleCreate(ctx, fc)
	case ninep.Tread:
		return c.handleRead(ctx, fc)
	case ninep.Twrite:
		return c.handleWrite(ctx, fc)
	case ninep.Tclunk:
		return c.handleClunk(fc)
	case ninep.Tremove:
		return c.handleRemove(ctx, fc)
	case ninep.Tstat:
		return c.handleStat(ctx, fc)
	case ninep.Twstat:
		return c.handleWstat(ctx, fc)
	default:
		return rerror(ninep.ErrNotImplemented)
	}
}
