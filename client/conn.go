// Package client implements the client half of the 9P2000/9P2000.u
// protocol: connection setup and version negotiation, the tag table that
// correlates requests with replies, and the fid-based stream helpers
// (spec.md §4.2-§4.5, components C2-C5).
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"go9p.dev/ninep"
	"go9p.dev/ninep/internal/idpool"
)

// Conn is a client-side 9P connection: one negotiated version/msize, one
// tag table, and one fid allocator shared by every Fid derived from it.
type Conn struct {
	rwc io.ReadWriteCloser
	log *logrus.Logger

	version ninep.Version
	dotu    bool
	msize   uint32

	tagPool *idpool.Pool
	fidPool *idpool.Pool

	mu      sync.Mutex
	pending map[uint16]chan *ninep.Fcall
	recvErr error
	closed  bool
}

// Option configures a Conn at construction time.
type Option func(*Conn)

// WithLogger overrides the default (logrus standard) logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// requestedVersion is the version string proposed by Tversion; servers
// that don't understand ".u" fall back to plain 9P2000.
const requestedVersion = ninep.VersionStringU

// requestedMsize is the msize offered in Tversion; the server clamps it
// down to its own ceiling (spec.md §4.3 "Version negotiation").
const requestedMsize = 1 << 20

// NewConn performs the 9P version handshake over rwc and returns a ready
// client connection. It does not attach to any file tree; call Attach next.
func NewConn(rwc io.ReadWriteCloser, opts ...Option) (*Conn, error) {
	c := &Conn{
		rwc:     rwc,
		log:     logrus.StandardLogger(),
		tagPool: idpool.New(0),
		fidPool: idpool.New(2),
		pending: make(map[uint16]chan *ninep.Fcall),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := ninep.WriteFcall(c.rwc, &ninep.Fcall{
		Type:    ninep.Tversion,
		Tag:     ninep.NoTag,
		Msize:   requestedMsize,
		Version: requestedVersion,
	}, true); err != nil {
		return nil, errors.Wrap(err, "client: sending Tversion")
	}
	// The handshake reply is read with dotu=true tentatively: Rversion
	// carries no .u-conditional fields, so the flag doesn't affect decoding.
	reply, err := ninep.ReadFcall(c.rwc, true)
	if err != nil {
		return nil, errors.Wrap(err, "client: reading Rversion")
	}
	if reply.Type != ninep.Rversion {
		return nil, fmt.Errorf("client: first reply is %v, not Rversion", reply.Type)
	}
	switch reply.Version {
	case ninep.VersionStringU:
		c.version = ninep.V9P2000U
		c.dotu = true
	case ninep.VersionString:
		c.version = ninep.V9P2000
	default:
		return nil, errors.Wrapf(ninep.ErrVersionMismatch, "server replied version %q", reply.Version)
	}
	c.msize = reply.Msize

	go c.recvLoop()
	return c, nil
}

// Dial connects to a 9P server over network/addr (e.g. "tcp", host:port, or
// "unix", socket path) and performs the version handshake, mirroring the
// teacher's ServeNet on the server side.
func Dial(ctx context.Context, network, addr string, opts ...Option) (*Conn, error) {
	var d net.Dialer
	rwc, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrap(err, "client: dial")
	}
	c, err := NewConn(rwc, opts...)
	if err != nil {
		rwc.Close()
		return nil, err
	}
	return c, nil
}

// Msize returns the negotiated maximum message size.
func (c *Conn) Msize() uint32 { return c.msize }

// Dotu reports whether the connection negotiated the 9P2000.u extension.
func (c *Conn) Dotu() bool { return c.dotu }

// recvLoop reads replies off the wire and dispatches each to the channel
// registered for its tag by call(), implementing the client side of
// spec.md §4.3's per-direction tag retirement: a stale reply (no matching
// registration) is logged and dropped rather than treated as fatal.
func (c *Conn) recvLoop() {
	for {
		fc, err := ninep.ReadFcall(c.rwc, c.dotu)
		if err != nil {
			c.failPending(err)
			return
		}
		c.log.WithField("msg", fc).Debug("client: received")
		c.mu.Lock()
		ch, ok := c.pending[fc.Tag]
		if ok {
			delete(c.pending, fc.Tag)
		}
		c.mu.Unlock()
		if !ok {
			c.log.WithField("tag", fc.Tag).Debug("client: stale reply ignored")
			continue
		}
		ch <- fc
	}
}

// failPending delivers err to every still-outstanding call, so that a
// connection drop doesn't leave callers blocked forever.
func (c *Conn) failPending(err error) {
	c.mu.Lock()
	c.recvErr = err
	pending := c.pending
	c.pending = make(map[uint16]chan *ninep.Fcall)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}

// call allocates a tag, sends fc, and blocks for the matching reply.
func (c *Conn) call(fc *ninep.Fcall) (*ninep.Fcall, error) {
	tag := c.tagPool.Alloc()
	fc.Tag = tag
	ch := make(chan *ninep.Fcall, 1)

	c.mu.Lock()
	if c.recvErr != nil {
		c.mu.Unlock()
		c.tagPool.Free(tag)
		return nil, c.recvErr
	}
	c.pending[tag] = ch
	c.mu.Unlock()

	if err := ninep.WriteFcall(c.rwc, fc, c.dotu); err != nil {
		c.mu.Lock()
		delete(c.pending, tag)
		c.mu.Unlock()
		c.tagPool.Free(tag)
		return nil, err
	}

	reply, ok := <-ch
	c.tagPool.Free(tag)
	if !ok {
		return nil, c.recvErr
	}
	if reply.Type == ninep.Rerror {
		return nil, &ninep.RemoteError{Ename: reply.Ename, Errno: reply.Errno}
	}
	return reply, nil
}

// Close tears down the connection. Any fids the caller failed to Clunk are
// implicitly forgotten by the peer, matching spec.md §5's "closing a
// connection is the blanket cancellation".
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.rwc.Close()
}
