// Package srv implements the server half of 9P2000/9P2000.u: a generic
// dispatcher (component C7) that translates wire Fcalls into calls against
// a Fsys[F] implementation, leaving the filesystem itself (fid identity,
// tree shape, permission model) entirely up to the caller. The design
// generalizes the teacher's fsys.go/server.go split: Fid is a type
// parameter rather than the concrete *vufs.Fid the teacher used, and the
// interface grows Create/Remove/Wstat/Auth so the dispatcher supports the
// full write-side of the protocol, not just the read-only subset the
// teacher's draft covered.
package srv

import (
	"context"

	"go9p.dev/ninep"
)

// Fsys is the set of operations a filesystem must provide to be served
// over 9P. F is the implementation's own per-fid handle type; the
// dispatcher never interprets it, only stores and passes it back.
type Fsys[F any] interface {
	// Auth returns a handle for an auth conversation, or ErrNotImplemented
	// if the filesystem requires no authentication (spec.md §4.5 step 1).
	Auth(ctx context.Context, uname, aname string) (F, ninep.Qid, error)

	// Attach returns the handle for the root of the tree uname/aname
	// denotes. afid is the auth fid's handle, or the zero F if none.
	Attach(ctx context.Context, afid F, hasAfid bool, uname, aname string) (F, ninep.Qid, error)

	// Clone produces an independent handle pointing at the same node as f.
	// Every Twalk starts from a clone, which is the result when nwname is 0
	// (spec.md §4.6 Twalk).
	Clone(f F) F

	// Walk moves a cloned handle one path component down, used by the
	// dispatcher's per-component Twalk loop: a failure on the first
	// component is replied to with Rerror, a later failure stops the walk
	// with the qids collected so far (spec.md §4.6 Twalk).
	Walk(ctx context.Context, f F, name string) (F, ninep.Qid, error)

	// Open validates and records mode against f, returning the iounit to
	// advertise back to the client.
	Open(ctx context.Context, f F, mode uint8) (ninep.Qid, uint32, error)

	// Create makes name under the directory f denotes and mutates f (per
	// 9P's "Tcreate replaces the fid in place") to point at the new node.
	Create(ctx context.Context, f F, name string, perm ninep.Perm, mode uint8, ext string) (ninep.Qid, uint32, error)

	// Readdir returns entries starting at offset, up to count bytes of
	// encoded stat records (spec.md §4.7 "Reading a directory").
	Readdir(ctx context.Context, f F, offset uint64, count int) ([]ninep.Dir, error)

	// ReadAt/WriteAt serve Tread/Twrite against a non-directory f.
	ReadAt(ctx context.Context, f F, offset uint64, p []byte) (int, error)
	WriteAt(ctx context.Context, f F, offset uint64, p []byte) (int, error)

	Stat(ctx context.Context, f F) (ninep.Dir, error)
	Wstat(ctx context.Context, f F, d ninep.Dir) error
	Remove(ctx context.Context, f F) error

	// Qid reports f's current identity (it can change after Tcreate).
	Qid(f F) ninep.Qid

	// Clunk releases any resources f holds. It is called for the handle
	// bound to a fid when that fid is retired: by Tclunk, by Tremove, or by
	// connection close. Handles that a Twalk produces without binding them
	// to a fid are not passed to Clunk.
	Clunk(f F)
}

// ErrorFsys is embedded by filesystems that only implement a subset of
// Fsys; every error-returning method not overridden returns
// ErrNotImplemented (Clone returns f unchanged, Qid the zero Qid, and
// Clunk does nothing), matching the teacher's ErrorFsys default-method
// pattern.
type ErrorFsys[F any] struct{}

func (ErrorFsys[F]) Auth(ctx context.Context, uname, aname string) (f F, q ninep.Qid, err error) {
	return f, q, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Attach(ctx context.Context, afid F, hasAfid bool, uname, aname string) (f F, q ninep.Qid, err error) {
	return f, q, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Clone(f F) F { return f }

func (ErrorFsys[F]) Walk(ctx context.Context, f F, name string) (nf F, q ninep.Qid, err error) {
	return nf, q, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Open(ctx context.Context, f F, mode uint8) (q ninep.Qid, iounit uint32, err error) {
	return q, 0, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Create(ctx context.Context, f F, name string, perm ninep.Perm, mode uint8, ext string) (q ninep.Qid, iounit uint32, err error) {
	return q, 0, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Readdir(ctx context.Context, f F, offset uint64, count int) ([]ninep.Dir, error) {
	return nil, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) ReadAt(ctx context.Context, f F, offset uint64, p []byte) (int, error) {
	return 0, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) WriteAt(ctx context.Context, f F, offset uint64, p []byte) (int, error) {
	return 0, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Stat(ctx context.Context, f F) (ninep.Dir, error) {
	return ninep.Dir{}, ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Wstat(ctx context.Context, f F, d ninep.Dir) error {
	return ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Remove(ctx context.Context, f F) error {
	return ninep.ErrNotImplemented
}

func (ErrorFsys[F]) Qid(f F) (q ninep.Qid) { return q }

func (ErrorFsys[F]) Clunk(f F) {}
