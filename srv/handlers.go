package srv

import (
	"context"

	"go9p.dev/ninep"
	"go9p.dev/ninep/internal/xmath"
)

// getFid looks up the entry for a client-supplied fid number.
func (c *conn[F]) getFid(num uint32) (*fidEntry[F], bool) {
	c.fidMu.Lock()
	defer c.fidMu.Unlock()
	fe, ok := c.fids[num]
	return fe, ok
}

func (c *conn[F]) putFid(num uint32, handle F) *fidEntry[F] {
	fe := &fidEntry[F]{handle: handle}
	c.fidMu.Lock()
	c.fids[num] = fe
	c.fidMu.Unlock()
	return fe
}

func (c *conn[F]) dropFid(num uint32) (F, bool) {
	c.fidMu.Lock()
	defer c.fidMu.Unlock()
	fe, ok := c.fids[num]
	if !ok {
		var zero F
		return zero, false
	}
	delete(c.fids, num)
	return fe.handle, true
}

func (c *conn[F]) handleAuth(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	handle, qid, err := c.srv.Fsys.Auth(ctx, fc.Uname, fc.Aname)
	if err != nil {
		return rerror(err)
	}
	c.putFid(fc.Afid, handle)
	return &ninep.Fcall{Type: ninep.Rauth, Qid: qid}
}

func (c *conn[F]) handleAttach(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	var (
		afidHandle F
		hasAfid    bool
	)
	if fc.Afid != ninep.NoFid {
		h, ok := c.getFid(fc.Afid)
		if !ok {
			return rerror(ninep.ErrNotFound)
		}
		afidHandle, hasAfid = h.handle, true
	}
	handle, qid, err := c.srv.Fsys.Attach(ctx, afidHandle, hasAfid, fc.Uname, fc.Aname)
	if err != nil {
		return rerror(err)
	}
	c.putFid(fc.Fid, handle)
	return &ninep.Fcall{Type: ninep.Rattach, Qid: qid}
}

// handleFlush cancels the context of the in-flight request tagged Oldtag,
// per spec.md's "kill_tag replies to the tag it was originally given" -
// the in-flight handler still sends its own (now-irrelevant) reply using
// the original tag; Rflush itself always succeeds immediately.
func (c *conn[F]) handleFlush(fc *ninep.Fcall) *ninep.Fcall {
	c.flushMu.Lock()
	cancel, ok := c.cancels[fc.Oldtag]
	c.flushMu.Unlock()
	if ok {
		cancel()
	}
	return &ninep.Fcall{Type: ninep.Rflush}
}

func (c *conn[F]) handleWalk(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	fe.mu.Lock()
	cur := c.srv.Fsys.Clone(fe.handle)
	fe.mu.Unlock()

	wqid := make([]ninep.Qid, 0, len(fc.Wname))
	for _, name := range fc.Wname {
		next, qid, err := c.srv.Fsys.Walk(ctx, cur, name)
		if err != nil {
			if len(wqid) == 0 {
				return rerror(err)
			}
			break
		}
		cur = next
		wqid = append(wqid, qid)
	}
	if len(wqid) < len(fc.Wname) {
		// Partial walk: nothing is bound to newfid (spec.md §4.6 Twalk).
		return &ninep.Fcall{Type: ninep.Rwalk, Wqid: wqid}
	}
	c.putFid(fc.Newfid, cur)
	return &ninep.Fcall{Type: ninep.Rwalk, Wqid: wqid}
}

func (c *conn[F]) handleOpen(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	qid, iounit, err := c.srv.Fsys.Open(ctx, fe.handle, fc.Mode)
	if err != nil {
		return rerror(err)
	}
	fe.open = true
	fe.openMode = fc.Mode
	return &ninep.Fcall{Type: ninep.Ropen, Qid: qid, Iounit: iounit}
}

func (c *conn[F]) handleCreate(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	qid, iounit, err := c.srv.Fsys.Create(ctx, fe.handle, fc.Name, fc.Perm, fc.Mode, fc.Ext)
	if err != nil {
		return rerror(err)
	}
	fe.open = true
	fe.openMode = fc.Mode
	return &ninep.Fcall{Type: ninep.Rcreate, Qid: qid, Iounit: iounit}
}

func (c *conn[F]) handleRead(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()

	count := xmath.Min(fc.Count, c.msize)

	if c.srv.Fsys.Qid(fe.handle).IsDir() {
		return c.readDir(ctx, fe, fc.Offset, int(count))
	}
	buf := make([]byte, count)
	n, err := c.srv.Fsys.ReadAt(ctx, fe.handle, fc.Offset, buf)
	if err != nil {
		return rerror(err)
	}
	return &ninep.Fcall{Type: ninep.Rread, Data: buf[:n]}
}

// readDir serves Tread against a directory fid by re-encoding the
// directory's entries as a stat-record byte stream and paging through it
// at the requested offset, following the teacher's own readDir caching of
// the encoded buffer across successive Tread calls with advancing offsets.
// Each reply holds only whole stat records that fit within count bytes.
func (c *conn[F]) readDir(ctx context.Context, fe *fidEntry[F], offset uint64, count int) *ninep.Fcall {
	if offset == 0 || fe.dirEntries == nil {
		dirs, err := c.srv.Fsys.Readdir(ctx, fe.handle, 0, -1)
		if err != nil {
			return rerror(err)
		}
		var buf []byte
		for _, d := range dirs {
			buf = append(buf, d.Bytes(c.dotu)...)
		}
		fe.dirEntries = buf
	}
	if offset > uint64(len(fe.dirEntries)) {
		return &ninep.Fcall{Type: ninep.Rread}
	}
	start := int(offset)
	end := start
	for end+2 <= len(fe.dirEntries) {
		next := end + 2 + int(uint16(fe.dirEntries[end])|uint16(fe.dirEntries[end+1])<<8)
		if next > len(fe.dirEntries) || next-start > count {
			break
		}
		end = next
	}
	return &ninep.Fcall{Type: ninep.Rread, Data: fe.dirEntries[start:end]}
}

func (c *conn[F]) handleWrite(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	n, err := c.srv.Fsys.WriteAt(ctx, fe.handle, fc.Offset, fc.Data)
	if err != nil {
		return rerror(err)
	}
	return &ninep.Fcall{Type: ninep.Rwrite, Count: uint32(n)}
}

func (c *conn[F]) handleClunk(fc *ninep.Fcall) *ninep.Fcall {
	handle, ok := c.dropFid(fc.Fid)
	if ok {
		c.srv.Fsys.Clunk(handle)
	}
	return &ninep.Fcall{Type: ninep.Rclunk}
}

func (c *conn[F]) handleRemove(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	handle, ok := c.dropFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	err := c.srv.Fsys.Remove(ctx, handle)
	c.srv.Fsys.Clunk(handle)
	if err != nil {
		return rerror(err)
	}
	return &ninep.Fcall{Type: ninep.Rremove}
}

func (c *conn[F]) handleStat(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	d, err := c.srv.Fsys.Stat(ctx, fe.handle)
	if err != nil {
		return rerror(err)
	}
	return &ninep.Fcall{Type: ninep.Rstat, Stat: d.Bytes(c.dotu)}
}

func (c *conn[F]) handleWstat(ctx context.Context, fc *ninep.Fcall) *ninep.Fcall {
	fe, ok := c.getFid(fc.Fid)
	if !ok {
		return rerror(ninep.ErrNotFound)
	}
	d, err := ninep.UnmarshalDir(fc.Stat, c.dotu)
	if err != nil {
		return rerror(err)
	}
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if err := c.srv.Fsys.Wstat(ctx, fe.handle, d); err != nil {
		return rerror(err)
	}
	return &ninep.Fcall{Type: ninep.Rwstat}
}
