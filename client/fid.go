package client

import (
	"github.com/pkg/errors"

	"go9p.dev/ninep"
)

// Fid is a client-side handle on a server fid: the walked/opened state the
// 9P fid number denotes, plus the Conn it belongs to (spec.md §3 "Fid
// lifecycle", §4.5 "Attaching").
type Fid struct {
	c      *Conn
	num    uint32
	qid    ninep.Qid
	opened bool
	mode   uint8
}

// Attach issues Tattach against the connection's root, allocating a fresh
// fid to represent it (spec.md §4.5 step 1).
func (c *Conn) Attach(uname, aname string) (*Fid, error) {
	num := c.fidPool.Alloc()
	reply, err := c.call(&ninep.Fcall{
		Type:  ninep.Tattach,
		Fid:   num,
		Afid:  ninep.NoFid,
		Uname: uname,
		Aname: aname,
	})
	if err != nil {
		c.fidPool.Free(num)
		return nil, errors.Wrap(err, "client: attach")
	}
	return &Fid{c: c, num: num, qid: reply.Qid}, nil
}

// Qid returns the fid's last-known identity.
func (f *Fid) Qid() ninep.Qid { return f.qid }

// Walk descends names from f, allocating a new fid for the destination
// (spec.md §4.5 step 2 "Walking"). A zero-length names walks to a clone of
// f pointing at the same file, per the 9P "walk with nwname==0" idiom.
func (f *Fid) Walk(names ...string) (*Fid, error) {
	newNum := f.c.fidPool.Alloc()
	reply, err := f.c.call(&ninep.Fcall{
		Type:   ninep.Twalk,
		Fid:    f.num,
		Newfid: newNum,
		Wname:  names,
	})
	if err != nil {
		f.c.fidPool.Free(newNum)
		return nil, errors.Wrapf(err, "client: walk %v", names)
	}
	if len(reply.Wqid) != len(names) {
		f.c.clunk(newNum)
		f.c.fidPool.Free(newNum)
		return nil, errors.Errorf("client: walk %v: only %d of %d components resolved", names, len(reply.Wqid), len(names))
	}
	qid := f.qid
	if len(reply.Wqid) > 0 {
		qid = reply.Wqid[len(reply.Wqid)-1]
	}
	return &Fid{c: f.c, num: newNum, qid: qid}, nil
}

// Open opens f in place for the given mode (spec.md §4.5 step 3).
func (f *Fid) Open(mode uint8) error {
	reply, err := f.c.call(&ninep.Fcall{Type: ninep.Topen, Fid: f.num, Mode: mode})
	if err != nil {
		return errors.Wrap(err, "client: open")
	}
	f.qid = reply.Qid
	f.opened = true
	f.mode = mode
	return nil
}

// Create asks the server to create name under the directory f denotes; on
// success f itself becomes a handle on the new file, matching 9P's
// "Tcreate mutates fid in place" rule (spec.md §4.5 step 3, §4.6).
func (f *Fid) Create(name string, perm ninep.Perm, mode uint8, ext string) error {
	reply, err := f.c.call(&ninep.Fcall{
		Type: ninep.Tcreate,
		Fid:  f.num,
		Name: name,
		Perm: perm,
		Mode: mode,
		Ext:  ext,
	})
	if err != nil {
		return errors.Wrapf(err, "client: create %q", name)
	}
	f.qid = reply.Qid
	f.opened = true
	f.mode = mode
	return nil
}

// Stat issues Tstat against f.
func (f *Fid) Stat() (ninep.Dir, error) {
	reply, err := f.c.call(&ninep.Fcall{Type: ninep.Tstat, Fid: f.num})
	if err != nil {
		return ninep.Dir{}, errors.Wrap(err, "client: stat")
	}
	return ninep.UnmarshalDir(reply.Stat, f.c.dotu)
}

// Wstat issues Twstat against f.
func (f *Fid) Wstat(d ninep.Dir) error {
	_, err := f.c.call(&ninep.Fcall{Type: ninep.Twstat, Fid: f.num, Stat: d.Bytes(f.c.dotu)})
	return errors.Wrap(err, "client: wstat")
}

// Remove issues Tremove; f is consumed (clunked by the server) whether or
// not the removal itself succeeds (spec.md §4.6 Tremove semantics).
func (f *Fid) Remove() error {
	_, err := f.c.call(&ninep.Fcall{Type: ninep.Tremove, Fid: f.num})
	f.c.fidPool.Free(f.num)
	return errors.Wrap(err, "client: remove")
}

// Close clunks f, releasing its fid number back to the pool.
func (f *Fid) Close() error {
	err := f.c.clunk(f.num)
	f.c.fidPool.Free(f.num)
	return err
}

func (c *Conn) clunk(num uint32) error {
	_, err := c.call(&ninep.Fcall{Type: ninep.Tclunk, Fid: num})
	return errors.Wrap(err, "client: clunk")
}

// readAt issues one Tread for up to count bytes at offset.
func (f *Fid) readAt(offset uint64, count uint32) ([]byte, error) {
	reply, err := f.c.call(&ninep.Fcall{Type: ninep.Tread, Fid: f.num, Offset: offset, Count: count})
	if err != nil {
		return nil, errors.Wrap(err, "client: read")
	}
	return reply.Data, nil
}

// writeAt issues one Twrite of data at offset, returning the number of
// bytes the server reports it accepted.
func (f *Fid) writeAt(offset uint64, data []byte) (uint32, error) {
	reply, err := f.c.call(&ninep.Fcall{Type: ninep.Twrite, Fid: f.num, Offset: offset, Data: data})
	if err != nil {
		return 0, errors.Wrap(err, "client: write")
	}
	return reply.Count, nil
}

// Dirreadall reads f (which must denote an open directory) to completion
// and decodes every stat record it contains (spec.md §4.7 "Reading a
// directory"), stopping at the first zero-length Rread per the protocol's
// own end-of-directory signal.
func (f *Fid) Dirreadall() ([]ninep.Dir, error) {
	var dirs []ninep.Dir
	var offset uint64
	for {
		data, err := f.readAt(offset, ninep.DefaultIounit)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return dirs, nil
		}
		offset += uint64(len(data))
		for len(data) > 0 {
			if len(data) < 2 {
				return nil, errors.New("client: truncated directory entry")
			}
			n := int(uint16(data[0]) | uint16(data[1])<<8)
			if len(data) < 2+n {
				return nil, errors.New("client: truncated directory entry")
			}
			dir, err := ninep.UnmarshalDir(data[:2+n], f.c.dotu)
			if err != nil {
				return nil, err
			}
			dirs = append(dirs, dir)
			data = data[2+n:]
		}
	}
}
