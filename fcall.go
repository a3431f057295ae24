package ninep

import (
	"fmt"
	"io"
	"strings"

	"go9p.dev/ninep/internal/wire"
)

// Fcall is a single 9P message: every field any message kind might carry.
// Only the fields relevant to Type are meaningful, mirroring the
// discriminated-record shape of the classic go9p/9fans Fcall types this
// package's naming follows.
type Fcall struct {
	Type MsgType
	Tag  uint16

	// Tversion/Rversion
	Msize   uint32
	Version string

	// Tauth/Tattach
	Afid  uint32
	Uname string
	Aname string

	// Rattach/Rauth/Rwalk(per-qid)/Ropen/Rcreate
	Qid Qid

	// Rerror
	Ename string
	Errno uint32 // wire width is 2 bytes; widened here for convenience

	// Tflush
	Oldtag uint16

	// Twalk/Rwalk
	Fid    uint32
	Newfid uint32
	Wname  []string
	Wqid   []Qid

	// Topen/Tcreate
	Mode uint8

	// Ropen/Rcreate
	Iounit uint32

	// Tcreate
	Perm Perm
	Name string
	Ext  string // 9P2000.u only

	// Tread/Twrite
	Offset uint64
	Count  uint32
	Data   []byte

	// Tstat/Rstat/Twstat: Stat holds the already-encoded stat record
	// bytes (see Dir.Bytes / UnmarshalDir).
	Stat []byte
}

func (fc *Fcall) String() string {
	switch fc.Type {
	case Tversion, Rversion:
		return fmt.Sprintf("%v tag=%x msize=%d version=%q", fc.Type, fc.Tag, fc.Msize, fc.Version)
	case Tattach:
		return fmt.Sprintf("%v tag=%x fid=%d afid=%d uname=%q aname=%q", fc.Type, fc.Tag, fc.Fid, fc.Afid, fc.Uname, fc.Aname)
	case Rattach, Rauth:
		return fmt.Sprintf("%v tag=%x qid=%v", fc.Type, fc.Tag, fc.Qid)
	case Rerror:
		return fmt.Sprintf("%v tag=%x ename=%q errno=%d", fc.Type, fc.Tag, fc.Ename, fc.Errno)
	case Twalk:
		return fmt.Sprintf("%v tag=%x fid=%d newfid=%d wname=%s", fc.Type, fc.Tag, fc.Fid, fc.Newfid, strings.Join(fc.Wname, "/"))
	case Rwalk:
		return fmt.Sprintf("%v tag=%x nwqid=%d", fc.Type, fc.Tag, len(fc.Wqid))
	case Tread, Twrite:
		return fmt.Sprintf("%v tag=%x fid=%d offset=%d count=%d", fc.Type, fc.Tag, fc.Fid, fc.Offset, fc.Count)
	default:
		return fmt.Sprintf("%v tag=%x fid=%d", fc.Type, fc.Tag, fc.Fid)
	}
}

// marshalBody encodes the type-specific body of fc (everything after the
// tag) per the message-kind table in spec.md §4.3/§6.
func (fc *Fcall) marshalBody(e *wire.Encoder, dotu bool) error {
	switch fc.Type {
	case Tversion, Rversion:
		e.Put32(fc.Msize)
		e.PutString(fc.Version)
	case Tauth:
		e.Put32(fc.Afid)
		e.PutString(fc.Uname)
		e.PutString(fc.Aname)
	case Rauth:
		fc.Qid.marshal(e)
	case Tattach:
		e.Put32(fc.Fid)
		e.Put32(fc.Afid)
		e.PutString(fc.Uname)
		e.PutString(fc.Aname)
	case Rattach:
		fc.Qid.marshal(e)
	case Rerror:
		e.PutString(fc.Ename)
		if dotu {
			e.Put16(uint16(fc.Errno))
		}
	case Tflush:
		e.Put16(fc.Oldtag)
	case Rflush:
	case Twalk:
		e.Put32(fc.Fid)
		e.Put32(fc.Newfid)
		e.Put16(uint16(len(fc.Wname)))
		for _, n := range fc.Wname {
			e.PutString(n)
		}
	case Rwalk:
		e.Put16(uint16(len(fc.Wqid)))
		for _, q := range fc.Wqid {
			q.marshal(e)
		}
	case Topen:
		e.Put32(fc.Fid)
		e.Put8(fc.Mode)
	case Ropen:
		fc.Qid.marshal(e)
		e.Put32(fc.Iounit)
	case Tcreate:
		e.Put32(fc.Fid)
		e.PutString(fc.Name)
		e.Put32(uint32(fc.Perm))
		e.Put8(fc.Mode)
		if dotu {
			e.PutString(fc.Ext)
		}
	case Rcreate:
		fc.Qid.marshal(e)
		e.Put32(fc.Iounit)
	case Tread:
		e.Put32(fc.Fid)
		e.Put64(fc.Offset)
		e.Put32(fc.Count)
	case Rread:
		e.Put32(uint32(len(fc.Data)))
		e.PutBytes(fc.Data)
	case Twrite:
		e.Put32(fc.Fid)
		e.Put64(fc.Offset)
		e.Put32(uint32(len(fc.Data)))
		e.PutBytes(fc.Data)
	case Rwrite:
		e.Put32(fc.Count)
	case Tclunk, Tremove, Tstat:
		e.Put32(fc.Fid)
	case Rclunk, Rremove, Rwstat:
	case Rstat:
		e.Put16(uint16(len(fc.Stat)))
		e.PutBytes(fc.Stat)
	case Twstat:
		e.Put32(fc.Fid)
		e.Put16(uint16(len(fc.Stat)))
		e.PutBytes(fc.Stat)
	default:
		return fmt.Errorf("ninep: cannot marshal unknown message type %d", fc.Type)
	}
	return nil
}

// Marshal encodes fc as a complete framed 9P message: size(4) type(1)
// tag(2) body.
func (fc *Fcall) Marshal(dotu bool) ([]byte, error) {
	body := wire.NewEncoder(64)
	if err := fc.marshalBody(body, dotu); err != nil {
		return nil, err
	}
	total := 4 + 1 + 2 + body.Len()
	out := wire.NewEncoder(total)
	out.Put32(uint32(total))
	out.Put8(uint8(fc.Type))
	out.Put16(fc.Tag)
	out.PutBytes(body.Bytes())
	return out.Bytes(), nil
}

// unmarshalBody decodes the type-specific body of a message whose Type and
// Tag the caller has already read; body is everything after the tag.
func unmarshalBody(typ MsgType, tag uint16, body []byte, dotu bool) (*Fcall, error) {
	d := wire.NewDecoder(body)
	fc := &Fcall{Type: typ, Tag: tag}
	switch typ {
	case Tversion, Rversion:
		fc.Msize = d.Get32()
		fc.Version = d.GetString()
	case Tauth:
		fc.Afid = d.Get32()
		fc.Uname = d.GetString()
		fc.Aname = d.GetString()
	case Rauth:
		fc.Qid = unmarshalQid(d)
	case Tattach:
		fc.Fid = d.Get32()
		fc.Afid = d.Get32()
		fc.Uname = d.GetString()
		fc.Aname = d.GetString()
	case Rattach:
		fc.Qid = unmarshalQid(d)
	case Rerror:
		fc.Ename = d.GetString()
		if dotu {
			fc.Errno = uint32(d.Get16())
		}
	case Tflush:
		fc.Oldtag = d.Get16()
	case Rflush:
	case Twalk:
		fc.Fid = d.Get32()
		fc.Newfid = d.Get32()
		n := d.Get16()
		fc.Wname = make([]string, 0, n)
		for i := uint16(0); i < n; i++ {
			fc.Wname = append(fc.Wname, d.GetString())
		}
	case Rwalk:
		n := d.Get16()
		fc.Wqid = make([]Qid, 0, n)
		for i := uint16(0); i < n; i++ {
			fc.Wqid = append(fc.Wqid, unmarshalQid(d))
		}
	case Topen:
		fc.Fid = d.Get32()
		fc.Mode = d.Get8()
	case Ropen:
		fc.Qid = unmarshalQid(d)
		fc.Iounit = d.Get32()
	case Tcreate:
		fc.Fid = d.Get32()
		fc.Name = d.GetString()
		fc.Perm = Perm(d.Get32())
		fc.Mode = d.Get8()
		if dotu {
			fc.Ext = d.GetString()
		}
	case Rcreate:
		fc.Qid = unmarshalQid(d)
		fc.Iounit = d.Get32()
	case Tread:
		fc.Fid = d.Get32()
		fc.Offset = d.Get64()
		fc.Count = d.Get32()
	case Rread:
		n := d.Get32()
		fc.Data = d.GetBytes(int(n))
	case Twrite:
		fc.Fid = d.Get32()
		fc.Offset = d.Get64()
		n := d.Get32()
		fc.Data = d.GetBytes(int(n))
	case Rwrite:
		fc.Count = d.Get32()
	case Tclunk, Tremove, Tstat:
		fc.Fid = d.Get32()
	case Rclunk, Rremove, Rwstat:
	case Rstat:
		n := d.Get16()
		fc.Stat = d.GetBytes(int(n))
	case Twstat:
		fc.Fid = d.Get32()
		n := d.Get16()
		fc.Stat = d.GetBytes(int(n))
	default:
		return nil, fmt.Errorf("ninep: unknown message type %d", typ)
	}
	if d.Err() != nil {
		return nil, fmt.Errorf("ninep: malformed %v: %w", typ, d.Err())
	}
	return fc, nil
}

// WriteFcall frames and writes fc to w. dotu selects the 9P2000.u encoding
// of Rerror/Tcreate bodies; Stat bytes are written as given (their encoding
// is chosen when Dir.Bytes builds them).
func WriteFcall(w io.Writer, fc *Fcall, dotu bool) error {
	b, err := fc.Marshal(dotu)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadFcall reads one complete framed message from r. It blocks until a
// full frame (or an I/O error) arrives; since Go's blocking Read already
// provides the "suspend until more bytes are available" behaviour spec.md's
// framer state machine describes for a non-blocking stream, ReadFcall does
// not need to track a partially-buffered prefix across calls the way
// spec.md §4.3 steps 1-3 do for an evented byte stream.
func ReadFcall(r io.Reader, dotu bool) (*Fcall, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}
	size := uint32(sizeBuf[0]) | uint32(sizeBuf[1])<<8 | uint32(sizeBuf[2])<<16 | uint32(sizeBuf[3])<<24
	if size < 7 {
		return nil, fmt.Errorf("ninep: malformed message: size %d below minimum", size)
	}
	rest := make([]byte, size-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	typ := MsgType(rest[0])
	tag := uint16(rest[1]) | uint16(rest[2])<<8
	return unmarshalBody(typ, tag, rest[3:], dotu)
}
