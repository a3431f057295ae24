package ninep

import (
	"fmt"
	"strconv"
	"strings"

	"go9p.dev/ninep/internal/wire"
)

// Dir is the decoded form of a 9P stat record (spec.md §3, §6). Under
// 9P2000.u it additionally carries Ext and the numeric n_uid/n_gid/n_muid
// fields, exposed here as Uid/Gid/Muid numeric counterparts.
type Dir struct {
	Type   uint16
	Dev    uint32
	Qid    Qid
	Mode   Perm
	Atime  uint32
	Mtime  uint32
	Length uint64
	Name   string
	Uid    string
	Gid    string
	Muid   string

	// Ext and the numeric ids are 9P2000.u only. Ext holds a symlink
	// target, or "c MAJOR MINOR" / "b MAJOR MINOR" for device files.
	Ext    string
	NUid   uint32
	NGid   uint32
	NMuid  uint32
}

// statPrefixSize is the fixed portion of an encoded stat record following
// the 2-byte inner-length field: type(2) dev(4) qid(13) mode(4) atime(4)
// mtime(4) length(8) = 39 bytes; spec.md's "43-byte prefix" counts the
// 2-byte inner length and the 2-byte outer size together with this.
const statPrefixSize = 2 + 4 + qidSize + 4 + 4 + 4 + 8

// Bytes encodes d as the 9P wire stat record (prepare_stat_buffer in
// spec.md §4.1), returning a buffer whose first 2 bytes are the inner
// length: the little-endian count of the record bytes that follow.
// dotu selects the 9P2000.u extension. Any of Name/Uid/Gid/Muid/Ext being
// empty encodes as a zero-length string, and unknown uid/gid names encode
// as numeric id 0 - callers are never required to pre-populate Users/Groups.
func (d Dir) Bytes(dotu bool) []byte {
	inner := wire.NewEncoder(128)
	inner.Put16(d.Type)
	inner.Put32(d.Dev)
	d.Qid.marshal(inner)
	inner.Put32(uint32(d.Mode))
	inner.Put32(d.Atime)
	inner.Put32(d.Mtime)
	inner.Put64(d.Length)
	inner.PutString(d.Name)
	inner.PutString(d.Uid)
	inner.PutString(d.Gid)
	inner.PutString(d.Muid)
	if dotu {
		inner.PutString(d.Ext)
		inner.Put32(orID(d.NUid, Users.ID(d.Uid)))
		inner.Put32(orID(d.NGid, Groups.ID(d.Gid)))
		inner.Put32(orID(d.NMuid, Users.ID(d.Muid)))
	}

	out := wire.NewEncoder(2 + inner.Len())
	out.Put16(uint16(inner.Len()))
	out.PutBytes(inner.Bytes())
	return out.Bytes()
}

// orID prefers an explicitly set numeric id over one looked up by name.
func orID(explicit, looked uint32) uint32 {
	if explicit != 0 {
		return explicit
	}
	return looked
}

// UnmarshalDir decodes a stat record produced by Bytes. It returns an error
// (parse_stat_buffer's "return 0 on any short read") rather than a partial
// Dir on truncated input. Under 9P2000.u, decoded uid/gid/muid names are
// opportunistically registered into Users/Groups using the accompanying
// numeric ids, so future Bytes calls for the same names round-trip the ids.
func UnmarshalDir(b []byte, dotu bool) (Dir, error) {
	outer := wire.NewDecoder(b)
	innerLen := outer.Get16()
	if outer.Err() != nil {
		return Dir{}, fmt.Errorf("ninep: short stat buffer")
	}
	inner := outer.Remaining()
	if len(inner) < int(innerLen) {
		return Dir{}, fmt.Errorf("ninep: stat length %d exceeds buffer", innerLen)
	}
	d := wire.NewDecoder(inner[:innerLen])

	var dir Dir
	dir.Type = d.Get16()
	dir.Dev = d.Get32()
	dir.Qid = unmarshalQid(d)
	dir.Mode = Perm(d.Get32())
	dir.Atime = d.Get32()
	dir.Mtime = d.Get32()
	dir.Length = d.Get64()
	dir.Name = d.GetString()
	dir.Uid = d.GetString()
	dir.Gid = d.GetString()
	dir.Muid = d.GetString()
	if dotu {
		dir.Ext = d.GetString()
		dir.NUid = d.Get32()
		dir.NGid = d.Get32()
		dir.NMuid = d.Get32()
		Users.Put(dir.Uid, dir.NUid)
		Groups.Put(dir.Gid, dir.NGid)
		Users.Put(dir.Muid, dir.NMuid)
	}
	if d.Err() != nil {
		return Dir{}, fmt.Errorf("ninep: short stat buffer")
	}
	return dir, nil
}

func (d Dir) String() string {
	return fmt.Sprintf("%s %s %s %s %d %s", d.Qid, d.Mode, d.Uid, d.Gid, d.Length, d.Name)
}

func (p Perm) String() string {
	var b strings.Builder
	if p&DMDIR != 0 {
		b.WriteByte('d')
	} else {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatUint(uint64(p&DMPERM), 8))
	return b.String()
}

// deviceExt formats the "c MAJOR MINOR" / "b MAJOR MINOR" extension string
// of device-file stat records (spec.md §4.7 Tstat, §4.6). The vfs package
// formats its own device stat records with vfs.deviceExtString.
func deviceExt(block bool, major, minor uint32) string {
	kind := "c"
	if block {
		kind = "b"
	}
	return fmt.Sprintf("%s %d %d", kind, major, minor)
}

// parseDeviceExt is the inverse of deviceExt. vfs.Fsys.Create parses the
// DMDEVICE extension of Tcreate with its own parseDeviceExtString.
func parseDeviceExt(ext string) (block bool, major, minor uint32, err error) {
	var kind string
	n, err := fmt.Sscanf(ext, "%s %d %d", &kind, &major, &minor)
	if err != nil || n != 3 {
		return false, 0, 0, fmt.Errorf("ninep: malformed device extension %q", ext)
	}
	switch kind {
	case "b":
		return true, major, minor, nil
	case "c":
		return false, major, minor, nil
	default:
		return false, 0, 0, fmt.Errorf("ninep: unknown device kind %q", kind)
	}
}
