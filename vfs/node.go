// Package vfs is an in-memory file tree (spec.md §3, §4.6, §4.7) exposed
// as a srv.Fsys[*Handle], generalizing the teacher's staticfsys draft from a
// fixed, read-only content tree to a fully mutable one: directories gain
// children at runtime, files are read-write, and symlinks/devices/pipes/
// sockets round out the node kinds spec.md's Dir.Mode bits distinguish.
package vfs

import (
	"sync"
	"time"

	"go9p.dev/ninep"
)

// Kind distinguishes what a Node's payload means.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
	KindDevice
	KindPipe
	KindSocket
)

// Node is one entry in the tree: the common header spec.md's Dir record
// describes, plus a kind-tagged payload. A Node's identity (qidPath) never
// changes; qidVersion increments on every content mutation, matching
// spec.md §4.1's "Qid.version changes whenever the file's content changes".
type Node struct {
	mu sync.RWMutex

	qidPath    uint64
	qidVersion uint32
	kind       Kind

	mode  ninep.Perm
	atime uint32
	mtime uint32
	name  string
	uid   string
	gid   string
	muid  string

	parent   *Node
	children map[string]*Node
	order    []string // insertion order, for stable Readdir output

	data []byte // KindFile

	linkTarget string // KindSymlink

	blockDevice  bool   // KindDevice
	major, minor uint32 // KindDevice

	// OnRead/OnWrite, when set, intercept ReadAt/WriteAt instead of the
	// node's own data buffer - used for synthetic files (spec.md §4.6's
	// "on_read"/"on_write" callback hooks).
	OnRead  func(n *Node, offset uint64, p []byte) (int, error)
	OnWrite func(n *Node, offset uint64, p []byte) (int, error)
}

func now() uint32 { return uint32(time.Now().Unix()) }

func (n *Node) qidType() ninep.QidType {
	switch n.kind {
	case KindDir:
		return ninep.QTDIR
	case KindSymlink:
		return ninep.QTLINK
	default:
		if n.mode&ninep.DMAPPEND != 0 {
			return ninep.QTAPPEND
		}
		return ninep.QTFILE
	}
}

// Qid returns n's current identity. Safe for concurrent use.
func (n *Node) Qid() ninep.Qid {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return ninep.Qid{Type: n.qidType(), Version: n.qidVersion, Path: n.qidPath}
}

// Stat renders n as a Dir record (spec.md §4.7 Tstat).
func (n *Node) Stat() ninep.Dir {
	n.mu.RLock()
	defer n.mu.RUnlock()
	length := uint64(len(n.data))
	if n.kind == KindDir {
		length = 0
	}
	ext := n.linkTarget
	if n.kind == KindDevice {
		ext = deviceExtString(n.blockDevice, n.major, n.minor)
	}
	mode := n.mode
	if n.kind == KindDir {
		mode |= ninep.DMDIR
	}
	return ninep.Dir{
		Qid:    ninep.Qid{Type: n.qidType(), Version: n.qidVersion, Path: n.qidPath},
		Mode:   mode,
		Atime:  n.atime,
		Mtime:  n.mtime,
		Length: length,
		Name:   n.name,
		Uid:    n.uid,
		Gid:    n.gid,
		Muid:   n.muid,
		Ext:    ext,
	}
}

func deviceExtString(block bool, major, minor uint32) string {
	kind := "c"
	if block {
		kind = "b"
	}
	return kind + " " + itoa(major) + " " + itoa(minor)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// lookupChild finds a direct child by name under a directory node.
func (n *Node) lookupChild(name string) (*Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	child, ok := n.children[name]
	return child, ok
}

// childNames returns the directory's entries in insertion order.
func (n *Node) childNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

func (n *Node) addChild(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	n.children[child.name] = child
	n.order = append(n.order, child.name)
	n.mtime = now()
}

func (n *Node) removeChild(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.children, name)
	for i, nm := range n.order {
		if nm == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	n.mtime = now()
}
