package vfs

import (
	"sync/atomic"

	"go9p.dev/ninep"
)

// Tree owns qid-path allocation and the root node of an in-memory file
// tree. Every Mk* constructor goes through a Tree so paths never collide
// within it (spec.md §4.1's qid.path is "a unique, permanent identifier").
type Tree struct {
	nextPath atomic.Uint64
	Root     *Node
}

// NewTree creates an empty tree with a root directory owned by uid/gid.
func NewTree(uid, gid string) *Tree {
	t := &Tree{}
	t.Root = &Node{
		kind:     KindDir,
		qidPath:  t.allocPath(),
		mode:     ninep.DMDIR | 0755,
		name:     "",
		uid:      uid,
		gid:      gid,
		muid:     uid,
		atime:    now(),
		mtime:    now(),
		children: make(map[string]*Node),
	}
	return t
}

func (t *Tree) allocPath() uint64 {
	return t.nextPath.Add(1) - 1
}

func (t *Tree) newNode(kind Kind, name, uid, gid string, mode ninep.Perm) *Node {
	ts := now()
	return &Node{
		kind:    kind,
		qidPath: t.allocPath(),
		mode:    mode,
		name:    name,
		uid:     uid,
		gid:     gid,
		muid:    uid,
		atime:   ts,
		mtime:   ts,
	}
}

// MkDir creates a directory named name under parent.
func (t *Tree) MkDir(parent *Node, name, uid, gid string, perm ninep.Perm) (*Node, error) {
	if parent.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}
	if _, exists := parent.lookupChild(name); exists {
		return nil, ninep.ErrAlreadyExists
	}
	n := t.newNode(KindDir, name, uid, gid, perm&ninep.DMPERM)
	n.children = make(map[string]*Node)
	n.parent = parent
	parent.addChild(n)
	return n, nil
}

// MkFile creates an empty regular file named name under parent.
func (t *Tree) MkFile(parent *Node, name, uid, gid string, perm ninep.Perm) (*Node, error) {
	if parent.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}
	if _, exists := parent.lookupChild(name); exists {
		return nil, ninep.ErrAlreadyExists
	}
	n := t.newNode(KindFile, name, uid, gid, perm&ninep.DMPERM)
	n.parent = parent
	parent.addChild(n)
	return n, nil
}

// MkSymlink creates a symlink named name under parent pointing at target.
func (t *Tree) MkSymlink(parent *Node, name, target, uid, gid string) (*Node, error) {
	if parent.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}
	if _, exists := parent.lookupChild(name); exists {
		return nil, ninep.ErrAlreadyExists
	}
	n := t.newNode(KindSymlink, name, uid, gid, 0777)
	n.linkTarget = target
	n.parent = parent
	parent.addChild(n)
	return n, nil
}

// MkDevice creates a device special file named name under parent.
func (t *Tree) MkDevice(parent *Node, name string, block bool, major, minor uint32, uid, gid string) (*Node, error) {
	if parent.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}
	if _, exists := parent.lookupChild(name); exists {
		return nil, ninep.ErrAlreadyExists
	}
	n := t.newNode(KindDevice, name, uid, gid, ninep.DMDEVICE|0660)
	n.blockDevice = block
	n.major = major
	n.minor = minor
	n.parent = parent
	parent.addChild(n)
	return n, nil
}

// MkPipe creates a named pipe under parent.
func (t *Tree) MkPipe(parent *Node, name, uid, gid string) (*Node, error) {
	if parent.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}
	if _, exists := parent.lookupChild(name); exists {
		return nil, ninep.ErrAlreadyExists
	}
	n := t.newNode(KindPipe, name, uid, gid, ninep.DMNAMEDPIPE|0660)
	n.parent = parent
	parent.addChild(n)
	return n, nil
}

// MkSocket creates a socket special file under parent.
func (t *Tree) MkSocket(parent *Node, name, uid, gid string) (*Node, error) {
	if parent.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}
	if _, exists := parent.lookupChild(name); exists {
		return nil, ninep.ErrAlreadyExists
	}
	n := t.newNode(KindSocket, name, uid, gid, ninep.DMSOCKET|0660)
	n.parent = parent
	parent.addChild(n)
	return n, nil
}
