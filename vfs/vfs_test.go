package vfs

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"go9p.dev/ninep"
)

func TestTreeMkFileAndReadWrite(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	f, err := tree.MkFile(tree.Root, "greeting", "root", "root", 0644)
	c.Assert(err, qt.IsNil)

	fs := New(tree)
	ctx := context.Background()
	h := &Handle{node: f, uname: "root"}

	n, err := fs.WriteAt(ctx, h, 0, []byte("hello"))
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 5)

	buf := make([]byte, 16)
	n, err = fs.ReadAt(ctx, h, 0, buf)
	c.Assert(err, qt.IsNil)
	c.Assert(string(buf[:n]), qt.Equals, "hello")
}

func TestTreeDuplicateNameRejected(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	_, err := tree.MkFile(tree.Root, "x", "root", "root", 0644)
	c.Assert(err, qt.IsNil)
	_, err = tree.MkFile(tree.Root, "x", "root", "root", 0644)
	c.Assert(err, qt.Equals, ninep.ErrAlreadyExists)
}

func TestFsysWalkAndAttach(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	sub, err := tree.MkDir(tree.Root, "sub", "root", "root", 0755)
	c.Assert(err, qt.IsNil)
	_, err = tree.MkFile(sub, "f", "root", "root", 0644)
	c.Assert(err, qt.IsNil)

	fs := New(tree)
	ctx := context.Background()
	root, qid, err := fs.Attach(ctx, nil, false, "root", "")
	c.Assert(err, qt.IsNil)
	c.Assert(qid.Type, qt.Equals, ninep.QidType(0))

	h, _, err := fs.Walk(ctx, root, "sub")
	c.Assert(err, qt.IsNil)
	h, _, err = fs.Walk(ctx, h, "f")
	c.Assert(err, qt.IsNil)
	c.Assert(h.node.name, qt.Equals, "f")

	back, _, err := fs.Walk(ctx, &Handle{node: sub, uname: "root"}, "..")
	c.Assert(err, qt.IsNil)
	c.Assert(back.node, qt.Equals, tree.Root)
}

func TestFsysWalkDotStaysPut(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	sub, err := tree.MkDir(tree.Root, "sub", "root", "root", 0755)
	c.Assert(err, qt.IsNil)

	fs := New(tree)
	ctx := context.Background()
	root, _, err := fs.Attach(ctx, nil, false, "root", "")
	c.Assert(err, qt.IsNil)

	h, _, err := fs.Walk(ctx, root, "sub")
	c.Assert(err, qt.IsNil)
	c.Assert(h.node, qt.Equals, sub)

	same, _, err := fs.Walk(ctx, h, ".")
	c.Assert(err, qt.IsNil)
	c.Assert(same.node, qt.Equals, sub)

	same, _, err = fs.Walk(ctx, h, "")
	c.Assert(err, qt.IsNil)
	c.Assert(same.node, qt.Equals, sub)
}

func TestFsysCreateAndRemove(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	fs := New(tree)
	ctx := context.Background()
	root, _, err := fs.Attach(ctx, nil, false, "root", "")
	c.Assert(err, qt.IsNil)

	_, _, err = fs.Create(ctx, root, "newfile", 0644, ninep.OREADWRITE, "")
	c.Assert(err, qt.IsNil)
	c.Assert(root.node.name, qt.Equals, "newfile")

	err = fs.Remove(ctx, root)
	c.Assert(err, qt.IsNil)
	_, exists := tree.Root.lookupChild("newfile")
	c.Assert(exists, qt.IsFalse)
}

func TestFsysReaddir(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	tree.MkFile(tree.Root, "a", "root", "root", 0644)
	tree.MkFile(tree.Root, "b", "root", "root", 0644)

	fs := New(tree)
	ctx := context.Background()
	root, _, err := fs.Attach(ctx, nil, false, "root", "")
	c.Assert(err, qt.IsNil)

	dirs, err := fs.Readdir(ctx, root, 0, -1)
	c.Assert(err, qt.IsNil)
	c.Assert(len(dirs), qt.Equals, 4)
	c.Assert(dirs[0].Name, qt.Equals, ".")
	c.Assert(dirs[1].Name, qt.Equals, "..")
	c.Assert(dirs[2].Name, qt.Equals, "a")
	c.Assert(dirs[3].Name, qt.Equals, "b")
}

func TestNodeOnReadHook(t *testing.T) {
	c := qt.New(t)
	tree := NewTree("root", "root")
	f, err := tree.MkFile(tree.Root, "synthetic", "root", "root", 0444)
	c.Assert(err, qt.IsNil)
	f.OnRead = func(n *Node, offset uint64, p []byte) (int, error) {
		return copy(p, "synthetic content"), nil
	}

	fs := New(tree)
	buf := make([]byte, 32)
	n, err := fs.ReadAt(context.Background(), &Handle{node: f}, 0, buf)
	c.Assert(err, qt.IsNil)
	c.Assert(string(buf[:n]), qt.Equals, "synthetic content")
}
