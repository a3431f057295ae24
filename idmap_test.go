package ninep

import (
	"context"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
)

func TestLoadUserGroupMap(t *testing.T) {
	c := qt.New(t)
	fsys := fstest.MapFS{
		"etc/passwd": &fstest.MapFile{Data: []byte("root:x:0:0:root:/root:/bin/sh\nalice:x:1000:1000::/home/alice:/bin/sh\n")},
		"etc/group":  &fstest.MapFile{Data: []byte("root:x:0:\nstaff:x:20:alice\n")},
	}
	err := LoadUserGroupMap(context.Background(), fsys)
	c.Assert(err, qt.IsNil)
	c.Assert(Users.ID("alice"), qt.Equals, uint32(1000))
	c.Assert(Groups.ID("staff"), qt.Equals, uint32(20))
	c.Assert(Users.Name(0), qt.Equals, "root")
}

func TestLoadUserGroupMapMissingFilesIsNotAnError(t *testing.T) {
	c := qt.New(t)
	err := LoadUserGroupMap(context.Background(), fstest.MapFS{})
	c.Assert(err, qt.IsNil)
}

func TestIDMapPutEmptyNameIgnored(t *testing.T) {
	c := qt.New(t)
	m := newIDMap()
	m.Put("", 5)
	c.Assert(m.Name(5), qt.Equals, "")
}
