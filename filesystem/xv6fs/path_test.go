package xv6fs

import "testing"

func TestResolveRoot(t *testing.T) {
	fs := newTestFS(t)
	inum, err := fs.resolve("/")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if inum != rootInum {
		t.Fatalf("expected root inode %d, got %d", rootInum, inum)
	}
}

func TestResolveNestedPath(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateDirectory("/a"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.CreateDirectory("/a/b"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.CreateFile("/a/b/c.txt", []byte("hi")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	inum, err := fs.resolve("/a/b/c.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ip, err := fs.iget(inum)
	if err != nil {
		t.Fatalf("iget: %v", err)
	}
	if ip.Dinode.Type != TFile {
		t.Fatalf("expected a file inode, got type %d", ip.Dinode.Type)
	}
}

func TestResolveMissingComponentReturnsNotFound(t *testing.T) {
	fs := newTestFS(t)
	if _, err := fs.resolve("/nope/nothing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveThroughFileReturnsNotADirectory(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateFile("/f", []byte("x")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs.resolve("/f/nested"); err != ErrNotADirectory {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

// TestResolveDotDotResetsToRoot documents the intentional, carried-over
// quirk: ".." always resets the walk to root instead of reading the real
// parent pointer, so "/a/sub/../b" resolves as "/b", not as "/a/b".
func TestResolveDotDotResetsToRoot(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateDirectory("/a"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.CreateDirectory("/a/sub"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.CreateFile("/b", []byte("x")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	viaDotDot, err := fs.resolve("/a/sub/../b")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	direct, err := fs.resolve("/b")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if viaDotDot != direct {
		t.Fatalf("expected '..' to resolve like root-relative /b, got %d vs %d", viaDotDot, direct)
	}
}

func TestSplitLeafOnly(t *testing.T) {
	fs := newTestFS(t)
	parent, leaf, err := fs.split("foo.txt")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if parent != rootInum || leaf != "foo.txt" {
		t.Fatalf("expected (root, foo.txt), got (%d, %q)", parent, leaf)
	}
}

func TestSplitRootLevelLeaf(t *testing.T) {
	fs := newTestFS(t)
	parent, leaf, err := fs.split("/foo.txt")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if parent != rootInum || leaf != "foo.txt" {
		t.Fatalf("expected (root, foo.txt), got (%d, %q)", parent, leaf)
	}
}

func TestSplitNestedPath(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateDirectory("/dir"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	parent, leaf, err := fs.split("/dir/file.txt")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if leaf != "file.txt" {
		t.Fatalf("expected leaf 'file.txt', got %q", leaf)
	}
	dirInum, err := fs.resolve("/dir")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if parent != dirInum {
		t.Fatalf("expected parent %d, got %d", dirInum, parent)
	}
}

func TestSplitEmptyPathIsNotFound(t *testing.T) {
	fs := newTestFS(t)
	if _, _, err := fs.split(""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for empty path, got %v", err)
	}
}
