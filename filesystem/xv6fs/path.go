package xv6fs

import "strings"

// resolve walks path from the root inode and returns the inode number it
// names.
//
// The ".." token resets the walk to the root inode rather than reading the
// parent inum out of the current directory's ".." entry. This is a known
// limitation carried over unchanged: it breaks a path like "/a/sub/../b",
// which resolves to "/b" walked from root instead of "/a/b". A
// faithful fix would read the ".." entry via dirlookup(current, "..")
// instead of hardcoding root.
func (fs *FileSystem) resolve(path string) (uint32, error) {
	if path == "" {
		return 0, ErrNotFound
	}
	if path == "/" {
		return rootInum, nil
	}

	rest := path
	if strings.HasPrefix(rest, "/") {
		rest = strings.TrimLeft(rest, "/")
	}

	current := uint32(rootInum)
	for _, token := range strings.Split(rest, "/") {
		switch token {
		case "":
			continue
		case ".":
			continue
		case "..":
			current = rootInum
		default:
			dir, err := fs.iget(current)
			if err != nil {
				return 0, err
			}
			if dir.Dinode.Type != TDir {
				return 0, ErrNotADirectory
			}
			inum, err := fs.dirlookup(dir, token)
			if err != nil {
				return 0, err
			}
			current = inum
		}
	}
	return current, nil
}

// split locates the last "/" in path and returns the inode of the directory
// that should contain leaf, plus the leaf name itself.
//
// If path has no slash at all, or the slash is only the leading root
// character, the parent is root regardless of the filesystem's current
// working directory. This is a known limitation: a leaf-only name like
// "foo" always resolves relative to root, never to cwd. Combined with the
// ".." quirk in resolve, this means a caller wanting true cwd-relative
// behavior must pre-compose the absolute path itself (see the shell command
// mapping, which does exactly that before calling into this layer).
func (fs *FileSystem) split(path string) (parent uint32, leaf string, err error) {
	idx := strings.LastIndex(path, "/")
	switch {
	case idx < 0:
		leaf = path
		parent = rootInum
	case idx == 0:
		leaf = path[1:]
		parent = rootInum
	default:
		leaf = path[idx+1:]
		prefix := path[:idx]
		parent, err = fs.resolve(prefix)
		if err != nil {
			return 0, "", err
		}
	}
	if leaf == "" {
		return 0, "", ErrNotFound
	}
	return parent, leaf, nil
}
