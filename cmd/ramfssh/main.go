// Command ramfssh is a tiny interactive shell over an in-memory ramfs
// volume: mkdir, touch, del, ls, cd, pwd, cat and echo, one command per
// line, run to completion before the next prompt, matching the
// single-threaded cooperative model the filesystem package itself assumes.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-ramfs/ramfs"
	"github.com/go-ramfs/ramfs/filesystem/xv6fs"
)

func main() {
	logrus.SetLevel(logrus.WarnLevel)

	fs, err := ramfs.Open()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ramfssh:", err)
		os.Exit(1)
	}

	fmt.Println("ramfssh - type 'help' for available commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", fs.GetCurrentPath())
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := dispatch(fs, line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func dispatch(fs *xv6fs.FileSystem, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
		return nil
	case "clear":
		fmt.Print("\033[H\033[2J")
		return nil
	case "mkdir":
		return requireArg(args, func(p string) error {
			return fs.CreateDirectory(fs.ResolveCwd(p))
		})
	case "touch":
		return requireArg(args, func(p string) error {
			return fs.CreateFile(fs.ResolveCwd(p), nil)
		})
	case "del":
		return requireArg(args, func(p string) error {
			path := fs.ResolveCwd(p)
			if err := fs.DeleteFile(path); err != xv6fs.ErrNotAFile {
				return err
			}
			return fs.DeleteDirectory(path)
		})
	case "ls":
		return cmdLs(fs)
	case "cd":
		return requireArg(args, func(p string) error { return cmdCd(fs, p) })
	case "pwd":
		fmt.Println(fs.GetCurrentPath())
		return nil
	case "cat":
		return requireArg(args, func(p string) error { return cmdCat(fs, p) })
	case "echo":
		return cmdEcho(fs, args)
	default:
		return fmt.Errorf("command not found: %s", cmd)
	}
}

func requireArg(args []string, fn func(string) error) error {
	if len(args) < 1 {
		return fmt.Errorf("missing argument")
	}
	return fn(args[0])
}

// cmdCd implements the "cd" quirks documented for the shell layer: ".." pops
// one segment off the current path locally rather than asking the
// filesystem to resolve it (which would reset to root, per resolve's own
// ".." behavior), and "." is a no-op.
func cmdCd(fs *xv6fs.FileSystem, target string) error {
	switch target {
	case ".":
		return nil
	case "..":
		cur := fs.GetCurrentPath()
		if cur == "/" {
			return nil
		}
		idx := strings.LastIndex(strings.TrimSuffix(cur, "/"), "/")
		if idx <= 0 {
			return fs.ChangeDirectory("/")
		}
		return fs.ChangeDirectory(cur[:idx])
	default:
		return fs.ChangeDirectory(fs.ResolveCwd(target))
	}
}

func cmdLs(fs *xv6fs.FileSystem) error {
	entries, err := fs.ListDirectory(fs.GetCurrentPath())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDirectory {
			fmt.Printf("%s/\n", e.Name)
		} else {
			fmt.Printf("%s\t%d\n", e.Name, e.Size)
		}
	}
	return nil
}

func cmdCat(fs *xv6fs.FileSystem, p string) error {
	content, err := fs.ReadFile(fs.ResolveCwd(p))
	if err != nil {
		return err
	}
	os.Stdout.Write(content)
	fmt.Println()
	return nil
}

// cmdEcho implements "echo TEXT > FILE" (write_file, falling back to
// create_file if the target does not exist yet) and a bare "echo TEXT"
// (print to stdout, no filesystem interaction).
func cmdEcho(fs *xv6fs.FileSystem, args []string) error {
	redirect := -1
	for i, a := range args {
		if a == ">" {
			redirect = i
			break
		}
	}
	if redirect < 0 {
		fmt.Println(strings.Join(args, " "))
		return nil
	}
	if redirect+1 >= len(args) {
		return fmt.Errorf("usage: echo TEXT > FILE")
	}
	text := strings.Join(args[:redirect], " ")
	path := fs.ResolveCwd(args[redirect+1])
	if err := fs.WriteFile(path, []byte(text)); err != nil {
		return fs.CreateFile(path, []byte(text))
	}
	return nil
}

func printHelp() {
	fmt.Println(`Available commands:
  help             - show this help message
  clear            - clear the screen
  echo TEXT        - print text
  echo TEXT > FILE - write text to a file, creating it if needed
  mkdir PATH       - create a directory
  touch PATH       - create an empty file
  del PATH         - delete a file or empty directory
  ls               - list the current directory
  pwd              - print the current path
  cd PATH          - change directory ("..", ".", or a path)
  cat PATH         - print a file's contents`)
}
