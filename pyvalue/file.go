package pyvalue

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/reusee/taieval/evalerr"
)

// Files tracks the files opened by one interpreter.
type Files struct {
	limits *Limits
	open   map[*File]struct{}
	// OpenFunc opens a path for reading, os.Open by default
	OpenFunc func(name string) (io.ReadCloser, error)
}

func NewFiles(limits *Limits) *Files {
	return &Files{
		limits: limits,
		open:   make(map[*File]struct{}),
		OpenFunc: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}

// Open opens name read-only. Write modes, oversized buffers and more than
// MaxOpenFiles concurrently open files are rejected.
func (f *Files) Open(name, mode string, buffering int) (*File, error) {
	if mode == "" {
		mode = "r"
	}
	if !f.limits.FileModeAllowed(mode) {
		return nil, limitErrorf("Invalid open file mode, must be one of: %s", strings.Join(f.modes(), ", "))
	}
	if f.limits != nil && f.limits.MaxBufferSize > 0 && buffering > f.limits.MaxBufferSize {
		return nil, limitErrorf("Invalid buffering value, max buffer size is %d", f.limits.MaxBufferSize)
	}
	if f.limits != nil && f.limits.MaxOpenFiles > 0 && len(f.open) >= f.limits.MaxOpenFiles {
		return nil, limitErrorf("Too many open files, max is %d", f.limits.MaxOpenFiles)
	}
	rc, err := f.OpenFunc(name)
	if err != nil {
		return nil, osError(name, err)
	}
	file := &File{
		Name:   name,
		Mode:   mode,
		binary: strings.Contains(mode, "b"),
		rc:     rc,
		reader: bufio.NewReader(rc),
		files:  f,
	}
	f.open[file] = struct{}{}
	return file, nil
}

func (f *Files) modes() []string {
	if f.limits == nil {
		return []string{"r"}
	}
	return f.limits.FileModes
}

// Len reports the number of open files.
func (f *Files) Len() int {
	return len(f.open)
}

// CloseAll closes every file still open.
func (f *Files) CloseAll() error {
	var errs []error
	for file := range f.open {
		errs = append(errs, file.Close())
	}
	return errors.Join(errs...)
}

func osError(name string, err error) *evalerr.Error {
	class := "OSError"
	msg := err.Error()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		class = "FileNotFoundError"
		msg = "No such file or directory: " + quoteString(name)
	case errors.Is(err, fs.ErrPermission):
		class = "PermissionError"
		msg = "Permission denied: " + quoteString(name)
	}
	ret := evalerr.Named(evalerr.KindRuntime, class, "%s", msg)
	ret.Cause = err
	return ret
}

// File is a read-only file object.
type File struct {
	Name   string
	Mode   string
	binary bool
	rc     io.ReadCloser
	reader *bufio.Reader
	closed bool
	files  *Files
}

var (
	_ Object         = new(File)
	_ ContextManager = new(File)
	_ Iterable       = new(File)
)

func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	delete(f.files.open, f)
	return f.rc.Close()
}

func (f *File) checkOpen() error {
	if f.closed {
		return valueErrorf("I/O operation on closed file.")
	}
	return nil
}

func (f *File) value(b []byte) any {
	if f.binary {
		return Bytes(b)
	}
	return string(b)
}

func (f *File) read(n int) (any, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	var b []byte
	var err error
	if n < 0 {
		b, err = io.ReadAll(f.reader)
	} else {
		b = make([]byte, n)
		n, err = io.ReadFull(f.reader, b)
		b = b[:n]
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return nil, osError(f.Name, err)
	}
	return f.value(b), nil
}

func (f *File) readLine() ([]byte, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	line, err := f.reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, osError(f.Name, err)
	}
	return line, nil
}

func (f *File) Attr(name string) (any, error) {
	method := func(fn BuiltinFunc) (any, error) {
		return &Builtin{Name: name, Fn: fn}, nil
	}
	switch name {
	case "name":
		return f.Name, nil
	case "mode":
		return f.Mode, nil
	case "closed":
		return f.closed, nil
	case "read":
		return method(func(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
			a, err := UnpackArgs("read", args, kwargs, "size?")
			if err != nil {
				return nil, err
			}
			n := -1
			if a[0] != nil {
				if n, err = ToIndex(a[0]); err != nil {
					return nil, err
				}
			}
			return f.read(n)
		})
	case "readline":
		return method(func(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
			line, err := f.readLine()
			if err != nil {
				return nil, err
			}
			return f.value(line), nil
		})
	case "readlines":
		return method(func(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
			var lines []any
			for {
				line, err := f.readLine()
				if err != nil {
					return nil, err
				}
				if len(line) == 0 {
					break
				}
				lines = append(lines, f.value(line))
			}
			return NewList(lines), nil
		})
	case "close":
		return method(func(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
			if err := f.Close(); err != nil {
				return nil, osError(f.Name, err)
			}
			return nil, nil
		})
	}
	return nil, noAttribute(f, name)
}

func (f *File) AttrNames() []string {
	return []string{"close", "closed", "mode", "name", "read", "readline", "readlines"}
}

func (f *File) Enter(rt Runtime) (any, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Exit(rt Runtime, err *evalerr.Error) (bool, error) {
	if e := f.Close(); e != nil {
		return false, osError(f.Name, e)
	}
	return false, nil
}

func (f *File) Iter() (*Iterator, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	return NewIterator("file", func() (any, bool, error) {
		line, err := f.readLine()
		if err != nil || len(line) == 0 {
			return nil, false, err
		}
		return f.value(line), true, nil
	}), nil
}
