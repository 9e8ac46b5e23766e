package logs

import (
	"io"
	"os"
)

type Writer io.Writer

// Writer is stderr, or the file named by TAIEVAL_LOG_FILE.
func (Module) Writer() Writer {
	path := os.Getenv("TAIEVAL_LOG_FILE")
	if path == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return os.Stderr
	}
	return f
}
