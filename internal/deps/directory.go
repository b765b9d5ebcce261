package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// CheckDirectory verifies that path exists and is a readable, writable
// directory.
func CheckDirectory(name, path string) Status {
	status := Status{Name: name, Command: path}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.Detail = fmt.Sprintf("%s (error: does not exist)", path)
			return status
		}
		status.Detail = fmt.Sprintf("%s (error: stat: %v)", path, err)
		return status
	}
	if !info.IsDir() {
		status.Detail = fmt.Sprintf("%s (error: is not a directory)", path)
		return status
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)
		return status
	}
	status.Available = true
	status.Detail = fmt.Sprintf("%s (read/write ok)", path)
	return status
}
