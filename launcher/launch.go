// Package launcher opens rendered diagrams with the desktop's default viewer.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ErrUnsupported is returned on platforms without a known opener.
var ErrUnsupported = errors.New("no file opener for this platform")

// BuildCommand returns the argv that opens path on goos.
func BuildCommand(goos, path string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"open", path}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", path}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open", path}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, goos)
	}
}

// Open starts the default viewer for path without waiting for it.
func Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	argv, err := BuildCommand(runtime.GOOS, path)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", argv[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
