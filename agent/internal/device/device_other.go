//go:build !unix

package device

import (
	"os"
	"runtime"
)

func uname() (Info, error) {
	host, err := os.Hostname()
	if err != nil {
		return Info{}, err
	}
	return Info{System: runtime.GOOS, Node: host, Machine: runtime.GOARCH}, nil
}
