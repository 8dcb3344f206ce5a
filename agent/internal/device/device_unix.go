//go:build unix

package device

import "golang.org/x/sys/unix"

func uname() (Info, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Info{}, err
	}
	return Info{
		System:  unix.ByteSliceToString(u.Sysname[:]),
		Node:    unix.ByteSliceToString(u.Nodename[:]),
		Machine: unix.ByteSliceToString(u.Machine[:]),
	}, nil
}
