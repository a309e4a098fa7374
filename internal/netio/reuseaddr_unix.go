//go:build unix

package netio

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr sets SO_REUSEADDR on the receive socket's underlying file
// descriptor, the step original_source/lssdp.c's lssdp_create_socket
// performs between opening the socket and binding it. Grounded on
// caddyserver-caddy's listen_linux.go reusePort Control-function shape
// (net.ListenConfig.Control -> RawConn.Control -> unix.SetsockoptInt),
// adapted from SO_REUSEPORT to SO_REUSEADDR.
func setReuseAddr(c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}
