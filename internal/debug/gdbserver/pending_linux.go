//go:build linux

package gdbserver

import "golang.org/x/sys/unix"

// FIONREAD is spelled TIOCINQ on linux.
const fionread = unix.TIOCINQ
