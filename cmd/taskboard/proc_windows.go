//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// CREATE_NEW_PROCESS_GROUP keeps the daemon alive when the console closes.
const createNewProcessGroup = 0x00000200

func configureDaemonProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
