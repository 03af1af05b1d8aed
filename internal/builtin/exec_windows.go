//go:build windows

package builtin

import "os/exec"

// killGroupOnCancel keeps the default Cancel, which kills only the child.
func killGroupOnCancel(*exec.Cmd, bool) {}
