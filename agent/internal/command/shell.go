package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// RunShell runs text through the platform shell and captures its output.
// A non-zero exit is reported through ReturnCode.
func RunShell(ctx context.Context, text string) Output {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", text)
	} else {
		cmd = exec.CommandContext(ctx, "/bin/bash", "-c", text)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	out := Output{Stdout: toValidUTF8(stdout.Bytes()), Stderr: toValidUTF8(stderr.Bytes())}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ReturnCode = exitErr.ExitCode()
		if out.ReturnCode < 0 {
			// killed by a signal, usually our context
			out.ReturnCode = 1
			if ctx.Err() != nil {
				out.Stderr += "Command cancelled: " + ctx.Err().Error()
			}
		}
	default:
		out.Stderr += "Error executing command: " + err.Error()
		out.ReturnCode = 1
	}
	return out
}

func toValidUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
