package collectors

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// sanitizedEnv returns a fixed, deterministic subprocess environment:
// LANG=C plus PATH, with interpreter-path variables that could redirect
// a tool to an attacker-controlled module cleared, per §4.4's invocation
// discipline.
func sanitizedEnv(path string) []string {
	env := []string{"LANG=C", "LC_ALL=C"}
	if path != "" {
		env = append(env, "PATH="+path)
	}
	return env
}

// probeVersion runs "<bin> --version" with a short timeout and reports
// whether the binary is on PATH and what version string it reported.
func probeVersion(ctx context.Context, bin string, versionFlag string, pathEnv string) (bool, string, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return false, "", nil
	}
	if versionFlag == "" {
		return true, "", nil
	}
	cmd := exec.CommandContext(ctx, bin, versionFlag)
	cmd.Env = sanitizedEnv(pathEnv)
	out, err := cmd.Output()
	if err != nil {
		// binary exists but the version probe failed; still usable.
		return true, "", nil
	}
	return true, strings.TrimSpace(firstLine(string(out))), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// runCommand executes bin with args against cwd, bounded by timeout,
// capturing stdout/stderr separately and reporting the exit code.
func runCommand(ctx context.Context, bin string, args []string, cwd string, timeout time.Duration, pathEnv string) InvocationResult {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Dir = cwd
	cmd.Env = sanitizedEnv(pathEnv)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := InvocationResult{
		Executed: true,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if err == nil {
		code := 0
		res.ExitCode = &code
		return res
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		res.ExitCode = &code
		return res
	}
	// context deadline or start failure: not a clean exit.
	res.Err = err
	return res
}
