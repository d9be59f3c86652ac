package sshx

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkrylov/shellpane/internal/session"
)

// Execute runs command on serverID's connection with currentDir as the
// working-directory context and returns the structured result the session
// controller consumes. Interactive commands are intercepted locally and
// never reach the remote host. A cd command is rewritten into a directory
// probe whose output carries the resulting absolute path.
func (p *Pool) Execute(ctx context.Context, serverID, command, currentDir string) (*session.ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(command)
	if currentDir == "" {
		currentDir = "~"
	}

	if isInteractiveCommand(trimmed) {
		name := strings.Fields(trimmed)[0]
		msg := interactiveMessage(name)
		return &session.ExecResult{
			IsInteractive:      true,
			InteractiveMessage: msg,
			OutputLines:        splitOutputLines(msg),
		}, nil
	}

	final, isCD := buildCommand(trimmed, currentDir)

	cn, err := p.lookup(serverID)
	if err != nil {
		return nil, err
	}
	cn.touch()

	out, exitCode, err := cn.client.run("bash -c '" + final + "'")
	if err != nil {
		// A dead transport takes the pooled connection with it.
		if strings.Contains(err.Error(), "closed") || strings.Contains(err.Error(), "EOF") {
			p.drop(serverID)
		}
		return nil, fmt.Errorf("execute: %w", err)
	}
	cn.touch()

	res := &session.ExecResult{
		Output:      out,
		ExitCode:    exitCode,
		OutputLines: splitOutputLines(out),
	}
	if isCD && exitCode == 0 {
		res.NewDir = strings.TrimSpace(out)
	}
	return res, nil
}

// buildCommand wraps a trimmed command with its working-directory context.
// cd commands become `cd <base> && cd <target> && pwd` so the output is the
// resulting directory; everything else becomes `cd <base> && <command>`.
// The reported bool marks the cd rewrite.
func buildCommand(command, currentDir string) (string, bool) {
	if command == "cd" || strings.HasPrefix(command, "cd ") {
		target := "~"
		if command != "cd" {
			target = strings.TrimSpace(command[len("cd "):])
			if target == "" {
				target = "~"
			}
		}
		return fmt.Sprintf(`cd "%s" && cd "%s" && pwd`,
			escapeSingleQuotes(currentDir), escapeSingleQuotes(target)), true
	}

	escaped := escapeSingleQuotes(command)
	if currentDir == "~" {
		return escaped, false
	}
	return fmt.Sprintf(`cd "%s" && %s`, escapeSingleQuotes(currentDir), escaped), false
}

// escapeSingleQuotes makes s safe inside a single-quoted bash -c argument.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'"'"'`)
}

// splitOutputLines splits raw command output into display lines: the
// trailing newline does not produce a line of its own, a final empty line is
// dropped when other lines exist, and empty output still yields one empty
// line.
func splitOutputLines(output string) []string {
	lines := strings.Split(output, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
