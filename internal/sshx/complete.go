package sshx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/antonkrylov/shellpane/internal/session"
)

// Complete computes tab-completion candidates for input on serverID. Path
// arguments are completed against the remote filesystem (`ls -1d prefix*`),
// command names against the remote shell (`compgen -c`). A unique match, or
// a common prefix longer than what the user typed, yields a full replacement
// for the edit buffer; otherwise the candidate list is returned for display.
func (p *Pool) Complete(ctx context.Context, serverID, input, currentDir string) (*session.CompletionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	isPath, dir, prefix := parseCompletionInput(input, currentDir)
	if prefix == "" {
		return &session.CompletionResult{}, nil
	}

	cn, err := p.lookup(serverID)
	if err != nil {
		return nil, err
	}

	var probe string
	if isPath {
		probe = fmt.Sprintf(`bash -c 'cd "%s" && ls -1d %s* 2>/dev/null | head -50'`,
			escapeSingleQuotes(dir), escapeSingleQuotes(prefix))
	} else {
		probe = fmt.Sprintf(`bash -c 'compgen -c %s | head -50'`, escapeSingleQuotes(prefix))
	}

	out, exitCode, err := cn.client.run(probe)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	cn.touch()
	if exitCode != 0 {
		return &session.CompletionResult{}, nil
	}

	matches := collectMatches(out, prefix, isPath)
	if len(matches) == 0 {
		return &session.CompletionResult{}, nil
	}

	common := longestCommonPrefix(matches)
	fields := strings.Fields(input)
	lastPart := ""
	if len(fields) > 0 {
		lastPart = fields[len(fields)-1]
	}

	if len(matches) == 1 || len(common) > len(prefix) {
		return &session.CompletionResult{
			CompletedInput: buildCompletedInput(input, lastPart, common, isPath, dir),
		}, nil
	}
	return &session.CompletionResult{Matches: matches, ShowMatches: true}, nil
}

// parseCompletionInput classifies the last token of input as a path or a
// command name. For paths it resolves the directory to list and the
// basename prefix to match; for commands dir stays empty.
func parseCompletionInput(input, currentDir string) (isPath bool, dir, prefix string) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false, "", ""
	}
	fields := strings.Fields(trimmed)
	lastPart := fields[len(fields)-1]
	firstPart := fields[0]

	isPath = strings.Contains(lastPart, "/") ||
		strings.HasPrefix(lastPart, ".") ||
		strings.HasPrefix(lastPart, "~") ||
		(isFileOperationCommand(firstPart) && len(fields) > 1)
	if !isPath {
		return false, "", lastPart
	}

	if !strings.Contains(lastPart, "/") {
		return true, currentDir, lastPart
	}

	lastSlash := strings.LastIndex(lastPart, "/")
	dirPart := lastPart[:lastSlash+1]
	prefix = lastPart[lastSlash+1:]

	switch {
	case strings.HasPrefix(dirPart, "./"):
		dir = currentDir + "/" + dirPart[2:]
	case strings.HasPrefix(dirPart, "../"):
		// Parent traversal is not resolved client-side; fall back to the
		// current directory.
		dir = currentDir
	case !strings.HasPrefix(dirPart, "/") && !strings.HasPrefix(dirPart, "~"):
		dir = currentDir + "/" + dirPart
	default:
		dir = dirPart
	}
	return true, dir, prefix
}

// collectMatches turns raw probe output into a sorted, deduplicated list of
// candidates filtered by prefix. Path candidates are reduced to basenames.
func collectMatches(out, prefix string, isPath bool) []string {
	var matches []string
	for _, line := range strings.Split(out, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			matches = append(matches, s)
		}
	}
	matches = sortedUnique(matches)

	if isPath {
		basenames := make([]string, 0, len(matches))
		for _, m := range matches {
			if i := strings.LastIndex(m, "/"); i >= 0 {
				m = m[i+1:]
			}
			basenames = append(basenames, m)
		}
		matches = sortedUnique(basenames)
	}

	filtered := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(m, prefix) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func sortedUnique(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	var prev string
	for i, s := range in {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}

// longestCommonPrefix of a non-empty candidate list.
func longestCommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	prefix := strs[0]
	for _, s := range strs[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// buildCompletedInput replaces the last token of the original input with the
// completed candidate, re-attaching the directory part for path completion.
func buildCompletedInput(original, lastPart, completed string, isPath bool, dir string) string {
	fields := strings.Fields(original)
	if len(fields) == 0 {
		return original
	}
	parts := fields[:len(fields)-1]

	var newLast string
	switch {
	case !isPath:
		newLast = completed
	case strings.Contains(lastPart, "/"):
		newLast = dir + completed
	case dir == "~":
		newLast = "~/" + completed
	default:
		newLast = dir + "/" + completed
	}
	return strings.Join(append(append([]string(nil), parts...), newLast), " ")
}
