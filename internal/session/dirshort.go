package session

import "strings"

// ShortenDir maps an absolute remote path to its prompt display form.
// For root no shortening applies, /root included. For other users the home
// directory collapses to "~". Blank input maps to "~"; anything else passes
// through unchanged. Callers must pass the full path reported by the
// backend, never a previously shortened form.
func ShortenDir(fullPath, username string, isRoot bool) string {
	p := strings.TrimSpace(fullPath)
	if p == "" {
		return "~"
	}
	if isRoot || username == "" {
		return p
	}
	home := "/home/" + username
	if p == home {
		return "~"
	}
	if strings.HasPrefix(p, home+"/") {
		return "~" + p[len(home):]
	}
	return p
}
