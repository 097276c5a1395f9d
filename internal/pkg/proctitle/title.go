// Package proctitle names the server process so operators can tell
// environments apart in ps and top.
package proctitle

import "strings"

// ForService builds a title such as "hub-api[production]".
func ForService(project, env string) string {
	name := Sanitize(project)
	if name == "" {
		name = "resource-hub"
	}
	if env = Sanitize(env); env != "" {
		return name + "[" + env + "]"
	}
	return name
}

// Sanitize lower-cases s and replaces anything but [a-z0-9-] with '-'.
func Sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if ok {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
