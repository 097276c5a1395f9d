package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory where the current executable resides.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err == nil && strings.TrimSpace(exe) != "" {
		if resolved, resolveErr := filepath.EvalSymlinks(exe); resolveErr == nil && strings.TrimSpace(resolved) != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}

	if wd, wdErr := os.Getwd(); wdErr == nil && strings.TrimSpace(wd) != "" {
		return wd
	}
	return "."
}

// ResolveRuntimePath resolves runtime directories against the executable directory.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
		if target == "" {
			return ExecutableDir()
		}
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(ExecutableDir(), target))
}

func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) StaticDir() string {
	return ResolveRuntimePath(c.Paths.Static, "static")
}

// AvatarDir is the local directory (or S3 key prefix) for processed avatars.
func (c *AppConfig) AvatarDir() string {
	return c.storagePath(c.Storage.AvatarPath, "avatars")
}

func (c *AppConfig) ResourceImageDir() string {
	return c.storagePath(c.Storage.ResourceImagePath, "resource_images")
}

func (c *AppConfig) SubmissionImageDir() string {
	return c.storagePath(c.Storage.SubmissionImagePath, "submission_images")
}

func (c *AppConfig) storagePath(raw, subdir string) string {
	if c.Storage.Driver == "s3" {
		name := strings.Trim(strings.TrimSpace(raw), "/")
		if name == "" {
			name = subdir
		}
		if c.Storage.S3.Prefix != "" {
			return c.Storage.S3.Prefix + "/" + name
		}
		return name
	}
	if strings.TrimSpace(raw) != "" {
		return ResolveRuntimePath(raw, subdir)
	}
	return filepath.Join(c.StaticDir(), subdir)
}
