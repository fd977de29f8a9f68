package models

import "strings"

// IncludeSeparator separates the remote and local halves of an include line.
const IncludeSeparator = ":"

// IncludeSpec is one requested file: where it lives in the remote repository and
// where it should be written, relative to the output root.
type IncludeSpec struct {
	RemotePath string `yaml:"remote_path" json:"remote_path"`
	LocalPath  string `yaml:"local_path" json:"local_path"`
}

// String returns the single-line "remote:local" encoding.
func (s IncludeSpec) String() string {
	return s.RemotePath + IncludeSeparator + s.LocalPath
}

// Validate checks that both halves are present.
func (s IncludeSpec) Validate() error {
	if s.RemotePath == "" {
		return NewConfigError("includes", "%q: remote path is empty", s.String())
	}
	if s.LocalPath == "" {
		return NewConfigError("includes", "%q: local path is empty", s.String())
	}
	return nil
}

// ParseInclude parses a "remotePath:localPath" line. The line is split on the
// first separator, so only the local half may contain one. A line without a
// separator is a ConfigError.
func ParseInclude(line string) (IncludeSpec, error) {
	remote, local, ok := strings.Cut(strings.TrimSpace(line), IncludeSeparator)
	if !ok {
		return IncludeSpec{}, NewConfigError("includes", "%q: missing %q separator", line, IncludeSeparator)
	}

	spec := IncludeSpec{
		RemotePath: strings.TrimSpace(remote),
		LocalPath:  strings.TrimSpace(local),
	}
	if err := spec.Validate(); err != nil {
		return IncludeSpec{}, err
	}
	return spec, nil
}

// ParseIncludes parses every line, failing on the first malformed one.
func ParseIncludes(lines []string) ([]IncludeSpec, error) {
	specs := make([]IncludeSpec, 0, len(lines))
	for _, line := range lines {
		spec, err := ParseInclude(line)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
