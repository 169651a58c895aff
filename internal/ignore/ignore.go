// Package ignore filters source paths through .axignore glob patterns.
//
// Two pattern kinds share the file: regular patterns are always ignored,
// and @test:-prefixed patterns mark test sources — ignored during normal
// extraction, included again when test mining runs. Patterns match
// project-relative forward-slash paths, case-insensitively, anywhere in
// the path.
package ignore

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"axe/internal/errors"
	"axe/internal/paths"
)

const testPrefix = "@test:"

// Filter holds compiled ignore patterns.
type Filter struct {
	patterns     []string
	regexes      []*regexp.Regexp
	testPatterns []string
	testRegexes  []*regexp.Regexp
}

// New returns an empty filter that ignores nothing.
func New() *Filter {
	return &Filter{}
}

// Load reads and compiles an .axignore file.
func Load(path string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.FileUnreadable,
			fmt.Sprintf("cannot read ignore file %s", path), err)
	}
	f := New()
	if err := f.parse(data); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filter) parse(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		// Comments are full-line only: '#' must be the first byte.
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.Trim(line, " \t")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, testPrefix) {
			pattern := strings.TrimLeft(line[len(testPrefix):], " \t")
			if pattern == "" {
				continue
			}
			if err := f.AddTestPattern(pattern); err != nil {
				return err
			}
			continue
		}
		if err := f.AddPattern(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// AddPattern compiles and adds a regular ignore pattern.
func (f *Filter) AddPattern(pattern string) error {
	re, err := globToRegex(pattern)
	if err != nil {
		return err
	}
	f.patterns = append(f.patterns, pattern)
	f.regexes = append(f.regexes, re)
	return nil
}

// AddTestPattern compiles and adds a test-only pattern.
func (f *Filter) AddTestPattern(pattern string) error {
	re, err := globToRegex(pattern)
	if err != nil {
		return err
	}
	f.testPatterns = append(f.testPatterns, pattern)
	f.testRegexes = append(f.testRegexes, re)
	return nil
}

// ShouldIgnore reports whether a project-relative path is ignored during
// normal extraction. Both regular and test patterns apply: test sources
// stay out of normal runs.
func (f *Filter) ShouldIgnore(rel string) bool {
	return matchAny(f.regexes, rel) || matchAny(f.testRegexes, rel)
}

// ShouldIgnoreInTestMode reports whether a project-relative path is
// ignored during test mining. Only regular patterns apply.
func (f *Filter) ShouldIgnoreInTestMode(rel string) bool {
	return matchAny(f.regexes, rel)
}

// IsTestPath reports whether a project-relative path matches a @test:
// pattern.
func (f *Filter) IsTestPath(rel string) bool {
	return matchAny(f.testRegexes, rel)
}

func matchAny(regexes []*regexp.Regexp, rel string) bool {
	for _, re := range regexes {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// Patterns returns the regular patterns in load order.
func (f *Filter) Patterns() []string {
	return f.patterns
}

// TestPatterns returns the @test: patterns in load order.
func (f *Filter) TestPatterns() []string {
	return f.testPatterns
}

// PatternCount returns the total number of loaded patterns.
func (f *Filter) PatternCount() int {
	return len(f.patterns) + len(f.testPatterns)
}

// TestPatternCount returns the number of @test: patterns.
func (f *Filter) TestPatternCount() int {
	return len(f.testPatterns)
}

// globToRegex converts one glob pattern to a case-insensitive unanchored
// regex. ** crosses path separators and swallows a following /; * and ?
// stop at separators.
func globToRegex(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
				if i+1 < len(glob) && glob[i+1] == '/' {
					i++
				}
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		case '.', '+', '^', '$', '(', ')', '{', '}', '[', ']', '|', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	re, err := regexp.Compile("(?i)" + b.String())
	if err != nil {
		return nil, errors.New(errors.IgnoreInvalid,
			fmt.Sprintf("unusable ignore pattern %q", glob), err)
	}
	return re, nil
}

// Rel makes a path project-relative the way patterns expect: forward
// slashes and a plain prefix strip, no filesystem access. Paths outside
// the root come back unchanged.
func Rel(path, projectRoot string) string {
	p := paths.NormalizePath(path)
	root := strings.TrimSuffix(paths.NormalizePath(projectRoot), "/")
	if root == "" || !strings.HasPrefix(p, root) {
		return p
	}
	rest := p[len(root):]
	if rest == "" {
		return ""
	}
	if rest[0] != '/' {
		// Sibling directory sharing a name prefix, not a child.
		return p
	}
	return rest[1:]
}

// Find locates the nearest .axignore by walking up from a file or
// directory. Returns "" when none exists.
func Find(start string) string {
	dir := filepath.Clean(start)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, paths.IgnoreFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ProjectRoot returns the directory holding an .axignore file, which
// defines the root patterns are matched against.
func ProjectRoot(axignorePath string) string {
	return filepath.Dir(axignorePath)
}
