package testutil

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	runIDPattern     = regexp.MustCompile(`"run_id":\s*"[^"]*"`)
	extractedPattern = regexp.MustCompile(`"extracted_at":\s*"[^"]*"`)
	generatedPattern = regexp.MustCompile(`"generated":\s*"[^"]*"`)
)

// NormalizeReport rewrites the run-variant parts of an emitted JSON
// document so golden files stay stable across runs and machines: the
// given root directory collapses to <root>, run ids and timestamps to
// fixed placeholders.
func NormalizeReport(data []byte, root string) []byte {
	s := string(data)
	if root != "" {
		slash := filepath.ToSlash(root)
		s = strings.ReplaceAll(s, slash+"/", "<root>/")
		s = strings.ReplaceAll(s, slash, "<root>")
	}
	s = runIDPattern.ReplaceAllString(s, `"run_id": "<run-id>"`)
	s = extractedPattern.ReplaceAllString(s, `"extracted_at": "<timestamp>"`)
	s = generatedPattern.ReplaceAllString(s, `"generated": "<timestamp>"`)
	return []byte(s)
}
