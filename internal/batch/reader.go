// Package batch reads query files for batch searches.
package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// QueryEntry is one query read from a batch file
type QueryEntry struct {
	// Service is empty when the default service should be used
	Service string
	Tags    string
	// UseDefaultQuery means the service's default query should be run
	UseDefaultQuery bool
}

// ReadBatchFile reads queries from a file and returns a QueryEntry slice.
// Supports formats:
// - Tags only: "blue_sky cloud" (searched on the default service)
// - With service: "danbooru = blue_sky cloud"
// - Service only: "danbooru =" (runs the service's default query)
// - Tags for the default service: "= blue_sky"
// Blank lines and lines starting with '#' are skipped. An '=' that belongs
// to a metatag such as "score:>=50" does not split the line.
func ReadBatchFile(filename string) ([]QueryEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	var entries []QueryEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}

func parseLine(line string) (QueryEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return QueryEntry{}, false
	}

	service, tags, found := strings.Cut(line, "=")
	// metatags such as score:>=50 carry their own '='
	if !found || strings.ContainsAny(service, ":<>") {
		return QueryEntry{Tags: normalizeTags(line)}, true
	}

	service = strings.TrimSpace(service)
	tags = normalizeTags(tags)
	switch {
	case service == "" && tags == "":
		return QueryEntry{}, false
	case tags == "":
		return QueryEntry{Service: service, UseDefaultQuery: true}, true
	default:
		return QueryEntry{Service: service, Tags: tags}, true
	}
}

// normalizeTags collapses runs of whitespace into single spaces
func normalizeTags(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
