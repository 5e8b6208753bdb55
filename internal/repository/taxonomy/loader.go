package taxonomy

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopfeed/categorizer/internal/domain"
)

// ParseFile reads a taxonomy file in the Google product taxonomy format:
// one entry per line as "CODE - Root > Child > Leaf". Lines starting with
// "#" and malformed lines are skipped.
func ParseFile(path string) ([]domain.TaxonomyEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy file: %w", err)
	}
	defer f.Close()

	var entries []domain.TaxonomyEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		code, path, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		code = strings.TrimSpace(code)
		path = strings.TrimSpace(path)
		if code == "" || path == "" {
			continue
		}
		entries = append(entries, domain.TaxonomyEntry{Code: code, Path: path})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return entries, nil
}

// ImportFile parses a taxonomy file and stores its entries.
func (r *Repo) ImportFile(ctx context.Context, path string) (int, error) {
	entries, err := ParseFile(path)
	if err != nil {
		return 0, err
	}
	return r.Import(ctx, entries)
}
