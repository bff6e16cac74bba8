package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	MinThreads = 1
	MaxThreads = 20

	MaxPageSize = 1000
)

func ValidateThreadCount(threads int) error {
	if threads < MinThreads || threads > MaxThreads {
		return fmt.Errorf("thread count must be between %d and %d, got %d", MinThreads, MaxThreads, threads)
	}
	return nil
}

// ValidateID checks that id is a usable entity id; kind names the entity in the message.
func ValidateID(kind string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%s ID must be a positive integer, got %d", kind, id)
	}
	return nil
}

func ValidatePageSize(size int) error {
	if size < 1 || size > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", MaxPageSize, size)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateServerURL accepts absolute http and https URLs with a host.
func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return nil
}

func ValidateExportFormat(format string) error {
	switch format {
	case "json", "csv":
		return nil
	}
	return fmt.Errorf("invalid export format: %s (must be one of: json, csv)", format)
}

// ParseIDs parses a comma-separated id list such as "12,15, 30". Duplicates
// are dropped and order is kept.
func ParseIDs(kind, list string) ([]int, error) {
	var ids []int
	seen := map[int]bool{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s ID %q", kind, part)
		}
		if err := ValidateID(kind, id); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one %s ID is required", kind)
	}
	return ids, nil
}
