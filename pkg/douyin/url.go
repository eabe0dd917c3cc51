package douyin

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractSecUID pulls the author identifier out of a profile URL, or
// returns the input unchanged when it already looks like a bare sec_uid.
func ExtractSecUID(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("empty target")
	}

	if !strings.Contains(target, "/") {
		return target, nil
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing target URL: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "user" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("no sec_uid found in %q", target)
}
