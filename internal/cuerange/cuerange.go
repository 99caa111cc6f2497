// Package cuerange parses the compact cue selection syntax used by batch
// styling, e.g. "1,3,5-7".
package cuerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Parse turns a range expression into unique, ascending, 0-based cue
// indices. Tokens are 1-based cue numbers or inclusive "start-end" ranges.
// Validation is atomic: any bad token fails the whole call and names the
// offending input. Empty input is a valid empty selection.
func Parse(input string, totalCues int) ([]int, error) {
	if strings.TrimSpace(input) == "" {
		return []int{}, nil
	}

	seen := make(map[int]struct{})

	for _, part := range strings.Split(input, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		if strings.Contains(token, "-") {
			ends := strings.Split(token, "-")
			if len(ends) != 2 {
				return nil, fmt.Errorf("invalid range format %q: use \"start-end\"", token)
			}
			start, startErr := strconv.Atoi(strings.TrimSpace(ends[0]))
			end, endErr := strconv.Atoi(strings.TrimSpace(ends[1]))
			if startErr != nil || endErr != nil {
				return nil, fmt.Errorf("invalid number in range %q", token)
			}
			if start <= 0 || end <= 0 {
				return nil, fmt.Errorf("cue numbers in range %q must be positive", token)
			}
			if start > end {
				return nil, fmt.Errorf("start of range %q cannot be greater than its end", token)
			}
			if end > totalCues {
				return nil, fmt.Errorf("range end %d exceeds total cues (%d)", end, totalCues)
			}
			for i := start; i <= end; i++ {
				seen[i-1] = struct{}{}
			}
			continue
		}

		num, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid cue number %q", token)
		}
		if num <= 0 {
			return nil, fmt.Errorf("cue number %d must be positive", num)
		}
		if num > totalCues {
			return nil, fmt.Errorf("cue number %d exceeds total cues (%d)", num, totalCues)
		}
		seen[num-1] = struct{}{}
	}

	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}
