package backfill

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
)

// ParseFile reads the segments of one transcript file. .json files hold a
// segment array or {"segments": [...]}; .jsonl files hold one segment per
// line, and malformed lines are skipped.
func ParseFile(path string) ([]processor.Segment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return parseJSONL(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return processor.DecodeSegments(data)
	}
}

func parseJSONL(path string) ([]processor.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var segs []processor.Segment
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB line buffer
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var seg processor.Segment
		if err := json.Unmarshal([]byte(line), &seg); err != nil {
			continue
		}
		segs = append(segs, seg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return segs, nil
}
