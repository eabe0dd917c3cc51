package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/since25/douyin-downloader/pkg/douyin"
	"github.com/since25/douyin-downloader/pkg/logger"
)

// execResult is the JSON document an external collector binary writes to
// stdout
type execResult struct {
	AwemeIDs []string                 `json:"aweme_ids"`
	Items    map[string]*douyin.Aweme `json:"items,omitempty"`
	Stats    Stats                    `json:"stats"`
}

// Exec drives an external collector binary. The binary receives the
// collection parameters as flags, performs the scrolling itself and emits
// one JSON result on stdout; this keeps browser automation outside the
// module boundary.
type Exec struct {
	path   string
	logger logger.Logger

	mu    sync.Mutex
	items map[string]*douyin.Aweme
	stats Stats
}

// NewExec creates a collector backed by the binary at path
func NewExec(path string, log logger.Logger) *Exec {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exec{path: path, logger: log}
}

// CollectPostIDs runs the collector binary bounded by opts.WaitTimeout
func (e *Exec) CollectPostIDs(ctx context.Context, secUID string, opts Options) ([]string, error) {
	if opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.WaitTimeout)
		defer cancel()
	}

	args := []string{
		"--sec-uid", secUID,
		"--expected-count", strconv.Itoa(opts.ExpectedCount),
		"--max-scrolls", strconv.Itoa(opts.MaxScrolls),
		"--idle-rounds", strconv.Itoa(opts.IdleRounds),
	}
	if opts.Headless {
		args = append(args, "--headless")
	}

	cmd := exec.CommandContext(ctx, e.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.InfoWithFields("starting browser collector", map[string]interface{}{
		"collector": e.path,
		"sec_uid":   secUID,
		"headless":  opts.Headless,
	})

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("browser collector failed: %w (stderr: %s)", err, stderr.String())
	}

	var result execResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("browser collector output unreadable: %w", err)
	}

	e.mu.Lock()
	e.items = result.Items
	e.stats = result.Stats
	e.mu.Unlock()

	return result.AwemeIDs, nil
}

// PopItems drains the inline-scraped item details from the last run
func (e *Exec) PopItems() map[string]*douyin.Aweme {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := e.items
	e.items = nil
	return items
}

// PopStats drains the statistics of the last run
func (e *Exec) PopStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.stats
	e.stats = Stats{}
	return stats
}
