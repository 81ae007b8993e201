package approval

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/watcher"
)

// FileConfig configures a FileChannel.
type FileConfig struct {
	Dir      string
	Debounce time.Duration
}

// RequestFile is written for the approver to read. Its field names are
// stable; operators script against them.
type RequestFile struct {
	RunID       string    `yaml:"run_id"`
	Ticket      string    `yaml:"ticket"`
	RequestedBy string    `yaml:"requested_by,omitempty"`
	ReleaseLink string    `yaml:"release_link,omitempty"`
	Registry    string    `yaml:"registry"`
	Mode        string    `yaml:"mode"`
	SourceTag   string    `yaml:"source_tag"`
	DestTag     string    `yaml:"dest_tag"`
	Artifacts   []string  `yaml:"artifacts"`
	Approvers   []string  `yaml:"approvers"`
	Deadline    time.Time `yaml:"deadline,omitempty"`
	DecisionAt  string    `yaml:"decision_file"`
}

// DecisionFile is what the approver drops next to the request.
type DecisionFile struct {
	Identity string `yaml:"identity"`
	Decision string `yaml:"decision"`
}

// FileChannel writes <run-id>.request.yaml into Dir and waits for
// <run-id>.decision.yaml to appear.
type FileChannel struct {
	cfg FileConfig
}

// NewFileChannel creates a file channel.
func NewFileChannel(cfg FileConfig) *FileChannel {
	return &FileChannel{cfg: cfg}
}

// RequestPath returns the request file path for a run.
func (c *FileChannel) RequestPath(runID string) string {
	return filepath.Join(c.cfg.Dir, runID+".request.yaml")
}

// DecisionPath returns the decision file path for a run.
func (c *FileChannel) DecisionPath(runID string) string {
	return filepath.Join(c.cfg.Dir, runID+".decision.yaml")
}

// RequestApproval publishes the request and blocks until a readable decision
// file exists or ctx ends. The request file is removed on return.
func (c *FileChannel) RequestApproval(ctx context.Context, req promotion.ApprovalRequest) (promotion.ApprovalResponse, error) {
	if err := os.MkdirAll(c.cfg.Dir, 0o750); err != nil {
		return promotion.ApprovalResponse{}, fmt.Errorf("creating approval dir: %w", err)
	}

	decisionPath := c.DecisionPath(req.RunID)
	w, err := watcher.New(watcher.Config{Path: decisionPath, Debounce: c.cfg.Debounce})
	if err != nil {
		return promotion.ApprovalResponse{}, err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return promotion.ApprovalResponse{}, err
	}

	requestPath := c.RequestPath(req.RunID)
	if err := c.writeRequest(ctx, requestPath, decisionPath, req); err != nil {
		return promotion.ApprovalResponse{}, err
	}
	defer func() { _ = os.Remove(requestPath) }()

	log.Info(log.CatGate, "Waiting for decision file", "run", req.RunID, "path", decisionPath)

	// The decision may already be there if it was written before the watch.
	if resp, ok := c.readDecision(decisionPath); ok {
		return resp, nil
	}

	for {
		select {
		case <-ctx.Done():
			return promotion.ApprovalResponse{}, waitErr(ctx)
		case <-changes:
			if resp, ok := c.readDecision(decisionPath); ok {
				return resp, nil
			}
		}
	}
}

func (c *FileChannel) writeRequest(ctx context.Context, path, decisionPath string, req promotion.ApprovalRequest) error {
	rf := RequestFile{
		RunID:       req.RunID,
		Ticket:      req.Ticket.ID,
		RequestedBy: req.Ticket.RequestedBy,
		ReleaseLink: req.Ticket.ReleaseLink,
		Registry:    req.Registry,
		Mode:        req.Mode,
		SourceTag:   req.TagPair.Source,
		DestTag:     req.TagPair.Destination,
		Artifacts:   req.Artifacts,
		Approvers:   req.Approvers,
		DecisionAt:  decisionPath,
	}
	if dl, ok := ctx.Deadline(); ok {
		rf.Deadline = dl.UTC()
	}

	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("encoding approval request: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil { //nolint:gosec // G306: approvers need to read the request
		return fmt.Errorf("writing approval request: %w", err)
	}
	return nil
}

// readDecision returns ok=false when the file is missing, half written, or
// has no decision yet.
func (c *FileChannel) readDecision(path string) (promotion.ApprovalResponse, bool) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is derived from the configured approval dir
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn(log.CatGate, "Reading decision file failed", "path", path, "error", err)
		}
		return promotion.ApprovalResponse{}, false
	}

	var df DecisionFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		log.Warn(log.CatGate, "Decision file is not valid YAML", "path", path, "error", err)
		return promotion.ApprovalResponse{}, false
	}
	if strings.TrimSpace(df.Decision) == "" {
		return promotion.ApprovalResponse{}, false
	}

	return promotion.ApprovalResponse{
		Identity: strings.TrimSpace(df.Identity),
		Decision: promotion.Decision(strings.ToUpper(strings.TrimSpace(df.Decision))),
	}, true
}

// Pending returns the requests currently waiting in Dir, ordered by run id.
func (c *FileChannel) Pending() ([]RequestFile, error) {
	matches, err := filepath.Glob(filepath.Join(c.cfg.Dir, "*.request.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	pending := make([]RequestFile, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path is derived from the configured approval dir
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading approval request: %w", err)
		}
		var rf RequestFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			log.Warn(log.CatGate, "Skipping unreadable approval request", "path", path, "error", err)
			continue
		}
		pending = append(pending, rf)
	}
	return pending, nil
}

// Decide writes the decision file for a run. The file is renamed into place
// so a waiting channel never reads it half written.
func (c *FileChannel) Decide(runID string, resp promotion.ApprovalResponse) error {
	if strings.TrimSpace(resp.Identity) == "" {
		return errors.New("identity is required")
	}
	switch resp.Decision {
	case promotion.DecisionProceed, promotion.DecisionAbort:
	default:
		return fmt.Errorf("decision must be %s or %s, got %q", promotion.DecisionProceed, promotion.DecisionAbort, resp.Decision)
	}
	if err := os.MkdirAll(c.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("creating approval dir: %w", err)
	}

	data, err := yaml.Marshal(DecisionFile{Identity: resp.Identity, Decision: string(resp.Decision)})
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}

	tmp, err := os.CreateTemp(c.cfg.Dir, ".decision-*.tmp")
	if err != nil {
		return fmt.Errorf("creating decision file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing decision file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing decision file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.DecisionPath(runID)); err != nil {
		return fmt.Errorf("writing decision file: %w", err)
	}
	log.Info(log.CatGate, "Decision written", "run", runID, "identity", resp.Identity, "decision", resp.Decision)
	return nil
}
