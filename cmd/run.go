package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zjrosen/promoter/internal/approval"
	"github.com/zjrosen/promoter/internal/config"
	"github.com/zjrosen/promoter/internal/flags"
	"github.com/zjrosen/promoter/internal/history"
	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/logsink"
	"github.com/zjrosen/promoter/internal/metrics"
	"github.com/zjrosen/promoter/internal/notify"
	"github.com/zjrosen/promoter/internal/paths"
	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/registry"
	"github.com/zjrosen/promoter/internal/tracing"
)

// runOptions holds the `promoter run` flags. Unset flags fall back to the
// promotion and approval sections of the config.
type runOptions struct {
	registry        string
	ticket          string
	releaseLink     string
	jobURL          string
	requestedBy     string
	dryRun          string
	mode            string
	sourceTag       string
	destTag         string
	artifacts       string
	concurrency     int
	retries         int
	retryDelay      time.Duration
	approvers       []string
	approvalTimeout time.Duration
	approvalChannel string
	resultsFile     string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Promote image tags for the selected artifacts",
	Long: `Resolve the tag pair, ask for approval (skipped for dry runs), then pull,
tag and push every selected artifact with bounded concurrency.

Exit codes:
  0  every artifact succeeded
  1  at least one artifact failed
  2  the approval gate did not approve or the run was cancelled
  3  the run parameters were invalid

Examples:
  # Dry run of the default latest -> stable promotion
  promoter run --registry registry.example.com/team --ticket CHG-1234 --dry-run YES

  # Promote a release tag to latest for two artifacts
  promoter run --mode tag-to-latest --source-tag 2.4.1 --artifacts appmw,cardui \
    --ticket CHG-1235 --approvers alice,bob

  # Custom pair, approval through a decision file
  promoter run --mode custom --source-tag rc1 --dest-tag qa \
    --approval-channel file --approvers alice`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.registry, "registry", "", "target registry host and namespace (default: registry.host)")
	f.StringVar(&runOpts.ticket, "ticket", "", "change ticket id shown to approvers and in reports")
	f.StringVar(&runOpts.releaseLink, "release-link", "", "release notes or change request URL")
	f.StringVar(&runOpts.jobURL, "job-url", "", "URL of the CI job running this promotion")
	f.StringVar(&runOpts.requestedBy, "requested-by", "", "who asked for the promotion (default: $USER)")
	f.StringVar(&runOpts.dryRun, "dry-run", "NO", "YES to pull and tag without pushing and without approval")
	f.StringVar(&runOpts.mode, "mode", "", "latest-to-stable, tag-to-latest or custom (default: promotion.mode)")
	f.StringVar(&runOpts.sourceTag, "source-tag", "", "source tag for tag-to-latest and custom")
	f.StringVar(&runOpts.destTag, "dest-tag", "", "destination tag for custom")
	f.StringVar(&runOpts.artifacts, "artifacts", promotion.SelectAll, "comma separated artifact names, or all")
	f.IntVar(&runOpts.concurrency, "concurrency", 0, "maximum artifacts promoted at once (default: promotion.concurrency)")
	f.IntVar(&runOpts.retries, "retries", 0, "attempts per pull and push (default: promotion.retries)")
	f.DurationVar(&runOpts.retryDelay, "retry-delay", 0, "delay between attempts (default: promotion.retry_delay)")
	f.StringSliceVar(&runOpts.approvers, "approvers", nil, "identities allowed to approve (default: approval.approvers)")
	f.DurationVar(&runOpts.approvalTimeout, "approval-timeout", 0, "how long to wait for a decision (default: approval.timeout)")
	f.StringVar(&runOpts.approvalChannel, "approval-channel", "", "terminal or file (default: approval.channel)")
	f.StringVar(&runOpts.resultsFile, "results-file", "", "write per-artifact results as JSON (default: notify.results_file)")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags copies the flags that were set on the command line over c.
func applyRunFlags(c *config.Config, o runOptions, changed func(string) bool) {
	if changed("registry") {
		c.Registry.Host = o.registry
	}
	if changed("mode") {
		c.Promotion.Mode = o.mode
	}
	if changed("source-tag") {
		c.Promotion.SourceTag = o.sourceTag
	}
	if changed("dest-tag") {
		c.Promotion.DestTag = o.destTag
	}
	if changed("concurrency") {
		c.Promotion.Concurrency = o.concurrency
	}
	if changed("retries") {
		c.Promotion.Retries = o.retries
	}
	if changed("retry-delay") {
		c.Promotion.RetryDelay = o.retryDelay
	}
	if changed("approvers") {
		c.Approval.Approvers = o.approvers
	}
	if changed("approval-timeout") {
		c.Approval.Timeout = o.approvalTimeout
	}
	if changed("approval-channel") {
		c.Approval.Channel = o.approvalChannel
	}
	if changed("results-file") {
		c.Notify.ResultsFile = o.resultsFile
	}
}

// runParams builds the orchestrator input from the merged config and flags.
func runParams(c config.Config, o runOptions, runID string) (promotion.RunParams, error) {
	dryRun, err := config.ParseYesNo(o.dryRun)
	if err != nil {
		return promotion.RunParams{}, fmt.Errorf("--dry-run: %w", err)
	}
	mode, err := promotion.ParseMode(c.Promotion.Mode, c.Promotion.SourceTag, c.Promotion.DestTag)
	if err != nil {
		return promotion.RunParams{}, err
	}

	requestedBy := o.requestedBy
	if requestedBy == "" {
		requestedBy = os.Getenv("USER")
	}

	return promotion.RunParams{
		RunID:    runID,
		Registry: c.Registry.Host,
		Credentials: promotion.Credentials{
			Username: c.Registry.Username,
			Password: c.Registry.Password,
		},
		Mode:        mode,
		DryRun:      dryRun,
		Concurrency: c.Promotion.Concurrency,
		RetryLimit:  c.Promotion.Retries,
		RetryDelay:  c.Promotion.RetryDelay,
		Selection:   promotion.ParseSelection(o.artifacts),
		Canonical:   c.Artifacts,
		Ticket: promotion.Ticket{
			ID:          strings.TrimSpace(o.ticket),
			ReleaseLink: o.releaseLink,
			JobURL:      o.jobURL,
			RequestedBy: requestedBy,
		},
		Approval: promotion.ApprovalPolicy{
			Approvers: c.Approval.Approvers,
			MaxWait:   c.Approval.Timeout,
		},
	}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	c := cfg
	applyRunFlags(&c, runOpts, cmd.Flags().Changed)
	if err := config.Validate(c); err != nil {
		return &ExitError{Code: promotion.RunValidationFailed.ExitCode(), Err: err}
	}

	runID := uuid.NewString()
	params, err := runParams(c, runOpts, runID)
	if err != nil {
		return &ExitError{Code: promotion.RunValidationFailed.ExitCode(), Err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := wireRun(ctx, c, stateDir(), runID, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer deps.close()

	orch := promotion.NewOrchestrator(deps.client,
		promotion.WithApprovalChannel(deps.approvals),
		promotion.WithNotifier(deps.notifier),
		promotion.WithLogSink(deps.sink),
		promotion.WithTracer(deps.tracer.Tracer()),
	)
	defer orch.Close()

	log.Info(log.CatRun, "Starting run", "run", runID, "registry", params.Registry, "dry_run", params.DryRun)
	outcome := orch.Execute(ctx, promotion.NewRunConfig(params))

	summary := metrics.Summarize(outcome)
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %s (%s; %s)\n",
		outcome.RunID, outcome.Status, summary.FormatCounts(), summary.FormatTiming())
	if deps.sink.Dir() != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "logs: %s\n", deps.sink.Dir())
	}

	if code := outcome.Status.ExitCode(); code != 0 {
		err := fmt.Errorf("run finished with status %s", outcome.Status)
		if outcome.Err != nil {
			err = fmt.Errorf("run finished with status %s: %w", outcome.Status, outcome.Err)
		}
		return &ExitError{Code: code, Err: err}
	}
	return nil
}

// runDeps are the collaborators built for one run.
type runDeps struct {
	client    promotion.RegistryClient
	approvals promotion.ApprovalChannel
	notifier  *notify.Multi
	sink      *logsink.Sink
	tracer    *tracing.Provider
	closers   []func()
}

func (d *runDeps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// wireRun builds every collaborator for a run from the merged config.
func wireRun(ctx context.Context, c config.Config, state, runID string, out io.Writer) (*runDeps, error) {
	deps := &runDeps{}
	ok := false
	defer func() {
		if !ok {
			deps.close()
		}
	}()

	features := flags.NewWithDefaults(c.Flags)

	tc := c.Tracing
	if tc.FilePath == "" {
		tc.FilePath = filepath.Join(state, "traces", "traces.jsonl")
	}
	provider, err := tracing.NewProvider(tc)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}
	deps.tracer = provider
	deps.closers = append(deps.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	})

	rc := c.Registry.Config
	rc.SkipCache = rc.SkipCache || !features.Enabled(flags.FlagDescriptorCache)
	client, err := registry.New(c.Registry.Host, rc, provider.Tracer())
	if err != nil {
		return nil, err
	}
	deps.client = client

	logsDir := c.Logs.Dir
	if logsDir == "" {
		logsDir = paths.LogsDir(state)
	}
	sink, err := logsink.NewFileSink(logsDir, runID, logsink.WithTailLines(c.Logs.TailLines))
	if err != nil {
		return nil, err
	}
	deps.sink = sink
	deps.closers = append(deps.closers, func() { _ = sink.Close() })

	approvalDir := c.Approval.Dir
	if approvalDir == "" {
		approvalDir = paths.ApprovalsDir(state)
	}
	approvals, err := approval.New(approval.Config{Channel: c.Approval.Channel, Dir: approvalDir})
	if err != nil {
		return nil, err
	}
	deps.approvals = approvals

	targets, closeNotifiers, err := buildNotifiers(c, features, state, sink.RunLogPath(), out)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, closeNotifiers)
	deps.notifier = notify.NewMulti(targets...)

	ok = true
	return deps, nil
}

// buildNotifiers returns the configured notifiers in delivery order. History
// is recorded first so a failing remote sink never loses the local record.
func buildNotifiers(c config.Config, features *flags.Registry, state, runLog string, out io.Writer) ([]notify.Named, func(), error) {
	var (
		targets []notify.Named
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if features.Enabled(flags.FlagRunHistory) {
		path := c.History.Path
		if path == "" {
			path = paths.HistoryDB(state)
		}
		db, err := history.NewDB(path)
		if err != nil {
			return nil, closeAll, fmt.Errorf("opening run history: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		targets = append(targets, notify.Named{Name: "history", Notifier: history.NewStore(db)})
	}

	if c.Notify.Terminal {
		targets = append(targets, notify.Named{Name: "terminal", Notifier: notify.NewTerminal(out, 0)})
	}
	if c.Notify.ResultsFile != "" {
		targets = append(targets, notify.Named{Name: "results", Notifier: notify.NewResultsFile(c.Notify.ResultsFile)})
	}
	if c.Notify.Email.Enabled {
		targets = append(targets, notify.Named{Name: "email", Notifier: notify.NewEmail(c.Notify.Email.EmailConfig, runLog)})
	}
	if features.Enabled(flags.FlagCloudEvents) && c.Notify.CloudEvents.Target != "" {
		ce, err := notify.NewCloudEvents(notify.CloudEventsConfig{
			Target:  c.Notify.CloudEvents.Target,
			Source:  c.Notify.CloudEvents.Source,
			Retries: c.Notify.CloudEvents.Retries,
		})
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		targets = append(targets, notify.Named{Name: "cloudevents", Notifier: ce})
	}
	if c.Notify.Archive.Enabled {
		archive, err := notify.NewArchive(c.Notify.Archive.ArchiveConfig, runLog)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		targets = append(targets, notify.Named{Name: "archive", Notifier: archive})
	}

	return targets, closeAll, nil
}
