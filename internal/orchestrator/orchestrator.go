// Package orchestrator drives one full mend run: collect source files,
// analyze them incrementally, score and record what was found, then
// execute the best candidates behind the test gate.
//
// The orchestrator owns the wiring between the analysis and execution
// layers. Components with external effects (git, the test gate, the
// confirmation prompt, checkpointing) are injected through Config so
// runs stay testable.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/mendtool/mend/internal/ai"
	"github.com/mendtool/mend/internal/analysis"
	"github.com/mendtool/mend/internal/analyzer"
	"github.com/mendtool/mend/internal/backlog"
	"github.com/mendtool/mend/internal/checkpoint"
	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/confirm"
	"github.com/mendtool/mend/internal/duplication"
	"github.com/mendtool/mend/internal/executor"
	"github.com/mendtool/mend/internal/gates"
	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/history"
	"github.com/mendtool/mend/internal/report"
	"github.com/mendtool/mend/internal/scan"
	"github.com/mendtool/mend/internal/scoring"
	"github.com/mendtool/mend/internal/types"
	"github.com/mendtool/mend/internal/usage"
)

// Config holds orchestrator configuration. Root, Mode, and Settings
// describe the run; the remaining fields override built-in components
// and exist mostly for tests.
type Config struct {
	// Root is the project being mended.
	Root string

	// Mode picks the disposition of scored opportunities.
	Mode types.Mode

	// Target restricts analysis to one file or directory under Root.
	Target string

	// ChangedOnly restricts analysis to files git reports as modified.
	ChangedOnly bool

	// Fresh discards the analysis cache so every file is re-analyzed.
	Fresh bool

	// Settings is the loaded project configuration. Nil uses defaults.
	Settings *config.Config

	// Git provides repository operations. Nil disables changed-file
	// collection and checkpoint-backed execution.
	Git git.Operations

	// Gate overrides the test gate built from Settings.
	Gate gates.Provider

	// Decider overrides the mode-selected confirmation strategy.
	Decider confirm.Decider

	// Planner overrides how opportunities become executable refactorings.
	Planner Planner

	// Checkpoints overrides the git-backed checkpoint store.
	Checkpoints executor.CheckpointStore

	// History overrides the execution history store. When set, the
	// caller keeps ownership and the orchestrator never closes it.
	History *history.Store
}

// Orchestrator runs the analyze-score-execute pipeline.
type Orchestrator struct {
	root        string
	mode        types.Mode
	target      string
	changedOnly bool
	settings    *config.Config

	gitOps      git.Operations
	gate        gates.Provider
	decider     confirm.Decider
	planner     Planner
	checkpoints executor.CheckpointStore
	history     *history.Store

	scanner  *scan.Scanner
	cache    *analysis.Cache
	progress *analysis.Tracker
	runner   *analysis.Runner
	detector *duplication.Detector
	scorer   scoring.Scorer
	backlog  *backlog.Tracker
	usage    *usage.Tracker
	model    *ai.Analyzer
}

// New wires an orchestrator for one run. Execution modes are validated
// eagerly: a missing test command or git support fails here, not after
// minutes of analysis.
func New(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}

	mode := cfg.Mode
	if mode == "" {
		mode = types.ModeInteractive
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid mode: %s", mode)
	}

	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}

	skipDirs := settings.SkipDirs
	if len(skipDirs) > 0 {
		skipDirs = append(append([]string{}, scan.DefaultSkipDirs...), skipDirs...)
	}

	cache := analysis.NewCache(config.CachePath(root))
	if cfg.Fresh {
		if err := cache.Reset(); err != nil {
			fmt.Printf("Warning: failed to reset analysis cache: %v\n", err)
		}
	} else if err := cache.Load(); err != nil {
		fmt.Printf("Warning: failed to load analysis cache: %v (starting fresh)\n", err)
	}

	progress := analysis.NewTracker()
	tracker := usage.NewTracker(usage.NewFileRepository(config.UsagePath(root)))

	o := &Orchestrator{
		root:        root,
		mode:        mode,
		target:      cfg.Target,
		changedOnly: cfg.ChangedOnly,
		settings:    settings,
		gitOps:      cfg.Git,
		gate:        cfg.Gate,
		decider:     cfg.Decider,
		planner:     cfg.Planner,
		checkpoints: cfg.Checkpoints,
		history:     cfg.History,
		scanner:     scan.New(root, settings.Extensions, skipDirs, cfg.Git),
		cache:       cache,
		progress:    progress,
		runner:      analysis.NewRunner(cache, progress),
		detector:    duplication.New(duplication.Config{MinLines: settings.MinDuplicateLines}),
		scorer:      scoring.NewScorer(),
		backlog:     backlog.NewTracker(config.BacklogPath(root)),
		usage:       tracker,
	}

	if settings.APIKey != "" || ai.APIKeyAvailable() {
		model, err := ai.NewAnalyzer(&ai.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
			Usage:  tracker,
		})
		if err != nil {
			fmt.Printf("Warning: model access unavailable: %v (heuristic analysis only)\n", err)
		} else {
			o.model = model
		}
	}

	if o.planner == nil {
		if o.model != nil {
			o.planner = o.model
		} else {
			o.planner = &HeuristicPlanner{}
		}
	}

	if mode != types.ModeAnalyzeOnly {
		if err := o.wireExecution(); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// wireExecution resolves the gate and decider needed outside
// analyze-only mode.
func (o *Orchestrator) wireExecution() error {
	if o.gate == nil {
		command := o.settings.TestCommand
		if command == "" {
			command = scan.DetectTestCommand(o.root)
		}
		if command == "" {
			return fmt.Errorf("no test command configured or detected; set test_command in %s", config.Path(o.root))
		}
		runner, err := gates.NewRunner(&gates.Config{
			WorkingDir: o.root,
			Command:    command,
			Timeout:    time.Duration(o.settings.TestTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to set up test gate: %w", err)
		}
		o.gate = runner
	}

	if o.decider == nil {
		switch o.mode {
		case types.ModeInteractive:
			o.decider = confirm.NewInteractiveDecider(o.root)
		case types.ModeAuto:
			o.decider = &confirm.AutoDecider{Threshold: o.settings.AutoThreshold}
		}
	}
	return nil
}

// Progress exposes the analysis tracker so callers can display progress
// and request cancellation.
func (o *Orchestrator) Progress() *analysis.Tracker {
	return o.progress
}

// Run executes one full pass and returns the report data. Partial
// results are returned when analysis is cancelled mid-run; execution is
// skipped in that case.
func (o *Orchestrator) Run(ctx context.Context) (*report.Data, error) {
	data := &report.Data{Mode: o.mode, GeneratedAt: time.Now()}

	files, err := o.collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		fmt.Println("No source files to analyze.")
		o.finishUsage(data)
		return data, nil
	}

	// Bridge context cancellation into the progress tracker so an
	// interrupt stops the pass at the next file boundary.
	stop := context.AfterFunc(ctx, o.progress.Cancel)
	defer stop()
	if ctx.Err() != nil {
		data.Cancelled = true
		o.finishUsage(data)
		return data, nil
	}

	result := o.runner.Run(files, o.analyzeFile(ctx))

	// Duplication is cross-file, so it runs over the whole batch and
	// never goes through the per-file cache.
	opportunities := append(result.Opportunities, o.detector.Detect(files).Opportunities()...)

	scored := scoring.ScoreAndSort(o.scorer, opportunities)
	data.FilesAnalyzed = result.FilesAnalyzed
	data.CacheHits = result.CacheHits
	data.Cancelled = result.Cancelled
	data.Opportunities = scored

	o.usage.RecordAnalysis(result.FilesAnalyzed, result.CacheHits)

	if err := o.recordBacklog(scored); err != nil {
		fmt.Printf("Warning: failed to update backlog: %v\n", err)
	}

	switch {
	case o.mode == types.ModeAnalyzeOnly:
	case result.Cancelled:
		fmt.Println("Analysis cancelled; skipping execution.")
	case len(scored) == 0:
	default:
		execResult, err := o.execute(ctx, scored, files)
		if err != nil {
			o.finishUsage(data)
			return data, err
		}
		data.Result = execResult
	}

	o.finishUsage(data)
	return data, nil
}

// collect gathers the source files this run analyzes.
func (o *Orchestrator) collect(ctx context.Context) ([]types.SourceFile, error) {
	var paths []string
	var err error
	switch {
	case o.target != "":
		paths, err = o.scanner.ByPath(o.target)
	case o.changedOnly:
		paths, err = o.scanner.Changed(ctx)
	default:
		paths, err = o.scanner.All()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to collect source files: %w", err)
	}
	return o.scanner.Load(paths), nil
}

// analyzeFile builds the per-file analysis function: structural metrics
// always, semantic analysis when model access is configured.
func (o *Orchestrator) analyzeFile(ctx context.Context) analysis.AnalyzeFunc {
	structural := analyzer.New()
	thresholds := analyzer.Thresholds{
		MaxComplexity: o.settings.MaxComplexity,
		MaxLength:     o.settings.MaxFunctionLines,
	}

	return func(file types.SourceFile) ([]types.Opportunity, error) {
		opps := analyzer.Opportunities(file.Path, structural.Analyze(file), thresholds)

		if o.model != nil {
			issues, err := o.model.SemanticAnalyze(ctx, file)
			if err != nil {
				fmt.Printf("Warning: semantic analysis failed for %s: %v\n", file.Path, err)
			} else {
				opps = append(opps, semanticOpportunities(file.Path, issues)...)
			}
		}
		return opps, nil
	}
}

// semanticOpportunities converts model findings into opportunities.
func semanticOpportunities(path string, issues []types.SemanticIssue) []types.Opportunity {
	opps := make([]types.Opportunity, 0, len(issues))
	for _, issue := range issues {
		desc := issue.Description
		if issue.Suggestion != "" {
			desc += ". Suggested: " + issue.Suggestion
		}
		opps = append(opps, types.Opportunity{
			Type:        types.OpportunitySemantic,
			File:        path,
			Line:        issue.Line,
			Description: desc,
		})
	}
	return opps
}

// recordBacklog merges this run's findings into the backlog document.
func (o *Orchestrator) recordBacklog(scored []types.ScoredOpportunity) error {
	if len(scored) == 0 {
		return nil
	}
	entries := make([]backlog.Entry, 0, len(scored))
	for _, s := range scored {
		entries = append(entries, backlog.FromScored(s))
	}
	return o.backlog.Add(entries)
}

// execute plans the top candidates and applies them as one batch.
func (o *Orchestrator) execute(ctx context.Context, scored []types.ScoredOpportunity, files []types.SourceFile) (*types.ExecutionResult, error) {
	checkpoints, err := o.checkpointStore(ctx)
	if err != nil {
		return nil, err
	}

	batch := scored
	if len(batch) > o.settings.MaxBatchSize {
		batch = batch[:o.settings.MaxBatchSize]
	}

	byPath := make(map[string]types.SourceFile, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	items, origins := o.planItems(ctx, batch, byPath)
	if len(items) == 0 {
		fmt.Println("Nothing executable this run; all candidates stay in the backlog.")
		return &types.ExecutionResult{}, nil
	}

	exec, err := executor.NewExecutor(&executor.Config{
		Root:               o.root,
		Checkpoints:        checkpoints,
		Gate:               o.gate,
		Decider:            o.decider,
		Autofixer:          o.autofixer(),
		MaxAutofixAttempts: o.settings.MaxAutofixAttempts,
	})
	if err != nil {
		return nil, err
	}

	hist, ownsHistory := o.openHistory()
	if ownsHistory {
		defer hist.Close()
	}

	var batchRecord *history.Batch
	if hist != nil {
		batchRecord, err = hist.BeginBatch(ctx, o.mode)
		if err != nil {
			fmt.Printf("Warning: failed to record batch start: %v\n", err)
			batchRecord = nil
		}
	}

	result, execErr := exec.Execute(ctx, items)

	if result != nil && batchRecord != nil {
		if err := hist.FinishBatch(ctx, batchRecord, result); err != nil {
			fmt.Printf("Warning: failed to record batch outcome: %v\n", err)
		}
	}
	if result != nil {
		o.completeApplied(result, origins)
	}
	return result, execErr
}

// checkpointStore resolves the store that brackets the batch. Execution
// without one is refused: a failed batch must always be restorable.
func (o *Orchestrator) checkpointStore(ctx context.Context) (executor.CheckpointStore, error) {
	if o.checkpoints != nil {
		return o.checkpoints, nil
	}
	if o.gitOps == nil {
		return nil, fmt.Errorf("refactoring execution needs git for checkpoints; use analyze-only mode without it")
	}
	if !o.gitOps.IsRepo(ctx, o.root) {
		return nil, fmt.Errorf("%s is not a git repository; checkpoints need one (use analyze-only mode)", o.root)
	}
	return checkpoint.NewStore(o.gitOps, o.root), nil
}

// openHistory returns the history store and whether this call owns it.
// Recording is best-effort: a broken store logs and the run continues.
func (o *Orchestrator) openHistory() (*history.Store, bool) {
	if o.history != nil {
		return o.history, false
	}
	hist, err := history.New(config.HistoryPath(o.root))
	if err != nil {
		fmt.Printf("Warning: execution history unavailable: %v\n", err)
		return nil, false
	}
	return hist, true
}

// autofixer returns the gate-failure repair strategy: model-backed when
// available, otherwise the executor's plain re-run.
func (o *Orchestrator) autofixer() executor.Autofixer {
	if o.model == nil {
		return nil
	}
	return &workspaceAutofixer{root: o.root, model: o.model}
}

// completeApplied checks off backlog entries for refactorings that
// stuck. Applied items in a rolled-back batch did not survive, so they
// stay open.
func (o *Orchestrator) completeApplied(result *types.ExecutionResult, origins map[string]types.Opportunity) {
	if result.RolledBack {
		return
	}
	for _, item := range result.Applied {
		opp, ok := origins[originKey(item.Refactoring)]
		if !ok {
			continue
		}
		if err := o.backlog.MarkComplete(opp.File, opp.Line); err != nil {
			fmt.Printf("Warning: failed to mark %s complete in backlog: %v\n", opp.Key(), err)
		}
	}
}

// finishUsage attaches the usage snapshot to the report and persists it.
func (o *Orchestrator) finishUsage(data *report.Data) {
	snapshot := o.usage.Snapshot()
	data.Usage = &snapshot
	if err := o.usage.Flush(); err != nil {
		fmt.Printf("Warning: failed to save usage state: %v\n", err)
	}
}
