package nativedeps

import (
	"fmt"
	"os"
)

// Orchestrator wires the whole pipeline: fetch → plan → per-pair cache
// check, toolchain resolution and build → iOS universal assembly.
//
// Execution is sequential at (library, target) granularity. Parallelism
// lives inside the delegated build tools; the orchestrator itself never
// overlaps two pairs, and concurrent invocations over the same dist tree
// are not supported.
type Orchestrator struct {
	bctx      *BuildContext
	registry  *LibraryRegistry
	catalog   *TargetCatalog
	resolver  *ToolchainResolver
	factory   *BuilderFactory
	fetcher   *Fetcher
	layout    ArtifactLayout
	cache     ArtifactCache
	assembler UniversalAssembler

	// Config overrides the default per-platform configuration when set.
	Config *PlatformConfig

	// rebuilt records the pairs actually built during this invocation,
	// so dependents of a rebuilt library rebuild too instead of trusting
	// a dist directory produced against the old dependency.
	rebuilt map[string]bool
}

// NewOrchestrator assembles an orchestrator over the context's dist tree.
func NewOrchestrator(bctx *BuildContext) (*Orchestrator, error) {
	registry, err := NewLibraryRegistry()
	if err != nil {
		return nil, err
	}
	layout := ArtifactLayout{DistRoot: bctx.DistRoot}
	return &Orchestrator{
		bctx:      bctx,
		registry:  registry,
		catalog:   NewTargetCatalog(bctx.APILevel, bctx.IOSMinVersion),
		resolver:  NewToolchainResolver(bctx),
		factory:   NewBuilderFactory(),
		fetcher:   NewFetcher(bctx),
		layout:    layout,
		cache:     ArtifactCache{Layout: layout},
		assembler: UniversalAssembler{Layout: layout},
		rebuilt:   make(map[string]bool),
	}, nil
}

// SetStrictCache makes cache hits require a completion marker in
// addition to an existing dist directory.
func (o *Orchestrator) SetStrictCache(strict bool) { o.cache.Strict = strict }

// LoadPins replaces the embedded source pins with the set from path.
func (o *Orchestrator) LoadPins(path string) error {
	registry, err := NewLibraryRegistryFromFile(path)
	if err != nil {
		return err
	}
	o.registry = registry
	return nil
}

// Registry exposes the pinned library set.
func (o *Orchestrator) Registry() *LibraryRegistry { return o.registry }

// Catalog exposes the target catalog.
func (o *Orchestrator) Catalog() *TargetCatalog { return o.catalog }

// Layout exposes the dist layout contract.
func (o *Orchestrator) Layout() ArtifactLayout { return o.layout }

// PlatformTargets selects the targets build-all covers for a platform.
// Android and iOS build their full matrices. Desktop builds the host OS
// target, plus the darwin cross target when the cross toolchain is
// configured on a Linux host.
func (o *Orchestrator) PlatformTargets(platform Platform) ([]Target, error) {
	if platform != PlatformDesktop {
		return o.catalog.Targets(platform), nil
	}

	host, err := o.catalog.LookupDesktop(hostDesktopOS(o.bctx.HostOS))
	if err != nil {
		return nil, err
	}
	targets := []Target{host}
	if o.bctx.HostOS == "linux" && o.bctx.MacCrossRoot != "" {
		darwin, err := o.catalog.LookupDesktop(DesktopDarwin)
		if err != nil {
			return nil, err
		}
		targets = append(targets, darwin)
	}
	return targets, nil
}

// BuildAll runs the full pipeline for one platform.
func (o *Orchestrator) BuildAll(platform Platform) error {
	cfg := DefaultPlatformConfig(platform)
	if o.Config != nil {
		cfg = *o.Config
	}

	targets, err := o.PlatformTargets(platform)
	if err != nil {
		return err
	}
	plan, err := Plan(o.registry, o.catalog, platform, cfg, targets)
	if err != nil {
		return err
	}
	if o.bctx.Ticker != nil {
		o.bctx.Ticker.SetTotal(len(plan.Steps))
	}

	// Everything the plan needs is fetched and checksum-verified up
	// front, so an integrity failure aborts with zero build invocations.
	tarballs := make(map[string]string)
	for _, step := range plan.Steps {
		if _, done := tarballs[step.Library.Name]; done {
			continue
		}
		path, err := o.fetcher.Fetch(step.Library)
		if err != nil {
			return err
		}
		tarballs[step.Library.Name] = path
	}

	needed := make(map[string]bool)
	for _, step := range plan.Steps {
		if !o.cache.IsBuilt(step.Library.Name, step.Target) {
			needed[step.Library.Name] = true
		}
	}
	if err := o.factory.CheckTools(needed); err != nil {
		return err
	}

	for _, step := range plan.Steps {
		if err := o.buildStep(step, tarballs[step.Library.Name]); err != nil {
			return err
		}
	}

	if platform == PlatformIOS && !o.bctx.DryRun {
		for _, lib := range cfg.Libraries {
			if err := o.assembler.Assemble(o.bctx, targets, lib); err != nil {
				return err
			}
		}
	}

	o.reportEnv(targets, cfg)
	return nil
}

// BuildOne builds a single (library, target) pair, the idempotent unit the
// per-library CLI entry points drive.
func (o *Orchestrator) BuildOne(library string, target Target) error {
	cfg := DefaultPlatformConfig(target.Platform)
	if o.Config != nil {
		cfg = *o.Config
	}
	lib, err := o.registry.Lookup(library)
	if err != nil {
		return err
	}

	tarball, err := o.fetcher.Fetch(lib)
	if err != nil {
		return err
	}
	return o.buildStep(BuildStep{
		Library: lib,
		Target:  target,
		Deps:    resolveDeps(lib, cfg),
	}, tarball)
}

func (o *Orchestrator) buildStep(step BuildStep, tarball string) error {
	logger := o.bctx.Logger.With().Str("step", step.ID()).Logger()

	depRebuilt := false
	for _, dep := range step.Deps {
		if o.rebuilt[pairKey(dep, step.Target)] {
			depRebuilt = true
			break
		}
	}
	if !depRebuilt && o.cache.IsBuilt(step.Library.Name, step.Target) {
		logger.Info().Msg("already built, skipping")
		if o.bctx.Ticker != nil {
			o.bctx.Ticker.Skip(step.ID())
		}
		return nil
	}
	if depRebuilt {
		logger.Info().Msg("dependency rebuilt, invalidating cached artifact")
		if err := o.cache.Invalidate(step.Library.Name, step.Target); err != nil {
			return err
		}
	}

	// Dependencies must be on disk for this same target before the
	// build starts; the planner guarantees ordering, this guards manual
	// per-library invocations.
	depDists := make(map[string]string)
	for _, dep := range step.Deps {
		if !o.cache.IsBuilt(dep, step.Target) {
			if !o.bctx.DryRun {
				return configErrorf("%s requires %s to be built for %s first",
					step.Library.Name, dep, step.Target.Name())
			}
			logger.Info().Str("dependency", dep).Msg("dependency not built, continuing dry run")
		}
		depDists[dep] = o.layout.LibraryDir(dep, step.Target)
	}

	toolchain, err := o.resolver.Resolve(step.Target)
	if err != nil {
		return err
	}

	builder, err := o.factory.BuilderFor(step.Library.Name)
	if err != nil {
		return err
	}

	sourceDir, err := Extract(o.bctx, tarball, step.Library.Name, step.Target)
	if err != nil {
		return err
	}

	if o.bctx.Ticker != nil {
		o.bctx.Ticker.Start(step.ID())
	}
	logger.Info().Str("source", sourceDir).Msg("building")

	spec := &BuildSpec{
		Library:   step.Library,
		Target:    step.Target,
		Toolchain: toolchain,
		SourceDir: sourceDir,
		DistDir:   o.layout.LibraryDir(step.Library.Name, step.Target),
		DepDists:  depDists,
	}
	result, err := builder.Build(o.bctx, spec)
	if err != nil {
		// The extraction tree is left in place for inspection.
		logger.Error().Err(err).Str("workdir", sourceDir).Msg("build failed")
		return err
	}

	// A successful tree is disposable; reclaim the space.
	if rmErr := os.RemoveAll(sourceDir); rmErr != nil {
		logger.Warn().Err(rmErr).Msg("could not remove extraction tree")
	}

	o.rebuilt[pairKey(step.Library.Name, step.Target)] = true
	if o.bctx.Ticker != nil {
		o.bctx.Ticker.Finish(step.ID())
	}
	logger.Info().Strs("artifacts", result.Artifacts).Msg("built")
	return nil
}

func pairKey(lib string, target Target) string {
	return lib + "|" + target.Name()
}

// reportEnv logs the environment variables downstream builds read to find
// the artifacts, once per target.
func (o *Orchestrator) reportEnv(targets []Target, cfg PlatformConfig) {
	for _, target := range targets {
		built := make(map[string]bool)
		for _, lib := range o.registry.Names() {
			built[lib] = o.cache.IsBuilt(lib, target)
		}
		report := o.layout.EnvReport(target, built)
		for _, key := range SortedKeys(report) {
			o.bctx.Logger.Info().
				Str("target", target.Name()).
				Msg(fmt.Sprintf("%s=%s", key, report[key]))
		}
	}
}
