// Command ramlog compiles a logic program to a RAM program and evaluates
// it in-process (spec.md §6): facts load from --fact-dir, results land in
// --output-dir, and user-defined functors resolve from Go plugins named by
// --libraries/--library-dir.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/sirupsen/logrus"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/engine"
	"github.com/ramlog/ramlog/interpreter"
	"github.com/ramlog/ramlog/iosys"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ramlog", flag.ContinueOnError)
	factDir := fs.String("fact-dir", ".", "directory fact files load from")
	outputDir := fs.String("output-dir", ".", "directory output files land in")
	jobs := fs.Int("jobs", 0, "worker count for parallel queries (0 = logical CPUs)")
	profile := fs.String("profile", "", "enable profiling, writing events to this file")
	verbose := fs.Bool("verbose", false, "debug logging")
	libraries := fs.String("libraries", "", "space-separated functor plugin names")
	libraryDir := fs.String("library-dir", "", "space-separated directories searched for functor plugins")
	provenance := fs.String("provenance", "none", "provenance mode: none, explain, subtreeHeights, explore")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ramlog [flags] <program>")
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := execute(fs.Arg(0), *factDir, *outputDir, *jobs, *profile, *libraries, *libraryDir, *provenance, logger); err != nil {
		// A single diagnostic line on the error stream (spec.md §6).
		fmt.Fprintf(os.Stderr, "ramlog: %v\n", err)
		return 1
	}
	return 0
}

func execute(programPath, factDir, outputDir string, jobs int, profile, libraries, libraryDir, provenance string, logger *logrus.Logger) error {
	switch provenance {
	case "none", "explain", "subtreeHeights", "explore":
	default:
		return errors.Errorf("unknown provenance mode %q", provenance)
	}

	var loader ProgramLoader = yamlLoader{}
	prog, err := loader.Load(programPath)
	if err != nil {
		return err
	}
	routeDirectives(prog, factDir, outputDir)

	if jobs <= 0 {
		n, err := cpu.Counts(true)
		if err != nil || n < 1 {
			n = 1
		}
		jobs = n
	}

	functors, err := loadFunctorLibraries(libraries, libraryDir, logger)
	if err != nil {
		return err
	}

	var metrics *interpreter.Metrics
	if profile != "" {
		metrics = interpreter.NewMetrics()
		f, err := os.Create(profile)
		if err != nil {
			return errors.Wrapf(err, "creating profile output %q", profile)
		}
		defer f.Close()
		logger.SetOutput(f)
		logger.SetLevel(logrus.DebugLevel)
	}

	io := iosys.New(nil, nil)
	eng := engine.New(&engine.Config{
		Functors:   functors,
		IO:         io,
		Logger:     logger,
		Jobs:       jobs,
		Provenance: provenance != "none",
	})

	ramProg, err := eng.Compile(prog)
	if err != nil {
		return err
	}
	_, uninstall, err := eng.Execute(prog, ramProg, metrics)
	if uninstall != nil {
		defer uninstall()
	}
	return err
}

// routeDirectives resolves relative filenames against --fact-dir for
// inputs and --output-dir for outputs (spec.md §6), defaulting a missing
// IO directive map to file IO named after the relation.
func routeDirectives(p *ast.Program, factDir, outputDir string) {
	for name, rel := range p.Relations {
		if rel.IO == ast.IOInternal {
			continue
		}
		if rel.Directives == nil {
			rel.Directives = map[string]string{"IO": "file", "filename": name + ".facts"}
		}
		if rel.Directives["IO"] != "file" {
			continue
		}
		fn := rel.Directives["filename"]
		if fn == "" {
			fn = name + ".facts"
		}
		if !filepath.IsAbs(fn) {
			if rel.IO == ast.IOInput {
				fn = filepath.Join(factDir, fn)
			} else {
				fn = filepath.Join(outputDir, fn)
			}
		}
		rel.Directives["filename"] = fn
	}
}

// loadFunctorLibraries opens each named Go plugin and merges the
// `Functors` map it exports (the Go analogue of the reference's DLL/libffi
// resolution, see interpreter.UserFunctor). Bare names resolve to
// lib<name>.so inside the --library-dir search path.
func loadFunctorLibraries(libraries, libraryDir string, logger *logrus.Logger) (map[string]interpreter.UserFunctor, error) {
	names := strings.Fields(libraries)
	if len(names) == 0 {
		return nil, nil
	}
	dirs := strings.Fields(libraryDir)
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	out := make(map[string]interpreter.UserFunctor)
	for _, name := range names {
		path, err := resolveLibrary(name, dirs)
		if err != nil {
			return nil, err
		}
		pl, err := plugin.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening functor library %q", path)
		}
		sym, err := pl.Lookup("Functors")
		if err != nil {
			return nil, errors.Wrapf(err, "library %q exports no Functors map", path)
		}
		m, ok := sym.(*map[string]interpreter.UserFunctor)
		if !ok {
			return nil, errors.Errorf("library %q: Functors has wrong type %T", path, sym)
		}
		for fname, fn := range *m {
			out[fname] = fn
		}
		logger.WithFields(logrus.Fields{"library": path, "functors": len(*m)}).Debug("functor library loaded")
	}
	return out, nil
}

func resolveLibrary(name string, dirs []string) (string, error) {
	candidates := []string{name}
	if !strings.ContainsAny(name, "/.") {
		candidates = []string{"lib" + name + ".so", name + ".so", name}
	}
	for _, dir := range dirs {
		for _, cand := range candidates {
			path := filepath.Join(dir, cand)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", errors.Errorf("functor library %q not found in %v", name, dirs)
}
