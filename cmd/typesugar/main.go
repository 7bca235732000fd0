// Command typesugar is the CLI entry point for the macro engine:
// a one-shot `expand` for CI/scripting and an interactive `shell` for
// debugging, grounded on cmd/ailang/main.go's flag-dispatched
// subcommand shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/cache"
	"github.com/typesugar/typesugar/internal/pipeline"
	"github.com/typesugar/typesugar/internal/registry"
	"github.com/typesugar/typesugar/internal/replshell"
)

var (
	// Version is set by ldflags during build, matching the teacher's
	// convention in cmd/ailang/main.go.
	Version   = "dev"
	BuildTime = "unknown"

	red  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "--help" || os.Args[1] == "-h" {
		printHelp()
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		printVersion()
	case "shell":
		runShell(args)
	case "expand":
		runExpand(args)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("typesugar %s\n", bold(Version))
	if BuildTime != "unknown" {
		fmt.Printf("Built: %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("typesugar - compile-time macro engine"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  typesugar <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  shell                    Launch the interactive expansion debug shell")
	fmt.Println("  expand <snippet>         Expand one snippet and print the result")
	fmt.Println("  version                  Print version information")
}

// demoSnippetParser recognizes `name(arg)` call syntax only. A host
// toolchain providing a real surface-language grammar plugs its own
// ast.SnippetParser into pipeline.Config.Parse/replshell.New instead — the core
// never embeds a parser of its own (spec.md §1, §6).
func demoSnippetParser(source string) (ast.Stmt, error) {
	source = strings.TrimSpace(source)
	open := strings.IndexByte(source, '(')
	if open < 0 || !strings.HasSuffix(source, ")") {
		return nil, errors.New("demo parser only understands `name(arg)` call syntax; wire a real ast.SnippetParser for full surface syntax")
	}
	name := source[:open]
	arg := source[open+1 : len(source)-1]
	if name == "" || arg == "" {
		return nil, errors.New("demo parser expected `name(arg)`")
	}
	call := ast.NewCall(ast.NewIdentifier(name, ast.Span{}), []ast.Expr{ast.NewIdentifier(arg, ast.Span{})}, ast.Span{})
	return ast.NewFactory().ExprStatement(call), nil
}

type limits struct {
	maxDepth   int
	maxPerSite int
	maxGlobal  int
	hygienePfx string

	cacheDir        string
	cacheMaxEntries int
}

func parseLimits(fs *pflag.FlagSet) *limits {
	l := &limits{}
	fs.IntVar(&l.maxDepth, "max-depth", 0, "expansion depth ceiling (0 = spec default)")
	fs.IntVar(&l.maxPerSite, "max-per-site", 0, "per-site expansion budget (0 = spec default)")
	fs.IntVar(&l.maxGlobal, "max-global", 0, "global expansion budget (0 = spec default)")
	fs.StringVar(&l.hygienePfx, "hygiene-prefix", "", "mangled-name prefix for introduced bindings")
	fs.StringVar(&l.cacheDir, "cache-dir", "", "directory for on-disk expansion-cache persistence (empty disables disk persistence)")
	fs.IntVar(&l.cacheMaxEntries, "cache-max-entries", cache.DefaultMaxEntries, "in-memory expansion-cache LRU capacity (cache.max_entries)")
	return l
}

func (l *limits) config(reg *registry.Registry) pipeline.Config {
	return pipeline.Config{
		Registry:             reg,
		Parse:                demoSnippetParser,
		HygienePrefix:        l.hygienePfx,
		MaxDepth:             l.maxDepth,
		MaxPerSiteExpansions: l.maxPerSite,
		MaxGlobalExpansions:  l.maxGlobal,
	}
}

func runShell(args []string) {
	fs := pflag.NewFlagSet("shell", pflag.ExitOnError)
	l := parseLimits(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	reg := registry.New(registry.WarnAndReplace)
	s := replshell.New(reg, demoSnippetParser, l.config(reg))
	s.Start(os.Stdin, os.Stdout)
}

func runExpand(args []string) {
	fs := pflag.NewFlagSet("expand", pflag.ExitOnError)
	l := parseLimits(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "%s: missing snippet argument\n", red("Error"))
		fmt.Fprintln(os.Stderr, "Usage: typesugar expand [flags] <snippet>")
		os.Exit(1)
	}
	snippet := strings.Join(fs.Args(), " ")

	reg := registry.New(registry.WarnAndReplace)
	cfg := l.config(reg)
	store := cache.NewStore(l.cacheMaxEntries, l.cacheDir, nil)

	// Cache Layer lookup, keyed by (file content, config knobs,
	// registry version) per spec.md §6 — a hit skips re-running the
	// pipeline entirely.
	key := cache.Key{
		FileHash:        cache.HashSource(snippet),
		ConfigHash:      cfg.Hash(),
		RegistryVersion: reg.Version(),
	}
	if entry, ok := store.Get(key); ok {
		for _, d := range entry.Diagnostics {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", d.Severity, d.Code, d.Message)
		}
		fmt.Println(entry.Text)
		return
	}

	stmt, err := demoSnippetParser(snippet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	file := ast.NewFile("<expand>", snippet, nil, []ast.Stmt{stmt})
	result, err := pipeline.Run(context.Background(), cfg, pipeline.Source{File: file})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", d.Severity, d.Code, d.Message)
	}
	golden := ast.Golden(result.Artifacts.TransformedAST)
	fmt.Println(golden)

	store.Put(key, cache.Entry{
		Text:            golden,
		Diagnostics:     result.Diagnostics,
		RegistryVersion: reg.Version(),
	})
}
