// Package replshell is an interactive debug shell for the Expansion
// Pipeline: it parses a snippet via a host-supplied parser, runs it
// through one pipeline.Run, and prints the before/after AST plus
// diagnostics. Grounded on internal/repl/repl.go's liner-driven
// read-eval-print loop, narrowed from a full language REPL down to
// the one thing this core actually does: expand.
package replshell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/pipeline"
	"github.com/typesugar/typesugar/internal/registry"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Shell is one interactive expansion session.
type Shell struct {
	cfg      pipeline.Config
	registry *registry.Registry
	parse    ast.SnippetParser

	history []string
	last    *pipeline.Result
}

// New creates a shell over reg, expanding snippets parsed by parse. cfg
// supplies everything else a run needs (Types, Eval, limits); its
// Registry field is overwritten with reg, and its Parse field defaults
// to parse if the caller left it unset, so a macro callback's
// ctx.Parse sees the same parser the shell itself uses for input lines.
func New(reg *registry.Registry, parse ast.SnippetParser, cfg pipeline.Config) *Shell {
	cfg.Registry = reg
	if cfg.Parse == nil {
		cfg.Parse = parse
	}
	return &Shell{cfg: cfg, registry: reg, parse: parse}
}

// Start runs the read-eval-print loop until EOF or :quit.
func (s *Shell) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".typesugar_replshell_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s\n", bold("typesugar expand shell"))
	fmt.Fprintln(out, dim("Type :help for commands, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(input string) (c []string) {
		if !strings.HasPrefix(input, ":") {
			return nil
		}
		for _, cmd := range commandNames {
			if strings.HasPrefix(cmd, input) {
				c = append(c, cmd)
			}
		}
		return
	})

	for {
		input, err := line.Prompt("ts> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)
		s.history = append(s.history, input)

		if strings.HasPrefix(input, ":") {
			if s.handleCommand(input, out) {
				break
			}
			continue
		}

		s.expand(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// expand parses source as one snippet and runs it through the pipeline,
// printing the resulting diagnostics and transformed AST.
func (s *Shell) expand(source string, out io.Writer) {
	if s.parse == nil {
		fmt.Fprintf(out, "%s: no snippet parser configured\n", red("Error"))
		return
	}
	stmt, err := s.parse(source)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Parse error"), err)
		return
	}

	file := ast.NewFile("<replshell>", source, nil, []ast.Stmt{stmt})
	result, err := pipeline.Run(context.Background(), s.cfg, pipeline.Source{File: file})
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Pipeline error"), err)
		return
	}
	s.last = &result

	for _, d := range result.Diagnostics {
		printDiagnostic(d, out)
	}
	fmt.Fprintln(out, cyan(ast.Golden(result.Artifacts.TransformedAST)))
}
