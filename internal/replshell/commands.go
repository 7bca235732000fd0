package replshell

import (
	"fmt"
	"io"
	"strings"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/registry"
)

var commandNames = []string{
	":help", ":quit", ":macros", ":diff", ":limits", ":history", ":clear",
}

// handleCommand dispatches a `:`-prefixed input line. It reports
// whether the shell should exit.
func (s *Shell) handleCommand(cmd string, out io.Writer) (quit bool) {
	parts := strings.Fields(cmd)
	switch parts[0] {
	case ":help", ":h":
		printHelp(out)

	case ":quit", ":q", ":exit":
		fmt.Fprintln(out, green("Goodbye!"))
		return true

	case ":macros":
		s.printMacros(out)

	case ":diff":
		s.printDiff(out)

	case ":limits":
		s.printLimits(out)

	case ":history":
		for i, h := range s.history {
			fmt.Fprintf(out, "%3d  %s\n", i+1, h)
		}

	case ":clear":
		fmt.Fprint(out, "\033[H\033[2J")

	default:
		fmt.Fprintf(out, "Unknown command: %s\n", cmd)
		fmt.Fprintln(out, "Type :help for help")
	}
	return false
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("Commands:"))
	fmt.Fprintln(out, "  :help                 Show this help")
	fmt.Fprintln(out, "  :quit, :q             Exit the shell")
	fmt.Fprintln(out, "  :macros               List registered macros by kind")
	fmt.Fprintln(out, "  :diff                 Show original vs. expanded AST for the last run")
	fmt.Fprintln(out, "  :limits               Show the active depth/per-site/global expansion bounds")
	fmt.Fprintln(out, "  :history              Show input history")
	fmt.Fprintln(out, "  :clear                Clear the screen")
	fmt.Fprintln(out)
	fmt.Fprintln(out, dim("Anything not starting with ':' is parsed as a snippet and expanded."))
}

// printMacros lists every registered macro, grouped by kind.
func (s *Shell) printMacros(out io.Writer) {
	defs := s.registry.All()
	if len(defs) == 0 {
		fmt.Fprintln(out, yellow("(no macros registered)"))
		return
	}
	byKind := map[registry.Kind][]string{}
	for _, def := range defs {
		common := registry.CommonOf(def)
		byKind[registry.KindOf(def)] = append(byKind[registry.KindOf(def)], common.Name)
	}
	for k := registry.KindExpression; k <= registry.KindTypeLevel; k++ {
		names, ok := byKind[k]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %s:\n", yellow(k.String()))
		for _, name := range names {
			fmt.Fprintf(out, "    • %s\n", name)
		}
	}
}

// printDiff shows the original and transformed AST from the last
// expansion side by side (spec.md §8 properties 11-12: idempotence and
// determinism are easiest to eyeball via golden AST diffing).
func (s *Shell) printDiff(out io.Writer) {
	if s.last == nil {
		fmt.Fprintln(out, yellow("(nothing expanded yet)"))
		return
	}
	fmt.Fprintln(out, bold("before:"))
	fmt.Fprintln(out, ast.Golden(s.last.Artifacts.OriginalAST))
	fmt.Fprintln(out, bold("after:"))
	fmt.Fprintln(out, ast.Golden(s.last.Artifacts.TransformedAST))
}

func (s *Shell) printLimits(out io.Writer) {
	depth, perSite, global := s.cfg.MaxDepth, s.cfg.MaxPerSiteExpansions, s.cfg.MaxGlobalExpansions
	fmt.Fprintf(out, "max-depth: %s\n", resolvedOrDefault(depth, 100))
	fmt.Fprintf(out, "max-per-site-expansions: %s\n", resolvedOrDefault(perSite, 16))
	fmt.Fprintf(out, "max-global-expansions: %s\n", resolvedOrDefault(global, 100_000))
}

func resolvedOrDefault(v, def int) string {
	if v <= 0 {
		return fmt.Sprintf("%d (default)", def)
	}
	return fmt.Sprintf("%d", v)
}

// printDiagnostic renders one diagnostic with a color-coded severity
// label: errors red, warnings yellow, any other severity dimmed.
func printDiagnostic(d diag.Diagnostic, out io.Writer) {
	var label string
	switch d.Severity {
	case diag.SevError:
		label = red(d.Severity.String())
	case diag.SevWarning:
		label = yellow(d.Severity.String())
	default:
		label = dim(d.Severity.String())
	}
	fmt.Fprintf(out, "%s[%s]: %s\n", label, d.Code, d.Message)
}
