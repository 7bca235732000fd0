package diag

import (
	"testing"

	"github.com/typesugar/typesugar/internal/ast"
)

func TestSeverityFor_FixedByCode(t *testing.T) {
	tests := []struct {
		code string
		want Severity
	}{
		{HygScopeImbalance, SevError},
		{RefUnresolvedSymbol, SevWarning},
		{RefAliasConflict, SevInfo},
		{ResOptedOut, SevInfo},
		{RegDuplicateDefinition, SevWarning},
		{CmpTimeout, SevError},
		{CacheEvicted, SevInfo},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.code); got != tt.want {
			t.Errorf("SeverityFor(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestSeverityFor_UnknownCodeDefaultsToError(t *testing.T) {
	if got := SeverityFor("NOPE999"); got != SevError {
		t.Errorf("unregistered code should default to SevError, got %v", got)
	}
}

func TestDiagnostic_SeverityCannotBeOverridden(t *testing.T) {
	// Report construction always pins severity to the code's fixed value,
	// regardless of what a careless caller might expect to set.
	d := New(CacheEvicted, ast.Span{}, "evicted entry abc123")
	if d.Severity != SevInfo {
		t.Errorf("expected CACHE001 to be SevInfo, got %v", d.Severity)
	}
}
