package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInlineQueriesAreMarked(t *testing.T) {
	l := &linter{seen: map[string]string{}}
	if err := l.lintPath(filepath.Join("..", "..", "sqlinline")); err != nil {
		t.Fatalf("lint error: %v", err)
	}
	if len(l.violations) != 0 {
		t.Fatalf("violations = %v", l.violations)
	}
	if len(l.seen) == 0 {
		t.Fatal("no marked queries found")
	}
}

func TestReportsMissingAndDuplicateMarkers(t *testing.T) {
	src := "package q\n\n" +
		"const QOne = `--sql 338c285c-1f5d-4fa4-81e6-66887e204f8a\nselect 1;`\n" +
		"const QTwo = `--sql 338c285c-1f5d-4fa4-81e6-66887e204f8a\nselect 2;`\n" +
		"const QBare = `select 3;`\n" +
		"const Label = `not a query`\n"
	path := filepath.Join(t.TempDir(), "q.go")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	l := &linter{seen: map[string]string{}}
	if err := l.lintPath(path); err != nil {
		t.Fatalf("lint error: %v", err)
	}
	if len(l.violations) != 2 {
		t.Fatalf("violations = %v", l.violations)
	}
	if l.violations[0].name != "QTwo" || !strings.Contains(l.violations[0].message, "QOne") {
		t.Fatalf("duplicate = %v", l.violations[0])
	}
	if l.violations[1].name != "QBare" || l.violations[1].line != 7 {
		t.Fatalf("missing = %v", l.violations[1])
	}
}
