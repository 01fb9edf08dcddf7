package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{name: "default", want: 1},
		{name: "explicit", args: []string{" 3 "}, want: 3},
		{name: "zero", args: []string{"0"}, wantErr: true},
		{name: "not a number", args: []string{"two"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSteps(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got steps=%d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected steps: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestParseVersionRejectsNegative(t *testing.T) {
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	got, err := parseVersion("1771776034")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1771776034 {
		t.Fatalf("unexpected version: %d", got)
	}
}

func TestResolveMigrationsDir_PrefersFlag(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIGRATIONS_DIR", filepath.Join(dir, "missing"))

	got, err := resolveMigrationsDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Fatalf("unexpected dir: got=%s want=%s", got, dir)
	}
}

func TestResolveMigrationsDir_SkipsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("MIGRATIONS_DIR", file)
	t.Setenv("MIGRATIONS_PATH", "")
	t.Chdir(t.TempDir())

	if _, err := resolveMigrationsDir(""); err == nil {
		t.Fatalf("expected error when no directory candidate exists")
	}
}
