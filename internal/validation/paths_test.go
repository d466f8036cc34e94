package validation

import (
	"path/filepath"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"simple", "report.pdf", false},
		{"with dash and underscore", "q3_budget-final.xlsx", false},
		{"version dots", "release.v1.2.3.txt", false},
		{"interior double dot", "results..v2.csv", false},
		{"hidden file", ".drivemanrc", false},
		{"spaces", "meeting notes.txt", false},
		{"empty", "", true},
		{"literal dot dot", "..", true},
		{"unix separator", "reports/summary.pdf", true},
		{"windows separator", `reports\summary.pdf`, true},
		{"traversal", "../etc/passwd", true},
		{"absolute", "/etc/passwd", true},
		{"null byte", "report\x00.pdf", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFilename(tc.filename)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateFilename(%q) = nil, want error", tc.filename)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateFilename(%q) = %v, want nil", tc.filename, err)
			}
		})
	}
}

func TestValidatePathInDirectory(t *testing.T) {
	base := filepath.FromSlash("/home/user/Downloads/driveman")

	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in base", "summary.pdf", false},
		{"subdirectory", filepath.FromSlash("reports/summary.pdf"), false},
		{"deep nesting", filepath.FromSlash("projects/2026/q3/budget.xlsx"), false},
		{"down then back up", filepath.FromSlash("reports/../summary.pdf"), false},
		{"absolute inside base", filepath.Join(base, "summary.pdf"), false},
		{"one level escape", filepath.FromSlash("../summary.pdf"), true},
		{"multi level escape", filepath.FromSlash("../../../etc/passwd"), true},
		{"descend then escape", filepath.FromSlash("reports/../../../.ssh/id_rsa"), true},
		{"absolute outside base", filepath.FromSlash("/etc/passwd"), true},
		{"empty path", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePathInDirectory(tc.path, base)
			if tc.wantErr && err == nil {
				t.Errorf("ValidatePathInDirectory(%q, %q) = nil, want error", tc.path, base)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidatePathInDirectory(%q, %q) = %v, want nil", tc.path, base, err)
			}
		})
	}
}

func TestValidatePathInDirectoryEmptyBase(t *testing.T) {
	if err := ValidatePathInDirectory("summary.pdf", ""); err == nil {
		t.Error("empty base directory should be rejected")
	}
}

func TestValidatePathInDirectoryRelativeBase(t *testing.T) {
	// A relative base resolves against the working directory before the
	// containment check, so plain names still validate.
	if err := ValidatePathInDirectory("summary.pdf", "downloads"); err != nil {
		t.Errorf("relative base should be resolved, got error: %v", err)
	}
	if err := ValidatePathInDirectory(filepath.FromSlash("../summary.pdf"), "downloads"); err == nil {
		t.Error("escape from a relative base should be rejected")
	}
}
