// Package mathrandom flags random number generation that bypasses explicit
// seeding. Bootstrap results must be bit-identical for a given seed, so every
// random draw has to come from a *rand.Rand built by pkg/seedrand.
package mathrandom

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/causalest/causalest/pkg/logging"
)

const (
	randV1 = "math/rand"
	randV2 = "math/rand/v2"
)

// seededAPI lists the math/rand/v2 identifiers that do not touch the global
// source: constructors and types.
var seededAPI = map[string]bool{
	"New":        true,
	"NewPCG":     true,
	"NewChaCha8": true,
	"NewZipf":    true,
	"Rand":       true,
	"Source":     true,
	"PCG":        true,
	"ChaCha8":    true,
	"Zipf":       true,
}

// Issue represents a detected use of unseeded randomness.
type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", i.File, i.Line, i.Column, i.Message)
}

// ExemptFile contains information about a file exempt from the checks.
type ExemptFile struct {
	Path       string `json:"path"`
	Reason     string `json:"reason"`
	ExpiryDate string `json:"expiry_date,omitempty"` // Optional: YYYY-MM-DD
}

// Expired reports whether the exemption has passed its expiry date.
func (e ExemptFile) Expired(now time.Time) (bool, error) {
	if e.ExpiryDate == "" {
		return false, nil
	}
	expiry, err := time.Parse(time.DateOnly, e.ExpiryDate)
	if err != nil {
		return false, fmt.Errorf("invalid expiry date %q for %s: %w", e.ExpiryDate, e.Path, err)
	}
	return now.After(expiry), nil
}

// Config contains configuration for the linter.
type Config struct {
	// ExemptFiles is a list of files exempt from the checks.
	ExemptFiles []ExemptFile `json:"exempt_files"`

	// ExemptDirectories is a list of directories, relative to the root, that
	// are not scanned.
	ExemptDirectories []string `json:"exempt_directories"`

	// LogExemptions determines whether to log when an exemption is used.
	LogExemptions bool `json:"log_exemptions"`

	// StrictMode lints files whose exemption has expired.
	StrictMode bool `json:"strict_mode"`
}

// NewDefaultConfig creates a default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		ExemptFiles:       []ExemptFile{},
		ExemptDirectories: []string{},
		LogExemptions:     false,
		StrictMode:        true,
	}
}

// LintProject checks all Go files under rootDir. Like the go tool, it skips
// directories whose names start with "." or "_" and testdata directories.
func LintProject(rootDir string, config *Config) ([]Issue, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	logger := logging.GetLogger().With("component", "mathrandom-linter")
	now := time.Now()

	var issues []Issue
	err := filepath.WalkDir(rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			name := entry.Name()
			if path != rootDir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			for _, exemptDir := range config.ExemptDirectories {
				if path == filepath.Join(rootDir, exemptDir) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		exempt, err := isExempt(path, config, now, logger)
		if err != nil {
			return err
		}
		if exempt {
			return nil
		}

		fileIssues, err := LintFile(path)
		if err != nil {
			return fmt.Errorf("error linting file %s: %w", path, err)
		}
		issues = append(issues, fileIssues...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}
	return issues, nil
}

func isExempt(path string, config *Config, now time.Time, logger logging.Logger) (bool, error) {
	for _, exemptFile := range config.ExemptFiles {
		if !strings.HasSuffix(path, exemptFile.Path) {
			continue
		}
		expired, err := exemptFile.Expired(now)
		if err != nil {
			return false, err
		}
		if expired && config.StrictMode {
			logger.Warn("exemption expired", "file", path, "expiry", exemptFile.ExpiryDate)
			return false, nil
		}
		if config.LogExemptions {
			logger.Info("skipping exempt file", "file", path, "reason", exemptFile.Reason)
		}
		return true, nil
	}
	return false, nil
}

// LintFile checks a single Go file.
func LintFile(filePath string) ([]Issue, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("error parsing file: %w", err)
	}
	return lintAST(fset, filePath, node), nil
}

// LintSource checks Go source held in memory.
func LintSource(filename string, src []byte) ([]Issue, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("error parsing file: %w", err)
	}
	return lintAST(fset, filename, node), nil
}

func lintAST(fset *token.FileSet, filePath string, node *ast.File) []Issue {
	var issues []Issue
	report := func(pos token.Pos, msg string) {
		p := fset.Position(pos)
		issues = append(issues, Issue{File: filePath, Line: p.Line, Column: p.Column, Message: msg})
	}

	// Local names bound to math/rand/v2.
	v2Names := map[string]bool{}
	for _, imp := range node.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if importPath != randV1 && importPath != randV2 {
			continue
		}

		if imp.Name != nil && imp.Name.Name == "." {
			report(imp.Pos(), fmt.Sprintf("Dot import of %s is prohibited as it hides calls to the global source.", importPath))
			continue
		}
		if importPath == randV1 {
			report(imp.Pos(), "math/rand is prohibited. Use math/rand/v2 with a source from pkg/seedrand.")
			continue
		}

		name := "rand"
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name != "_" {
			v2Names[name] = true
		}
	}
	if len(v2Names) == 0 {
		return issues
	}

	// Locally declared identifiers shadow the import; track them per file
	// since object resolution is disabled.
	shadowed := map[string]bool{}
	ast.Inspect(node, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.AssignStmt:
			if x.Tok == token.DEFINE {
				for _, lhs := range x.Lhs {
					if id, ok := lhs.(*ast.Ident); ok && v2Names[id.Name] {
						shadowed[id.Name] = true
					}
				}
			}
		case *ast.Field:
			for _, id := range x.Names {
				if v2Names[id.Name] {
					shadowed[id.Name] = true
				}
			}
		case *ast.ValueSpec:
			for _, id := range x.Names {
				if v2Names[id.Name] {
					shadowed[id.Name] = true
				}
			}
		}
		return true
	})

	ast.Inspect(node, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok || !v2Names[pkg.Name] || shadowed[pkg.Name] {
			return true
		}
		if !seededAPI[sel.Sel.Name] {
			report(sel.Pos(), fmt.Sprintf("%s.%s draws from the unseeded global source. Use a *rand.Rand from pkg/seedrand.", pkg.Name, sel.Sel.Name))
		}
		return true
	})
	return issues
}
