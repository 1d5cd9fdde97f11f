package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "arcane"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// location is where a file sits inside contexts/<context>/<module>.
// Component is the package directly under the layer, e.g. "postgres" for
// adapters/postgres.
type location struct {
	ModulePrefix string
	Layer        string
	Component    string
}

// Inner layers list what they may import from the module; everything else
// outside the standard library is a violation.
var innerAllowlist = map[string][]string{
	"domain":      {"/domain"},
	"ports":       {"/domain", "contracts"},
	"application": {"/application", "/domain", "/ports", "contracts"},
	"transport":   {"/transport"},
}

// Adapters that drive use cases. Storage and client adapters implement
// ports and stay below the application layer.
var drivingAdapters = map[string]bool{
	"http": true,
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, relErr := filepath.Rel(filepath.Dir(root), path)
		if relErr != nil {
			return nil
		}
		normalized := filepath.ToSlash(rel)
		loc, ok := locate(normalized)
		if !ok {
			return nil
		}
		violations = append(violations, validateFile(path, normalized, loc)...)
		return nil
	})
	return violations
}

// locate maps contexts/<context>/<module>/<layer>/<component>/file.go. Files at
// the module root (module.go, doc.go) are the composition point and are
// skipped.
func locate(normalized string) (location, bool) {
	parts := strings.Split(normalized, "/")
	if len(parts) < 5 || parts[0] != "contexts" {
		return location{}, false
	}
	loc := location{
		ModulePrefix: fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2]),
		Layer:        parts[3],
	}
	if len(parts) > 5 {
		loc.Component = parts[4]
	}
	return loc, true
}

func validateFile(path string, normalized string, loc location) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		for _, rule := range checkImport(loc, importPath) {
			violations = append(violations, violation{
				File:   normalized,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations
}

// checkImport returns every rule importPath breaks when imported from loc.
func checkImport(loc location, importPath string) []string {
	if isStdlib(importPath) {
		return nil
	}
	var rules []string
	if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, loc.ModulePrefix) {
		rules = append(rules, "cross-module imports are forbidden")
	}

	if allowed, inner := innerAllowlist[loc.Layer]; inner {
		if !isAllowed(importPath, expand(loc.ModulePrefix, allowed)) {
			rules = append(rules, loc.Layer+" import is outside explicit allowlist")
		}
		return rules
	}

	if loc.Layer == "adapters" {
		rules = append(rules, checkAdapterImport(loc, importPath)...)
	}
	return rules
}

func checkAdapterImport(loc location, importPath string) []string {
	var rules []string
	adaptersPrefix := loc.ModulePrefix + "/adapters"
	if hasPrefix(importPath, adaptersPrefix) && !hasPrefix(importPath, adaptersPrefix+"/"+loc.Component) {
		rules = append(rules, "adapters must not import sibling adapters")
	}
	if !drivingAdapters[loc.Component] &&
		(hasPrefix(importPath, loc.ModulePrefix+"/application") || hasPrefix(importPath, loc.ModulePrefix+"/transport")) {
		rules = append(rules, "storage and client adapters must not import use cases or transport")
	}
	if hasPrefix(importPath, modulePath+"/cmd") ||
		hasPrefix(importPath, modulePath+"/internal/app") ||
		hasPrefix(importPath, modulePath+"/internal/platform/httpserver") {
		rules = append(rules, "adapters must not import process wiring")
	}
	return rules
}

// expand resolves "/x" entries against the module and bare entries against
// the repository module path.
func expand(modulePrefix string, entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry, "/") {
			out = append(out, modulePrefix+entry)
			continue
		}
		out = append(out, modulePath+"/"+entry)
	}
	return out
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
