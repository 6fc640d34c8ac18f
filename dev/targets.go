//go:build targ

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/toejough/go-reorder"
	"github.com/toejough/targ"
	"github.com/toejough/targ/file"
	"github.com/toejough/targ/sh"
)

// Check runs all checks & fixes on the code, in order of correctness.
func Check() error {
	fmt.Println("Checking...")

	return targ.Deps(
		Tidy,          // clean up the module dependencies
		ReorderDecls,  // linter will yell about declaration order if not correct
		CheckCoverage, // does our code work?
		Lint,
	)
}

// CheckCoverage checks that function coverage meets the minimum threshold.
func CheckCoverage() error {
	fmt.Println("Checking coverage...")

	if err := targ.Deps(Test); err != nil {
		return err
	}

	out, err := output("go", "tool", "cover", "-func=coverage.out")
	if err != nil {
		return err
	}

	linesAndCoverage := []lineAndCoverage{}

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "total:") {
			continue
		}

		percentString := regexp.MustCompile(`\d+\.\d`).FindString(line)

		percent, err := strconv.ParseFloat(percentString, 64)
		if err != nil {
			return err
		}

		linesAndCoverage = append(linesAndCoverage, lineAndCoverage{line, percent})
	}

	if len(linesAndCoverage) == 0 {
		return errors.New("no coverage data")
	}

	slices.SortStableFunc(linesAndCoverage, func(a, b lineAndCoverage) int {
		switch {
		case a.coverage < b.coverage:
			return -1
		case a.coverage > b.coverage:
			return 1
		default:
			return 0
		}
	})

	for _, lc := range linesAndCoverage {
		fmt.Println(lc.line)
	}

	lowest := linesAndCoverage[0]
	if lowest.coverage < minimumCoverage {
		return fmt.Errorf("function coverage was less than the limit of %.1f:\n  %s", minimumCoverage, lowest.line)
	}

	return nil
}

// CheckForFail runs all checks on the code for determining whether any fail.
func CheckForFail() error {
	fmt.Println("Checking...")

	// Checks from fastest to slowest
	return targ.Deps(
		ReorderDeclsCheck,
		LintForFail,
		TestForFail,
		CheckCoverage,
	)
}

// Clean cleans up the dev env.
func Clean() {
	fmt.Println("Cleaning...")
	os.Remove("coverage.out")
}

// Lint lints the codebase and fixes what it can.
func Lint() error {
	fmt.Println("Linting...")
	return sh.Run("golangci-lint", "run", "--fix")
}

// LintForFail lints the codebase purely to find out whether anything fails.
func LintForFail() error {
	fmt.Println("Linting to check for overall pass/fail...")
	return sh.Run("golangci-lint", "run")
}

// Mutate runs the mutation tests.
func Mutate() error {
	fmt.Println("Running mutation tests...")

	if err := targ.Deps(TestForFail); err != nil {
		return err
	}

	return sh.Run(
		"go",
		"test",
		"-timeout=6000s",
		"-tags=mutation",
		"-ooze.v",
		".",
		"-run=TestMutation",
	)
}

// ReorderDecls rewrites Go files whose declarations are out of order.
func ReorderDecls() error {
	fmt.Println("Reordering declarations...")

	changed, _, err := forEachUnordered(func(path, _, reordered string) error {
		if err := os.WriteFile(path, []byte(reordered), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		fmt.Printf("  reordered %s\n", path)

		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Reordered %d file(s).\n", changed)

	return nil
}

// ReorderDeclsCheck prints a diff for every Go file whose declarations are
// out of order, and fails if there are any.
func ReorderDeclsCheck() error {
	fmt.Println("Checking declaration order...")

	unordered, total, err := forEachUnordered(func(path, current, reordered string) error {
		fmt.Printf("\n%s\n", textdiff.Unified(path+" (current)", path+" (reordered)", current, reordered))

		return nil
	})
	if err != nil {
		return err
	}

	if unordered > 0 {
		fmt.Printf("\n%d of %d file(s) need reordering; run 'targ reorder-decls'.\n", unordered, total)

		return fmt.Errorf("%d file(s) need reordering", unordered)
	}

	fmt.Printf("Declaration order ok (%d files).\n", total)

	return nil
}

// Test runs the unit tests with the race detector and records coverage.
func Test() error {
	fmt.Println("Running unit tests...")

	// Use -count=1 to disable caching so coverage is regenerated
	return sh.Run(
		"go",
		"test",
		"-timeout=2m",
		"-race",
		"-count=1",
		"-coverprofile=coverage.out",
		"-coverpkg=.,./internal/...,./match/...",
		"-cover",
		"./...",
	)
}

// TestForFail runs the unit tests purely to find out whether any fail.
func TestForFail() error {
	fmt.Println("Running unit tests for overall pass/fail...")

	return sh.Run(
		"go",
		"test",
		"-timeout=30s",
		"./...",
		"-failfast",
	)
}

// Tidy tidies up go.mod.
func Tidy() error {
	fmt.Println("Tidying go.mod...")
	return sh.Run("go", "mod", "tidy")
}

// Watch re-runs Check whenever Go sources or the module definition change.
func Watch(ctx context.Context) error {
	fmt.Println("Watching...")

	return file.Watch(ctx, watched, file.WatchOptions{}, func(changes file.ChangeSet) error {
		if !hasRelevantChanges(changes) {
			return nil
		}

		fmt.Println("Change detected...")

		targ.ResetDeps() // Clear execution cache so targets run again

		err := Check()
		if err != nil {
			fmt.Println("continuing to watch after check failure (see errors above)")
		} else {
			fmt.Println("continuing to watch after all checks passed!")
		}

		return nil // Don't stop watching on error
	})
}

const minimumCoverage = 80.0

//nolint:gochecknoglobals // fixed watch list
var watched = []string{"**/*.go", "go.mod"}

type lineAndCoverage struct {
	line     string
	coverage float64
}

func globs(dir string, ext []string) ([]string, error) {
	files := []string{}

	err := filepath.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("unable to find all glob matches: %w", err)
		}

		for _, each := range ext {
			if filepath.Ext(path) == each {
				files = append(files, path)

				return nil
			}
		}

		return nil
	})

	return files, err
}

// forEachUnordered calls visit for every source file that go-reorder would
// change, and returns how many it visited out of how many it scanned.
// Files go-reorder cannot parse are reported and skipped.
func forEachUnordered(visit func(path, current, reordered string) error) (int, int, error) {
	files, err := sourceFiles()
	if err != nil {
		return 0, 0, err
	}

	unordered := 0

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return unordered, len(files), fmt.Errorf("reading %s: %w", path, err)
		}

		current := string(content)

		reordered, err := reorder.Source(current)
		if err != nil {
			fmt.Printf("  skipping %s: %v\n", path, err)

			continue
		}

		if reordered == current {
			continue
		}

		unordered++

		if err := visit(path, current, reordered); err != nil {
			return unordered, len(files), err
		}
	}

	return unordered, len(files), nil
}

// hasRelevantChanges ignores edits under the reference pack and the go.sum
// churn that Tidy causes during Check.
func hasRelevantChanges(changes file.ChangeSet) bool {
	changed := slices.Concat(changes.Added, changes.Removed, changes.Modified)

	return slices.ContainsFunc(changed, func(f string) bool {
		return !strings.HasPrefix(f, "_") && filepath.Base(f) != "go.sum"
	})
}

// output runs a command and captures stdout only (stderr goes to os.Stderr).
func output(command string, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := exec.Command(command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = buf
	cmd.Stderr = os.Stderr
	err := cmd.Run()

	return strings.TrimSuffix(buf.String(), "\n"), err
}

// sourceFiles lists the module's Go files, skipping the reference pack,
// vendor and hidden directories.
func sourceFiles() ([]string, error) {
	files, err := globs(".", []string{".go"})
	if err != nil {
		return nil, fmt.Errorf("failed to find Go files: %w", err)
	}

	return slices.DeleteFunc(files, func(f string) bool {
		return strings.HasPrefix(f, "_") ||
			strings.HasPrefix(f, "vendor/") ||
			strings.Contains(f, "/.")
	}), nil
}
