package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is the default fixture directory, relative to the test's package.
const GoldenDir = "testdata/golden"

// RunWithGolden executes a scenario and compares the graph listing against
// a golden file stored in {goldenDir}/{scenario.Name}.golden. An empty
// goldenDir means GoldenDir.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the listing doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, goldenDir string) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, goldenDir, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's graph listing against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, goldenDir, name string, result *Result) {
	t.Helper()

	if goldenDir == "" {
		goldenDir = GoldenDir
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Graph.String()))
}
