package schemavalidation

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"bitwatch/internal/analysis"
)

func TestAnalysisRecordFixture(t *testing.T) {
	root := repoRoot(t)
	validateInstance(t,
		filepath.Join(root, "docs", "schema", "analysis-record-v1.schema.json"),
		filepath.Join(root, "docs", "spec", "fixtures", "analysis-record-v1.json"),
	)
}

// TestLiveRecordsMatchSchema runs the analyzer on representative inputs and
// checks the serialized records against the published schema, so the schema
// cannot drift from the code.
func TestLiveRecordsMatchSchema(t *testing.T) {
	schema := compileSchema(t, filepath.Join(repoRoot(t), "docs", "schema", "analysis-record-v1.schema.json"))

	inputs := []string{
		"1100110011",
		"1010101010",
		"1111111",
		"000",
		"1",
		"1111011100001000111101110",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			rec, err := analysis.Default().Analyze(input)
			if err != nil {
				t.Fatalf("Analyze(%q) error: %v", input, err)
			}

			data, err := json.Marshal(rec)
			if err != nil {
				t.Fatalf("marshal record: %v", err)
			}

			var instance any
			if err := json.Unmarshal(data, &instance); err != nil {
				t.Fatalf("unmarshal record: %v", err)
			}

			if err := schema.Validate(instance); err != nil {
				t.Errorf("record for %q violates schema: %v", input, err)
			}
		})
	}
}

func validateInstance(t *testing.T, schemaPath, instancePath string) {
	t.Helper()

	instanceData, err := os.ReadFile(instancePath)
	if err != nil {
		t.Fatalf("read instance: %v", err)
	}

	var instance any
	if err := json.Unmarshal(instanceData, &instance); err != nil {
		t.Fatalf("unmarshal instance: %v", err)
	}

	if err := compileSchema(t, schemaPath).Validate(instance); err != nil {
		t.Fatalf("schema validation failed for %s: %v", filepath.Base(instancePath), err)
	}
}

func compileSchema(t *testing.T, schemaPath string) *jsonschema.Schema {
	t.Helper()

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaPath, bytes.NewReader(schemaData)); err != nil {
		t.Fatalf("add schema resource: %v", err)
	}
	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	return schema
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to resolve caller path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
