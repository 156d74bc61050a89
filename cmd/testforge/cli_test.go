package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/testforge/internal/grading"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestTransformThenGrade(t *testing.T) {
	dir := t.TempDir()
	tree := `{"type":"container","content":[
		{"type":"text","text":"The capital is [Paris] and it has [2500000] people."},
		{"type":"single_blank","attrs":{"answers":["blue"]}}
	]}`
	out, err := run(t, tree, "transform")
	require.NoError(t, err)

	var res transformOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, "Paris", res.Key["1"])
	assert.Equal(t, "blue", res.Key["text-3"])

	keyPath := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte(out), 0o644))
	subPath := filepath.Join(dir, "sub.json")
	require.NoError(t, os.WriteFile(subPath, []byte(`{"1":"paris","2":"2500000","3":"blu"}`), 0o644))

	out, err = run(t, "", "grade", "--key", keyPath, "--submission", subPath)
	require.NoError(t, err)
	var rep grading.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2, rep.CorrectCount)
	assert.True(t, rep.PerQuestion[2].NearMiss)
}

func TestTransform_Malformed(t *testing.T) {
	_, err := run(t, `{"type":"text","content":[]}`, "transform")
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reading.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>Water boils at [100] degrees.</p>"), 0o644))

	out, err := run(t, "", "flatten", path)
	require.NoError(t, err)
	var res transformOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Markup)
	assert.Contains(t, *res.Markup, `data-question-number="1"`)
	assert.Equal(t, "100", res.Key["text-1"])
}

func TestGrade_RequiresFlags(t *testing.T) {
	_, err := run(t, "", "grade")
	assert.Error(t, err)
}
