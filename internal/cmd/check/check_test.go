package check

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/brack/internal/config"
)

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.[]", "Hello, [std.* World!]")
	bad := writeDoc(t, dir, "bad.[]", "line one\n[std.* a, , b]")

	tests := []struct {
		name     string
		files    []string
		output   string
		wantErr  string
		contains []string
	}{
		{
			name:     "clean file",
			files:    []string{good},
			contains: []string{"No problems found in 1 file(s)"},
		},
		{
			name:     "plain diagnostics",
			files:    []string{good, bad},
			output:   "plain",
			wantErr:  "found 1 problem(s) in 2 file(s)",
			contains: []string{bad + ":2:11: UnexpectedComma"},
		},
		{
			name:     "table snippet",
			files:    []string{bad},
			output:   "table",
			wantErr:  "found 1 problem(s)",
			contains: []string{"   1 | line one", "   2 | [std.* a, , b]", "^"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := &checkOptions{files: tt.files, output: tt.output, noColor: true, out: &buf}
			err := runCheck(opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRunCheck_JSON(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.[]", "]")
	b := writeDoc(t, dir, "b.[]", "<std.* x")

	var buf bytes.Buffer
	opts := &checkOptions{files: []string{a, b}, output: "json", noColor: true, out: &buf}
	require.Error(t, runCheck(opts))

	var diags []struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &diags))
	require.Len(t, diags, 2)
	assert.Equal(t, a, diags[0].Path)
	assert.Equal(t, "SquareNotOpened", diags[0].Kind)
	assert.Equal(t, b, diags[1].Path)
	assert.Equal(t, "AngleNotClosed", diags[1].Kind)
}

func TestRunCheck_Project(t *testing.T) {
	t.Setenv("BRACK_SOURCE_DIR", "")
	t.Setenv("BRACK_OUTPUT_DIR", "")
	dir := t.TempDir()
	require.NoError(t, (&config.Config{Name: "site"}).Save(filepath.Join(dir, config.FileName)))
	writeDoc(t, dir, "index.[]", "{std.* Title}")

	var buf bytes.Buffer
	opts := &checkOptions{configPath: filepath.Join(dir, config.FileName), noColor: true, out: &buf}
	require.NoError(t, runCheck(opts))
	assert.Contains(t, buf.String(), "No problems found in 1 file(s)")
}

func TestRunCheck_Errors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeDoc(t, dir, "latin1.[]", "caf\xe9")

	tests := []struct {
		name    string
		opts    checkOptions
		wantErr string
	}{
		{"invalid output", checkOptions{files: []string{invalid}, output: "xml"}, "invalid output format"},
		{"missing file", checkOptions{files: []string{filepath.Join(dir, "missing.[]")}}, "failed to read source file"},
		{"invalid utf-8", checkOptions{files: []string{invalid}}, "not valid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.noColor = true
			opts.out = &bytes.Buffer{}
			err := runCheck(&opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
