package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zinc-sig/kaas/internal/output"
)

const postsFeature = `@api
Feature: posts

Scenario: missing post
  Given path '/posts/999'
  When method GET
  Then status 404
`

const passingConsole = `scenarios: 1 | passed: 1 | failed: 0
features: 1 | skipped: 0
elapsed: 812.5
Given path '/posts/999'
When method GET
Then status 404
✓ passed`

const failingConsole = `scenarios: 1 | passed: 0 | failed: 1
features: 1 | skipped: 0
elapsed: 640
Given path '/posts/999'
When method GET
Then status 404
× failed
match failed: expected 404 got 200`

// resetFlags puts every flag of the command tree back to its default so
// values do not leak between Execute calls.
func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}

	reset(rootCmd.PersistentFlags())
	for _, c := range []*cobra.Command{serveCmd, runCmd, parseCmd, versionsCmd} {
		reset(c.Flags())
	}
}

// executeCommand runs the root command with args and captures its output
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeJava writes an executable shell script standing in for java
func fakeJava(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "java")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// printing returns a script body that prints text and exits with code
func printing(text string, code int) string {
	return "cat <<'EOF'\n" + text + "\nEOF\nexit " + strconv.Itoa(code)
}

func writeFeature(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// decodeResponses reads the JSON lines printed by run and parse
func decodeResponses(t *testing.T, stdout string) []output.ExecutionResponse {
	t.Helper()
	var responses []output.ExecutionResponse
	dec := json.NewDecoder(strings.NewReader(stdout))
	for {
		var resp output.ExecutionResponse
		err := dec.Decode(&resp)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("failed to decode output %q: %v", stdout, err)
		}
		responses = append(responses, resp)
	}
	return responses
}
