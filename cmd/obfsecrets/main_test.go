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

	"github.com/saylorsolutions/obfsecrets/cmd/internal"
	"github.com/saylorsolutions/obfsecrets/internal/config"
	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

const testSecrets = `{
	// Comments are allowed
	"api_key": "abc",
	"db_pass": "xyz12",
}`

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) cmdResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return cmdResult{
		stdout: stdout.String(),
		stderr: stderr.String(),
		err:    err,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestGenerate_Stdout(t *testing.T) {
	res := execute(t, testSecrets, "generate", "-", "-k", "pw", "-p", "config")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "package config")
	assert.Contains(t, res.stdout, "sDataApiKey sData = 0xBA34EF129CBE589D")
	assert.Contains(t, res.stdout, "sDataDbPass sData = 0xBA34EF199CBE589E")
	assert.Empty(t, res.stderr)
}

func TestGenerate_FileAndReveal(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "secrets.json", testSecrets)
	output := filepath.Join(dir, "app-secrets.go")
	bundle := filepath.Join(dir, "secrets.bin")

	res := execute(t, "", "generate", input, output, "-E", "-p", "secrets", "-b", bundle, "--hash", "blake3", "-v")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "app-secrets.go successfully generated.")
	assert.Contains(t, res.stderr, "No key given, using a random passphrase")

	src, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(src), "type App_secrets uint64")
	assert.Contains(t, string(src), "package secrets")

	res = execute(t, "", "reveal", bundle, "db_pass", "api_key")
	require.NoError(t, res.err)
	assert.Equal(t, "xyz12\nabc\n", res.stdout)

	res = execute(t, "", "reveal", bundle)
	require.NoError(t, res.err)
	var revealed map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &revealed))
	assert.Equal(t, map[string]string{"api_key": "abc", "db_pass": "xyz12"}, revealed)

	res = execute(t, "", "reveal", "--check", bundle)
	require.NoError(t, res.err)
	assert.Equal(t, "2 secrets verified\n", res.stdout)

	res = execute(t, "", "reveal", bundle, "missing")
	assert.Equal(t, internal.ExitInvalidArguments, internal.ExitCode(res.err))
}

func TestGenerate_SealedBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "secrets.bin")

	res := execute(t, testSecrets, "generate", "-", "-k", "pw", "-p", "x", "-b", bundle, "--seal-key", "seal pass", "--seal-cost", "4")
	require.NoError(t, res.err)
	data, err := os.ReadFile(bundle)
	require.NoError(t, err)
	assert.True(t, obfs.IsSealed(data))

	res = execute(t, "", "reveal", bundle, "api_key")
	assert.Equal(t, internal.ExitInvalidArguments, internal.ExitCode(res.err))

	res = execute(t, "", "reveal", bundle, "api_key", "--seal-key", "wrong")
	assert.Equal(t, internal.ExitSpecMalformed, internal.ExitCode(res.err))

	res = execute(t, "", "reveal", bundle, "api_key", "--seal-key", "seal pass")
	require.NoError(t, res.err)
	assert.Equal(t, "abc\n", res.stdout)

	t.Setenv(config.SealKeyEnv, "seal pass")
	res = execute(t, "", "reveal", "--check", bundle)
	require.NoError(t, res.err)
	assert.Equal(t, "2 secrets verified\n", res.stdout)

	res = execute(t, testSecrets, "generate", "-", "-k", "pw", "-p", "x", "-b", bundle, "--seal-key", "")
	assert.Equal(t, internal.ExitInvalidArguments, internal.ExitCode(res.err))
}

func TestGenerate_Config(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "obfsecrets.toml", `
lang = "swift"
key = "pw"
exposed = true
`)

	res := execute(t, testSecrets, "generate", "-", "--config", cfg)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "public enum SData: UInt64, CaseIterable {")

	first := res.stdout
	res = execute(t, testSecrets, "generate", "-", "--config", cfg)
	require.NoError(t, res.err)
	assert.Equal(t, first, res.stdout, "A key from config should make output reproducible")

	res = execute(t, testSecrets, "generate", "-", "--config", cfg, "--lang", "go", "-p", "config", "--exposed=false")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "type sData uint64")
}

func TestGenerate_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.json", testSecrets)
	malformed := writeFile(t, dir, "malformed.json", `{"a": {"b": "c"}}`)
	empty := writeFile(t, dir, "empty.json", `{"a": ""}`)
	badBundle := writeFile(t, dir, "bad.bin", "not a bundle")
	badConfig := writeFile(t, dir, "bad.toml", `unknown = true`)

	tests := map[string]struct {
		args     []string
		expected int
	}{
		"No arguments":       {args: []string{"generate"}, expected: internal.ExitInvalidArguments},
		"Too many arguments": {args: []string{"generate", "a", "b", "c"}, expected: internal.ExitInvalidArguments},
		"Unknown flag":       {args: []string{"generate", "--nope", valid}, expected: internal.ExitInvalidArguments},
		"Unknown language":   {args: []string{"generate", "-l", "rust", "-k", "pw", valid}, expected: internal.ExitInvalidArguments},
		"Unknown hash":       {args: []string{"generate", "--hash", "md5", "-k", "pw", valid}, expected: internal.ExitInvalidArguments},
		"Bad config":         {args: []string{"generate", "--config", badConfig, valid}, expected: internal.ExitInvalidArguments},
		"Missing input":      {args: []string{"generate", "-k", "pw", filepath.Join(dir, "missing.json")}, expected: internal.ExitInputUnreadable},
		"Malformed input":    {args: []string{"generate", "-k", "pw", malformed}, expected: internal.ExitSpecMalformed},
		"Unwritable output":  {args: []string{"generate", "-k", "pw", "-p", "x", valid, filepath.Join(dir, "missing", "out.go")}, expected: internal.ExitOutputUnwritable},
		"Unwritable bundle":  {args: []string{"generate", "-k", "pw", "-p", "x", "-b", filepath.Join(dir, "missing", "out.bin"), valid}, expected: internal.ExitOutputUnwritable},
		"Empty secret set":   {args: []string{"generate", "-k", "pw", empty}, expected: internal.ExitEmptySecretSet},
		"Missing bundle":     {args: []string{"reveal", filepath.Join(dir, "missing.bin")}, expected: internal.ExitInputUnreadable},
		"Bad bundle":         {args: []string{"reveal", badBundle}, expected: internal.ExitSpecMalformed},
		"Reveal no bundle":   {args: []string{"reveal"}, expected: internal.ExitInvalidArguments},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			res := execute(t, "", tc.args...)
			require.Error(t, res.err)
			assert.Equal(t, tc.expected, internal.ExitCode(res.err), res.err.Error())
		})
	}
}

func TestGenerate_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "secrets.json", testSecrets)
	source := filepath.Join(dir, "secrets.go")
	bundle := filepath.Join(dir, "secrets.bin")

	res := execute(t, "", "generate", "-k", "pw", "-p", "x", "-b", bundle, input, filepath.Join(dir, "missing", "out.go"))
	assert.Equal(t, internal.ExitOutputUnwritable, internal.ExitCode(res.err))
	assert.NoFileExists(t, bundle, "The bundle must not be written when the source can't be")

	res = execute(t, "", "generate", "-k", "pw", "-p", "x", "-b", filepath.Join(dir, "missing", "out.bin"), input, source)
	assert.Equal(t, internal.ExitOutputUnwritable, internal.ExitCode(res.err))
	assert.NoFileExists(t, source, "The source must be removed when the bundle can't be written")

	res = execute(t, "", "generate", "-k", "pw", "-p", "x", "-b", bundle, "--seal-key", "", input, source)
	assert.Equal(t, internal.ExitInvalidArguments, internal.ExitCode(res.err))
	assert.NoFileExists(t, source)
	assert.NoFileExists(t, bundle)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "Only the input should remain")
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "obfsecrets dev\n", res.stdout)
}
