package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

const deprotonation = "[CH3:1][CH2:2][OH:3]>>[CH3:1][CH2:2][O-:3]"

// runCLI executes the root command with args and returns captured stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "synscope", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.Contains(t, cmd.Version, Version)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"extract", "classify", "convert", "compounds", "fragment", "migrate"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	pf := cmd.PersistentFlags()

	for _, name := range []string{"config", "log-level", "output", "verbose", "timeout"} {
		assert.NotNil(t, pf.Lookup(name), "flag %q", name)
	}
	assert.Equal(t, "c", pf.Lookup("config").Shorthand)
	assert.Equal(t, "o", pf.Lookup("output").Shorthand)
	assert.Equal(t, OutputText, pf.Lookup("output").DefValue)
	assert.Equal(t, "warn", pf.Lookup("log-level").DefValue)
	assert.Equal(t, "30s", pf.Lookup("timeout").DefValue)
}

func TestRoot_UnknownOutputFormat(t *testing.T) {
	_, err := runCLI(t, "-o", "xml", "convert", "-s", "CO")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestRoot_UnknownSubcommand(t *testing.T) {
	_, err := runCLI(t, "frobnicate")
	assert.Error(t, err)
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "-c", "/nonexistent/synscope.yaml", "convert", "-s", "CO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestGetCLIContext_WithoutPreRun(t *testing.T) {
	_, err := GetCLIContext(&cobra.Command{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(err))
}

// ── output helpers ─────────────────────────────────────────────────────────

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestPrintResult_Formats(t *testing.T) {
	for _, format := range []string{OutputJSON, OutputYAML} {
		t.Run(format, func(t *testing.T) {
			out, err := runCLI(t, "-o", format, "convert", "-s", "OC")
			require.NoError(t, err)

			var got ConvertResult
			if format == OutputJSON {
				require.NoError(t, json.Unmarshal([]byte(out), &got))
			} else {
				var m map[string]interface{}
				require.NoError(t, yaml.Unmarshal([]byte(out), &m))
				got.SMILES, _ = m["smiles"].(string)
				got.Input, _ = m["input"].(string)
			}
			assert.Equal(t, "OC", got.Input)
			assert.Equal(t, "CO", got.SMILES)
		})
	}
}

func TestPrintText_Fallbacks(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, printText(cmd, "plain"))
	require.NoError(t, printText(cmd, sample{Name: "x", Count: 2}))
	assert.Equal(t, "plain\n{Name:x Count:2}\n", buf.String())
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetErr(&buf)

	PrintError(cmd, nil)
	assert.Empty(t, buf.String())

	PrintError(cmd, errors.InvalidParam("bad"))
	assert.True(t, strings.HasPrefix(buf.String(), "Error: "))
}

func TestFormatTable(t *testing.T) {
	got := FormatTable([]string{"A", "LONG"}, [][]string{{"xyz", "1"}, {"q"}})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A    LONG", lines[0])
	assert.Equal(t, "---  ----", lines[1])
	assert.Equal(t, "xyz  1   ", lines[2])
	assert.Equal(t, "q        ", lines[3])

	assert.Empty(t, FormatTable(nil, nil))
}

func TestSplitList(t *testing.T) {
	cmd := &cobra.Command{}
	var v string
	cmd.Flags().StringVar(&v, "props", "", "")

	assert.Nil(t, splitList(cmd, "props", v))

	require.NoError(t, cmd.Flags().Set("props", ""))
	assert.Equal(t, []string{}, splitList(cmd, "props", v))

	require.NoError(t, cmd.Flags().Set("props", " a, ,b "))
	assert.Equal(t, []string{"a", "b"}, splitList(cmd, "props", v))
}

//Personal.AI order the ending
