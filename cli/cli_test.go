package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/custommodel/source"
)

const testVocabulary = `
categories:
  road_class: {type: enum, values: [MOTORWAY, PRIMARY]}
  max_speed: {type: numeric}
  get_off_bike: {type: boolean}
areas: [city]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the command line in-process and returns what it printed.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var cmds Commands
	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&cmds,
		kong.Writers(&stdout, &stderr),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
		kong.Bind(&cmds.Globals),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = ctx.Run()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var cmdErr *CommandError
	ok := errors.As(err, &cmdErr)
	assert.True(t, ok, "expected a CommandError, got %v", err)
	return cmdErr.ExitCode()
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	vocab := writeFile(t, dir, "vocabulary.yaml", testVocabulary)

	t.Run("valid document", func(t *testing.T) {
		doc := writeFile(t, dir, "valid.yaml", "speed:\n  - if: road_class == MOTORWAY\n    limit_to: 100\n")
		stdout, stderr, err := run(t, "check", "-V", vocab, doc)
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Check passed (1 condition(s))")
		assert.Equal(t, "", stderr)
	})

	t.Run("invalid condition", func(t *testing.T) {
		doc := writeFile(t, dir, "invalid.yaml", "speed:\n  - if: road_class == MOTORWY\n    limit_to: 100\n")
		stdout, stderr, err := run(t, "check", "-V", vocab, doc)
		assert.Equal(t, 1, exitCode(t, err))
		assert.Equal(t, "", stdout)
		assert.Contains(t, stderr, "invalid.yaml:2:23: speed[0][if]: invalid road_class: 'MOTORWY'")
		assert.Contains(t, stderr, "expected: MOTORWAY, PRIMARY")
		assert.Contains(t, stderr, "1 error(s) found")
	})

	t.Run("json output", func(t *testing.T) {
		doc := writeFile(t, dir, "json.yaml", "speed:\n  - if: road_class == MOTORWY\n    limit_to: 100\n")
		stdout, _, err := run(t, "check", "-V", vocab, "--format", "json", doc)
		assert.Equal(t, 1, exitCode(t, err))

		var diagnostics []struct {
			Message     string   `json:"message"`
			Path        string   `json:"path"`
			Range       [2]int   `json:"range"`
			Completions []string `json:"completions"`
		}
		assert.NoError(t, json.Unmarshal([]byte(stdout), &diagnostics))
		assert.Equal(t, 1, len(diagnostics))
		assert.Equal(t, "speed[0][if]", diagnostics[0].Path)
		assert.Equal(t, "invalid road_class: 'MOTORWY'", diagnostics[0].Message)
		assert.Equal(t, [2]int{29, 36}, diagnostics[0].Range)
		assert.Equal(t, []string{"MOTORWAY", "PRIMARY"}, diagnostics[0].Completions)
	})

	t.Run("broken vocabulary", func(t *testing.T) {
		broken := writeFile(t, dir, "broken.yaml", "categories: {}\n")
		doc := writeFile(t, dir, "doc.yaml", "speed: []\n")
		_, stderr, err := run(t, "check", "-V", broken, doc)
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, stderr, "no categories given")
	})
}

func TestParseCmd(t *testing.T) {
	dir := t.TempDir()
	vocab := writeFile(t, dir, "vocabulary.yaml", testVocabulary)

	t.Run("valid", func(t *testing.T) {
		stdout, _, err := run(t, "parse", "-V", vocab, "road_class == PRIMARY && max_speed < 50")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "valid")
	})

	t.Run("did you mean", func(t *testing.T) {
		_, stderr, err := run(t, "parse", "-V", vocab, "road_class == MOTORWY")
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, stderr, "invalid road_class: 'MOTORWY'")
		assert.Contains(t, stderr, "did you mean MOTORWAY?")
	})

	t.Run("extra areas", func(t *testing.T) {
		_, _, err := run(t, "parse", "-V", vocab, "in_park")
		assert.Equal(t, 1, exitCode(t, err))

		_, _, err = run(t, "parse", "-V", vocab, "--areas", "park,forest", "in_park || in_city")
		assert.NoError(t, err)
	})

	t.Run("debug dumps the error", func(t *testing.T) {
		stdout, _, err := run(t, "parse", "-V", vocab, "--debug", "max_speed <")
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, stdout, "SyntaxError")
	})
}

func TestCompleteCmd(t *testing.T) {
	dir := t.TempDir()
	vocab := writeFile(t, dir, "vocabulary.yaml", testVocabulary)

	t.Run("values at the end", func(t *testing.T) {
		stdout, _, err := run(t, "complete", "-V", vocab, "road_class == ")
		assert.NoError(t, err)
		assert.Equal(t, "MOTORWAY\nPRIMARY\n", stdout)
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := run(t, "complete", "-V", vocab, "--format", "json", "--pos", "4", "road")
		assert.NoError(t, err)
		assert.Equal(t, `{"suggestions":["road_class"],"range":[0,4]}`+"\n", stdout)
	})

	t.Run("number hint", func(t *testing.T) {
		stdout, _, err := run(t, "complete", "-V", vocab, "max_speed < ")
		assert.NoError(t, err)
		assert.Equal(t, "<type a number>\n", stdout)
	})

	t.Run("custom placeholder", func(t *testing.T) {
		stdout, _, err := run(t, "complete", "-V", vocab, "--placeholder", "_", "road_class == ")
		assert.NoError(t, err)
		assert.Equal(t, "MOTORWAY\nPRIMARY\n", stdout)
	})

	t.Run("placeholder must be one character", func(t *testing.T) {
		_, _, err := run(t, "complete", "-V", vocab, "--placeholder", "__", "road_class")
		assert.EqualError(t, err, `placeholder must be a single character, got "__"`)
	})

	t.Run("position out of range", func(t *testing.T) {
		_, _, err := run(t, "complete", "-V", vocab, "--pos", "9", "road")
		assert.EqualError(t, err, "position 9 is past the end of the expression (4 bytes)")
	})
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		r          source.Span
		suggestion string
		want       string
	}{
		{"replace word", "road == X", source.NewSpan(0, 4), "road_class", "road_class == X"},
		{"insert at end", "road_class == ", source.NewSpan(14, 14), "PRIMARY", "road_class == PRIMARY"},
		{"insert in the middle", "a  b", source.NewSpan(2, 2), "&&", "a &&b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(tt.expr, tt.r, tt.suggestion))
		})
	}
}

func TestDoctorLex(t *testing.T) {
	stdout, _, err := run(t, "doctor", "lex", "a==b&&(c)")
	assert.NoError(t, err)
	assert.Equal(t, ""+
		"WORD   [0,1]    \"a\"\n"+
		"==     [1,3]    \"==\"\n"+
		"WORD   [3,4]    \"b\"\n"+
		"&&     [4,6]    \"&&\"\n"+
		"(      [6,7]    \"(\"\n"+
		"WORD   [7,8]    \"c\"\n"+
		")      [8,9]    \")\"\n", stdout)
}

func TestDoctorVocabulary(t *testing.T) {
	dir := t.TempDir()
	vocab := writeFile(t, dir, "vocabulary.yaml", testVocabulary)

	stdout, _, err := run(t, "doctor", "vocabulary", "-V", vocab)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "vocabulary.yaml")
	assert.Contains(t, stdout, "road_class (enum): MOTORWAY, PRIMARY\n")
	assert.Contains(t, stdout, "max_speed (numeric)\n")
	assert.Contains(t, stdout, "get_off_bike (boolean)\n")
	assert.Contains(t, stdout, "areas: city\n")
}

func TestGlobalsLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			g := Globals{LogLevel: tt.level}
			assert.Equal(t, tt.want, g.Level())
		})
	}
}

func TestTelemetryReport(t *testing.T) {
	dir := t.TempDir()
	vocab := writeFile(t, dir, "vocabulary.yaml", testVocabulary)

	_, stderr, err := run(t, "--telemetry", "parse", "-V", vocab, "get_off_bike")
	assert.NoError(t, err)
	assert.Contains(t, stderr, "parse")
	assert.Contains(t, stderr, "parse.expression")
}
