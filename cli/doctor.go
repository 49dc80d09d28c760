package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/custommodel/output"
	"github.com/robinvdvleuten/custommodel/parser"
)

// DoctorCmd provides doctor utilities for debugging expressions and vocabularies.
type DoctorCmd struct {
	Lex        LexCmd        `cmd:"" help:"Show the tokens of an expression."`
	Vocabulary VocabularyCmd `cmd:"" help:"Show the merged vocabulary and the files it came from."`
}

// LexCmd shows the tokens of an expression.
type LexCmd struct {
	Expression string `help:"Condition expression to tokenize." arg:""`
}

// Run executes the lex command.
func (cmd *LexCmd) Run(ctx *kong.Context) error {
	// Format: TYPE [start,end] "text"
	for _, token := range parser.NewLexer(cmd.Expression).ScanAll() {
		_, _ = fmt.Fprintf(ctx.Stdout, "%-6s %-8s %q\n",
			token.Type().String(),
			token.Span().String(),
			token.Text)
	}
	return nil
}

// VocabularyCmd loads a vocabulary and prints what it contains.
type VocabularyCmd struct {
	VocabularyFlags
}

// Run executes the vocabulary command.
func (cmd *VocabularyCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, report := globals.startTelemetry(context.Background(), ctx.Stderr, "doctor vocabulary")
	defer report()

	result, err := cmd.load(runCtx)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	styles := output.NewStyles(ctx.Stdout)

	for _, file := range result.Files() {
		printInfof(ctx.Stdout, "%s", styles.FilePath(file))
	}
	_, _ = fmt.Fprintln(ctx.Stdout)

	for _, c := range result.Vocabulary.Categories {
		line := fmt.Sprintf("%s %s", styles.Category(c.Name), styles.Dim("("+string(c.Kind)+")"))
		if c.Kind == parser.KindEnum {
			values := make([]string, len(c.Values))
			for i, v := range c.Values {
				values[i] = styles.Value(v)
			}
			line += ": " + strings.Join(values, ", ")
		}
		_, _ = fmt.Fprintln(ctx.Stdout, line)
	}

	if len(result.Vocabulary.Areas) > 0 {
		areas := make([]string, len(result.Vocabulary.Areas))
		for i, a := range result.Vocabulary.Areas {
			areas[i] = styles.Area(a)
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "\nareas: %s\n", strings.Join(areas, ", "))
	}
	return nil
}
