package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/telemetry"
)

type ParseCmd struct {
	VocabularyFlags

	Expression string   `help:"Condition expression to parse." arg:""`
	Areas      []string `help:"Area names the expression may refer to as in_<area>." short:"a" sep:","`
	Debug      bool     `help:"Dump the error value instead of rendering it."`
}

func (cmd *ParseCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, report := globals.startTelemetry(context.Background(), ctx.Stderr, "parse")
	defer report()

	result, err := cmd.load(runCtx)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}
	vocab := result.Vocabulary.WithAreas(append(result.Vocabulary.Areas, cmd.Areas...))

	timer := telemetry.Start(runCtx, "parse.expression")
	err = parser.Parse(cmd.Expression, vocab)
	timer.End()

	if cmd.Debug {
		repr.New(ctx.Stdout, repr.Indent("  ")).Println(err)
	}

	switch e := err.(type) {
	case nil:
		printSuccess(ctx.Stdout, "valid")
		return nil

	case *parser.SyntaxError:
		if !cmd.Debug {
			renderer := NewErrorRenderer([]byte(cmd.Expression), "")
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(e))
			if suggestion := completion.Closest(e.Span.Text(cmd.Expression), e.Completions); suggestion != "" {
				_, _ = fmt.Fprintf(ctx.Stderr, "   did you mean %s?\n", successStyle.Render(suggestion))
			}
		}
		return NewCommandError(1)

	default:
		if !cmd.Debug {
			printError(ctx.Stderr, e.Error())
		}
		return NewCommandError(1)
	}
}
