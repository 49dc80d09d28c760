package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/source"
	"github.com/robinvdvleuten/custommodel/telemetry"
)

type CompleteCmd struct {
	VocabularyFlags

	Expression  string   `help:"Condition expression to complete." arg:""`
	Pos         int      `help:"Byte offset of the cursor (defaults to the end of the expression)." default:"-1"`
	Areas       []string `help:"Area names the expression may refer to as in_<area>." short:"a" sep:","`
	Placeholder string   `help:"Single character used to probe the cursor position." default:"…"`
	Format      string   `help:"Output format (${enum})." enum:"text,json" default:"text" short:"f"`
	Interactive bool     `help:"Pick a suggestion and print the completed expression." short:"i"`
}

func (cmd *CompleteCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, report := globals.startTelemetry(context.Background(), ctx.Stderr, "complete")
	defer report()

	pos := cmd.Pos
	if pos < 0 {
		pos = len(cmd.Expression)
	}
	if pos > len(cmd.Expression) {
		return fmt.Errorf("position %d is past the end of the expression (%d bytes)", pos, len(cmd.Expression))
	}

	if utf8.RuneCountInString(cmd.Placeholder) != 1 {
		return fmt.Errorf("placeholder must be a single character, got %q", cmd.Placeholder)
	}
	placeholder, _ := utf8.DecodeRuneInString(cmd.Placeholder)
	engine, err := completion.New(completion.WithPlaceholder(placeholder))
	if err != nil {
		return err
	}

	loaded, err := cmd.load(runCtx)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}
	vocab := loaded.Vocabulary.WithAreas(append(loaded.Vocabulary.Areas, cmd.Areas...))

	timer := telemetry.Start(runCtx, "complete.expression")
	result := engine.Complete(cmd.Expression, pos, vocab)
	timer.End()

	logger().Debug("completed expression", "pos", pos, "suggestions", len(result.Suggestions))

	if cmd.Interactive {
		return cmd.pick(ctx, result)
	}

	if cmd.Format == "json" {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(ctx.Stdout, string(data))
		return nil
	}

	for _, s := range result.Suggestions {
		if completion.IsHint(s) {
			_, _ = fmt.Fprintln(ctx.Stdout, hintStyle.Render(fmt.Sprintf("<%s>", completion.HintText(s))))
			continue
		}
		_, _ = fmt.Fprintln(ctx.Stdout, s)
	}
	return nil
}

func (cmd *CompleteCmd) pick(ctx *kong.Context, result completion.Result) error {
	var insertable []string
	for _, s := range result.Suggestions {
		if !completion.IsHint(s) {
			insertable = append(insertable, s)
		}
	}
	if len(insertable) == 0 || result.Range == nil {
		printInfof(ctx.Stderr, "nothing to complete")
		return nil
	}
	if !isTerminal() {
		return fmt.Errorf("--interactive needs a terminal")
	}

	choice, err := promptSelect("Complete with", insertable)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(ctx.Stdout, apply(cmd.Expression, *result.Range, choice))
	return nil
}

// apply replaces the range of expr with suggestion.
func apply(expr string, r source.Span, suggestion string) string {
	return expr[:r.Start] + suggestion + expr[r.End:]
}
