package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/custommodel/web"
)

type WebCmd struct {
	VocabularyFlags

	File     string `help:"Custom model document to serve." arg:""`
	Host     string `help:"Address to bind to." default:"127.0.0.1"`
	Port     int    `help:"Port to listen on." default:"8080"`
	Create   bool   `help:"Automatically create the document if it doesn't exist (no confirmation prompt)." short:"c"`
	ReadOnly bool   `help:"Enable read-only mode (no write operations allowed)." short:"r"`
	NoWatch  bool   `help:"Do not reload when the document or the vocabulary changes on disk."`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, report := globals.startTelemetry(runCtx, ctx.Stderr, "web")
	defer report()

	documentFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if err := cmd.ensureDocument(ctx, documentFile); err != nil {
		return err
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(cmd.Port, documentFile, cmd.Vocabulary, version, commitSHA)
	server.Host = cmd.Host
	server.ReadOnly = cmd.ReadOnly
	server.WatchEnabled = !cmd.NoWatch
	server.FollowIncludes = cmd.FollowIncludes
	server.Logger = logger()

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	printInfof(ctx.Stdout, "Serving document: %s", pathStyle.Render(documentFile))
	printInfof(ctx.Stdout, "Vocabulary: %s", pathStyle.Render(cmd.Vocabulary))

	if cmd.ReadOnly {
		printInfof(ctx.Stdout, "Server running in READ-ONLY mode")
	}

	return server.Start(runCtx)
}

// ensureDocument creates an empty document after confirmation when it is
// missing.
func (cmd *WebCmd) ensureDocument(ctx *kong.Context, documentFile string) error {
	_, err := os.Stat(documentFile)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access file: %w", err)
	}

	shouldCreate := cmd.Create
	if !shouldCreate {
		confirmed, err := promptYesNo(fmt.Sprintf("File %q does not exist. Create it?", documentFile))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		shouldCreate = confirmed
	}

	if !shouldCreate {
		return fmt.Errorf("file does not exist: %s", documentFile)
	}

	if err := os.MkdirAll(filepath.Dir(documentFile), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(documentFile, []byte(""), 0600); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	printInfof(ctx.Stdout, "Created empty document: %s", pathStyle.Render(documentFile))
	return nil
}
