package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vk/promptgridgo/internal/app"
	"github.com/vk/promptgridgo/internal/cli"
	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/hclconfig"
	"github.com/vk/promptgridgo/internal/jsonconfig"
	"github.com/vk/promptgridgo/internal/llm"
)

// main is the entrypoint for the promptgridgo application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	appConfig, query, shouldExit, err := cli.Parse(args, os.Getenv, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	client := llm.NewHTTPClient(llm.Options{
		BaseURL: appConfig.BaseURL,
		APIKey:  appConfig.APIKey,
		Timeout: appConfig.Timeout,
	})
	defer client.Close()

	pipelineApp, err := app.NewApp(outW, appConfig, loaderFor(appConfig.LayerPath), client)
	if err != nil {
		return err
	}

	return pipelineApp.Run(context.Background(), query)
}

// loaderFor picks the config format adapter by file extension.
func loaderFor(path string) config.Loader {
	if filepath.Ext(path) == ".hcl" {
		return hclconfig.NewLoader()
	}
	return jsonconfig.NewLoader()
}
