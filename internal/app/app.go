// Package app wires one pipeline instance together: loader, template store,
// validator, node factory and pipeline are constructed explicitly and owned
// by the App. There is no process-wide implicit state.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/promptgridgo/internal/config"
	"github.com/vk/promptgridgo/internal/ctxlog"
	"github.com/vk/promptgridgo/internal/llm"
	"github.com/vk/promptgridgo/internal/node"
	"github.com/vk/promptgridgo/internal/pipeline"
	"github.com/vk/promptgridgo/internal/template"
	"github.com/vk/promptgridgo/internal/validate"
)

// App encapsulates one loaded, validated pipeline and its collaborators.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	store    *template.Store
	pipeline *pipeline.Pipeline
}

// NewApp loads configuration through the given loader, validates it against
// the template store and builds the pipeline. Any load-time failure aborts
// construction entirely; no partially runnable App is ever returned.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, client llm.Client) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.LayerPath, appConfig.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded into unified model.")

	store := template.NewStore()
	mode := template.Replace
	if appConfig.MergeTemplates {
		mode = template.Merge
	}
	store.Load(model.Templates, mode)
	if err := store.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Template store populated and validated.", "templates", store.Len())

	validator := validate.New()
	if err := validator.ValidateComplete(ctx, model.Pipeline, store); err != nil {
		return nil, err
	}
	if appConfig.StrictDataflow {
		if err := validator.ValidateDataflow(model.Pipeline, store); err != nil {
			return nil, err
		}
		logger.Debug("Strict data-flow validation passed.")
	}

	factory := node.NewFactory(store, client)
	pipe, err := pipeline.Build(model.Pipeline, factory)
	if err != nil {
		return nil, err
	}
	logger.Debug("Pipeline built.", "layers", len(pipe.Layers()))

	return &App{
		outW:     outW,
		logger:   logger,
		store:    store,
		pipeline: pipe,
	}, nil
}

// Run drives one query through the pipeline and prints the final text to
// the App's output writer.
func (a *App) Run(ctx context.Context, query string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	result, err := a.pipeline.Process(ctx, query)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.outW, result.Text())
	return nil
}

// Pipeline returns the built pipeline. This is primarily for testing.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Store returns the template store. This is primarily for testing.
func (a *App) Store() *template.Store { return a.store }
