package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/batch"
	"github.com/eduflow/eduflow-cli/internal/chunker"
	"github.com/eduflow/eduflow-cli/internal/ocr"
	"github.com/eduflow/eduflow-cli/internal/sidecar"
	"github.com/eduflow/eduflow-cli/internal/statehub"
	"github.com/eduflow/eduflow-cli/internal/store"
	"github.com/eduflow/eduflow-cli/pkg/llm"
)

// pipelineEnv wires the shared collaborators commands need.
type pipelineEnv struct {
	Client     llm.Client
	Chunks     *chunker.Chunker
	Rasterizer ocr.Rasterizer
	Hub        *statehub.Hub
	Library    store.Store
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	client, err := llm.New(llm.Config{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.Key,
		BaseURL:           cfg.LLM.BaseURL,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	recognizer := ocr.NewVisionRecognizer(client, cfg.LLM.VisionModel, cfg.LLM.MaxTokens)
	rasterizer := ocr.NewPopplerRasterizer(cfg.OCR.PdfinfoPath, cfg.OCR.PdftoppmPath, cfg.OCR.DPI)

	library, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := library.Migrate(ctx); err != nil {
		library.Close() //nolint:errcheck
		return nil, err
	}

	return &pipelineEnv{
		Client:     client,
		Chunks:     chunker.New(cfg.Batch.ChunkSize, recognizer, rasterizer),
		Rasterizer: rasterizer,
		Hub:        statehub.New(),
		Library:    library,
	}, nil
}

func (env *pipelineEnv) Close() {
	if err := env.Library.Close(); err != nil {
		zap.L().Warn("close library store", zap.Error(err))
	}
}

func (env *pipelineEnv) processor() *batch.Processor {
	return &batch.Processor{
		Chunks:    env.Chunks,
		Client:    env.Client,
		Model:     cfg.LLM.TextModel,
		MaxTokens: cfg.LLM.MaxTokens,
		Target:    cfg.Batch.Target,
		Workers:   cfg.Batch.Workers,
		Hub:       env.Hub,
		Library:   env.Library,
	}
}

// sidecarSaver persists a sidecar to a fixed path.
type sidecarSaver struct {
	path string
}

func (s sidecarSaver) Save(f *sidecar.File) error {
	return f.Save(s.path)
}
