package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/invoice-ledger/internal/config"
	"github.com/kirillkom/invoice-ledger/internal/core/ports"
	"github.com/kirillkom/invoice-ledger/internal/core/usecase"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/extractor/invoicetext"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-ledger/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Files    ports.InvoiceFileRepository
	Invoices ports.InvoiceRepository

	IngestUC  ports.FileIngestor
	ProcessUC ports.InvoiceProcessor
	SheetUC   ports.SheetService
	ExportUC  ports.SheetExporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	files := postgres.NewInvoiceFileRepository(db)
	invoices := postgres.NewInvoiceRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executorCfg := resilience.DefaultConfig()
	executorCfg.BreakerEnabled = cfg.ResilienceBreakerEnabled
	executor := resilience.NewExecutor(executorCfg)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaModel)
	fieldExtractor := ollama.NewFieldExtractor(ollamaClient, executor)
	textExtractor := invoicetext.New()

	ingestUC := usecase.NewIngestFileUseCase(files, storage, queue)
	processUC := usecase.NewProcessInvoiceUseCase(files, invoices, textExtractor, fieldExtractor)
	sheetUC := usecase.NewSheetSyncUseCase(invoices)
	exportUC := usecase.NewExportSheetUseCase(invoices)

	return &App{
		Config: cfg,

		Queue:    queue,
		Files:    files,
		Invoices: invoices,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		SheetUC:   sheetUC,
		ExportUC:  exportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
