package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/audiencelab-io/audiencelab/internal/config"
	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/core/brief"
	db "github.com/audiencelab-io/audiencelab/internal/core/database"
	"github.com/audiencelab-io/audiencelab/internal/core/llm"
	objectclient "github.com/audiencelab-io/audiencelab/internal/core/object-client"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Server       *Server
	Log          *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("object client initialized and ready")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the generation client, %w", err)
	}

	extractor := brief.NewDocconvExtractor(false)

	audienceSvc := services.NewAudienceService(dbClient, llmProvider, embedder, log)
	sessionSvc := services.NewSessionService(dbClient)
	simulationSvc := services.NewSimulationService(dbClient, llmProvider, log)
	exportSvc := services.NewExportService(dbClient, objClient, cfg.BucketName)
	briefSvc := services.NewBriefService(dbClient, objClient, extractor, cfg.BucketName)
	userSvc := services.NewUserService(dbClient)

	server := NewServer(cfg, log, &Services{
		Audiences:   audienceSvc,
		Sessions:    sessionSvc,
		Simulations: simulationSvc,
		Exports:     exportSvc,
		Briefs:      briefSvc,
		Users:       userSvc,
	})

	return &App{DBClient: dbClient, ObjectClient: objClient, Server: server, Log: log}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
