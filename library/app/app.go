package app

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/config"
	"github.com/Astemirdum/bookstore/library/internal/handler"
	"github.com/Astemirdum/bookstore/library/internal/repository"
	"github.com/Astemirdum/bookstore/library/internal/server"
	"github.com/Astemirdum/bookstore/library/internal/service"
	"github.com/Astemirdum/bookstore/library/internal/storage"
	"github.com/Astemirdum/bookstore/library/internal/sweeper"
	"github.com/Astemirdum/bookstore/library/migrations"
	"github.com/Astemirdum/bookstore/pkg/auth"
	"github.com/Astemirdum/bookstore/pkg/kafka"
	"github.com/Astemirdum/bookstore/pkg/logger"
	"github.com/Astemirdum/bookstore/pkg/postgres"
	"github.com/Astemirdum/bookstore/pkg/supervisor"
)

const serverStopTimeout = 5 * time.Second

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "bookstore")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}
	publisher, err := kafka.NewPublisher(cfg.Kafka, log)
	if err != nil {
		log.Fatal("kafka.NewPublisher", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("publisher close", zap.Error(err))
		}
	}()
	images, err := storage.NewFileStore(cfg.Storage.ImagesDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}

	issuer := auth.NewIssuer(cfg.JWT)
	svc := service.NewService(repo, publisher, issuer, log)
	h := handler.New(svc, images, issuer, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	tree := supervisor.NewTree("bookstore", cfg.Supervisor, log)
	tree.AddAPI(supervisor.NewServerService("http-server", srv, serverStopTimeout))
	tree.AddJob(sweeper.New(repo, publisher, cfg.Sweeper, log))

	log.Info("http server start ON: ",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	done := tree.ServeBackground(ctx)

	<-ctx.Done()
	log.Debug("Graceful shutdown")

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		log.Error("supervisor stopped", zap.Error(err))
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		log.Warn("services did not stop in time", zap.Int("count", len(report)))
	}
	log.Info("Graceful shutdown finished")
}
