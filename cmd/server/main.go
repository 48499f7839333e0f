package main

import (
	"context"
	"flag"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	stdlog "log"

	"golang.org/x/crypto/bcrypt"

	"botfleet/internal/command"
	"botfleet/internal/config"
	"botfleet/internal/ctxreg"
	"botfleet/internal/http-server/api"
	"botfleet/internal/intentcache"
	"botfleet/internal/llmclient"
	"botfleet/internal/logbuf"
	"botfleet/internal/pipeline"
	"botfleet/internal/stats"
	"botfleet/internal/store"
	"botfleet/internal/supervisor"
	"botfleet/internal/support"
	"botfleet/lib/logger"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	buf := logbuf.NewBuffer()
	base := logger.SetupHandler(conf.Env, *logPath)
	log := slog.New(logbuf.NewHandler(base, buf))
	log.Info("starting botfleet", slog.String("config", *configPath), slog.String("env", conf.Env))

	seedHash, err := bcrypt.GenerateFromPassword([]byte(conf.Admin.SeedPassword), conf.Admin.BcryptCost)
	if err != nil {
		stdlog.Fatal("hash seed password: ", err)
	}

	st, err := store.Open(conf.Store.Path, conf.Admin.SeedEmail, string(seedHash))
	if err != nil {
		stdlog.Fatal("open store: ", err)
	}

	startTime := time.Now()
	counters := stats.New(startTime)
	llm := llmclient.New(counters)

	cache := intentcache.New(conf.Cache.RedisURL)
	engine := command.New(llm, cache, log)
	registry := ctxreg.New()

	sup := supervisor.New(st, registry, buf, log)
	pipe := pipeline.New(st, engine, llm, registry, sup, counters, log)
	sup.SetPipeline(pipe)

	supportSvc := support.New(st, llm, log)

	svc := api.NewService(st, sup, registry, counters, buf, supportSvc)

	server, err := api.New(conf, log, svc)
	if err != nil {
		stdlog.Fatal("start api server: ", err)
	}

	sup.AutoStart()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sup.StartReconciler(ctx)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sup.ShutdownAll(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("api server shutdown error", "error", err)
	}
	if err := st.Close(); err != nil {
		log.Error("store close error", "error", err)
	}
}
