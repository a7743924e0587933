package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dan13ram/xbridge-engine/app"
	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
)

func main() {

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	var configPath string
	var envPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&envPath, "env", "", "path to env file")
	flag.Parse()

	var absConfigPath string
	var absEnvPath string
	if configPath != "" {
		absConfigPath, _ = filepath.Abs(configPath)
	}
	if envPath != "" {
		absEnvPath, _ = filepath.Abs(envPath)
	}
	if absConfigPath == "" && absEnvPath == "" {
		log.Info("[MAIN] No config or env file provided, using defaults and environment")
	}

	app.InitConfig(absConfigPath, absEnvPath)
	app.InitLogger()

	mongo := app.Config.Store.Backend == models.StoreBackendMongo
	if mongo {
		app.InitDB()
	}

	engine, err := NewEngine(app.Config)
	if err != nil {
		log.Fatal("[MAIN] Error creating engine: ", err)
	}

	wg := &sync.WaitGroup{}
	services := engine.Services(app.Config, wg)

	wg.Add(len(services))
	for _, service := range services {
		go service.Start()
	}
	log.Info("[MAIN] Started services")

	if app.Config.Monitor.ResumeOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := engine.Monitor.Resume(ctx); err != nil {
			log.WithError(err).Error("[MAIN] Error resuming monitored transactions")
		}
		cancel()
	}

	gracefulStop := make(chan os.Signal, 1)
	done := make(chan bool, 1)
	signal.Notify(gracefulStop, syscall.SIGINT, syscall.SIGTERM)
	go waitForExitSignals(gracefulStop, done)
	<-done

	log.Debug("[MAIN] Gracefully shutting down server...")

	for i := len(services) - 1; i >= 0; i-- {
		services[i].Stop()
	}
	wg.Wait()

	engine.Close()
	if mongo {
		if err := app.DB.Disconnect(); err != nil {
			log.WithError(err).Warn("[MAIN] Error disconnecting from database")
		}
	}

	log.Info("[MAIN] Server gracefully stopped")
}

func waitForExitSignals(gracefulStop chan os.Signal, done chan bool) {
	sig := <-gracefulStop
	log.Debug("[MAIN] Got signal: ", sig)
	done <- true
}
