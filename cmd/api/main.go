// @title           Document RAG API
// @version         1.0
// @description     Ingests documents, answers questions over them and aggregates their structured records.
// @termsOfService  http://swagger.io/terms/

// @contact.name    akolanti
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akolanti/GoRAG/internal/app"
	"github.com/akolanti/GoRAG/internal/config"
	jobmodel "github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/handlers"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/middleware"
	"github.com/akolanti/GoRAG/internal/server"
	"github.com/akolanti/GoRAG/internal/worker"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	//config
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides the config")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger_i.Init()
		logger_i.NewLogger("main").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger_i.Configure(os.Stdout, settings.SlogLevel(), settings.LogJSON)
	var logger = logger_i.NewLogger("main")
	if listenAddr != "" {
		settings.ListenAddr = listenAddr
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	application, err := app.Build(serviceContext, settings)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		return
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("Error closing local indexes", "error", err)
		}
	}()

	//init job service and job store
	logger.Info("Starting job service")
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          application.JobStore,
	})

	handlers.InitJobHandler(service)
	handlers.InitRequestHandler(application.Service, settings.UploadDir)
	middleware.Init(settings.APIToken)
	middleware.StartPruning(time.Minute, stopWorkerChannel)

	//init worker pool
	worker.InitServices(service, application.Service)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(settings.ListenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
