package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/aquapond-service/pkg/classifier"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/db"
	iotHttp "liyu1981.xyz/aquapond-service/pkg/http"
	"liyu1981.xyz/aquapond-service/pkg/iot"
	"liyu1981.xyz/aquapond-service/pkg/mqtt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment (copy .env.example to .env in development)")
	}

	cfg := common.LoadServiceConfig()
	logger := common.GetLogger()
	defer common.SyncLogger()

	dbInstance := db.GetInstance(db.UseDialector(cfg.DBType))

	broker := mqtt.NewClient(mqtt.ClientConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	})
	model := classifier.NewClient(cfg.AIServiceURL, cfg.AIServiceTimeout)

	iotCore := iot.NewIOT(*dbInstance, broker, model, cfg.MQTTNamespace)
	iotCore.ProvisionOnOTA = cfg.ProvisionOnOTA

	pipeline := iot.NewPipeline(iotCore, iot.PipelineOpts{
		QueueSize:       cfg.QueueSize,
		DecisionWorkers: cfg.DecisionWorkers,
		ClassifyTimeout: cfg.AIServiceTimeout,
	})

	router := mqtt.NewRouter(cfg.MQTTNamespace, pipeline)
	if err := router.SubscribeAll(broker); err != nil {
		logger.Error("Failed to subscribe device topics", zap.Error(err))
	}
	logger.Info("Listening for device messages",
		zap.String("broker", cfg.MQTTBroker),
		zap.Strings("topics", router.Topics()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiterStore := iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst)

	go sweep(ctx, iotCore, limiterStore, cfg.DeviceOfflineTimeout)

	rs := &iotHttp.RestfulServer{
		Server:           gin.Default(),
		Iot:              iotCore,
		RateLimiterStore: limiterStore,
		Broker:           broker,
		Model:            model,
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)))

	server := &http.Server{
		Addr:    cfg.HttpHostPort,
		Handler: rs.Server,
	}

	go func() {
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// stop intake first so queued readings still drain through the pipeline
	broker.Close()
	pipeline.Close()

	if err := dbInstance.Close(); err != nil {
		logger.Error("Database close failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// sweep flips devices that stopped reporting to offline and forgets their
// default rate limiter buckets.
func sweep(ctx context.Context, iotCore *iot.IOT, limiterStore *iot.RateLimiterStore, timeout time.Duration) {
	logger := common.GetLogger()

	interval := timeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cutoff := now.Add(-timeout)

			if pruned := limiterStore.Prune(cutoff); pruned > 0 {
				logger.Debug("Pruned idle rate limiters",
					zap.Int("count", pruned),
					zap.Int("remaining", limiterStore.Len()))
			}

			count, err := iotCore.Device.MarkStaleDevicesOffline(cutoff)
			if err != nil {
				logger.Error("Offline sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				logger.Info("Marked devices offline", zap.Int64("count", count))
			}
		}
	}
}
