package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"liyu1981.xyz/aquapond-service/pkg/iot"
)

// BrokerStatus reports the MQTT connection state on /healthz.
type BrokerStatus interface {
	IsConnected() bool
}

// ModelHealth reports whether the classifier service answers.
type ModelHealth interface {
	Health(ctx context.Context) error
}

type RestfulServer struct {
	Server           *gin.Engine
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
	Broker           BrokerStatus
	Model            ModelHealth
}

func (rs *RestfulServer) GetLimiter(deviceID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(deviceID)
	}
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	if rs.RateLimiterStore == nil {
		return true
	}
	return rs.RateLimiterStore.Allow(deviceID)
}

func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
}

// deviceLimited rejects the request with 429 once the device's bucket is empty.
func (rs *RestfulServer) deviceLimited(c *gin.Context) {
	if !rs.CheckDeviceLimiter(c.Param("device_id")) {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}
	c.Next()
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.POST("/devices", rs.ProvisionDevice)

	devices := rs.Server.Group("/devices/:device_id")
	// limiter settings stay reachable for a throttled device
	devices.POST("/limiter", rs.PostLimiter)

	limited := devices.Group("", rs.deviceLimited)
	{
		limited.GET("", rs.GetDevice)
		limited.POST("/settings", rs.UpdateSettings)
		limited.GET("/telemetry", rs.GetTelemetry)
		limited.GET("/alerts", rs.GetAlerts)
		limited.POST("/pump", rs.PostPump)
		limited.POST("/firmware/update", rs.PostFirmwareUpdate)
	}
}
