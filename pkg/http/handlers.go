package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/iot"
	"liyu1981.xyz/aquapond-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, iot.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, iot.ErrDeviceExists):
		return http.StatusConflict
	case errors.Is(err, iot.ErrDeviceOffline), errors.Is(err, iot.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("device_id", c.Param("device_id")),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type ProvisionRequest struct {
	DeviceID string `json:"deviceId" zog:"deviceId"`
	Name     string `json:"name" zog:"name"`
	Location string `json:"location" zog:"location"`
}

var provisionRequestSchema = z.Struct(z.Shape{
	"DeviceID": z.String().Trim().Required(),
	"Name":     z.String().Trim(),
	"Location": z.String().Trim(),
})

func (rs *RestfulServer) ProvisionDevice(c *gin.Context) {
	var req ProvisionRequest
	if err := provisionRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	device, err := rs.Iot.Device.ProvisionDevice(req.DeviceID, &models.Device{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

func (rs *RestfulServer) GetDevice(c *gin.Context) {
	device, err := rs.Iot.Device.GetDevice(c.Param("device_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// SettingsRequest is a partial update. A thresholds object is merged over the
// device's current thresholds, so {"ph":{"min":6,"max":8}} leaves the rest alone.
type SettingsRequest struct {
	Name                  *string         `json:"name"`
	Location              *string         `json:"location"`
	Thresholds            json.RawMessage `json:"thresholds"`
	AutoApplyAI           *bool           `json:"autoApplyAI"`
	AIConfidenceThreshold *float64        `json:"aiConfidenceThreshold"`
}

func (rs *RestfulServer) UpdateSettings(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := &models.DeviceSettings{
		Name:                  req.Name,
		Location:              req.Location,
		AutoApplyAI:           req.AutoApplyAI,
		AIConfidenceThreshold: req.AIConfidenceThreshold,
	}

	if len(req.Thresholds) > 0 && string(req.Thresholds) != "null" {
		device, err := rs.Iot.Device.GetDevice(deviceID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		merged := device.Thresholds
		if err := json.Unmarshal(req.Thresholds, &merged); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		settings.Thresholds = &merged
	}

	device, err := rs.Iot.Device.UpdateSettings(deviceID, settings)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

type TelemetryItem struct {
	Timestamp   time.Time `json:"timestamp"`
	Ph          float64   `json:"ph"`
	Turbidity   float64   `json:"turbidity"`
	Temperature float64   `json:"temperature"`
	PumpState   bool      `json:"pumpState"`
}

type TelemetryResponse struct {
	DeviceID string          `json:"deviceId"`
	Count    int             `json:"count"`
	Items    []TelemetryItem `json:"items"`
}

func (rs *RestfulServer) GetTelemetry(c *gin.Context) {
	deviceID := models.NormalizeDeviceID(c.Param("device_id"))

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
	}

	readings, err := rs.Iot.Telemetry.GetRecentTelemetry(deviceID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	items := common.Mapper(readings, func(t models.Telemetry) TelemetryItem {
		return TelemetryItem{
			Timestamp:   t.Timestamp,
			Ph:          t.Ph,
			Turbidity:   t.Turbidity,
			Temperature: t.Temperature,
			PumpState:   t.PumpState,
		}
	})
	if items == nil {
		items = []TelemetryItem{}
	}

	c.JSON(http.StatusOK, TelemetryResponse{DeviceID: deviceID, Count: len(items), Items: items})
}

func (rs *RestfulServer) GetAlerts(c *gin.Context) {
	alerts, err := rs.Iot.Alert.GetActiveAlerts(c.Param("device_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, alerts)
}

type PumpRequest struct {
	Action   string `json:"action" zog:"action"`
	Duration int    `json:"duration" zog:"duration"`
}

var pumpRequestSchema = z.Struct(z.Shape{
	"Action":   z.String().Required().OneOf([]string{string(models.ActionPumpOn), string(models.ActionPumpOff)}),
	"Duration": z.Int().GTE(0),
})

type PumpResponse struct {
	CmdID    string               `json:"cmdId"`
	DeviceID string               `json:"deviceId"`
	Action   models.CommandAction `json:"action"`
	Duration int                  `json:"duration"`
}

func (rs *RestfulServer) PostPump(c *gin.Context) {
	deviceID := models.NormalizeDeviceID(c.Param("device_id"))

	var req PumpRequest
	if err := pumpRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	action := models.CommandAction(req.Action)
	cmdID := rs.Iot.Command.DispatchCommand(deviceID, models.CommandSourceUser, action, models.CommandParams{
		DurationSeconds: req.Duration,
	})

	c.JSON(http.StatusOK, PumpResponse{
		CmdID:    cmdID,
		DeviceID: deviceID,
		Action:   action,
		Duration: req.Duration,
	})
}

type FirmwareUpdateRequest struct {
	Version string `json:"version" zog:"version"`
	URL     string `json:"url" zog:"url"`
	Size    int    `json:"size" zog:"size"`
}

var firmwareUpdateRequestSchema = z.Struct(z.Shape{
	"Version": z.String().Trim().Required(),
	"URL":     z.String().Trim().Required().URL(),
	"Size":    z.Int().GTE(0),
})

func (rs *RestfulServer) PostFirmwareUpdate(c *gin.Context) {
	deviceID := models.NormalizeDeviceID(c.Param("device_id"))

	var req FirmwareUpdateRequest
	if err := firmwareUpdateRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	cmdID, err := rs.Iot.Firmware.StartFirmwareUpdate(deviceID, &models.FirmwareUpdateRequest{
		Version: req.Version,
		URL:     req.URL,
		Size:    int64(req.Size),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cmdId": cmdID, "deviceId": deviceID, "version": req.Version})
}

type LimiterRequest struct {
	Rate  float64 `json:"rate" zog:"rate"`
	Burst int     `json:"burst" zog:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required(),
	"Burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(deviceID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	body := gin.H{"status": "ok"}

	if rs.Iot != nil && rs.Iot.Db.Conn != nil {
		if err := rs.Iot.Db.Ping(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["db"] = false
		} else {
			body["db"] = true
		}
	}
	if rs.Broker != nil {
		body["mqtt"] = rs.Broker.IsConnected()
	}
	if rs.Model != nil {
		err := rs.Model.Health(c.Request.Context())
		body["classifier"] = err == nil
		if err != nil {
			body["classifierError"] = err.Error()
		}
	}

	c.JSON(http.StatusOK, body)
}
