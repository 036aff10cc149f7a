package iot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
	"liyu1981.xyz/aquapond-service/pkg/mqtt"
	_ "liyu1981.xyz/aquapond-service/pkg/testing"
)

func telemetryMessage(ph float64) *models.TelemetryMessage {
	return &models.TelemetryMessage{Ph: ph, Turbidity: 10, Temperature: 27}
}

func TestPipeline_TelemetryFlow(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Telemetry: true, Alert: true, Decision: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	stored := &models.Telemetry{DeviceID: deviceID, Ph: 9, Turbidity: 10, Temperature: 27}

	gomock.InOrder(
		m.Telemetry.EXPECT().IngestTelemetry(gomock.Eq(deviceID), gomock.Any()).Return(stored, nil),
		m.Alert.EXPECT().GetActiveAlerts(gomock.Eq(deviceID)).Return([]models.Alert{{Type: models.AlertTypePhHigh}}, nil),
		m.Decision.EXPECT().
			DecideFromTelemetry(gomock.Any(), gomock.Eq(stored)).
			DoAndReturn(func(ctx context.Context, reading *models.Telemetry) (*models.Decision, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return &models.Decision{}, nil
			}),
	)

	pipeline := NewPipeline(iotObj, PipelineOpts{QueueSize: 8, DecisionWorkers: 2, ClassifyTimeout: time.Second})
	require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(9)))
	pipeline.Close()
}

func TestPipeline_IngestFailureStopsFollowOn(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Telemetry: true, Alert: true, Decision: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()

	m.Telemetry.EXPECT().IngestTelemetry(gomock.Any(), gomock.Any()).Return(nil, ErrStorage)
	m.Alert.EXPECT().GetActiveAlerts(gomock.Any()).Times(0)
	m.Decision.EXPECT().DecideFromTelemetry(gomock.Any(), gomock.Any()).Times(0)

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(7)))
	pipeline.Close()
}

func TestPipeline_AlertFailureStillDecides(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Telemetry: true, Alert: true, Decision: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	stored := &models.Telemetry{DeviceID: deviceID, Ph: 7}

	m.Telemetry.EXPECT().IngestTelemetry(gomock.Any(), gomock.Any()).Return(stored, nil)
	m.Alert.EXPECT().GetActiveAlerts(gomock.Any()).Return(nil, ErrStorage)
	m.Decision.EXPECT().DecideFromTelemetry(gomock.Any(), gomock.Eq(stored)).Return(nil, ErrClassifierUnavailable)

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(7)))
	pipeline.Close()
}

func TestPipeline_SlowClassifierDoesNotBlockIngestion(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Telemetry: true, Alert: true, Decision: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	release := make(chan struct{})

	var ingested sync.WaitGroup
	ingested.Add(3)
	m.Telemetry.EXPECT().
		IngestTelemetry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(id string, input *models.Telemetry) (*models.Telemetry, error) {
			defer ingested.Done()
			return input, nil
		}).
		Times(3)
	m.Alert.EXPECT().GetActiveAlerts(gomock.Any()).Return([]models.Alert{}, nil).Times(3)
	m.Decision.EXPECT().
		DecideFromTelemetry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, reading *models.Telemetry) (*models.Decision, error) {
			<-release
			return &models.Decision{}, nil
		}).
		Times(3)

	pipeline := NewPipeline(iotObj, PipelineOpts{QueueSize: 8, DecisionWorkers: 1, ClassifyTimeout: 5 * time.Second})
	for n := range 3 {
		require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(7+float64(n)/10)))
	}

	done := make(chan struct{})
	go func() {
		ingested.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ingestion stalled behind the classifier")
	}

	close(release)
	pipeline.Close()
}

func TestPipeline_OTAProgress(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Firmware: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	progress := &models.OTAProgress{Status: models.FirmwareStatusUpdating, Progress: 70}

	m.Firmware.EXPECT().ApplyOTAProgress(gomock.Eq(deviceID), gomock.Eq(progress)).Return(true, nil)

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	require.NoError(t, pipeline.HandleOTAProgress(deviceID, progress))
	pipeline.Close()
}

func TestPipeline_Closed(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Telemetry: true, Firmware: true})
	defer ctrl.Finish()

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	pipeline.Close()

	assert.ErrorIs(t, pipeline.HandleTelemetry(newDeviceID(), telemetryMessage(7)), ErrPipelineClosed)
	assert.ErrorIs(t, pipeline.HandleOTAProgress(newDeviceID(), &models.OTAProgress{}), ErrPipelineClosed)
}

func TestPipeline_EndToEnd(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	_, err := iotObj.Device.ProvisionDevice(deviceID, nil)
	require.NoError(t, err)
	autoApply := true
	_, err = iotObj.Device.UpdateSettings(deviceID, &models.DeviceSettings{AutoApplyAI: &autoApply})
	require.NoError(t, err)

	m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(poorResult(0.9), nil)

	var mu sync.Mutex
	published := map[string][]byte{}
	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(topic string, p []byte) error {
			mu.Lock()
			defer mu.Unlock()
			published[topic] = p
			return nil
		}).
		Times(2)

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(5.5)))
	pipeline.Close()

	device, err := iotObj.Device.GetDevice(deviceID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOnline, device.Status)

	readings, err := iotObj.Telemetry.GetRecentTelemetry(deviceID, 10)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 5.5, readings[0].Ph)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, published, "agrosense/"+deviceID+"/ai-result")
	require.Contains(t, published, "agrosense/"+deviceID+"/cmd")

	var cmd models.Command
	require.NoError(t, json.Unmarshal(published["agrosense/"+deviceID+"/cmd"], &cmd))
	assert.Equal(t, models.ActionPumpOn, cmd.Action)
	source, ok := ParseCommandSource(cmd.CmdID)
	assert.True(t, ok)
	assert.Equal(t, models.CommandSourceAI, source)
}

func TestPipeline_ClassifierFailureKeepsReading(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{})
	defer ctrl.Finish()

	deviceID := newDeviceID()

	m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().Publish(gomock.Eq("agrosense/"+deviceID+"/ai-result"), gomock.Any()).Return(nil)

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(7)))
	pipeline.Close()

	readings, err := iotObj.Telemetry.GetRecentTelemetry(deviceID, 10)
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}

func TestPipeline_LowercaseTopicGetsRepliesOnItsOwnTopics(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{})
	defer ctrl.Finish()

	topicID := strings.ToLower(newDeviceID())
	autoApply := true
	_, err := iotObj.Device.ProvisionDevice(topicID, nil)
	require.NoError(t, err)
	_, err = iotObj.Device.UpdateSettings(topicID, &models.DeviceSettings{AutoApplyAI: &autoApply})
	require.NoError(t, err)

	m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(poorResult(0.95), nil)

	var mu sync.Mutex
	var topics []string
	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(topic string, p []byte) error {
			mu.Lock()
			defer mu.Unlock()
			topics = append(topics, topic)
			return nil
		}).
		Times(2)

	pipeline := NewPipeline(iotObj, PipelineOpts{})
	router := mqtt.NewRouter(testNamespace, pipeline)
	require.NoError(t, router.Route("agrosense/"+topicID+"/telemetry", []byte(`{"ph":5.5,"turbidity":90,"temperature":33}`)))
	pipeline.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{
		"agrosense/" + topicID + "/ai-result",
		"agrosense/" + topicID + "/cmd",
	}, topics)

	device, err := iotObj.Device.GetDevice(strings.ToUpper(topicID))
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(topicID), device.DeviceID)
	assert.Equal(t, topicID, device.TopicID)
	assert.Equal(t, models.DeviceStatusOnline, device.Status)
}

func TestPipeline_ConcurrentDevicesStayIsolated(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Decision: true})
	defer ctrl.Finish()

	m.Decision.EXPECT().DecideFromTelemetry(gomock.Any(), gomock.Any()).Return(&models.Decision{}, nil).AnyTimes()

	first, second := newDeviceID(), newDeviceID()
	_, err := iotObj.Device.ProvisionDevice(first, &models.Device{Name: "Nursery", Location: "North"})
	require.NoError(t, err)
	_, err = iotObj.Device.ProvisionDevice(second, &models.Device{Name: "Grow-out", Location: "South"})
	require.NoError(t, err)

	autoApply := true
	threshold := 0.9
	strict := models.Thresholds{
		Ph:          models.PhThreshold{Min: 7, Max: 7.5},
		Turbidity:   models.TurbidityThreshold{Max: 20},
		Temperature: models.TemperatureThreshold{Min: 26, Max: 28},
	}
	_, err = iotObj.Device.UpdateSettings(first, &models.DeviceSettings{
		Thresholds:            &strict,
		AutoApplyAI:           &autoApply,
		AIConfidenceThreshold: &threshold,
	})
	require.NoError(t, err)

	const perDevice = 20
	pipeline := NewPipeline(iotObj, PipelineOpts{QueueSize: 2 * perDevice, DecisionWorkers: 4})

	var wg sync.WaitGroup
	send := func(deviceID string, ph float64) {
		defer wg.Done()
		for range perDevice {
			assert.NoError(t, pipeline.HandleTelemetry(deviceID, &models.TelemetryMessage{Ph: ph, Turbidity: ph * 10, Temperature: ph * 4}))
		}
	}
	wg.Add(2)
	go send(first, 6)
	go send(second, 8)
	wg.Wait()
	pipeline.Close()

	for deviceID, ph := range map[string]float64{first: 6, second: 8} {
		readings, err := iotObj.Telemetry.GetRecentTelemetry(deviceID, 2*perDevice)
		require.NoError(t, err)
		require.Len(t, readings, perDevice, deviceID)
		for _, reading := range readings {
			assert.Equal(t, deviceID, reading.DeviceID)
			assert.Equal(t, ph, reading.Ph)
			assert.Equal(t, ph*10, reading.Turbidity)
		}
	}

	nursery, err := iotObj.Device.GetDevice(first)
	require.NoError(t, err)
	growOut, err := iotObj.Device.GetDevice(second)
	require.NoError(t, err)

	assert.Equal(t, models.DeviceStatusOnline, nursery.Status)
	assert.Equal(t, models.DeviceStatusOnline, growOut.Status)
	require.NotNil(t, nursery.LastSeen)
	require.NotNil(t, growOut.LastSeen)

	assert.Equal(t, "Nursery", nursery.Name)
	assert.Equal(t, "North", nursery.Location)
	assert.Equal(t, strict, nursery.Thresholds)
	assert.True(t, nursery.Config.AutoApplyAI)
	assert.Equal(t, 0.9, nursery.Config.AIConfidenceThreshold)

	assert.Equal(t, "Grow-out", growOut.Name)
	assert.Equal(t, "South", growOut.Location)
	assert.Equal(t, models.DefaultThresholds(), growOut.Thresholds)
	assert.False(t, growOut.Config.AutoApplyAI)
	assert.Equal(t, models.DefaultAIConfidenceThreshold, growOut.Config.AIConfidenceThreshold)

	alerts, err := iotObj.Alert.GetActiveAlerts(first)
	require.NoError(t, err)
	assert.NotEmpty(t, alerts)
	alerts, err = iotObj.Alert.GetActiveAlerts(second)
	require.NoError(t, err)
	for _, alert := range alerts {
		assert.NotEqual(t, models.AlertTypePhLow, alert.Type, fmt.Sprint(alert))
	}
}

func TestPipeline_DecisionsKeepDeviceOrder(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Telemetry: true, Alert: true, Decision: true})
	defer ctrl.Finish()

	const perDevice = 30
	devices := []string{newDeviceID(), newDeviceID(), newDeviceID()}

	m.Telemetry.EXPECT().
		IngestTelemetry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(id string, input *models.Telemetry) (*models.Telemetry, error) {
			return input, nil
		}).
		Times(perDevice * len(devices))
	m.Alert.EXPECT().GetActiveAlerts(gomock.Any()).Return(nil, nil).AnyTimes()

	var mu sync.Mutex
	seen := map[string][]float64{}
	m.Decision.EXPECT().
		DecideFromTelemetry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, reading *models.Telemetry) (*models.Decision, error) {
			// uneven classifier latency
			time.Sleep(time.Duration(int(reading.Ph)%3) * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			seen[reading.DeviceID] = append(seen[reading.DeviceID], reading.Ph)
			return &models.Decision{}, nil
		}).
		Times(perDevice * len(devices))

	pipeline := NewPipeline(iotObj, PipelineOpts{QueueSize: perDevice * len(devices), DecisionWorkers: 4})
	for n := range perDevice {
		for _, deviceID := range devices {
			require.NoError(t, pipeline.HandleTelemetry(deviceID, telemetryMessage(float64(n))))
		}
	}
	pipeline.Close()

	mu.Lock()
	defer mu.Unlock()
	for _, deviceID := range devices {
		require.Len(t, seen[deviceID], perDevice)
		for n, ph := range seen[deviceID] {
			assert.Equal(t, float64(n), ph, deviceID)
		}
	}
}
