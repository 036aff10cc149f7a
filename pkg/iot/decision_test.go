package iot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
	_ "liyu1981.xyz/aquapond-service/pkg/testing"
)

func poorResult(confidence float64) *models.ClassificationResult {
	return &models.ClassificationResult{
		Label:                      models.WaterQualityPoor,
		Class:                      2,
		Confidence:                 confidence,
		RecommendedAction:          models.ActionPumpOn,
		RecommendedDurationSeconds: 300,
	}
}

func TestShouldAutoApply(t *testing.T) {
	cases := []struct {
		name     string
		config   *models.DeviceConfig
		result   *models.ClassificationResult
		expected bool
	}{
		{"above threshold", &models.DeviceConfig{AutoApplyAI: true, AIConfidenceThreshold: 0.7}, poorResult(0.71), true},
		{"equal threshold", &models.DeviceConfig{AutoApplyAI: true, AIConfidenceThreshold: 0.7}, poorResult(0.70), false},
		{"below threshold", &models.DeviceConfig{AutoApplyAI: true, AIConfidenceThreshold: 0.7}, poorResult(0.69), false},
		{"auto apply off", &models.DeviceConfig{AutoApplyAI: false, AIConfidenceThreshold: 0.7}, poorResult(0.99), false},
		{"pump off recommended", &models.DeviceConfig{AutoApplyAI: true, AIConfidenceThreshold: 0.7}, &models.ClassificationResult{
			Label: models.WaterQualityExcellent, Confidence: 0.99, RecommendedAction: models.ActionPumpOff,
		}, false},
		{"device threshold", &models.DeviceConfig{AutoApplyAI: true, AIConfidenceThreshold: 0.9}, poorResult(0.85), false},
		{"unset threshold falls back", &models.DeviceConfig{AutoApplyAI: true}, poorResult(0.75), true},
		{"unset threshold below fallback", &models.DeviceConfig{AutoApplyAI: true}, poorResult(0.65), false},
		{"nil config", nil, poorResult(0.99), false},
		{"nil result", &models.DeviceConfig{AutoApplyAI: true}, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ShouldAutoApply(tc.config, tc.result))
		})
	}
}

func enableAutoApply(t *testing.T, iotObj *IOT, deviceID string, threshold float64) {
	t.Helper()

	_, err := iotObj.Telemetry.IngestTelemetry(deviceID, &models.Telemetry{Ph: 7, Turbidity: 10, Temperature: 27})
	require.NoError(t, err)

	autoApply := true
	_, err = iotObj.Device.UpdateSettings(deviceID, &models.DeviceSettings{
		AutoApplyAI:           &autoApply,
		AIConfidenceThreshold: &threshold,
	})
	require.NoError(t, err)
}

func TestDecideFromTelemetry_AutoApply(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	enableAutoApply(t, iotObj, deviceID, 0.7)

	reading := &models.Telemetry{DeviceID: deviceID, Ph: 5.9, Turbidity: 80, Temperature: 33}

	m.Classifier.EXPECT().
		Classify(gomock.Any(), gomock.Eq(&models.ClassificationRequest{Ph: 5.9, Turbidity: 80, Temperature: 33})).
		Return(poorResult(0.92), nil)

	published := map[string][]byte{}
	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(topic string, p []byte) error {
			published[topic] = p
			return nil
		}).
		Times(2)

	decision, err := iotObj.Decision.DecideFromTelemetry(context.Background(), reading)
	require.NoError(t, err)
	assert.True(t, decision.AutoApplied)
	assert.True(t, strings.HasPrefix(decision.CommandID, "AI_"))

	var notification models.AIResultNotification
	require.NoError(t, json.Unmarshal(published["agrosense/"+deviceID+"/ai-result"], &notification))
	assert.Equal(t, deviceID, notification.DeviceID)
	require.NotNil(t, notification.WaterQuality)
	assert.Equal(t, models.WaterQualityPoor, notification.WaterQuality.Label)
	assert.Equal(t, 2, notification.WaterQuality.Class)
	assert.Equal(t, 0.92, notification.WaterQuality.Confidence)
	assert.Equal(t, models.ActionPumpOn, notification.Recommend.Action)
	assert.Equal(t, 300, notification.Recommend.Duration)
	assert.Contains(t, notification.Recommend.Message, "92.0%")
	assert.Equal(t, models.SensorData{Ph: 5.9, Turbidity: 80, Temperature: 33}, notification.SensorData)
	assert.Empty(t, notification.Error)
	_, err = time.Parse(time.RFC3339Nano, notification.Timestamp)
	assert.NoError(t, err)

	var cmd models.Command
	require.NoError(t, json.Unmarshal(published["agrosense/"+deviceID+"/cmd"], &cmd))
	assert.Equal(t, decision.CommandID, cmd.CmdID)
	assert.Equal(t, models.ActionPumpOn, cmd.Action)
	assert.Equal(t, 300, cmd.DurationSeconds)
}

func TestDecideFromTelemetry_NotifiesWithoutAutoApply(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Command: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	_, err := iotObj.Telemetry.IngestTelemetry(deviceID, &models.Telemetry{Ph: 7, Turbidity: 10, Temperature: 27})
	require.NoError(t, err)

	m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(poorResult(0.99), nil)
	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().Publish(gomock.Eq("agrosense/"+deviceID+"/ai-result"), gomock.Any()).Return(nil)
	m.Command.EXPECT().DispatchCommand(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	decision, err := iotObj.Decision.DecideFromTelemetry(context.Background(), &models.Telemetry{
		DeviceID: deviceID, Ph: 7, Turbidity: 10, Temperature: 27,
	})
	require.NoError(t, err)
	assert.False(t, decision.AutoApplied)
	assert.Empty(t, decision.CommandID)
}

func TestDecideFromTelemetry_ThresholdIsStrict(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Command: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	enableAutoApply(t, iotObj, deviceID, 0.8)

	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	gomock.InOrder(
		m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(poorResult(0.8), nil),
		m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(poorResult(0.81), nil),
	)
	m.Command.EXPECT().
		DispatchCommand(gomock.Eq(deviceID), gomock.Eq(models.CommandSourceAI), gomock.Eq(models.ActionPumpOn),
			gomock.Eq(models.CommandParams{DurationSeconds: 300})).
		Return("AI_test").
		Times(1)

	reading := &models.Telemetry{DeviceID: deviceID, Ph: 6, Turbidity: 70, Temperature: 30}

	decision, err := iotObj.Decision.DecideFromTelemetry(context.Background(), reading)
	require.NoError(t, err)
	assert.False(t, decision.AutoApplied)

	decision, err = iotObj.Decision.DecideFromTelemetry(context.Background(), reading)
	require.NoError(t, err)
	assert.True(t, decision.AutoApplied)
	assert.Equal(t, "AI_test", decision.CommandID)
}

func TestDecideFromTelemetry_ClassifierFailure(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{Command: true})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	enableAutoApply(t, iotObj, deviceID, 0.5)

	m.Classifier.EXPECT().
		Classify(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connect: connection refused"))

	var payload []byte
	m.Publisher.EXPECT().IsConnected().Return(true).AnyTimes()
	m.Publisher.EXPECT().
		Publish(gomock.Eq("agrosense/"+deviceID+"/ai-result"), gomock.Any()).
		DoAndReturn(func(topic string, p []byte) error {
			payload = p
			return nil
		})
	m.Command.EXPECT().DispatchCommand(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	decision, err := iotObj.Decision.DecideFromTelemetry(context.Background(), &models.Telemetry{
		DeviceID: deviceID, Ph: 5, Turbidity: 90, Temperature: 35,
	})
	assert.Nil(t, decision)
	assert.ErrorIs(t, err, ErrClassifierUnavailable)

	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, "connect: connection refused", body["error"])
	assert.Nil(t, body["waterQuality"])
	recommend := body["recommend"].(map[string]any)
	assert.Equal(t, "NONE", recommend["action"])
	assert.Equal(t, models.NoRecommendationMessage, recommend["message"])

	// the stored reading is untouched by the failure
	readings, err := iotObj.Telemetry.GetRecentTelemetry(deviceID, 10)
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}

func TestDecideFromTelemetry_TransportDown(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, MockOpts{})
	defer ctrl.Finish()

	deviceID := newDeviceID()
	enableAutoApply(t, iotObj, deviceID, 0.7)

	m.Classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(poorResult(0.95), nil)
	m.Publisher.EXPECT().IsConnected().Return(false).AnyTimes()
	m.Publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	decision, err := iotObj.Decision.DecideFromTelemetry(context.Background(), &models.Telemetry{
		DeviceID: deviceID, Ph: 5, Turbidity: 90, Temperature: 35,
	})
	require.NoError(t, err)
	assert.True(t, decision.AutoApplied)
	assert.True(t, strings.HasPrefix(decision.CommandID, "AI_"))
}

func TestRecommendationMessage(t *testing.T) {
	assert.Equal(t,
		"Water quality POOR (92.0% confidence). Run the pump for 300s now.",
		models.RecommendationMessage(poorResult(0.92)))
	assert.Equal(t,
		"Water quality GOOD (85.0% confidence). Keep monitoring.",
		models.RecommendationMessage(&models.ClassificationResult{Label: models.WaterQualityGood, Confidence: 0.85}))
	assert.Equal(t,
		"Water quality EXCELLENT (99.0% confidence). No action needed.",
		models.RecommendationMessage(&models.ClassificationResult{Label: models.WaterQualityExcellent, Confidence: 0.99}))
}
