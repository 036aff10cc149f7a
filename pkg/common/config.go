package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ServiceConfig struct {
	DBType string

	HttpHostPort string
	DefaultRate  float64
	DefaultBurst int

	MQTTBroker    string
	MQTTClientID  string
	MQTTUsername  string
	MQTTPassword  string
	MQTTNamespace string

	AIServiceURL     string
	AIServiceTimeout time.Duration

	QueueSize            int
	DecisionWorkers      int
	DeviceOfflineTimeout time.Duration
	ProvisionOnOTA       bool
}

// LoadServiceConfig reads the service settings from the environment, call
// godotenv.Load before it when a .env file should be honoured.
func LoadServiceConfig() ServiceConfig {
	return ServiceConfig{
		DBType: getEnv(EnvKeyIOTDBType, "file"),

		HttpHostPort: getEnv(EnvKeyIOTHttpHostPort, ":1080"),
		DefaultRate:  getEnvFloat(EnvKeyIOTDefaultRate, 5),
		DefaultBurst: getEnvInt(EnvKeyIOTDefaultBurst, 10),

		MQTTBroker:    getEnv(EnvKeyMQTTBroker, "tcp://localhost:1883"),
		MQTTClientID:  getEnv(EnvKeyMQTTClientID, "aquapond-service"),
		MQTTUsername:  getEnv(EnvKeyMQTTUsername, ""),
		MQTTPassword:  getEnv(EnvKeyMQTTPassword, ""),
		MQTTNamespace: getEnv(EnvKeyMQTTNamespace, "agrosense"),

		AIServiceURL:     strings.TrimRight(getEnv(EnvKeyAIServiceURL, "http://127.0.0.1:8000"), "/"),
		AIServiceTimeout: getEnvDuration(EnvKeyAIServiceTimeout, 10*time.Second),

		QueueSize:            getEnvInt(EnvKeyPipelineQueueSize, 64),
		DecisionWorkers:      getEnvInt(EnvKeyPipelineDecisionWorkers, 4),
		DeviceOfflineTimeout: getEnvDuration(EnvKeyDeviceOfflineTimeout, 5*time.Minute),
		ProvisionOnOTA:       getEnvBool(EnvKeyProvisionOnOTA, false),
	}
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		warnInvalidEnv(key, value, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil || intValue <= 0 {
		warnInvalidEnv(key, value, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		warnInvalidEnv(key, value, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		warnInvalidEnv(key, value, err)
		return defaultValue
	}
	return d
}

func warnInvalidEnv(key, value string, err error) {
	GetLogger().Warn("Invalid environment value, using default",
		zap.String("key", key),
		zap.String("value", value),
		zap.Error(err))
}
