package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTLogDir string = "IOT_LOG_DIR"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyMQTTBroker    string = "MQTT_BROKER"
	EnvKeyMQTTClientID  string = "MQTT_CLIENT_ID"
	EnvKeyMQTTUsername  string = "MQTT_USERNAME"
	EnvKeyMQTTPassword  string = "MQTT_PASSWORD"
	EnvKeyMQTTNamespace string = "MQTT_NAMESPACE"

	EnvKeyAIServiceURL     string = "AI_SERVICE_URL"
	EnvKeyAIServiceTimeout string = "AI_SERVICE_TIMEOUT"

	EnvKeyPipelineQueueSize       string = "PIPELINE_QUEUE_SIZE"
	EnvKeyPipelineDecisionWorkers string = "PIPELINE_DECISION_WORKERS"
	EnvKeyDeviceOfflineTimeout    string = "DEVICE_OFFLINE_TIMEOUT"
	EnvKeyProvisionOnOTA          string = "PROVISION_ON_OTA"

	LoggerNameIOTCore       string = "iot_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameMQTTTransport string = "mqtt_transport"
	LoggerNameClassifier    string = "classifier"

	LoggerFieldIOTCategory     string = "category"
	LoggerCategoryIOTTelemetry string = "telemetry"
	LoggerCategoryIOTAlert     string = "alert"
	LoggerCategoryIOTDecision  string = "decision"
	LoggerCategoryIOTFirmware  string = "firmware"
	LoggerCategoryIOTCommand   string = "command"
	LoggerCategoryIOTDevice    string = "device"
	LoggerCategoryIOTPipeline  string = "pipeline"
)
