package iot

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

// NewCommandID returns <SOURCE>_<uuid v7>. v7 ids sort by creation time and
// stay unique across restarts and concurrent callers.
func NewCommandID(source models.CommandSource) string {
	return string(source) + "_" + uuid.Must(uuid.NewV7()).String()
}

// ParseCommandSource recovers who issued a command from its id.
func ParseCommandSource(cmdID string) (models.CommandSource, bool) {
	prefix, rest, found := strings.Cut(cmdID, "_")
	if !found || rest == "" {
		return "", false
	}
	switch source := models.CommandSource(prefix); source {
	case models.CommandSourceAI, models.CommandSourceUser, models.CommandSourceOTA:
		return source, true
	}
	return "", false
}

func (i *IOT) dispatchCommand(
	deviceID string,
	source models.CommandSource,
	action models.CommandAction,
	params models.CommandParams,
) string {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTCommand),
	)

	id := models.NormalizeDeviceID(deviceID)
	cmdID := NewCommandID(source)
	command := models.NewCommand(cmdID, action, params)

	if i.Publisher == nil || !i.Publisher.IsConnected() {
		logger.Warn("Transport not connected, command not sent",
			zap.String("device_id", id),
			zap.Reflect("command", command))
		return cmdID
	}

	payload, err := json.Marshal(command)
	if err != nil {
		logger.Error("Failed to encode command", zap.String("device_id", id), zap.Error(err))
		return cmdID
	}

	topic := i.topic(i.outboundID(deviceID), models.MessageKindCommand)
	if err := i.Publisher.Publish(topic, payload); err != nil {
		logger.Error("Failed to publish command",
			zap.String("topic", topic),
			zap.Reflect("command", command),
			zap.Error(err))
		return cmdID
	}

	logger.Info("Command sent", zap.String("topic", topic), zap.Reflect("command", command))

	return cmdID
}

type ICommandImpl struct {
	iot *IOT
}

func (ic *ICommandImpl) DispatchCommand(
	deviceID string,
	source models.CommandSource,
	action models.CommandAction,
	params models.CommandParams,
) string {
	return ic.iot.dispatchCommand(deviceID, source, action, params)
}

func (i *IOT) GetICommand() ICommand {
	return &ICommandImpl{iot: i}
}
