package models

import "encoding/json"

type CommandAction string

const (
	ActionPumpOn    CommandAction = "PUMP_ON"
	ActionPumpOff   CommandAction = "PUMP_OFF"
	ActionOTAUpdate CommandAction = "OTA_UPDATE"
	ActionNone      CommandAction = "NONE"
)

// CommandSource is the cmd_id prefix, it tells who issued a command.
type CommandSource string

const (
	CommandSourceAI   CommandSource = "AI"
	CommandSourceUser CommandSource = "CMD"
	CommandSourceOTA  CommandSource = "OTA"
)

type CommandParams struct {
	DurationSeconds int
	Version         string
	URL             string
	Size            int64
}

// Command is the wire shape published on <ns>/<deviceId>/cmd.
type Command struct {
	CmdID           string        `json:"cmd_id"`
	Action          CommandAction `json:"action"`
	DurationSeconds int           `json:"dur_s,omitempty"`
	Version         string        `json:"version,omitempty"`
	URL             string        `json:"url,omitempty"`
	Size            int64         `json:"size,omitempty"`
}

// MarshalJSON always writes dur_s for pump actions, zero included.
func (c Command) MarshalJSON() ([]byte, error) {
	type wire Command
	if c.Action != ActionPumpOn && c.Action != ActionPumpOff {
		return json.Marshal(wire(c))
	}
	return json.Marshal(struct {
		wire
		DurationSeconds int `json:"dur_s"`
	}{wire(c), c.DurationSeconds})
}

func NewCommand(cmdID string, action CommandAction, params CommandParams) Command {
	return Command{
		CmdID:           cmdID,
		Action:          action,
		DurationSeconds: params.DurationSeconds,
		Version:         params.Version,
		URL:             params.URL,
		Size:            params.Size,
	}
}

type FirmwareUpdateRequest struct {
	Version string
	URL     string
	Size    int64
}
