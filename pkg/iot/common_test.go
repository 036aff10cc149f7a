package iot

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/aquapond-service/pkg/db"
	"liyu1981.xyz/aquapond-service/pkg/iot/mocks"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

const testNamespace = "agrosense"

// MockOpts selects which services are replaced by gomock mocks. The publisher
// and the classifier are always mocks.
type MockOpts struct {
	Device    bool
	Telemetry bool
	Alert     bool
	Decision  bool
	Firmware  bool
	Command   bool
}

type IOTMocks struct {
	Publisher  *mocks.MockPublisher
	Classifier *mocks.MockClassifier
	Device     *mocks.MockIDevice
	Telemetry  *mocks.MockITelemetry
	Alert      *mocks.MockIAlert
	Decision   *mocks.MockIDecision
	Firmware   *mocks.MockIFirmware
	Command    *mocks.MockICommand
}

func GetMockIOTWithMemorySqliteDialector(t *testing.T, opts MockOpts) (*gomock.Controller, *IOT, *IOTMocks) {
	ctrl := gomock.NewController(t)

	m := &IOTMocks{
		Publisher:  mocks.NewMockPublisher(ctrl),
		Classifier: mocks.NewMockClassifier(ctrl),
		Device:     mocks.NewMockIDevice(ctrl),
		Telemetry:  mocks.NewMockITelemetry(ctrl),
		Alert:      mocks.NewMockIAlert(ctrl),
		Decision:   mocks.NewMockIDecision(ctrl),
		Firmware:   mocks.NewMockIFirmware(ctrl),
		Command:    mocks.NewMockICommand(ctrl),
	}

	dialector := db.UseMemorySqliteDialector()
	dbInstance := db.GetInstance(dialector) // ensure migrations
	iotInstance := NewIOT(*dbInstance, m.Publisher, m.Classifier, testNamespace)

	serviceOpts := ServiceOpts{}
	if opts.Device {
		serviceOpts.Device = m.Device
	}
	if opts.Telemetry {
		serviceOpts.Telemetry = m.Telemetry
	}
	if opts.Alert {
		serviceOpts.Alert = m.Alert
	}
	if opts.Decision {
		serviceOpts.Decision = m.Decision
	}
	if opts.Firmware {
		serviceOpts.Firmware = m.Firmware
	}
	if opts.Command {
		serviceOpts.Command = m.Command
	}
	iotInstance.WithServices(serviceOpts)

	return ctrl, iotInstance, m
}

func newDeviceID() string {
	return models.NormalizeDeviceID(uuid.NewString())
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
