package iot

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

type PipelineOpts struct {
	QueueSize       int
	DecisionWorkers int
	ClassifyTimeout time.Duration
	IdleTimeout     time.Duration
}

// Pipeline turns routed messages into ordered per-device jobs. Telemetry is
// stored and checked for alerts on the device queue, classification runs on a
// separate worker pool so a slow classifier never holds a device queue. A
// device always hashes to the same decision worker, so its ai-results and
// commands go out in reading order.
type Pipeline struct {
	iot             *IOT
	queues          *DeviceQueues
	decisions       []chan *models.Telemetry
	classifyTimeout time.Duration
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

func NewPipeline(iot *IOT, opts PipelineOpts) *Pipeline {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.DecisionWorkers <= 0 {
		opts.DecisionWorkers = 4
	}
	if opts.ClassifyTimeout <= 0 {
		opts.ClassifyTimeout = 10 * time.Second
	}

	p := &Pipeline{
		iot:             iot,
		queues:          NewDeviceQueues(opts.QueueSize, opts.IdleTimeout),
		decisions:       make([]chan *models.Telemetry, opts.DecisionWorkers),
		classifyTimeout: opts.ClassifyTimeout,
	}

	for n := range p.decisions {
		p.decisions[n] = make(chan *models.Telemetry, opts.QueueSize)
		p.wg.Add(1)
		go p.decisionWorker(p.decisions[n])
	}

	return p
}

func pipelineLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTPipeline),
	)
}

// HandleTelemetry takes the device id as it appears in the topic; the
// reading carries it along for replies.
func (p *Pipeline) HandleTelemetry(deviceID string, msg *models.TelemetryMessage) error {
	id := models.NormalizeDeviceID(deviceID)
	reading := msg.ToTelemetry(deviceID)

	err := p.queues.Enqueue(id, func() { p.processTelemetry(id, reading) })
	if err != nil {
		pipelineLogger().Warn("Telemetry dropped", zap.String("device_id", id), zap.Error(err))
	}
	return err
}

func (p *Pipeline) HandleOTAProgress(deviceID string, msg *models.OTAProgress) error {
	id := models.NormalizeDeviceID(deviceID)

	err := p.queues.Enqueue(id, func() {
		if _, err := p.iot.Firmware.ApplyOTAProgress(id, msg); err != nil {
			pipelineLogger().Error("OTA progress failed", zap.String("device_id", id), zap.Error(err))
		}
	})
	if err != nil {
		pipelineLogger().Warn("OTA progress dropped", zap.String("device_id", id), zap.Error(err))
	}
	return err
}

func (p *Pipeline) processTelemetry(deviceID string, input *models.Telemetry) {
	logger := pipelineLogger()

	reading, err := p.iot.Telemetry.IngestTelemetry(deviceID, input)
	if err != nil {
		logger.Error("Telemetry ingestion failed", zap.String("device_id", deviceID), zap.Error(err))
		return
	}

	// alerts and AI are best effort, the reading is already stored
	alerts, err := p.iot.Alert.GetActiveAlerts(deviceID)
	if err != nil {
		logger.Warn("Alert evaluation failed", zap.String("device_id", deviceID), zap.Error(err))
	} else if len(alerts) > 0 {
		logger.Info("Device has active alerts", zap.String("device_id", deviceID), zap.Int("count", len(alerts)))
	}

	select {
	case p.decisionsFor(deviceID) <- reading:
	default:
		logger.Warn("Decision queue full, classification skipped", zap.String("device_id", deviceID))
	}
}

func (p *Pipeline) decisionsFor(deviceID string) chan *models.Telemetry {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))
	return p.decisions[h.Sum32()%uint32(len(p.decisions))]
}

func (p *Pipeline) decisionWorker(decisions <-chan *models.Telemetry) {
	defer p.wg.Done()

	for reading := range decisions {
		ctx, cancel := context.WithTimeout(context.Background(), p.classifyTimeout)
		_, err := p.iot.Decision.DecideFromTelemetry(ctx, reading)
		cancel()
		if err != nil {
			pipelineLogger().Warn("AI decision failed", zap.String("device_id", reading.DeviceID), zap.Error(err))
		}
	}
}

// Close stops intake, drains the device queues, then the decision workers.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.queues.Close()
		for _, decisions := range p.decisions {
			close(decisions)
		}
		p.wg.Wait()
	})
}
