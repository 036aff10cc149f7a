package iot

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
)

const defaultQueueIdleTimeout = 30 * time.Second

// DeviceQueues runs jobs of one device strictly in order while different
// devices proceed in parallel. Each device gets a worker on first use, the
// worker goes away after sitting idle.
type DeviceQueues struct {
	mu          sync.Mutex
	queues      map[string]chan func()
	size        int
	idleTimeout time.Duration
	closed      bool
	wg          sync.WaitGroup
}

func NewDeviceQueues(size int, idleTimeout time.Duration) *DeviceQueues {
	if size <= 0 {
		size = 1
	}
	if idleTimeout <= 0 {
		idleTimeout = defaultQueueIdleTimeout
	}
	return &DeviceQueues{
		queues:      make(map[string]chan func()),
		size:        size,
		idleTimeout: idleTimeout,
	}
}

// Enqueue never blocks: a full device queue rejects the job with ErrQueueFull.
func (d *DeviceQueues) Enqueue(deviceID string, job func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrPipelineClosed
	}

	queue, exists := d.queues[deviceID]
	if !exists {
		queue = make(chan func(), d.size)
		d.queues[deviceID] = queue
		d.wg.Add(1)
		go d.work(deviceID, queue)
	}

	select {
	case queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Active returns how many device workers are alive.
func (d *DeviceQueues) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close rejects new jobs, lets every worker drain what is queued and waits.
func (d *DeviceQueues) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, queue := range d.queues {
			close(queue)
		}
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *DeviceQueues) work(deviceID string, queue chan func()) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case job, ok := <-queue:
			if !ok {
				return
			}
			d.run(deviceID, job)
			idle.Reset(d.idleTimeout)
		case <-idle.C:
			d.mu.Lock()
			if !d.closed && len(queue) == 0 {
				delete(d.queues, deviceID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			idle.Reset(d.idleTimeout)
		}
	}
}

func (d *DeviceQueues) run(deviceID string, job func()) {
	defer func() {
		if r := recover(); r != nil {
			common.GetLoggerWith(
				common.LoggerNameIOTCore,
				zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTPipeline),
			).Error("Device job panicked", zap.String("device_id", deviceID), zap.Any("panic", r))
		}
	}()
	job()
}
