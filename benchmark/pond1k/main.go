package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var maxPonds int = 1000
var readingsPerPond int = 5
var httpHostPort string = "127.0.0.1:1080"
var mqttBroker string = "tcp://127.0.0.1:1883"
var namespace string = "agrosense"

func main() {
	pondIDs := make([]string, maxPonds)
	for i := range maxPonds {
		pondIDs[i] = "POND-" + strings.ToUpper(uuid.NewString()[:8])
	}
	fmt.Printf("generated %v pond IDs\n", maxPonds)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	opts := paho.NewClientOptions().
		AddBroker(mqttBroker).
		SetClientID("pond1k-" + uuid.NewString()[:8])
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal("Failed to connect to MQTT broker:", token.Error())
	}
	defer client.Disconnect(250)

	fmt.Printf("mqtt broker verified and connected\n")

	var startTime time.Time
	var usedTime time.Duration

	// half of the ponds are provisioned up front, the rest appear on first telemetry
	startTime = time.Now()
	provisioned := 0
	wg := sync.WaitGroup{}
	for i := range maxPonds {
		if !flipCoin() {
			continue
		}
		provisioned++
		wg.Add(1)
		go func() {
			defer wg.Done()
			provisionPond(pondIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"provisioned %v ponds: used time=%v seconds, throughput=%v action/second\n",
		provisioned, usedTime.Seconds(), float64(provisioned)/usedTime.Seconds(),
	)

	var published atomic.Int64
	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxPonds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range readingsPerPond {
				publishTelemetry(client, pondIDs[i])
				fmt.Printf("\rpublished %v readings", published.Add(1))
			}
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	total := maxPonds * readingsPerPond
	fmt.Printf(
		"\rpublished %v readings: used time=%v seconds, throughput=%v msg/second\n",
		total, usedTime.Seconds(), float64(total)/usedTime.Seconds(),
	)

	// the service stores asynchronously, give the device queues time to drain
	time.Sleep(3 * time.Second)

	stored := 0
	for _, pondID := range pondIDs {
		stored += countTelemetry(pondID)
	}
	fmt.Printf("stored %v of %v readings (%.2f%%)\n", stored, total, float64(stored)*100/float64(total))
}

func flipCoin() bool {
	return rand.IntN(2) == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	val := min + rand.Float64()*(max-min)
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func provisionPond(pondID string) {
	jsonData, _ := json.Marshal(map[string]string{
		"deviceId": pondID,
		"name":     "Bench " + pondID,
		"location": "Benchmark farm",
	})
	resp, err := http.Post(fmt.Sprintf("http://%s/devices", httpHostPort), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		panic(fmt.Sprintf("provision %s: status %d", pondID, resp.StatusCode))
	}
}

func publishTelemetry(client paho.Client, pondID string) {
	payload, _ := json.Marshal(map[string]any{
		"ph":          rndFloat64(5.5, 9.0, 2),
		"turbidity":   rndFloat64(0, 120, 1),
		"temperature": rndFloat64(18, 35, 1),
		"pump_state":  flipCoin(),
		"timestamp":   time.Now().Unix(),
	})

	topic := fmt.Sprintf("%s/%s/telemetry", namespace, pondID)
	token := client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish to %s failed: %v", topic, err)
	}
}

func countTelemetry(pondID string) int {
	resp, err := http.Get(fmt.Sprintf("http://%s/devices/%s/telemetry?limit=%d", httpHostPort, pondID, readingsPerPond))
	if err != nil {
		log.Printf("telemetry for %s: %v", pondID, err)
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("telemetry for %s: status %d", pondID, resp.StatusCode)
		return 0
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("telemetry for %s: %v", pondID, err)
		return 0
	}
	return body.Count
}
