// Load test for synapsed's HTTP surface.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	testServerURL = "http://localhost:8080"
	testNamespace = "default"
)

// TestResult represents the result of a single request.
type TestResult struct {
	Name      string
	Success   bool
	Latency   time.Duration
	Error     string
	RequestID int
}

// LoadTestConfig configures the load test.
type LoadTestConfig struct {
	ServerURL     string
	Concurrent    int
	TotalRequests int
	Timeout       time.Duration
}

// DefaultLoadTestConfig returns sensible defaults.
func DefaultLoadTestConfig() *LoadTestConfig {
	return &LoadTestConfig{
		ServerURL:     testServerURL,
		Concurrent:    100,
		TotalRequests: 1000,
		Timeout:       10 * time.Second,
	}
}

// runIngestLoadTest fires concurrent ingest requests at synapsed.
func runIngestLoadTest(cfg *LoadTestConfig, logger *zap.Logger) []TestResult {
	results := make([]TestResult, cfg.TotalRequests)
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, cfg.Concurrent)
	client := &http.Client{Timeout: cfg.Timeout}

	startTime := time.Now()

	logger.Info("Starting ingest load test",
		zap.String("server", cfg.ServerURL),
		zap.Int("concurrent", cfg.Concurrent),
		zap.Int("total_requests", cfg.TotalRequests),
	)

	for i := 0; i < cfg.TotalRequests; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(requestID int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			start := time.Now()
			result := TestResult{
				Name:      fmt.Sprintf("ingest %d", requestID),
				RequestID: requestID,
			}

			body, _ := json.Marshal(map[string]interface{}{
				"namespace": testNamespace,
				"triples": []map[string]string{
					{
						"subject":   fmt.Sprintf("http://synapse.os/load/%d", requestID),
						"predicate": "http://synapse.os/generatedBy",
						"object":    "loadtest",
					},
				},
			})

			resp, err := client.Post(cfg.ServerURL+"/v1/ingest", "application/json", bytes.NewReader(body))
			if err != nil {
				result.Success = false
				result.Error = err.Error()
			} else {
				defer resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					result.Success = true
				} else {
					result.Success = false
					result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
				}
			}

			result.Latency = time.Since(start)
			results[requestID] = result
		}(i)
	}

	wg.Wait()
	duration := time.Since(startTime)

	successCount := 0
	totalLatency := time.Duration(0)
	minLatency := time.Duration(1<<63 - 1)
	maxLatency := time.Duration(0)

	for _, r := range results {
		if r.Success {
			successCount++
			totalLatency += r.Latency
			if r.Latency < minLatency {
				minLatency = r.Latency
			}
			if r.Latency > maxLatency {
				maxLatency = r.Latency
			}
		}
	}

	successRate := float64(successCount) / float64(cfg.TotalRequests) * 100
	avgLatency := time.Duration(0)
	if successCount > 0 {
		avgLatency = totalLatency / time.Duration(successCount)
	}
	throughput := float64(cfg.TotalRequests) / duration.Seconds()

	logger.Info("Ingest load test completed",
		zap.Float64("duration_seconds", duration.Seconds()),
		zap.Float64("success_rate", successRate),
		zap.Duration("avg_latency", avgLatency),
		zap.Duration("min_latency", minLatency),
		zap.Duration("max_latency", maxLatency),
		zap.Float64("requests_per_second", throughput),
		zap.Int("success", successCount),
		zap.Int("total", cfg.TotalRequests),
	)

	return results
}

func checkHealth(baseURL string, logger *zap.Logger) bool {
	logger.Info("Checking synapsed health", zap.String("url", baseURL))

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		logger.Error("Health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Health check returned non-200", zap.Int("status", resp.StatusCode))
		return false
	}

	logger.Info("Health check passed")
	return true
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting synapsed load tests")

	if !checkHealth(testServerURL, logger) {
		logger.Fatal("synapsed is not healthy, aborting load test")
	}

	cfg := DefaultLoadTestConfig()
	results := runIngestLoadTest(cfg, logger)

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}

	if successCount == cfg.TotalRequests {
		logger.Info("Load test PASSED - all requests succeeded")
	} else {
		logger.Warn("Load test completed with some failures",
			zap.Int("succeeded", successCount),
			zap.Int("failed", cfg.TotalRequests-successCount))
	}

	logger.Info("Load tests completed")
}
