// loadgen drives the lead submission endpoint with a steady request rate,
// useful for checking issuance throughput and the idempotent-reuse path
// against a seeded partner/offer.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTarget  = "http://localhost:8080/api/leads"
	fixedWorkers   = 20
	fixedRPSTarget = 100
	fixedDuration  = 30 * time.Second
	requestTimeout = 10 * time.Second
)

// runResult gathers aggregated metrics for the run. Atomic counters avoid
// lock contention on the hot path; LatencySum is in nanoseconds.
type runResult struct {
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
}

type leadRequest struct {
	Email   string                 `json:"email"`
	School  string                 `json:"school"`
	Role    string                 `json:"role"`
	Answers map[string]interface{} `json:"answers,omitempty"`
}

func main() {
	target := defaultTarget
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	transport := &http.Transport{
		MaxIdleConns:        fixedWorkers * 4,
		MaxIdleConnsPerHost: fixedWorkers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	client := &http.Client{Transport: transport, Timeout: requestTimeout}

	fmt.Println("==========================================")
	fmt.Println("Lead submission load generator")
	fmt.Println("==========================================")
	fmt.Printf("Target   : %s\n", target)
	fmt.Printf("RPS      : %d\n", fixedRPSTarget)
	fmt.Printf("Duration : %v\n", fixedDuration)
	fmt.Println("==========================================")

	burst := fixedRPSTarget / fixedWorkers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(fixedRPSTarget), burst)

	ctx, cancel := context.WithTimeout(context.Background(), fixedDuration)
	defer cancel()

	var result runResult
	var seq int64
	var wg sync.WaitGroup

	for i := 0; i < fixedWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil { // context cancelled
					return
				}
				n := atomic.AddInt64(&seq, 1)
				doRequest(client, target, n, &result)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done()
	wg.Wait()

	totalDur := time.Since(start)
	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()

	var successRate float64
	if result.TotalRequests > 0 {
		successRate = float64(result.SuccessCount) / float64(result.TotalRequests) * 100
	}
	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Println("==========================================")
	fmt.Printf("Elapsed          : %.2fs\n", totalDur.Seconds())
	fmt.Printf("Total requests   : %d\n", result.TotalRequests)
	fmt.Printf("Succeeded        : %d\n", result.SuccessCount)
	fmt.Printf("Failed           : %d\n", result.ErrorCount)
	fmt.Printf("Actual RPS       : %.2f\n", actualRPS)
	fmt.Printf("Success rate     : %.2f%%\n", successRate)
	fmt.Printf("Average latency  : %v\n", avgLatency)
	fmt.Println("==========================================")
}

// doRequest posts one submission. Each request gets its own timeout so a
// run ending mid-flight does not count as a failure.
func doRequest(client *http.Client, target string, seq int64, result *runResult) {
	body, err := json.Marshal(leadRequest{
		Email:  fmt.Sprintf("load+%d@example.com", seq),
		School: "UCSD",
		Role:   "buyer",
	})
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
	} else {
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}
