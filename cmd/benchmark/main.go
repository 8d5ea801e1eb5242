package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	targetURL   string
	apiKey      string
	concurrency int
	duration    time.Duration
	workload    string
)

var (
	totalRequests uint64
	success200    uint64
	fail409       uint64
	fail400       uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API base URL")
	flag.StringVar(&apiKey, "api-key", "", "x-api-key header value")
	flag.IntVar(&concurrency, "workers", 10, "number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "test duration")
	flag.StringVar(&workload, "workload", "uniform", "workload type: uniform | hotspot")
}

type accountResponse struct {
	ID string `json:"id"`
}

func main() {
	flag.Parse()
	if apiKey == "" {
		log.Fatal("-api-key is required (see cmd/seeder's logged raw key)")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	accounts, err := listAccounts(client)
	if err != nil {
		log.Fatalf("list accounts: %v", err)
	}
	if len(accounts) < 2 {
		log.Fatalf("need at least 2 accounts to benchmark transfers, found %d; run cmd/seeder first", len(accounts))
	}

	log.Printf("starting benchmark: %s | workers: %d | duration: %s | accounts: %d", workload, concurrency, duration, len(accounts))

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, accounts)
	}
	wg.Wait()
	printResults(time.Since(start))
}

func listAccounts(client *http.Client) ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, targetURL+"/accounts?limit=1000", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var accounts []accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.ID)
	}
	return ids, nil
}

func worker(wg *sync.WaitGroup, start time.Time, accounts []string) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		from, to := pickAccounts(accounts)
		key := fmt.Sprintf("bench-%s-%s-%d", from, to, time.Now().UnixNano())

		payload := map[string]interface{}{
			"from_account_id": from,
			"to_account_id":   to,
			"amount":          "1.00",
			"idempotency_key": key,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest(http.MethodPost, targetURL+"/transactions/transfer", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddUint64(&success200, 1)
		case http.StatusConflict:
			atomic.AddUint64(&fail409, 1)
		case http.StatusBadRequest:
			atomic.AddUint64(&fail400, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickAccounts(accounts []string) (string, string) {
	n := len(accounts)
	if workload == "hotspot" && rand.Float32() < 0.90 {
		if rand.Float32() < 0.5 {
			return accounts[0], accounts[1]
		}
		return accounts[1], accounts[0]
	}

	a := rand.Intn(n)
	b := rand.Intn(n)
	for a == b {
		b = rand.Intn(n)
	}
	return accounts[a], accounts[b]
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s200 := atomic.LoadUint64(&success200)
	f409 := atomic.LoadUint64(&fail409)
	f400 := atomic.LoadUint64(&fail400)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var abortRate float64
	if total > 0 {
		abortRate = float64(f409) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":           workload,
		"duration_sec":       d.Seconds(),
		"total_requests":     total,
		"throughput_tps":     tps,
		"success":            s200,
		"conflicts":          f409,
		"insufficient_funds": f400,
		"abort_rate_pct":     abortRate,
		"errors":             fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("write results file: %v", err)
		return
	}
	defer file.Close()
	_ = json.NewEncoder(file).Encode(results)
}
