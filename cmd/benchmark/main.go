// Benchmark tool for exercising the Decoy evaluation endpoint.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -n 10000
//
// This tool:
//   1. Cycles a corpus of Korean chat messages across all scenarios
//   2. Sends each message to POST /evaluate
//   3. Tracks which events fire and how often
//   4. Reports latency percentiles and throughput
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// EvaluateRequest is the Decoy API request format.
type EvaluateRequest struct {
	Message  string `json:"message"`
	Scenario string `json:"scenario"`
}

// EvaluateResponse is the Decoy API response format.
type EvaluateResponse struct {
	Scenario   string `json:"scenario"`
	Evaluation struct {
		ScoreDelta float64 `json:"scoreDelta"`
		Events     []struct {
			Code   string  `json:"code"`
			Event  string  `json:"event"`
			Weight float64 `json:"weight"`
		} `json:"events"`
	} `json:"evaluation"`
}

// corpus mixes risky disclosures with protective responses so both rule
// directions get exercised.
var corpus = []string{
	"제 이름은 홍길동입니다",
	"주소는 서울시 강남구 테헤란로 123입니다",
	"주민등록번호는 990101-1234567입니다",
	"계좌번호는 110-123-456789입니다",
	"전화번호 뒷자리는 5678이에요",
	"링크 클릭했어요",
	"지금 바로 송금할게요",
	"개인정보는 알려드릴 수 없습니다",
	"공식 고객센터에 직접 확인하겠습니다",
	"이거 보이스피싱 아닌가요?",
	"대화 그만하겠습니다. 차단할게요",
	"그 링크는 위험해 보여서 누르지 않을게요",
	"사건번호랑 담당 부서를 알려주세요",
	"안녕하세요, 무슨 일이신가요?",
	"택배를 주문한 적이 없는데요",
}

var scenarios = []string{"delivery", "police", "insurance", "family", "romance"}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Decoy base URL")
	total := flag.Int("n", 10000, "Number of evaluations to run")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each evaluation result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║            DECOY BENCHMARK - Message Evaluation               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nDecoy URL:   %s\n", *baseURL)
	fmt.Printf("Requests:    %d\n", *total)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Decoy not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Decoy is running:")
		fmt.Println("  go run cmd/decoy/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Decoy is healthy")

	start := time.Now()
	latencies, eventCounts, errCount := runBenchmark(*baseURL, *total, *workers, *verbose)
	duration := time.Since(start)

	printResults(latencies, eventCounts, errCount, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func runBenchmark(baseURL string, total, numWorkers int, verbose bool) ([]time.Duration, map[string]int64, int64) {
	work := make(chan int, 100)
	var wg sync.WaitGroup

	var mu sync.Mutex
	latencies := make([]time.Duration, 0, total)
	eventCounts := make(map[string]int64)
	var errCount int64

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for n := range work {
				req := EvaluateRequest{
					Message:  corpus[n%len(corpus)],
					Scenario: scenarios[n%len(scenarios)],
				}

				start := time.Now()
				result, err := evaluate(client, baseURL, req)
				elapsed := time.Since(start)

				if err != nil {
					atomic.AddInt64(&errCount, 1)
					if verbose {
						fmt.Printf("ERROR: %s/%s -> %v\n", req.Scenario, req.Message, err)
					}
					continue
				}

				mu.Lock()
				latencies = append(latencies, elapsed)
				for _, ev := range result.Evaluation.Events {
					eventCounts[ev.Event]++
				}
				mu.Unlock()

				if verbose {
					fmt.Printf("%-9s | Δ%+.2f | %2d events | %6.2fms | %s\n",
						req.Scenario,
						result.Evaluation.ScoreDelta,
						len(result.Evaluation.Events),
						float64(elapsed.Microseconds())/1000,
						req.Message,
					)
				}
			}
		}()
	}

	for n := 0; n < total; n++ {
		work <- n
	}
	close(work)
	wg.Wait()

	return latencies, eventCounts, errCount
}

func evaluate(client *http.Client, baseURL string, req EvaluateRequest) (*EvaluateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func printResults(latencies []time.Duration, eventCounts map[string]int64, errCount int64, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 REQUESTS\n")
	fmt.Printf("   Completed:  %d\n", len(latencies))
	fmt.Printf("   Errors:     %d\n", errCount)

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}

		fmt.Printf("\n⏱️  LATENCY\n")
		fmt.Printf("   Avg:  %v\n", (sum / time.Duration(len(latencies))).Round(time.Microsecond))
		fmt.Printf("   p50:  %v\n", percentile(latencies, 0.50).Round(time.Microsecond))
		fmt.Printf("   p95:  %v\n", percentile(latencies, 0.95).Round(time.Microsecond))
		fmt.Printf("   p99:  %v\n", percentile(latencies, 0.99).Round(time.Microsecond))
		fmt.Printf("   Max:  %v\n", latencies[len(latencies)-1].Round(time.Microsecond))

		fmt.Printf("\n🚀 THROUGHPUT\n")
		fmt.Printf("   Total Duration:  %v\n", duration.Round(time.Millisecond))
		fmt.Printf("   Requests/sec:    %.2f\n", float64(len(latencies))/duration.Seconds())
	}

	if len(eventCounts) > 0 {
		type entry struct {
			event string
			count int64
		}
		entries := make([]entry, 0, len(eventCounts))
		for ev, c := range eventCounts {
			entries = append(entries, entry{ev, c})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].count > entries[j].count })

		fmt.Printf("\n🔍 EVENT FIRE COUNTS\n")
		for _, e := range entries {
			fmt.Printf("   %-45s %8d\n", e.event, e.count)
		}
	}

	fmt.Println()
}
