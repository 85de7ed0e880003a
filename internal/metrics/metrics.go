package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MukeshR-prog/distributer/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Distribution metrics
	distributionsByStrategy   map[types.Strategy]int64
	RecordsDistributedTotal   int64
	RecordsRedistributedTotal int64
	RedistributionsTotal      int64
	DistributionsDeletedTotal int64
	DistributionErrorsTotal   int64
	lastDistributionDuration  time.Duration

	// Record lifecycle metrics
	StatusUpdatesTotal    int64
	StatusUpdateErrors    int64
	VersionConflictsTotal int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			distributionsByStrategy: make(map[types.Strategy]int64),
			httpRequestsTotal:       make(map[string]map[int]int64),
			httpRequestDurations:    make(map[string][]float64),
			startTime:               time.Now(),
		}
	})
	return instance
}

// RecordDistributionCreated records a finished distribution run
func (m *Metrics) RecordDistributionCreated(strategy types.Strategy, records int, duration time.Duration) {
	m.mu.Lock()
	m.distributionsByStrategy[strategy]++
	m.RecordsDistributedTotal += int64(records)
	m.lastDistributionDuration = duration
	m.mu.Unlock()
}

// RecordRedistribution records a redistribution of failed records
func (m *Metrics) RecordRedistribution(moves int) {
	m.mu.Lock()
	m.RedistributionsTotal++
	m.RecordsRedistributedTotal += int64(moves)
	m.mu.Unlock()
}

// RecordDistributionDeleted increments the deletion counter
func (m *Metrics) RecordDistributionDeleted() {
	m.mu.Lock()
	m.DistributionsDeletedTotal++
	m.mu.Unlock()
}

// RecordDistributionError increments the distribution error counter
func (m *Metrics) RecordDistributionError() {
	m.mu.Lock()
	m.DistributionErrorsTotal++
	m.mu.Unlock()
}

// RecordStatusUpdate increments the record status update counter
func (m *Metrics) RecordStatusUpdate() {
	m.mu.Lock()
	m.StatusUpdatesTotal++
	m.mu.Unlock()
}

// RecordStatusUpdateError increments the status update error counter
func (m *Metrics) RecordStatusUpdateError() {
	m.mu.Lock()
	m.StatusUpdateErrors++
	m.mu.Unlock()
}

// RecordVersionConflict counts optimistic-locking retries
func (m *Metrics) RecordVersionConflict() {
	m.mu.Lock()
	m.VersionConflictsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("distributer_uptime_seconds", time.Since(m.startTime).Seconds())

		// Distribution metrics
		var distributionsTotal int64
		for strategy, count := range m.distributionsByStrategy {
			distributionsTotal += count
			write("distributer_distributions_created_total", count, "strategy", string(strategy))
		}
		write("distributer_distributions_total", distributionsTotal)
		write("distributer_records_distributed_total", m.RecordsDistributedTotal)
		write("distributer_redistributions_total", m.RedistributionsTotal)
		write("distributer_records_redistributed_total", m.RecordsRedistributedTotal)
		write("distributer_distributions_deleted_total", m.DistributionsDeletedTotal)
		write("distributer_distribution_errors_total", m.DistributionErrorsTotal)
		write("distributer_distribution_duration_seconds", m.lastDistributionDuration.Seconds())

		// Record lifecycle metrics
		write("distributer_status_updates_total", m.StatusUpdatesTotal)
		write("distributer_status_update_errors_total", m.StatusUpdateErrors)
		write("distributer_version_conflicts_total", m.VersionConflictsTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("distributer_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
