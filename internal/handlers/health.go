package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const serviceVersion = "1.0.0"

// Health is the liveness endpoint: unauthenticated, never rate limited.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "bikerly-api",
		"version": serviceVersion,
	})
}

// SystemSnapshot reports host resource usage for the detailed health view.
type SystemSnapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    float64   `json:"cpu_percent"`
	CPUCount      int       `json:"cpu_count"`
	MemoryTotal   uint64    `json:"memory_total"`
	MemoryUsed    uint64    `json:"memory_used"`
	MemoryPercent float64   `json:"memory_percent"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	GoRoutines    int       `json:"go_routines"`
}

// HealthSystem returns a host resource snapshot. Collection failures leave
// the affected fields at zero rather than failing the endpoint.
func HealthSystem(w http.ResponseWriter, r *http.Request) {
	snapshot := SystemSnapshot{
		Timestamp:  time.Now().UTC(),
		GoRoutines: runtime.NumGoroutine(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snapshot.CPUPercent = percents[0]
	}
	if count, err := cpu.Counts(true); err == nil {
		snapshot.CPUCount = count
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snapshot.MemoryTotal = vm.Total
		snapshot.MemoryUsed = vm.Used
		snapshot.MemoryPercent = vm.UsedPercent
	}
	if uptime, err := host.Uptime(); err == nil {
		snapshot.UptimeSeconds = uptime
	}

	WriteJSON(w, http.StatusOK, snapshot)
}
