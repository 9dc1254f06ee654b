package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Users          int       `json:"users"`
	Connections    int       `json:"connections"`
	WorkerRestarts int64     `json:"workerRestarts"`
	RSSBytes       uint64    `json:"rssBytes"`
	CPUPercent     float64   `json:"cpuPercent"`
}

func HandleHealth(log *slog.Logger, stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := stats.Stats()
		response := HealthResponse{
			Status:         "UP",
			Timestamp:      time.Now().UTC(),
			Users:          current.Users,
			Connections:    current.Connections,
			WorkerRestarts: current.WorkerRestarts,
		}
		if rss, cpu, err := selfStats(); err != nil {
			log.Debug("Process stats unavailable", "error", err)
		} else {
			response.RSSBytes, response.CPUPercent = rss, cpu
		}
		writeJSON(log, w, http.StatusOK, response)
	}
}

// selfStats retrieves memory and CPU usage of the running server.
func selfStats() (uint64, float64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
