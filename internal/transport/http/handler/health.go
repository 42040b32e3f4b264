package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 2 * time.Second

// Probe checks one dependency. A nil Check marks an optional dependency that is switched off.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthInfo struct {
	App       string
	Env       string
	StartedAt time.Time
	LLMKeySet bool
}

type HealthHandler struct {
	info   HealthInfo
	probes []Probe
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(info HealthInfo, probes ...Probe) *HealthHandler {
	return &HealthHandler{info: info, probes: probes}
}

// Check answers 503 when any enabled dependency fails its probe.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.probes))
	healthy := true
	for _, p := range h.probes {
		status := runProbe(ctx, p)
		healthy = healthy && status.OK
		deps[p.Name] = status
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"app":          h.info.App,
		"env":          h.info.Env,
		"uptime_sec":   int(time.Since(h.info.StartedAt).Seconds()),
		"llm_key_set":  h.info.LLMKeySet,
		"dependencies": deps,
	})
}

func runProbe(ctx context.Context, p Probe) dependencyStatus {
	if p.Check == nil {
		return dependencyStatus{OK: true}
	}
	if err := p.Check(ctx); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{OK: true, Enabled: true}
}
