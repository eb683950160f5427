package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP control-plane server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeMigrationWorker runs the batch migration coordinator.
	ServiceModeMigrationWorker ServiceMode = "migration-worker"
	// ServiceModeQueueDispatcher runs the ad-hoc queue dispatcher.
	ServiceModeQueueDispatcher ServiceMode = "queue-dispatcher"
	// ServiceModeReaper runs the lease reaper for crashed migration workers.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeMigrationWorker,
		ServiceModeQueueDispatcher,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP,
			ServiceModeMigrationWorker,
			ServiceModeQueueDispatcher,
			ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, migration-worker, queue-dispatcher, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// MigrationWorkerConfig contains migration worker configuration.
type MigrationWorkerConfig struct {
	// Lease is how long a worker owns a running job before the reaper may
	// reclaim it.
	Lease time.Duration `env:"MIGRATION_LEASE" envDefault:"2m"`

	// HeartbeatInterval is how often the worker extends job leases.
	HeartbeatInterval time.Duration `env:"MIGRATION_HEARTBEAT_INTERVAL" envDefault:"30s"`

	// Parallelism is the number of records submitted concurrently within a batch.
	Parallelism int `env:"MIGRATION_PARALLELISM" envDefault:"3"`

	// RetryBackoffBase is the base delay for linear retry backoff.
	RetryBackoffBase time.Duration `env:"MIGRATION_RETRY_BACKOFF_BASE" envDefault:"500ms"`
}

// Sanitize applies guardrails to migration worker configuration values.
func (m *MigrationWorkerConfig) Sanitize() {
	if m.Lease < 30*time.Second {
		m.Lease = 30 * time.Second
	}
	if m.HeartbeatInterval <= 0 || m.HeartbeatInterval >= m.Lease {
		m.HeartbeatInterval = m.Lease / 4
	}
	if m.Parallelism < 1 {
		m.Parallelism = 1
	}
	if m.Parallelism > 5 {
		m.Parallelism = 5
	}
	if m.RetryBackoffBase <= 0 {
		m.RetryBackoffBase = 500 * time.Millisecond
	}
}

// QueueDispatcherConfig contains queue dispatcher service configuration.
type QueueDispatcherConfig struct {
	// Interval is the dispatcher poll interval.
	Interval time.Duration `env:"QUEUE_DISPATCH_INTERVAL" envDefault:"2s"`

	// MaxAttempts is the number of attempts before a queue job is failed.
	MaxAttempts int `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`

	// DrainLimit is the maximum number of jobs one queue may yield per tick.
	DrainLimit int `env:"QUEUE_DRAIN_LIMIT" envDefault:"25"`
}

// Sanitize applies guardrails to queue dispatcher configuration values.
func (q *QueueDispatcherConfig) Sanitize() {
	if q.Interval < 100*time.Millisecond {
		q.Interval = 100 * time.Millisecond
	}
	if q.MaxAttempts < 1 {
		q.MaxAttempts = 1
	}
	if q.DrainLimit < 1 {
		q.DrainLimit = 1
	}
}

// ReaperConfig contains lease reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1m"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < 10*time.Second {
		r.Interval = 10 * time.Second
	}
}
