// Package metrics exports Prometheus metrics for a modkit module tree:
// submodule resolutions (through a ResolveHook) and scheduler job executions.
//
// The collector lives outside the tree so the root can install its hook
// before any submodule exists:
//
//	collector := metrics.NewCollector("modkit")
//	props := modkit.Props{
//		OnResolve: []modkit.ResolveHook{collector.ResolveHook()},
//		Modules:   map[string]modkit.Factory{"metrics": metrics.Factory(collector)},
//	}
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/modules/scheduler"
)

// Collector holds the module tree metrics in a private registry.
type Collector struct {
	registry *prometheus.Registry

	resolutions       *prometheus.CounterVec
	resolutionLatency *prometheus.HistogramVec
	jobs              *prometheus.CounterVec
	jobLatency        *prometheus.HistogramVec
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "modkit"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "module",
			Name:      "resolutions_total",
			Help:      "Submodule construction attempts by module namespace and result",
		},
		[]string{"module", "result"},
	)

	c.resolutionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "module",
			Name:      "resolution_duration_seconds",
			Help:      "Time taken to construct, initialize and run a submodule",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"module"},
	)

	c.jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Scheduled job executions by job and result",
		},
		[]string{"job", "result"},
	)

	c.jobLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Time taken by a scheduled job",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"job"},
	)

	c.registry.MustRegister(
		c.resolutions,
		c.resolutionLatency,
		c.jobs,
		c.jobLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ResolveHook records every submodule construction attempt.
func (c *Collector) ResolveHook() modkit.ResolveHook {
	return func(ns string, d time.Duration, err error) {
		c.resolutions.WithLabelValues(ns, result(err)).Inc()
		c.resolutionLatency.WithLabelValues(ns).Observe(d.Seconds())
	}
}

// ObserveJob records one job execution.
func (c *Collector) ObserveJob(job string, d time.Duration, err error) {
	c.jobs.WithLabelValues(job, result(err)).Inc()
	c.jobLatency.WithLabelValues(job).Observe(d.Seconds())
}

// WatchScheduler subscribes to the job events of s.
func (c *Collector) WatchScheduler(s *scheduler.Module) {
	observe := func(failed bool) modkit.Listener {
		return func(args ...any) {
			if len(args) == 0 {
				return
			}
			event, ok := args[0].(modkit.CloudEvent)
			if !ok {
				return
			}
			var data scheduler.JobEventData
			if event.DataAs(&data) != nil {
				return
			}
			d, _ := time.ParseDuration(data.Duration)
			var err error
			switch {
			case failed && data.Code != "":
				err = modkit.NewError(modkit.Code(data.Code), data.Error, nil, nil)
			case failed:
				err = errJobFailed
			}
			c.ObserveJob(data.Job, d, err)
		}
	}
	s.On(scheduler.EventTypeJobCompleted, observe(false))
	s.On(scheduler.EventTypeJobFailed, observe(true))
}

func result(err error) string {
	if err == nil {
		return "success"
	}
	if code := modkit.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
