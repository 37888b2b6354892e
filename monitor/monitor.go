// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers   prometheus.Gauge
	ActiveRooms     prometheus.Gauge
	Questions       prometheus.Counter
	Guesses         prometheus.Counter
	Hints           prometheus.Counter
	EngineFallbacks prometheus.Counter
	EngineLatency   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of online players",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of active rooms",
		}),
		Questions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Total number of questions asked",
		}),
		Guesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Total number of guesses submitted",
		}),
		Hints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hints_total",
			Help:      "Total number of hints requested",
		}),
		EngineFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_fallbacks_total",
			Help:      "Times the remote reasoning engine failed and the local engine answered",
		}),
		EngineLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_latency_seconds",
			Help:      "Narrator engine call latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.Questions,
		m.Guesses,
		m.Hints,
		m.EngineFallbacks,
		m.EngineLatency,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncQuestions() {
	m.metrics.Questions.Inc()
	m.countRequest()
}

func (m *Monitor) IncGuesses() {
	m.metrics.Guesses.Inc()
	m.countRequest()
}

func (m *Monitor) IncHints() {
	m.metrics.Hints.Inc()
	m.countRequest()
}

func (m *Monitor) IncEngineFallbacks() {
	m.metrics.EngineFallbacks.Inc()
}

func (m *Monitor) ObserveEngineLatency(duration time.Duration) {
	m.metrics.EngineLatency.Observe(duration.Seconds())
}

func (m *Monitor) countRequest() {
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}
