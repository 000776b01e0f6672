package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты записи/восстановления корзины для label "result".
const (
	ResultOK        = "ok"
	ResultFailed    = "failed"
	ResultEmpty     = "empty"
	ResultMalformed = "malformed"
)

// CartMetrics содержит метрики хранилища корзины.
type CartMetrics struct {
	// Счётчики операций
	mutations *prometheus.CounterVec
	clamps    *prometheus.CounterVec

	// Персистентность
	persistAttempts *prometheus.CounterVec
	persistDuration prometheus.Histogram
	restores        *prometheus.CounterVec
	events          *prometheus.CounterVec

	// Текущее состояние
	itemCount prometheus.Gauge
	ready     prometheus.Gauge
}

// NewCartMetrics создаёт метрики в глобальном реестре Prometheus.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer создаёт метрики в указанном реестре (удобно для тестов).
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart mutations grouped by operation",
		}, []string{"operation"}),
		clamps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_quantity_clamped_total",
			Help: "Total number of mutations whose quantity was clamped to the maximum",
		}, []string{"operation"}),
		persistAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_persist_attempts_total",
			Help: "Total number of cart persistence writes grouped by result",
		}, []string{"result"}),
		persistDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "cart_persist_duration_seconds",
			Help:    "Duration of cart persistence writes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		restores: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_restores_total",
			Help: "Total number of cart restores grouped by result",
		}, []string{"result"}),
		events: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cart_events_published_total",
			Help: "Total number of cart change events grouped by result",
		}, []string{"result"}),
		itemCount: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_item_count",
			Help: "Current sum of quantities over all cart items",
		}),
		ready: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_store_ready",
			Help: "1 once the initial restore has completed, 0 while restoring",
		}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordMutation учитывает мутацию корзины и факт урезания количества.
func (m *CartMetrics) RecordMutation(operation string, clamped bool) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation).Inc()
	if clamped {
		m.clamps.WithLabelValues(operation).Inc()
	}
}

// RecordPersist учитывает попытку записи корзины в хранилище.
func (m *CartMetrics) RecordPersist(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.persistAttempts.WithLabelValues(result).Inc()
	m.persistDuration.Observe(duration.Seconds())
}

// RecordRestore учитывает результат начального восстановления.
func (m *CartMetrics) RecordRestore(result string) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(result).Inc()
}

// RecordEvent учитывает публикацию события изменения корзины.
func (m *CartMetrics) RecordEvent(result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(result).Inc()
}

// SetItemCount выставляет текущее количество единиц в корзине.
func (m *CartMetrics) SetItemCount(count int) {
	if m == nil {
		return
	}
	m.itemCount.Set(float64(count))
}

// SetReady отмечает переход хранилища в состояние Ready.
func (m *CartMetrics) SetReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.ready.Set(1)
		return
	}
	m.ready.Set(0)
}
