package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics содержит метрики саги покупки и кредитных операций.
type SagaMetrics struct {
	// Счётчики операций
	purchasesStarted   prometheus.Counter
	purchasesCompleted prometheus.Counter
	purchasesFailed    prometheus.Counter
	purchasesRefunded  prometheus.Counter
	shipmentFailures   prometheus.Counter

	// Счётчики леджера по типу операции
	creditOperations *prometheus.CounterVec

	// Гистограммы времени выполнения
	purchaseDuration prometheus.Histogram
	stepDuration     *prometheus.HistogramVec

	// Gauge для активных саг
	activePurchases prometheus.Gauge
}

// NewSagaMetrics создаёт новый экземпляр метрик саги.
func NewSagaMetrics() *SagaMetrics {
	return newSagaMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSagaMetricsWithRegisterer(registerer prometheus.Registerer) *SagaMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SagaMetrics{
		purchasesStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "credits_purchase_saga_started_total",
			Help: "Total number of purchase sagas started",
		}),
		purchasesCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "credits_purchase_saga_completed_total",
			Help: "Total number of purchase sagas completed successfully",
		}),
		purchasesFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "credits_purchase_saga_failed_total",
			Help: "Total number of purchase sagas rolled back",
		}),
		purchasesRefunded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "credits_purchase_refunds_total",
			Help: "Total number of refunds processed",
		}),
		shipmentFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "credits_shipment_failures_total",
			Help: "Total number of shipment creation failures",
		}),
		creditOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "credits_ledger_operations_total",
			Help: "Total number of credit ledger operations by type",
		}, []string{"type"}),
		purchaseDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "credits_purchase_saga_duration_seconds",
			Help:    "Duration of purchase sagas in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "credits_purchase_saga_step_duration_seconds",
			Help:    "Duration of individual purchase saga steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		activePurchases: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "credits_active_purchase_sagas",
			Help: "Number of currently active purchase sagas",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
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

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPurchaseStarted увеличивает счётчик запущенных саг покупки.
func (m *SagaMetrics) RecordPurchaseStarted() {
	m.purchasesStarted.Inc()
	m.activePurchases.Inc()
}

// RecordPurchaseCompleted увеличивает счётчик успешных покупок.
func (m *SagaMetrics) RecordPurchaseCompleted() {
	m.purchasesCompleted.Inc()
}

// RecordPurchaseFailed увеличивает счётчик откаченных покупок.
func (m *SagaMetrics) RecordPurchaseFailed() {
	m.purchasesFailed.Inc()
}

// RecordPurchaseRefunded увеличивает счётчик возвратов.
func (m *SagaMetrics) RecordPurchaseRefunded() {
	m.purchasesRefunded.Inc()
}

// RecordShipmentFailure увеличивает счётчик отказов доставки.
func (m *SagaMetrics) RecordShipmentFailure() {
	m.shipmentFailures.Inc()
}

// RecordCreditOperation увеличивает счётчик леджерных операций данного типа.
func (m *SagaMetrics) RecordCreditOperation(operationType string) {
	m.creditOperations.WithLabelValues(operationType).Inc()
}

// RecordPurchaseFinished уменьшает количество активных саг.
func (m *SagaMetrics) RecordPurchaseFinished() {
	m.activePurchases.Dec()
}

// RecordPurchaseDuration записывает время выполнения саги покупки.
func (m *SagaMetrics) RecordPurchaseDuration(duration time.Duration) {
	m.purchaseDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага саги.
func (m *SagaMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}
