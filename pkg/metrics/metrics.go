package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций бронирования
const (
	OutcomeConfirmed  = "confirmed"
	OutcomeWaitlisted = "waitlisted"
	OutcomeCancelled  = "cancelled"
	OutcomePromoted   = "promoted"
	OutcomeRejected   = "rejected"
	OutcomeBusy       = "busy"
	OutcomeError      = "error"
)

// Metrics набор prometheus-метрик сервиса
// Все методы безопасны для nil-получателя: без метрик сервис работает как обычно
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	BookingOperationsTotal    *prometheus.CounterVec // op, outcome
	ReservationOperationsTotal *prometheus.CounterVec // op, outcome

	LockAcquireTotal    *prometheus.CounterVec   // backend, result=acquired|busy|unavailable|error
	LockWaitSeconds     *prometheus.HistogramVec // backend
	LockHoldSeconds     *prometheus.HistogramVec // backend

	DBQueryDuration    *prometheus.HistogramVec // kind=exec|query|query_row|begin
	DBOpenConnections  prometheus.Gauge
	DBInUseConnections prometheus.Gauge
}

// New создает и регистрирует метрики в указанном registerer
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by route, method and status",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BookingOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_operations_total",
			Help:        "Booking coordinator operations by outcome",
			ConstLabels: constLabels,
		}, []string{"op", "outcome"}),
		ReservationOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_operations_total",
			Help:        "Soft reservation operations by outcome",
			ConstLabels: constLabels,
		}, []string{"op", "outcome"}),
		LockAcquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "lock_acquire_total",
			Help:        "Lock acquire attempts by backend and result",
			ConstLabels: constLabels,
		}, []string{"backend", "result"}),
		LockWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "lock_wait_seconds",
			Help:        "Time spent waiting for a resource lock",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 13), // 1ms .. ~4s
		}, []string{"backend"}),
		LockHoldSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "lock_hold_seconds",
			Help:        "Time a resource lock was held",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 13),
		}, []string{"backend"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database call latency by kind",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"kind"}),
		DBOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open database connections",
			ConstLabels: constLabels,
		}),
		DBInUseConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Database connections currently in use",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingOperationsTotal,
		m.ReservationOperationsTotal,
		m.LockAcquireTotal,
		m.LockWaitSeconds,
		m.LockHoldSeconds,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUseConnections,
	)

	return m
}

// ObserveHTTP фиксирует обработанный HTTP запрос
func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// IncBooking фиксирует результат операции координатора
func (m *Metrics) IncBooking(op, outcome string) {
	if m == nil {
		return
	}
	m.BookingOperationsTotal.WithLabelValues(op, outcome).Inc()
}

// IncReservation фиксирует результат операции мягкого резервирования
func (m *Metrics) IncReservation(op, outcome string) {
	if m == nil {
		return
	}
	m.ReservationOperationsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveLockAcquire фиксирует попытку захвата блокировки и время ожидания
func (m *Metrics) ObserveLockAcquire(backend, result string, wait time.Duration) {
	if m == nil {
		return
	}
	m.LockAcquireTotal.WithLabelValues(backend, result).Inc()
	m.LockWaitSeconds.WithLabelValues(backend).Observe(wait.Seconds())
}

// ObserveLockHold фиксирует время удержания блокировки
func (m *Metrics) ObserveLockHold(backend string, held time.Duration) {
	if m == nil {
		return
	}
	m.LockHoldSeconds.WithLabelValues(backend).Observe(held.Seconds())
}

// ObserveDB фиксирует длительность обращения к БД
func (m *Metrics) ObserveDB(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetDBPool обновляет метрики пула соединений
func (m *Metrics) SetDBPool(open, inUse int) {
	if m == nil {
		return
	}
	m.DBOpenConnections.Set(float64(open))
	m.DBInUseConnections.Set(float64(inUse))
}
