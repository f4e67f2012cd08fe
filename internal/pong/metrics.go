package pong

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer receives responder telemetry.
type Observer interface {
	ObserveMessage(c Classification)
	ObserveAction(reason Reason)
}

// PrometheusObserver exports responder counters.
type PrometheusObserver struct {
	messages *prometheus.CounterVec
	actions  *prometheus.CounterVec
}

// NewPrometheusObserver registers the responder counters with reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pongbot",
			Name:      "messages_total",
			Help:      "Messages addressed to us, by classification.",
		}, []string{"classification"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pongbot",
			Name:      "actions_total",
			Help:      "Responder decisions, by reason.",
		}, []string{"reason"}),
	}
	var err error
	if o.messages, err = register(reg, o.messages); err != nil {
		return nil, err
	}
	if o.actions, err = register(reg, o.actions); err != nil {
		return nil, err
	}
	return o, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register pong metric: %w", err)
	}
	return c, nil
}

func (o *PrometheusObserver) ObserveMessage(c Classification) {
	if o == nil {
		return
	}
	o.messages.WithLabelValues(c.String()).Inc()
}

func (o *PrometheusObserver) ObserveAction(reason Reason) {
	if o == nil {
		return
	}
	o.actions.WithLabelValues(string(reason)).Inc()
}

type nopObserver struct{}

func (nopObserver) ObserveMessage(Classification) {}

func (nopObserver) ObserveAction(Reason) {}
