package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	licensesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floating_notes_licenses_issued_total",
			Help: "Licenças criadas, por origem (registration ou checkout).",
		},
		[]string{"origin"},
	)

	// match diz como o evento encontrou a licença: email, fallback, session ou renewal.
	licensesActivated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floating_notes_licenses_activated_total",
			Help: "Licenças ativadas pelo webhook da Stripe.",
		},
		[]string{"match"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floating_notes_webhook_events_total",
			Help: "Eventos recebidos da Stripe, por tipo e resultado.",
		},
		[]string{"type", "result"},
	)
)
