// metrics.go - Prometheus counters for the audio and control loops

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionDelay
License: GPLv3 or later
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics groups the device counters on a private registry. All methods are
// safe on a nil receiver so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	blocksProcessed  prometheus.Counter
	underruns        prometheus.Counter
	transportErrors  prometheus.Counter
	configsAdopted   prometheus.Counter
	configsPublished prometheus.Counter
	publishRejected  prometheus.Counter
	uiEvents         *prometheus.CounterVec
	settingsSaved    prometheus.Counter
	saveFailures     prometheus.Counter
	activeDelayMs    prometheus.Gauge
	activeSampleRate prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		blocksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_blocks_processed_total",
			Help: "Audio blocks run through the delay line",
		}),
		underruns: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_underruns_total",
			Help: "Blocks that missed their real-time deadline",
		}),
		transportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_transport_errors_total",
			Help: "Audio transport read/write failures",
		}),
		configsAdopted: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_configs_adopted_total",
			Help: "Configs picked up by the real-time loop",
		}),
		configsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_configs_published_total",
			Help: "Configs accepted by the reconfiguration channel",
		}),
		publishRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_configs_rejected_total",
			Help: "Configs rejected at publish",
		}),
		uiEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "delay_ui_events_total",
			Help: "Control events handled by the UI, by kind",
		}, []string{"event"}),
		settingsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_settings_saved_total",
			Help: "Successful settings saves",
		}),
		saveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_settings_save_failures_total",
			Help: "Failed settings saves",
		}),
		activeDelayMs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "delay_active_delay_ms",
			Help: "Delay in effect on the real-time loop",
		}),
		activeSampleRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "delay_active_sample_rate_hz",
			Help: "Sample rate in effect on the real-time loop",
		}),
	}
}

func (m *Metrics) BlockProcessed() {
	if m == nil {
		return
	}
	m.blocksProcessed.Inc()
}

func (m *Metrics) Underrun() {
	if m == nil {
		return
	}
	m.underruns.Inc()
}

func (m *Metrics) TransportError() {
	if m == nil {
		return
	}
	m.transportErrors.Inc()
}

func (m *Metrics) ConfigAdopted(cfg DelayConfig) {
	if m == nil {
		return
	}
	m.configsAdopted.Inc()
	m.activeDelayMs.Set(float64(cfg.DelayMs))
	m.activeSampleRate.Set(float64(cfg.SampleRateHz))
}

func (m *Metrics) Published() {
	if m == nil {
		return
	}
	m.configsPublished.Inc()
}

func (m *Metrics) PublishRejected() {
	if m == nil {
		return
	}
	m.publishRejected.Inc()
}

func (m *Metrics) UIEvent(ev EncoderEvent) {
	if m == nil {
		return
	}
	m.uiEvents.WithLabelValues(ev.String()).Inc()
}

func (m *Metrics) SettingsSaved() {
	if m == nil {
		return
	}
	m.settingsSaved.Inc()
}

func (m *Metrics) SaveFailed() {
	if m == nil {
		return
	}
	m.saveFailures.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ServeMetrics serves /metrics on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, m *Metrics, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
