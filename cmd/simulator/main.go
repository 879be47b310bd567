package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/marcelsud/webhook-simulator/config"
	"github.com/marcelsud/webhook-simulator/delivery"
	"github.com/marcelsud/webhook-simulator/event"
	simchi "github.com/marcelsud/webhook-simulator/internal/http/chi"
	"github.com/marcelsud/webhook-simulator/metrics"
	"github.com/marcelsud/webhook-simulator/receiver"
	"github.com/marcelsud/webhook-simulator/replay"
	"github.com/marcelsud/webhook-simulator/scenario"
	"github.com/marcelsud/webhook-simulator/signature"
)

const TIMEOUT = 30 * time.Second

/* simulator drives one scenario end to end: it starts the simulated
 * merchant receiver, delivers the scripted events through the retry
 * engine, checks the alert threshold after every delivery, optionally
 * replays failures, and then keeps serving the operator API until
 * interrupted so the run can be inspected
 */

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.GetConfig()
	if err != nil {
		slog.Error("loading config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	loader := scenario.NewLoader()
	if err := loader.Load(cfg.ScenarioFile); err != nil {
		slog.Error("loading scenarios", slog.Any("error", err))
		os.Exit(1)
	}
	sc, err := pickScenario(loader, cfg.Scenario)
	if err != nil {
		slog.Error("picking scenario", slog.Any("error", err))
		os.Exit(1)
	}

	// The simulated merchant behaves as the scenario dictates
	rcv := receiver.NewServer(cfg.ReceiverAddr)
	rcv.SetResponseCode(sc.Receiver.ResponseCode).SetResponseDelay(sc.Receiver.ResponseDelay)
	if sc.Receiver.Secret != "" {
		rcv.EnableSignatureVerification(sc.Receiver.Secret)
	}
	if sc.Receiver.Idempotency {
		rcv.EnableIdempotency()
	}
	if err := rcv.Start(); err != nil {
		slog.Error("starting receiver", slog.Any("error", err))
		os.Exit(1)
	}

	// The engine signs with the secret the receiver verifies
	signingSecret := sc.Receiver.Secret
	if signingSecret == "" {
		signingSecret = cfg.WebhookSecret
	}

	attemptLog := delivery.NewAttemptLog()
	collector := metrics.NewCollector(cfg.MetricsWindow())
	engine := delivery.NewEngine(signature.New(signingSecret), delivery.NewRetryManager(), attemptLog, cfg.DeliveryTimeout())
	engine.Metrics = collector
	alerts := metrics.NewAlertManager(collector, cfg.AlertThreshold, func(a metrics.Alert) {
		slog.Warn("delivery alert",
			slog.String("type", a.Type),
			slog.Float64("failure_rate", a.FailureRate),
			slog.Int("failed_deliveries", a.FailedDeliveries),
			slog.Int("total_deliveries", a.TotalDeliveries),
			slog.String("message", a.Message),
		)
	})
	replayMgr := replay.NewManager(engine, attemptLog)

	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		slog.Error("creating metrics exporter", slog.Any("error", err))
		os.Exit(1)
	}

	r := simchi.Handlers(ctx, simchi.Deps{
		Attempts: attemptLog,
		Receiver: rcv,
		Alerts:   alerts,
		Replay:   replayMgr,
		Metrics:  exporter.ServeHTTP(),
	})
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.OpsPort,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	go func() {
		slog.Info("operator API listening", slog.String("port", cfg.OpsPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("operator API failed", slog.Any("error", err))
		}
	}()

	if err := waitForReceiver(ctx, rcv.HealthURL()); err != nil {
		slog.Error("receiver never became healthy", slog.Any("error", err))
		os.Exit(1)
	}

	runScenario(ctx, engine, replayMgr, alerts, sc, rcv.URL())

	stats := collector.Snapshot()
	slog.Info("scenario complete",
		slog.String("scenario", sc.Name),
		slog.Int("deliveries", stats.Total),
		slog.Int("failures", stats.Failures),
		slog.Float64("failure_rate", stats.FailureRate),
	)
	slog.Info("serving operator API until interrupted")

	<-ctx.Done()
	if err := <-errShutdown; err != nil {
		slog.Error("shutting down operator API", slog.Any("error", err))
	}

	ctxTimeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
	defer cancel()
	if err := rcv.Stop(ctxTimeout); err != nil {
		slog.Error("stopping receiver", slog.Any("error", err))
	}
	exporter.Shutdown(ctxTimeout)
}

// pickScenario returns the named scenario, or the first one when no name is
// configured
func pickScenario(loader *scenario.Loader, name string) (*scenario.Scenario, error) {
	if name != "" {
		return loader.Get(name)
	}
	all := loader.List()
	if len(all) == 0 {
		return nil, fmt.Errorf("no scenarios loaded")
	}
	return all[0], nil
}

// waitForReceiver polls the receiver health endpoint with exponential
// backoff until it answers or the budget runs out
func waitForReceiver(ctx context.Context, healthURL string) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("receiver not ready: status %d", resp.StatusCode)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

// runScenario registers and delivers every scripted event, checking the
// alert threshold after each delivery
func runScenario(ctx context.Context, engine *delivery.Engine, replayMgr *replay.Manager, alerts *metrics.AlertManager, sc *scenario.Scenario, url string) {
	for _, step := range sc.Steps {
		for i := 0; i < step.Count; i++ {
			ev := event.New(step.Type, event.Params{
				PaymentID: step.PaymentID,
				Amount:    step.Amount,
				Currency:  step.Currency,
			})
			replayMgr.Register(ev)

			attempts, err := engine.DeliverWithRetry(ctx, ev, url, sc.DelayFactor)
			if err != nil {
				slog.Error("delivery aborted", slog.String("event_id", ev.ID), slog.Any("error", err))
				return
			}
			slog.Info("delivered",
				slog.String("event_id", ev.ID),
				slog.String("event_type", ev.Type.String()),
				slog.String("outcome", delivery.Outcome(attempts).String()),
				slog.Int("attempts", len(attempts)),
			)
			alerts.Check()
		}
	}

	if sc.ReplayFailed {
		results, err := replayMgr.ReplayFailed(ctx, url)
		if err != nil {
			slog.Error("replaying failed deliveries", slog.Any("error", err))
			return
		}
		for eventID, attempts := range results {
			slog.Info("replayed",
				slog.String("event_id", eventID),
				slog.String("outcome", delivery.Outcome(attempts).String()),
			)
		}
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing operator API shutdown")
	default:
		errShutdown <- err
	}
}
