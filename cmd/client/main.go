package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/payment-web-client/internal/application/service"
	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/damon-houk/payment-web-client/internal/domain/repository"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/api"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/config"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/db"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/handler"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/metrics"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

type options struct {
	cmd        string
	configPath string
	server     string
	username   string
	password   string
	amount     string
	txType     string
	merchant   string
	email      string
	dependsOn  string
	limit      int
}

func main() {
	opts := options{}
	flag.StringVar(&opts.cmd, "cmd", "page", "Command: page|login|create|history|logout")
	flag.StringVar(&opts.configPath, "config", ".", "Directory holding config.yaml")
	flag.StringVar(&opts.server, "server", "", "Override server.base_url")
	flag.StringVar(&opts.username, "username", "", "Login username")
	flag.StringVar(&opts.password, "password", "", "Login password")
	flag.StringVar(&opts.amount, "amount", "", "Transaction amount")
	flag.StringVar(&opts.txType, "type", string(entity.Authorize), "Transaction type: authorize|charge|refund|reversal")
	flag.StringVar(&opts.merchant, "merchant", "", "Merchant id")
	flag.StringVar(&opts.email, "email", "", "Customer email")
	flag.StringVar(&opts.dependsOn, "depends-on", "", "UUID of the transaction this one depends on")
	flag.IntVar(&opts.limit, "limit", 20, "Number of history entries to show")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.New(opts.configPath, afero.NewOsFs())
	if err != nil {
		return err
	}
	if opts.server != "" {
		cfg.Set("server.base_url", opts.server)
	}
	settings, err := cfg.Load()
	if err != nil {
		return err
	}

	level, _ := logger.ParseLevel(settings.Log.Level)
	log := logger.NewJSONLogger(os.Stderr, level).WithField("component", "payment-web-client")
	logger.SetDefaultLogger(log)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	if settings.Metrics.Addr != "" {
		go serveMetrics(settings.Metrics.Addr, registry, log)
	}

	transport := middleware.Chain(
		m.Transport(http.DefaultTransport),
		middleware.RequestIDTransport,
		middleware.LoggingTransport(log),
	)
	httpClient, err := api.NewHTTPClient(settings.Server.Timeout, transport)
	if err != nil {
		return err
	}

	session := entity.NewSession()
	client, err := api.NewPaymentWebClient(settings.Server.BaseURL, session, httpClient, log)
	if err != nil {
		return err
	}

	var history repository.SubmissionRepository
	if settings.History.Enabled() {
		badgerDB, err := db.Open(settings.History.Path, settings.History.InMemory)
		if err != nil {
			return err
		}
		defer func() {
			if err := badgerDB.Close(); err != nil {
				log.Error("Error closing history database", map[string]interface{}{"error": err.Error()})
			}
		}()
		history = db.NewBadgerSubmissionRepository(badgerDB)
	}

	sessions := service.NewSessionService(client, session, log)
	payments := service.NewPaymentService(client, history, log)
	ctrl := handler.NewPageController(client, sessions, payments, nil, m, log)

	switch opts.cmd {
	case "page":
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
	case "login":
		if err := login(ctx, ctrl, opts); err != nil {
			return err
		}
	case "create":
		if err := login(ctx, ctrl, opts); err != nil {
			return err
		}
		if err := create(ctx, ctrl, opts); err != nil {
			return err
		}
	case "history":
		return printHistory(ctx, payments, opts.limit)
	case "logout":
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		if err := ctrl.Logout(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}

	fmt.Println(ctrl.Document().HTML())
	return nil
}

// login loads the page and signs in unless the refresh cookie already did
func login(ctx context.Context, ctrl *handler.PageController, opts options) error {
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	if ctrl.State().Authenticated {
		return nil
	}
	if opts.username == "" {
		return errors.New("--username required")
	}

	if err := ctrl.Fill(map[string]string{
		handler.UsernameInputID: opts.username,
		handler.PasswordInputID: opts.password,
	}); err != nil {
		return err
	}
	if err := ctrl.Click(ctx, handler.LoginButtonID); err != nil {
		if text, textErr := ctrl.Document().Text(handler.LoginErrorID); textErr == nil && text != "" {
			return errors.New(text)
		}
		return err
	}
	return nil
}

func create(ctx context.Context, ctrl *handler.PageController, opts options) error {
	if err := ctrl.Fill(map[string]string{
		handler.AmountInputID:        opts.amount,
		handler.TypeInputID:          opts.txType,
		handler.MerchantInputID:      opts.merchant,
		handler.CustomerEmailInputID: opts.email,
		handler.DependsOnInputID:     opts.dependsOn,
	}); err != nil {
		return err
	}
	if err := ctrl.Click(ctx, handler.CreateButtonID); err != nil {
		if text, textErr := ctrl.Document().Text(handler.TransactionErrorBoxID); textErr == nil && text != "" {
			return fmt.Errorf("transaction rejected: %s", text)
		}
		return err
	}
	return nil
}

func printHistory(ctx context.Context, payments *service.PaymentService, limit int) error {
	submissions, err := payments.History(ctx, limit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, s := range submissions {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))

	log.Info("Serving metrics", map[string]interface{}{"addr": addr})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics server stopped", map[string]interface{}{"error": err.Error()})
	}
}
