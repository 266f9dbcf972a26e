package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/perpbot/gostandx/pkg/config"
	"github.com/perpbot/gostandx/pkg/logger"
	"github.com/perpbot/gostandx/pkg/retry"
	"github.com/perpbot/gostandx/pkg/sigchan"
	"github.com/perpbot/gostandx/standx/client"
	"github.com/perpbot/gostandx/standx/stream"
	"github.com/perpbot/gostandx/standx/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the settings file")
	ticker := flag.String("ticker", "", "ticker to trade, overrides the settings file")
	flag.Parse()

	// Best effort; production deployments inject real environment variables.
	_ = godotenv.Load()

	settings, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load settings")
	}
	if *ticker != "" {
		settings.Ticker = *ticker
	}
	if settings.Ticker == "" {
		settings.Ticker = "BTC"
	}

	logFile := settings.Log.File
	if logFile == "" {
		logFile = logger.FileFor("standx", settings.Ticker)
	}
	if err := logger.Init(logger.Config{
		Level:      settings.Log.Level,
		OutputFile: logFile,
		Console:    true,
	}); err != nil {
		logrus.WithError(err).Fatal("failed to initialize logging")
	}

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("missing credentials")
	}

	cli, err := client.New(client.Credentials{
		WalletAddress: creds.WalletAddress,
		PrivateKey:    creds.PrivateKey,
		Chain:         creds.Chain,
	}, client.Config{
		APIBaseURL:  settings.API.BaseURL,
		AuthBaseURL: settings.API.AuthURL,
		Ticker:      settings.Ticker,
		Timeout:     settings.API.Timeout.Std(),
		Retry: retry.Policy{
			MaxAttempts: settings.Retry.MaxAttempts,
			Backoff:     settings.Retry.Backoff.Std(),
		},
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to build client")
	}

	log := logrus.WithField("component", "standx_trader")
	log.Infof("starting, symbol=%s", cli.Symbol())

	session := stream.NewSession(cli.Auth(), stream.Config{
		URL:       settings.Stream.URL,
		QueueSize: settings.Stream.QueueSize,
		Reconnect: stream.ReconnectPolicy{
			MaxFailures: settings.Stream.MaxFailures,
			Delay:       settings.Stream.ReconnectDelay.Std(),
		},
		Handler: func(update types.OrderUpdate) error {
			log.Infof("order update: id=%s status=%s side=%s size=%s price=%s filled=%s",
				update.OrderID, update.Status, update.Side,
				update.Size, update.Price, update.FilledSize)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Connect(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to connect order stream")
	}

	done := sigchan.New()
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		done.Emit()
	}()

	<-done
	log.Info("shutting down")

	cancel()
	if err := session.Disconnect(); err != nil {
		log.WithError(err).Warn("stream shutdown incomplete")
	}
	log.Info("stopped")
}
