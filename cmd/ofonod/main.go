package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/ofonogo/core/internal/modem"
	"github.com/ofonogo/core/internal/transport"
)

// buildDialer selects the modem.Dialer config.TransportBackend names.
// "serial" (the default) stays on the teacher's go.bug.st/serial path
// directly; "tty" and "tcp" go through internal/transport.
func buildDialer(config *Config) (modem.Dialer, error) {
	switch config.TransportBackend {
	case "", "serial":
		return modem.SerialDialer{
			PortName: config.SerialPort,
			Mode:     &serial.Mode{BaudRate: config.BaudRate},
		}, nil
	case "tty":
		return transport.Config{
			Backend:  transport.BackendTTY,
			Device:   config.SerialPort,
			BaudRate: config.BaudRate,
		}.Build()
	case "tcp":
		return transport.Config{
			Backend:     transport.BackendTCP,
			Address:     config.TCPAddress,
			DialTimeout: 5 * time.Second,
		}.Build()
	default:
		return nil, fmt.Errorf("unknown transport backend %q", config.TransportBackend)
	}
}

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.String("transport-backend", "serial", "Modem transport: serial, tty, or tcp")
	flag.String("tcp-address", "", "host:port for the tcp transport backend")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	dialer, err := buildDialer(config)
	if err != nil {
		logger.Error("Failed to configure modem transport", "error", err)
		os.Exit(1)
	}

	modemConfig, err := modem.NewConfigBuilder().
		WithATTimeout(5 * time.Second).
		WithInitTimeout(30 * time.Second).
		WithMaxRetries(5).
		WithMinSendInterval(10 * time.Second).
		WithSimPIN(config.SimPIN).
		WithDialer(dialer).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	ctx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	sink := &logSink{Logger: logger.With("component", "sink")}
	m.SetVoicecallSink(sink)
	m.SetSMSSink(sink)
	m.SetSIMSink(sink)

	logger.Info("Starting ofonod", "modem", m)

	loopDone := make(chan error, 1)
	go func() { loopDone <- m.Loop(ctx) }()

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Modem:  m,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	cancelLoop()
	if err := <-loopDone; err != nil {
		logger.Error("Call-list poll loop exited with error", "error", err)
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
		os.Exit(1)
	}
}
