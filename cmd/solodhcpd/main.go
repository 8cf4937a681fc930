// solodhcpd — a DHCPv4 responder that serves exactly one host.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solodhcpd/solodhcpd/internal/audit"
	"github.com/solodhcpd/solodhcpd/internal/config"
	"github.com/solodhcpd/solodhcpd/internal/dhcp"
	"github.com/solodhcpd/solodhcpd/internal/events"
	"github.com/solodhcpd/solodhcpd/internal/logging"
	"github.com/solodhcpd/solodhcpd/internal/metrics"
	"github.com/solodhcpd/solodhcpd/internal/trace"
	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "", "path to TOML configuration file (optional)")
	macFlag := flag.String("mac", "", "MAC address of the one host to serve")
	bindFlag := flag.String("bind", "", "IPv4 address to bind UDP port 67 on")
	ipFlag := flag.String("ip", "", "IPv4 address to offer the client")
	subnetFlag := flag.String("subnet", "", "subnet mask to offer")
	gatewayFlag := flag.String("gateway", "", "gateway address to offer")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	metricsListen := flag.String("metrics", "", "Prometheus metrics listen address (optional)")
	auditDB := flag.String("audit-db", "", "path to decision journal database (optional)")
	traceFlag := flag.Bool("trace", true, "print a console trace of every packet")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mac":
			cfg.Client.MAC = *macFlag
		case "bind":
			cfg.Server.BindAddress = *bindFlag
		case "ip":
			cfg.Client.IP = *ipFlag
		case "subnet":
			cfg.Client.SubnetMask = *subnetFlag
		case "gateway":
			cfg.Client.Gateway = *gatewayFlag
		case "log-level":
			cfg.Server.LogLevel = *logLevel
		case "metrics":
			cfg.Server.MetricsListen = *metricsListen
		case "audit-db":
			cfg.Server.AuditDB = *auditDB
		case "trace":
			cfg.Server.Trace = *traceFlag
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Server.LogLevel, os.Stderr)
	tracer := trace.New(os.Stdout, cfg.Server.Trace)

	printBanner(tracer, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(1000, logger)
	go bus.Start()
	defer bus.Stop()

	if cfg.Server.AuditDB != "" {
		journal, err := audit.Open(cfg.Server.AuditDB, bus, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(1)
		}
		go journal.Start()
		defer journal.Stop()
	}

	if cfg.Server.MetricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics server started", "listen", cfg.Server.MetricsListen)
			if err := http.ListenAndServe(cfg.Server.MetricsListen, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	handler := dhcp.NewHandler(cfg.TargetMAC(), dhcp.ReplyConfig{
		ServerIP:   cfg.BindIP(),
		ClientIP:   cfg.ClientIP(),
		SubnetMask: cfg.SubnetMask(),
		Gateway:    cfg.Gateway(),
	}, bus, tracer, logger)

	server := dhcp.NewServer(handler, cfg.Server.BindAddress, tracer, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("failed to start DHCP server", "error", err)
		os.Exit(1)
	}

	metrics.ServerStartTime.SetToCurrentTime()
	metrics.ServerInfo.WithLabelValues(version).Set(1)

	logger.Info("solodhcpd ready",
		"mac", cfg.TargetMAC().String(),
		"client_ip", dhcpv4.FormatDottedQuad(cfg.ClientIP()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()
	server.Stop()
	logger.Info("solodhcpd stopped")
}

// loadConfig loads the file if given, otherwise starts from defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.New(), nil
	}
	return config.Load(path)
}

// printBanner echoes the effective configuration to the console trace.
func printBanner(tracer *trace.Tracer, cfg *config.Config) {
	tracer.Printf("===============================================================================")
	tracer.Printf("MAC address...: %s", cfg.TargetMAC())
	tracer.Printf("IP address....: %s", dhcpv4.FormatDottedQuad(cfg.ClientIP()))
	tracer.Printf("Bind address..: %s", dhcpv4.FormatDottedQuad(cfg.BindIP()))
	tracer.Printf("Subnet mask...: %s", dhcpv4.FormatDottedQuad(cfg.SubnetMask()))
	tracer.Printf("Gateway.......: %s", dhcpv4.FormatDottedQuad(cfg.Gateway()))
	tracer.Printf("===============================================================================")
}
