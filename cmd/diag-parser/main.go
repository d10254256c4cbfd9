package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"diag-parser/internal/config"
	"diag-parser/internal/l3"
	"diag-parser/internal/output"
	"diag-parser/internal/pcap"
	"diag-parser/internal/radio"
	"diag-parser/internal/session"
	"diag-parser/internal/stats"
)

var (
	version   = "1.0.0"
	cfgFile   string
	statsOnly bool
	verbose   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "diag-parser [files...]",
		Short: "GSM/UMTS/LTE signaling analyzer - label L3 messages and score subscriber sessions",
		Long: `Reads baseband diagnostic captures (HDLC-framed diag streams or GSMTAP pcaps),
decodes the GSM layer 3 signaling they carry, tracks per-subscriber session state
and re-emits every decoded message as GSMTAP over UDP and/or to a PCAP file.`,
		Version: version,
		RunE:    run,
	}

	// Configuration file
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default: config.yaml)")

	// CLI overrides
	rootCmd.Flags().StringP("file-list", "f", "", "Read list of input files from this file")
	rootCmd.Flags().StringP("gsmtap", "g", "", "Target host[:port] for GSMTAP UDP stream")
	rootCmd.Flags().StringP("pcap-out", "p", "", "Write decoded messages to PCAP file")
	rootCmd.Flags().String("format", "", "Input format (pcap|diag)")
	rootCmd.Flags().Bool("dual-domain", true, "Track CS and PS sessions separately")
	rootCmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.Flags().CountVarP(&verbose, "verbose", "v", "Verbose messages (debug logging)")
	rootCmd.Flags().BoolVar(&statsOnly, "stats-only", false, "Count GSMTAP channel types in pcap inputs and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	v := viper.New()
	config.SetDefaults(v)

	// Load config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK if using CLI flags
		log.Debug("No config file found, using defaults and CLI flags")
	}

	// CLI flags override config file values
	bindViperFlags(v, cmd)
	if len(args) > 0 {
		v.Set("input.files", args)
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := cfg.InputFiles()
	if err != nil {
		return err
	}

	if statsOnly {
		return showStats(cfg, files)
	}

	log.WithFields(log.Fields{
		"version": version,
		"inputs":  len(files),
		"format":  cfg.Input.Format,
	}).Info("Diag parser starting")
	log.Debug(cfg.Summary())

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	// Create stats collector and reporter
	collector := stats.NewCollector()
	if cfg.Stats.StatsdAddress != "" {
		client, err := stats.NewStatsdClient(cfg.Stats.StatsdAddress, cfg.Stats.StatsdPrefix)
		if err != nil {
			return err
		}
		defer client.Close()
		collector.SetExporter(client)
	}
	reporter := stats.NewReporter(collector, cfg.Stats.ReportIntervalSec, cfg.Stats.ExportFile)
	if cfg.Stats.Enabled {
		reporter.StartPeriodicReport(ctx)
	}

	sink, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Warn("Failed to close output")
		}
	}()

	sessions := session.NewSet(session.Options{
		DualDomain:    cfg.Session.DualDomain,
		MaxCMCDelayFN: cfg.Analysis.MaxCMCDelayFN,
		Closer:        collector,
	})
	router := radio.NewRouter(l3.NewDispatcher(sessions, nil), sink, collector)
	p := newPipeline(router, collector)

	runErr := p.processFiles(ctx, cfg.Input.Format, files)
	if ctx.Err() != nil {
		log.Info("Processing interrupted by shutdown")
		runErr = nil
	}

	// Summarize transactions still open at end of input
	for _, s := range sessions.All() {
		s.Reset(true)
	}

	// Print final statistics
	if cfg.Stats.Enabled {
		reporter.PrintFinalReport()
		if err := reporter.ExportJSON(); err != nil {
			log.WithError(err).Warn("Failed to export statistics")
		}
	}

	var fatal *radio.FatalError
	if errors.As(runErr, &fatal) {
		log.WithError(fatal).Error("Aborting on invalid radio message")
	}
	return runErr
}

func openSinks(cfg *config.Config) (*output.Fanout, error) {
	var sinks []output.Emitter

	if cfg.Output.GSMTAPTarget != "" {
		sender, err := output.NewUDPSender(cfg.Output.GSMTAPTarget)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"target":     sender.Target(),
			"local_addr": sender.LocalAddr(),
		}).Info("GSMTAP output started")
		sinks = append(sinks, sender)
	}

	if cfg.Output.PcapFile != "" {
		writer, err := output.NewPCAPWriter(cfg.Output.PcapFile)
		if err != nil {
			_ = output.NewFanout(sinks...).Close()
			return nil, err
		}
		log.WithField("file", cfg.Output.PcapFile).Info("PCAP output started")
		sinks = append(sinks, writer)
	}

	return output.NewFanout(sinks...), nil
}

func showStats(cfg *config.Config, files []string) error {
	if cfg.Input.Format != config.FormatPCAP {
		return fmt.Errorf("--stats-only requires pcap input, got %q", cfg.Input.Format)
	}

	parser := pcap.NewParser()
	counts := make(map[string]int)
	for _, f := range files {
		fileCounts, err := parser.CountMessages(f)
		if err != nil {
			return fmt.Errorf("failed to count messages: %w", err)
		}
		for k, n := range fileCounts {
			counts[k] += n
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("GSMTAP Channel Statistics:")
	total := 0
	for _, k := range keys {
		fmt.Printf("  %-40s %d\n", k, counts[k])
		total += counts[k]
	}
	fmt.Printf("  %-40s %d\n", "Total:", total)
	return nil
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose > 0 {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, using console only")
		} else {
			log.SetOutput(f)
		}
	}
}

func bindViperFlags(v *viper.Viper, cmd *cobra.Command) {
	if cmd.Flags().Changed("file-list") {
		val, _ := cmd.Flags().GetString("file-list")
		v.Set("input.file_list", val)
	}
	if cmd.Flags().Changed("gsmtap") {
		val, _ := cmd.Flags().GetString("gsmtap")
		v.Set("output.gsmtap_target", val)
	}
	if cmd.Flags().Changed("pcap-out") {
		val, _ := cmd.Flags().GetString("pcap-out")
		v.Set("output.pcap_file", val)
	}
	if cmd.Flags().Changed("format") {
		val, _ := cmd.Flags().GetString("format")
		v.Set("input.format", val)
	}
	if cmd.Flags().Changed("dual-domain") {
		val, _ := cmd.Flags().GetBool("dual-domain")
		v.Set("session.dual_domain", val)
	}
	if cmd.Flags().Changed("log-level") {
		val, _ := cmd.Flags().GetString("log-level")
		v.Set("logging.level", val)
	}
}
