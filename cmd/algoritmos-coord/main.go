// Command algoritmos-coord launches one peer process of the coordination
// service: a Lamport clock plus totally-ordered multicast, Ricart-Agrawala
// mutual exclusion and Bully leader election (spec §1-§2), wired onto gin
// and a static peer roster. Entry-point wiring is grounded on the cobra
// usage in other_examples/manifests/KhryptorGraphics-OllamaMax; the teacher
// itself has no flag layer, only os.Getenv reads in func main.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmatheus/algoritmos-coord/internal/api"
	"github.com/mmatheus/algoritmos-coord/internal/config"
	"github.com/mmatheus/algoritmos-coord/internal/coord"
	"github.com/mmatheus/algoritmos-coord/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Defaults()

	cmd := &cobra.Command{
		Use:   "algoritmos-coord",
		Short: "runs one peer of the distributed coordination service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar((*int)(&cfg.ProcessID), "process-id", int(cfg.ProcessID), "this process's id (falls back to PROCESS_ID/MY_ID env)")
	flags.IntVar(&cfg.TotalProcesses, "total-processes", cfg.TotalProcesses, "number of peer processes (N)")
	flags.IntVar(&cfg.PeerPort, "peer-port", cfg.PeerPort, "TCP port every peer listens on")
	flags.StringVar(&cfg.PeerHostTemplate, "peer-host-template", cfg.PeerHostTemplate, "printf template for peer hostnames, e.g. algoritmos-coord-%d.algoritmos-coord-service")
	flags.StringVar(&cfg.DelayTriggerMessageID, "delay-trigger-message-id", cfg.DelayTriggerMessageID, "message id the ACK-delay test hook fires for")
	flags.IntVar((*int)(&cfg.DelayProcessID), "delay-process-id", int(cfg.DelayProcessID), "process id the ACK-delay test hook fires on")
	flags.IntVar(&cfg.DelaySeconds, "delay-seconds", cfg.DelaySeconds, "seconds the ACK-delay test hook sleeps")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		envCfg, err := config.FromEnvironment()
		if err != nil {
			return err
		}
		// Flags win over environment only when explicitly set; otherwise
		// the environment-derived value (or default) stands.
		if !cmd.Flags().Changed("process-id") {
			cfg.ProcessID = envCfg.ProcessID
		}
		if !cmd.Flags().Changed("total-processes") {
			cfg.TotalProcesses = envCfg.TotalProcesses
		}
		if !cmd.Flags().Changed("peer-port") {
			cfg.PeerPort = envCfg.PeerPort
		}
		if !cmd.Flags().Changed("peer-host-template") {
			cfg.PeerHostTemplate = envCfg.PeerHostTemplate
		}
		if !cmd.Flags().Changed("delay-trigger-message-id") {
			cfg.DelayTriggerMessageID = envCfg.DelayTriggerMessageID
		}
		if !cmd.Flags().Changed("delay-process-id") {
			cfg.DelayProcessID = envCfg.DelayProcessID
		}
		if !cmd.Flags().Changed("delay-seconds") {
			cfg.DelaySeconds = envCfg.DelaySeconds
		}
		return nil
	}

	return cmd
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	baseURLs := cfg.PeerBaseURLs()
	tr := transport.NewHTTPTransport(cfg.ProcessID, baseURLs, sugar)

	// The reference seeds the clock from wall_time_seconds mod 10 (spec
	// §3); preserved here verbatim, kept a testable input via clock.New
	// rather than hidden inside Node construction.
	seed := int(time.Now().Unix() % 10)
	node := coord.NewNode(cfg.ProcessID, cfg.TotalProcesses, seed, tr, sugar, cfg.DelayHook())

	peerAddrs := make([]string, 0, len(baseURLs))
	for _, addr := range baseURLs {
		peerAddrs = append(peerAddrs, addr)
	}

	server := api.NewServer(node, peerAddrs, sugar)
	router := server.Router()

	sugar.Infow("starting process",
		"process_id", cfg.ProcessID,
		"total_processes", cfg.TotalProcesses,
		"peer_port", cfg.PeerPort,
	)

	return router.Run(fmt.Sprintf(":%d", cfg.PeerPort))
}
