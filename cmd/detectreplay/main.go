package main

import (
	"fmt"
	"os"

	"github.com/cuemby/vigil/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "detectreplay",
	Short: "Replay a pcap file through the stateful HTTP signature engine",
	Long: `detectreplay feeds a pcap capture through pkg/detect's stateful
inspection core over a demo HTTP application-layer parser, printing
every alert the loaded signature set raises.`,
	RunE: runReplay,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.Flags().String("pcap", "", "Path to the pcap file to replay")
	rootCmd.Flags().String("rules", "", "Path to a YAML signature file")
	rootCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus metrics on this address while replaying")
	rootCmd.Flags().Uint16("server-port", 80, "TCP port identifying the server side of a connection")
	_ = rootCmd.MarkFlagRequired("pcap")
	_ = rootCmd.MarkFlagRequired("rules")
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}
