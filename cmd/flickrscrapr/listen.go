package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"flickrscrapr/pkg/extractor"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/relay"
	"flickrscrapr/pkg/trigger"
)

var listenAddr string

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Accept scrape triggers from a browser",
	Long: `Run an HTTP server that scrapes pages posted by a browser.

A bookmarklet or extension posts the page it is showing:

  POST /trigger
  {"url": "<document URL>", "html": "<document.documentElement.outerHTML>"}

Each request is one scrape. The record is forwarded to the collector and the
server answers 202 with the message type, or 422 when the page does not have
the expected shape.`,
	Example: `  flickrscrapr listen
  flickrscrapr listen --addr 127.0.0.1:5001 --endpoint http://localhost:5000`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVar(&listenAddr, "addr", "", "address to listen on (default 127.0.0.1:5001)")
	listenCmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "collector base URL (default http://localhost:5000)")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := setup(map[string]interface{}{
		"addr":     listenAddr,
		"endpoint": endpoint,
	})
	if err != nil {
		term.PrintError("Failed to load configuration", err)
		return err
	}
	log := logger.GetLogger()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := relay.New(cfg.Relay, log)
	r.Start()
	defer r.Stop()

	server := trigger.NewServer(cfg.Listen, extractor.New(cfg.Site), r, log)

	term.PrintInfo("Listening on", cfg.Listen.Addr)
	term.PrintInfo("Forwarding to", cfg.Relay.Endpoint)
	term.PrintHighlight("Accepting pages from " + strings.Join(cfg.Listen.AllowedOrigins, ", "))

	if err := server.Run(ctx); err != nil {
		term.PrintError("Server stopped", err)
		return err
	}
	return nil
}
