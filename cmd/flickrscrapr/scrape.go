package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"flickrscrapr/pkg/extractor"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/models"
	"flickrscrapr/pkg/page"
	"flickrscrapr/pkg/relay"
	"flickrscrapr/pkg/trigger"
)

var (
	// Scrape command flags
	pageFile string
	dryRun   bool
	endpoint string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape one photo or download page",
	Long: `Scrape one Flickr page and send the record to the collector.

The page is fetched from <url> unless --file points at a copy saved from a
browser. Flickr renders most of a photo page with JavaScript, so a saved page
is the reliable source; <url> is still required as the page's address.`,
	Example: `  # Scrape a page saved from the browser
  flickrscrapr scrape https://www.flickr.com/photos/janedoe/52712345678/ --file photo.html

  # Print the record instead of sending it
  flickrscrapr scrape https://www.flickr.com/photos/janedoe/52712345678/sizes/o/ --file sizes.html --dry-run

  # Send to a collector on another port
  flickrscrapr scrape https://www.flickr.com/photos/janedoe/52712345678/ --endpoint http://localhost:8000`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&pageFile, "file", "f", "", "read the page from a saved HTML file instead of fetching it")
	scrapeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the message as JSON instead of sending it")
	scrapeCmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "collector base URL (default http://localhost:5000)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	target := strings.TrimSpace(args[0])

	cfg, err := setup(map[string]interface{}{"endpoint": endpoint})
	if err != nil {
		term.PrintError("Failed to load configuration", err)
		return err
	}
	log := logger.GetLogger()

	var loader trigger.Loader
	if pageFile != "" {
		loader = trigger.FileLoader{Path: pageFile}
	} else {
		loader = trigger.FetchLoader{Fetcher: page.NewFetcher(cfg.Fetch, log)}
	}

	var sender relay.Sender
	var r *relay.Relay
	if dryRun {
		sender = printSender{out: cmd.OutOrStdout()}
	} else {
		r = relay.New(cfg.Relay, log)
		r.Start()
		// the POST must finish before the process exits
		defer r.Stop()
		sender = r
	}

	action := trigger.NewAction(loader, extractor.New(cfg.Site), sender, log)

	msg, err := action.Fire(cmd.Context(), target)
	if err != nil {
		if errors.Is(err, extractor.ErrNotTargetPage) {
			term.PrintWarning("Only pages under " + cfg.Site.PhotoPagePrefix() + " are scraped")
		}
		term.PrintError("Scrape failed", err)
		return err
	}

	if r == nil {
		return nil
	}

	r.Stop()
	if r.Failed() > 0 {
		err := fmt.Errorf("collector at %s did not receive the %s message", cfg.Relay.Endpoint, msg.Type)
		term.PrintError("Send failed", err)
		return err
	}

	term.PrintSuccess(fmt.Sprintf("Sent %s to %s", msg.Type, cfg.Relay.Endpoint))
	return nil
}

// printSender writes messages as indented JSON
type printSender struct {
	out io.Writer
}

func (p printSender) Submit(msg models.Message) error {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}
