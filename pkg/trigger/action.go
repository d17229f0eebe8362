package trigger

import (
	"context"
	"fmt"
	"time"

	"flickrscrapr/pkg/extractor"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/models"
	"flickrscrapr/pkg/relay"
)

// Action is one press of the scrape button: load the page, extract once,
// hand the message to the sender. Every Fire is independent of the others.
type Action struct {
	loader    Loader
	extractor *extractor.Extractor
	sender    relay.Sender
	logger    logger.Logger
}

// NewAction creates an Action
func NewAction(loader Loader, ext *extractor.Extractor, sender relay.Sender, log logger.Logger) *Action {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Action{
		loader:    loader,
		extractor: ext,
		sender:    sender,
		logger:    log.WithField("component", "trigger"),
	}
}

// Fire scrapes target and submits the resulting message. The message is
// returned so callers can report what was sent.
func (a *Action) Fire(ctx context.Context, target string) (models.Message, error) {
	log := a.logger.WithField("url", target)
	start := time.Now()
	log.Debug("Scrape triggered")

	if !a.extractor.IsTarget(target) {
		log.Warn("Not a photo page, nothing to scrape")
		return models.Message{}, extractor.ErrNotTargetPage
	}

	p, err := a.loader.Load(ctx, target)
	if err != nil {
		log.WithError(err).Error("Failed to load page")
		return models.Message{}, fmt.Errorf("failed to load page: %w", err)
	}

	msg, err := a.extractor.Run(p)
	if err != nil {
		log.WithError(err).Warn("Nothing extracted")
		return models.Message{}, err
	}

	if err := a.sender.Submit(msg); err != nil {
		log.WithError(err).Error("Failed to submit message")
		return models.Message{}, fmt.Errorf("failed to submit message: %w", err)
	}

	log.InfoWithFields("Scrape complete", map[string]interface{}{
		"type":     string(msg.Type),
		"duration": time.Since(start),
	})
	return msg, nil
}
