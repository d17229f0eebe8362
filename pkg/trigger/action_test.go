package trigger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrscrapr/pkg/config"
	"flickrscrapr/pkg/extractor"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/models"
	"flickrscrapr/pkg/page"
)

const photoURL = "https://www.flickr.com/photos/janedoe/52712345678/"

const photoHTML = `<html><head>
<meta property="og:url" content="https://www.flickr.com/photos/janedoe/52712345678/">
</head><body>
<a class="owner-name" href="/photos/janedoe/">Jane Doe</a>
<a class="photo-license-url" href="https://creativecommons.org/licenses/by/2.0/"><span>Some rights reserved</span></a>
<div class="download"><a href="/photos/janedoe/52712345678/sizes/o/">Download</a></div>
</body></html>`

// recordingSender keeps every submitted message
type recordingSender struct {
	mu       sync.Mutex
	messages []models.Message
	err      error
}

func (s *recordingSender) Submit(msg models.Message) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func TestActionFire(t *testing.T) {
	sender := &recordingSender{}
	log := logger.NewTestLogger()
	action := NewAction(StaticLoader{HTML: photoHTML}, extractor.Default(), sender, log)

	msg, err := action.Fire(context.Background(), photoURL)
	require.NoError(t, err)
	assert.Equal(t, models.MessageSaveMetadata, msg.Type)

	sent := sender.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, msg, sent[0])
	assert.True(t, log.HasMessage("Scrape complete"))
}

func TestActionFireTwice(t *testing.T) {
	sender := &recordingSender{}
	action := NewAction(StaticLoader{HTML: photoHTML}, extractor.Default(), sender, logger.NewNopLogger())

	_, err := action.Fire(context.Background(), photoURL)
	require.NoError(t, err)
	_, err = action.Fire(context.Background(), photoURL)
	require.NoError(t, err)

	sent := sender.Messages()
	require.Len(t, sent, 2)
	assert.Equal(t, sent[0], sent[1])
}

func TestActionFireNotTarget(t *testing.T) {
	sender := &recordingSender{}
	action := NewAction(StaticLoader{HTML: photoHTML}, extractor.Default(), sender, logger.NewNopLogger())

	_, err := action.Fire(context.Background(), "https://www.flickr.com/explore/")
	assert.ErrorIs(t, err, extractor.ErrNotTargetPage)
	assert.Empty(t, sender.Messages())
}

func TestActionFireNoDownloadLink(t *testing.T) {
	html := `<html><head><meta property="og:url" content="` + photoURL + `"></head><body>
<a class="owner-name" href="/photos/janedoe/">Jane Doe</a>
<a class="photo-license-url" href="/license"><span>All rights reserved</span></a>
</body></html>`

	sender := &recordingSender{}
	action := NewAction(StaticLoader{HTML: html}, extractor.Default(), sender, logger.NewNopLogger())

	_, err := action.Fire(context.Background(), photoURL)
	assert.ErrorIs(t, err, extractor.ErrNoDownloadLink)
	assert.Empty(t, sender.Messages())
}

func TestActionFireSubmitError(t *testing.T) {
	sender := &recordingSender{err: errors.New("inbox closed")}
	log := logger.NewTestLogger()
	action := NewAction(StaticLoader{HTML: photoHTML}, extractor.Default(), sender, log)

	_, err := action.Fire(context.Background(), photoURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inbox closed")
	assert.True(t, log.HasError())
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.html")
	require.NoError(t, os.WriteFile(path, []byte(photoHTML), 0644))

	sender := &recordingSender{}
	action := NewAction(FileLoader{Path: path}, extractor.Default(), sender, logger.NewNopLogger())

	msg, err := action.Fire(context.Background(), photoURL)
	require.NoError(t, err)
	assert.Equal(t, photoURL, msg.Data.(models.MetadataRecord).PageURL)

	missing := NewAction(FileLoader{Path: filepath.Join(t.TempDir(), "none.html")},
		extractor.Default(), sender, logger.NewNopLogger())
	_, err = missing.Fire(context.Background(), photoURL)
	assert.Error(t, err)
}

func TestFetchLoader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(photoHTML))
	}))
	defer server.Close()

	site := config.SiteConfig{Origin: server.URL, PhotoPathPrefix: "/photos/"}
	fetcher := page.NewFetcher(config.FetchConfig{Timeout: 5 * time.Second}, logger.NewNopLogger())

	sender := &recordingSender{}
	action := NewAction(FetchLoader{Fetcher: fetcher}, extractor.New(site), sender, logger.NewNopLogger())

	msg, err := action.Fire(context.Background(), server.URL+"/photos/janedoe/52712345678/")
	require.NoError(t, err)

	rec := msg.Data.(models.MetadataRecord)
	assert.Equal(t, server.URL+"/photos/janedoe/", rec.AttributionURL)
	assert.Equal(t, server.URL+"/photos/janedoe/52712345678/sizes/o/", rec.DownloadPageURL)
}
