package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrscrapr/pkg/config"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/models"
)

type received struct {
	Path        string
	ContentType string
	Body        []byte
}

// collector records every request it receives and answers with a fixed body
type collector struct {
	mu       sync.Mutex
	requests []received
	server   *httptest.Server
}

func newCollector(t *testing.T) *collector {
	c := &collector{}
	c.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.requests = append(c.requests, received{
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		c.mu.Unlock()
		_, _ = w.Write([]byte("saved"))
	}))
	t.Cleanup(c.server.Close)
	return c
}

func (c *collector) Requests() []received {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]received, len(c.requests))
	copy(out, c.requests)
	return out
}

func newTestRelay(endpoint string, log logger.Logger) *Relay {
	return New(config.RelayConfig{Endpoint: endpoint}, log)
}

var metadataRecord = models.MetadataRecord{
	AttributionName: "Jane Doe",
	AttributionURL:  "https://www.flickr.com/photos/janedoe/",
	LicenseURL:      "https://creativecommons.org/licenses/by/2.0/",
	LicenseText:     "Some rights reserved",
	PageURL:         "https://www.flickr.com/photos/janedoe/52712345678/",
	DownloadPageURL: "https://www.flickr.com/photos/janedoe/52712345678/sizes/o/",
}

var downloadRecord = models.DownloadRecord{
	MetadataURL:     "https://www.flickr.com/photos/janedoe/52712345678/",
	DownloadPageURL: "https://www.flickr.com/photos/janedoe/52712345678/sizes/o/",
	DownloadURL:     "https://live.staticflickr.com/65535/52712345678_abcdef0123_o_d.jpg",
}

func TestRelaySaveMetadata(t *testing.T) {
	c := newCollector(t)
	log := logger.NewTestLogger()
	r := newTestRelay(c.server.URL, log)
	r.Start()

	require.NoError(t, r.Submit(models.NewMetadataMessage(metadataRecord)))
	r.Stop()

	reqs := c.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, SaveMetadataPath, reqs[0].Path)
	assert.Equal(t, "application/json", reqs[0].ContentType)

	var got models.MetadataRecord
	require.NoError(t, json.Unmarshal(reqs[0].Body, &got))
	assert.Equal(t, metadataRecord, got)

	var keys map[string]interface{}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &keys))
	assert.Len(t, keys, 6)
	assert.Contains(t, keys, "attribution_name")
	assert.Contains(t, keys, "download_page_url")

	responses := log.FindMessages("Collector responded")
	require.Len(t, responses, 1)
	assert.Equal(t, "saved", responses[0].Field("body"))
	assert.Equal(t, http.StatusOK, responses[0].Field("status"))
}

func TestRelaySaveDownload(t *testing.T) {
	c := newCollector(t)
	r := newTestRelay(c.server.URL+"/", logger.NewNopLogger())
	r.Start()

	require.NoError(t, r.Submit(models.NewDownloadMessage(downloadRecord)))
	r.Stop()

	reqs := c.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, SaveDownloadPath, reqs[0].Path)

	var got models.DownloadRecord
	require.NoError(t, json.Unmarshal(reqs[0].Body, &got))
	assert.Equal(t, downloadRecord, got)
}

func TestRelayIgnoresUnknownType(t *testing.T) {
	c := newCollector(t)
	log := logger.NewTestLogger()
	r := newTestRelay(c.server.URL, log)
	r.Start()

	require.NoError(t, r.Submit(models.Message{Type: "save-thumbnail", Data: metadataRecord}))
	r.Stop()

	assert.Empty(t, c.Requests())
	assert.True(t, log.HasMessage("Ignoring message of unknown type"))
	assert.False(t, log.HasError())
}

func TestRelayDuplicateSubmissions(t *testing.T) {
	c := newCollector(t)
	r := newTestRelay(c.server.URL, logger.NewNopLogger())
	r.Start()

	msg := models.NewMetadataMessage(metadataRecord)
	require.NoError(t, r.Submit(msg))
	require.NoError(t, r.Submit(msg))
	r.Stop()

	reqs := c.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Path, reqs[1].Path)
	assert.JSONEq(t, string(reqs[0].Body), string(reqs[1].Body))
}

func TestRelayDoesNotWaitForPost(t *testing.T) {
	release := make(chan struct{})
	var hits sync.WaitGroup
	hits.Add(2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Done()
		<-release
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	r := newTestRelay(server.URL, logger.NewNopLogger())
	r.Start()

	require.NoError(t, r.Submit(models.NewMetadataMessage(metadataRecord)))
	require.NoError(t, r.Submit(models.NewDownloadMessage(downloadRecord)))

	// both POSTs reach the collector while neither has been answered
	done := make(chan struct{})
	go func() {
		hits.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("POSTs were not issued concurrently")
	}

	close(release)
	r.Stop()
}

func TestRelayUnreachableCollector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	log := logger.NewTestLogger()
	r := newTestRelay(endpoint, log)
	r.Start()

	require.NoError(t, r.Submit(models.NewMetadataMessage(metadataRecord)))
	r.Stop()

	failures := log.FindMessages("Relay request failed")
	require.Len(t, failures, 1)
	assert.NotNil(t, failures[0].Error)
	assert.Equal(t, int64(1), r.Failed())
}

func TestRelayLogsErrorResponsesAsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	log := logger.NewTestLogger()
	r := newTestRelay(server.URL, log)
	r.Start()

	require.NoError(t, r.Submit(models.NewDownloadMessage(downloadRecord)))
	r.Stop()

	responses := log.FindMessages("Collector responded")
	require.Len(t, responses, 1)
	assert.Equal(t, "boom", responses[0].Field("body"))
	assert.Equal(t, http.StatusInternalServerError, responses[0].Field("status"))
	assert.Zero(t, r.Failed(), "the collector answered")
}

func TestRelayLifecycle(t *testing.T) {
	r := newTestRelay("http://localhost:5000", logger.NewNopLogger())

	assert.ErrorIs(t, r.Submit(models.NewMetadataMessage(metadataRecord)), ErrNotStarted)

	r.Start()
	r.Start()
	r.Stop()
	r.Stop()

	assert.ErrorIs(t, r.Submit(models.NewMetadataMessage(metadataRecord)), ErrStopped)
}

func TestPathFor(t *testing.T) {
	p, ok := PathFor(models.MessageSaveMetadata)
	assert.True(t, ok)
	assert.Equal(t, "/save_metadata", p)

	p, ok = PathFor(models.MessageSaveDownload)
	assert.True(t, ok)
	assert.Equal(t, "/save_download", p)

	_, ok = PathFor("other")
	assert.False(t, ok)

	assert.Equal(t, "http://localhost:5000/save_download", BuildURL("http://localhost:5000/", SaveDownloadPath))
}
