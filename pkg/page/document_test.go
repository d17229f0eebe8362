package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <meta property="og:url" content="https://www.flickr.com/photos/someone/123/">
  <title>Sample</title>
</head>
<body>
  <h1>Sizes of <a href="/photos/someone/123/">Photo title</a></h1>
  <a class="owner-name" href="/photos/someone/"> Some One </a>
  <a class="owner-name" href="/photos/other/">Other</a>
  <ul>
    <li><a href="/first">First link</a></li>
    <li><a href="https://live.staticflickr.com/1/123_o.jpg">Download the <b>Original</b> size of this photo</a></li>
  </ul>
</body>
</html>`

const pageURL = "https://www.flickr.com/photos/someone/123/sizes/o/"

func TestDocumentQuery(t *testing.T) {
	doc, err := NewDocumentFromString(samplePage, pageURL)
	require.NoError(t, err)

	assert.Equal(t, pageURL, doc.URL())

	el, ok := doc.Query("a.owner-name")
	require.True(t, ok)
	href, ok := el.Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/photos/someone/", href, "first match in document order")
	assert.Equal(t, " Some One ", el.Text())

	_, ok = el.Attr("title")
	assert.False(t, ok)

	meta, ok := doc.Query("meta[property~='og:url'][content]")
	require.True(t, ok)
	content, _ := meta.Attr("content")
	assert.Equal(t, "https://www.flickr.com/photos/someone/123/", content)

	_, ok = doc.Query("div.download a")
	assert.False(t, ok)

	_, ok = doc.Query("a[")
	assert.False(t, ok, "invalid selector matches nothing")
}

func TestDocumentEvaluate(t *testing.T) {
	doc, err := NewDocumentFromString(samplePage, pageURL)
	require.NoError(t, err)

	link, ok := doc.Evaluate("//a[contains(.,'Download the')]")
	require.True(t, ok)
	href, _ := link.Attr("href")
	assert.Equal(t, "https://live.staticflickr.com/1/123_o.jpg", href)
	assert.Equal(t, "Download the Original size of this photo", link.Text(),
		"text spans child elements")

	back, ok := doc.Evaluate("//h1/a[contains(.,'Photo')]")
	require.True(t, ok)
	href, _ = back.Attr("href")
	assert.Equal(t, "/photos/someone/123/", href)

	_, ok = doc.Evaluate("//a[contains(.,'Nothing like this')]")
	assert.False(t, ok)

	_, ok = doc.Evaluate("//a[")
	assert.False(t, ok, "invalid expression matches nothing")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(samplePage), 0644))

	doc, err := Load(path, pageURL)
	require.NoError(t, err)
	assert.Equal(t, pageURL, doc.URL())

	_, ok := doc.Query("h1 a")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.html"), pageURL)
	assert.Error(t, err)
}
