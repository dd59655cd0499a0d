package testsite

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestScriptReplaysAndRepeatsLast(t *testing.T) {
	site := New()
	defer site.Close()
	site.SetPage(3, Status(http.StatusServiceUnavailable), OK(Captcha()), OK(Listings(3, 2)))

	code, _ := get(t, site.PageURL(3))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	_, body := get(t, site.PageURL(3))
	assert.Contains(t, body, "Vui lòng xác minh")
	_, body = get(t, site.PageURL(3))
	assert.Contains(t, body, "content-item")
	_, again := get(t, site.PageURL(3))
	assert.Equal(t, body, again)

	assert.Equal(t, 4, site.Hits(3))
	assert.Len(t, site.UserAgents(), 4)
}

func TestUnscriptedPageIsNotFound(t *testing.T) {
	site := New()
	defer site.Close()

	code, _ := get(t, site.PageURL(9))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = get(t, site.URL()+"/other")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 1, site.Hits(9))
}

func TestListingsMarkup(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(Listings(7, 3)))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("div.content-item").Length())
	href, _ := doc.Find("div.ct_title a").First().Attr("href")
	assert.Equal(t, "/ban-nha-7-0.html", href)
}
