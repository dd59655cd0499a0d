// Package testsite serves a fake alonhadat.com.vn listing index for tests.
package testsite

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PagePath is the index path served by Site, with {page} as placeholder
const PagePath = "/nha-dat/can-ban/nha-dat/1/ha-noi/trang--{page}.html"

var pagePathRe = regexp.MustCompile(`/trang--(\d+)\.html$`)

// Response is one scripted answer for a page
type Response struct {
	Status int
	Body   string
	Delay  time.Duration
}

// OK answers 200 with body
func OK(body string) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// Status answers with an error status code
func Status(code int) Response {
	return Response{Status: code, Body: http.StatusText(code)}
}

// Slow answers 200 with body after d
func Slow(d time.Duration, body string) Response {
	return Response{Status: http.StatusOK, Body: body, Delay: d}
}

// Site simulates the listing index. Each page replays its scripted responses
// in order and repeats the last one; unscripted pages answer 404.
type Site struct {
	server *httptest.Server

	mu         sync.Mutex
	pages      map[int][]Response
	hits       map[int]int
	userAgents []string
}

// New starts a Site
func New() *Site {
	s := &Site{
		pages: make(map[int][]Response),
		hits:  make(map[int]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the site's base URL
func (s *Site) URL() string {
	return s.server.URL
}

// PageURLTemplate is the page URL template for this site
func (s *Site) PageURLTemplate() string {
	return s.server.URL + PagePath
}

// PageURL is the URL of page
func (s *Site) PageURL(page int) string {
	return strings.Replace(s.PageURLTemplate(), "{page}", strconv.Itoa(page), 1)
}

// Close shuts the server down
func (s *Site) Close() {
	s.server.Close()
}

// SetPage scripts the responses for page
func (s *Site) SetPage(page int, responses ...Response) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page] = responses
	return s
}

// Hits returns how many times page was requested
func (s *Site) Hits(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[page]
}

// UserAgents returns the User-Agent of every request received
func (s *Site) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

func (s *Site) handle(w http.ResponseWriter, r *http.Request) {
	m := pagePathRe.FindStringSubmatch(r.URL.Path)
	if m == nil {
		http.NotFound(w, r)
		return
	}
	page, _ := strconv.Atoi(m[1])

	s.mu.Lock()
	s.userAgents = append(s.userAgents, r.UserAgent())
	n := s.hits[page]
	s.hits[page]++
	script := s.pages[page]
	s.mu.Unlock()

	if len(script) == 0 {
		http.NotFound(w, r)
		return
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	resp := script[n]

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(resp.Status)
	fmt.Fprint(w, resp.Body)
}

// Listings renders an index page with n listings numbered from 0
func Listings(page, n int) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Nhà đất bán tại Hà Nội</title></head><body><div class="content-items">`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `
<div class="content-item">
  <div class="ct_title"><a href="/ban-nha-%[1]d-%[2]d.html">Bán nhà số %[2]d trang %[1]d</a></div>
  <div class="ct_date">Hôm nay</div>
  <div class="ct_dt"><label>Diện tích:</label> %[3]d m<sup>2</sup></div>
  <div class="ct_price"><label>Giá:</label> %[4]d tỷ</div>
  <div class="ct_dis"><a>Phường Dịch Vọng</a> <a>Quận Cầu Giấy</a></div>
  <div class="ct_content">Nhà đẹp. Hướng: Đông, KT: 5x%[3]d, sổ đỏ chính chủ.</div>
  <span class="floors" title="4 tầng">4</span>
  <span class="bedroom" title="3 phòng ngủ">3</span>
  <span title="Đường trước nhà: 6m">6m</span>
</div>`, page, i, 40+i, i+3)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// Captcha renders the verification wall
func Captcha() string {
	return `<html><body><div class="captcha"><h3>Vui lòng xác minh không phải Robot</h3><form><input name="code"></form></div></body></html>`
}

// Empty renders an index page without listings
func Empty() string {
	return `<html><body><div class="content-items"></div><p>Không tìm thấy tin đăng phù hợp.</p></body></html>`
}
