package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

func TestBandwidthWrapUnlimitedIsPassthrough(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	bm := NewBandwidthManager(0, zaptest.NewLogger(t))
	wrapped := bm.Wrap(h)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, bm.Peers())
}

func TestBandwidthWrapDeliversBodyAndReleasesShare(t *testing.T) {
	payload := strings.Repeat("x", 3*chunkSize+17)
	bm := NewBandwidthManager(1<<30, zaptest.NewLogger(t))

	var peersDuring int
	h := bm.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peersDuring = bm.Peers()
		io.Copy(w, strings.NewReader(payload))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil))
	assert.Equal(t, payload, rec.Body.String())
	assert.Equal(t, 1, peersDuring)
	assert.Zero(t, bm.Peers())
}

func TestBandwidthSplitsCapAcrossIPs(t *testing.T) {
	const total = 1_000_000
	bm := NewBandwidthManager(total, zaptest.NewLogger(t))

	a := bm.join("10.0.0.1", "/uploads/a.jpg")
	assert.Equal(t, rate.Limit(total), a.Limit())

	// A second stream from the same IP shares its limiter.
	a2 := bm.join("10.0.0.1", "/uploads/b.jpg")
	assert.Same(t, a, a2)
	assert.Equal(t, 1, bm.Peers())
	assert.Equal(t, rate.Limit(total), a.Limit())

	b := bm.join("10.0.0.2", "/uploads/a.jpg")
	c := bm.join("10.0.0.3", "/uploads/a.jpg")
	assert.Equal(t, 3, bm.Peers())
	for _, l := range []*rate.Limiter{a, b, c} {
		assert.InDelta(t, total/3.0, float64(l.Limit()), 1e-6)
		assert.Equal(t, chunkSize, l.Burst())
	}

	bm.leave("10.0.0.3", "/uploads/a.jpg")
	assert.Equal(t, rate.Limit(total/2), a.Limit())
	assert.Equal(t, rate.Limit(total/2), b.Limit())

	// The IP keeps its share until its last stream ends.
	bm.leave("10.0.0.1", "/uploads/a.jpg")
	assert.Equal(t, 2, bm.Peers())
	assert.Equal(t, rate.Limit(total/2), b.Limit())

	bm.leave("10.0.0.1", "/uploads/b.jpg")
	assert.Equal(t, 1, bm.Peers())
	assert.Equal(t, rate.Limit(total), b.Limit())

	bm.leave("10.0.0.2", "/uploads/a.jpg")
	bm.leave("10.0.0.2", "/uploads/a.jpg")
	assert.Zero(t, bm.Peers())
}

func TestBandwidthWrapCountsEachIPOnce(t *testing.T) {
	bm := NewBandwidthManager(1<<30, zaptest.NewLogger(t))
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	h := bm.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		io.WriteString(w, "img")
	}))

	var wg sync.WaitGroup
	for _, addr := range []string{"10.0.0.1:40000", "10.0.0.1:40001", "10.0.0.2:40000"} {
		wg.Go(func() {
			req := httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil)
			req.RemoteAddr = addr
			h.ServeHTTP(httptest.NewRecorder(), req)
		})
	}
	for range 3 {
		<-started
	}
	assert.Equal(t, 2, bm.Peers())

	close(release)
	wg.Wait()
	assert.Zero(t, bm.Peers())
}

func TestFormatBits(t *testing.T) {
	assert.Equal(t, "800 bps", FormatBits(100))
	assert.Equal(t, "8.00 Kbps", FormatBits(1_000))
	assert.Equal(t, "80.00 Mbps", FormatBits(10_000_000))
	assert.Equal(t, "1.00 Gbps", FormatBits(125_000_000))
}
