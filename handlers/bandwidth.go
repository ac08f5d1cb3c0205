package handlers

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BandwidthManager caps the total bytes per second sent for proxied uploads
// and splits the cap evenly across client IPs.
//
// Each IP gets one share no matter how many parallel image requests it has
// open, so a gallery page loading twenty thumbnails cannot starve another
// visitor. Shares are rebalanced whenever an IP starts or finishes its last
// transfer.
type BandwidthManager struct {
	mu       sync.Mutex
	limitBps float64 // total cap in bytes/sec (0 = unlimited)
	peers    map[string]*peer
	log      *zap.Logger
}

type peer struct {
	limiter *rate.Limiter
	refs    int
}

// NewBandwidthManager creates a manager with the given total cap in bytes per
// second. Pass 0 to disable limiting.
func NewBandwidthManager(bytesPerSec float64, log *zap.Logger) *BandwidthManager {
	return &BandwidthManager{
		limitBps: bytesPerSec,
		peers:    make(map[string]*peer),
		log:      log,
	}
}

// Peers reports how many client IPs currently hold a share.
func (bm *BandwidthManager) Peers() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return len(bm.peers)
}

func (bm *BandwidthManager) join(ip, path string) *rate.Limiter {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	p, ok := bm.peers[ip]
	if !ok {
		// Placeholder rate; rebalanceLocked sets the real one.
		p = &peer{limiter: rate.NewLimiter(1, chunkSize)}
		bm.peers[ip] = p
	}
	p.refs++
	bm.log.Debug("transfer start", zap.String("ip", ip), zap.Int("streams", p.refs), zap.String("path", path))
	bm.rebalanceLocked()
	return p.limiter
}

func (bm *BandwidthManager) leave(ip, path string) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	p, ok := bm.peers[ip]
	if !ok {
		return
	}
	p.refs--
	bm.log.Debug("transfer end", zap.String("ip", ip), zap.Int("streams", p.refs), zap.String("path", path))
	if p.refs <= 0 {
		delete(bm.peers, ip)
	}
	bm.rebalanceLocked()
}

// rebalanceLocked applies the per-IP share to every limiter. bm.mu must be held.
func (bm *BandwidthManager) rebalanceLocked() {
	n := len(bm.peers)
	if n == 0 || bm.limitBps == 0 {
		return
	}
	perIP := bm.limitBps / float64(n)
	for _, p := range bm.peers {
		p.limiter.SetLimit(rate.Limit(perIP))
		p.limiter.SetBurst(chunkSize)
	}
	bm.log.Debug("rate rebalance", zap.Int("peers", n), zap.String("per_ip", FormatBits(perIP)))
}

// FormatBits formats a bytes-per-second value as bits per second, the unit
// the limit is configured in.
func FormatBits(bytesPerSec float64) string {
	bps := bytesPerSec * 8
	switch {
	case bps >= 1_000_000_000:
		return fmt.Sprintf("%.2f Gbps", bps/1_000_000_000)
	case bps >= 1_000_000:
		return fmt.Sprintf("%.2f Mbps", bps/1_000_000)
	case bps >= 1_000:
		return fmt.Sprintf("%.2f Kbps", bps/1_000)
	default:
		return fmt.Sprintf("%.0f bps", bps)
	}
}

// Wrap throttles the response body written by h. With no cap set h is
// returned unchanged.
func (bm *BandwidthManager) Wrap(h http.Handler) http.Handler {
	if bm.limitBps == 0 {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		limiter := bm.join(ip, r.URL.Path)
		defer bm.leave(ip, r.URL.Path)

		h.ServeHTTP(&limitedResponseWriter{
			ResponseWriter: w,
			ctx:            r.Context(),
			limiter:        limiter,
		}, r)
	})
}

// chunkSize is the most bytes written per pass through the limiter.
const chunkSize = 32 * 1024

// limitedResponseWriter throttles Write calls through a token bucket.
type limitedResponseWriter struct {
	http.ResponseWriter
	ctx     context.Context
	limiter *rate.Limiter
}

func (lw *limitedResponseWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := min(len(p), chunkSize)
		if err := lw.limiter.WaitN(lw.ctx, n); err != nil {
			return total, err
		}
		written, err := lw.ResponseWriter.Write(p[:n])
		total += written
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}

// ReadFrom keeps io.Copy on the throttled Write path.
func (lw *limitedResponseWriter) ReadFrom(src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := lw.Write(buf[:nr])
			total += int64(nw)
			if werr != nil {
				return total, werr
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// Flush lets the reverse proxy flush through the throttled writer.
func (lw *limitedResponseWriter) Flush() {
	if f, ok := lw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying ResponseWriter.
func (lw *limitedResponseWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

// clientIP returns the request's remote IP without the port. Forwarding
// headers are only honoured when the router runs RealIP (trust-proxy), which
// rewrites RemoteAddr before this is called.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
