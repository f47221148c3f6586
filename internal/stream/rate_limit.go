package stream

import "sync"

// streamLimiter bounds open streams per client address and in total.
type streamLimiter struct {
	perIP, total int

	mu     sync.Mutex
	byAddr map[string]int
	open   int
}

func newStreamLimiter(maxPerIP, maxTotal int) *streamLimiter {
	return &streamLimiter{perIP: maxPerIP, total: maxTotal, byAddr: map[string]int{}}
}

// acquire takes a slot for ip, or reports false when ip or the whole
// server is at its cap.
func (l *streamLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == l.total || l.byAddr[ip] == l.perIP {
		return false
	}
	l.byAddr[ip]++
	l.open++
	return true
}

// release returns a slot taken by acquire. Unknown addresses are ignored.
func (l *streamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch n := l.byAddr[ip]; {
	case n == 0:
		return
	case n == 1:
		delete(l.byAddr, ip)
	default:
		l.byAddr[ip] = n - 1
	}
	l.open--
}

func (l *streamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byAddr[ip]
}

func (l *streamLimiter) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}
