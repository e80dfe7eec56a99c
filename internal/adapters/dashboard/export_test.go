package dashboard

import "time"

// SetNow fixes the clock used for cache-busting tokens and the page footer.
func (p *Publisher) SetNow(now func() time.Time) {
	p.now = now
}
