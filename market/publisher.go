package market

import "sync"

// Update is the event emitted after each refresh attempt. On a failed fetch
// Err is set and the remaining fields carry the last-known state, so
// consumers keep displaying stale-but-valid data instead of a blank chart.
type Update struct {
	Symbol    string
	Samples   []Observation
	Signals   Signals
	PrevClose float64
	Err       error
}

// Publisher is a lightweight fan-out of refresh updates. Sends never block:
// a subscriber that falls behind loses intermediate updates, which is fine
// for a display feed where only the latest state matters.
type Publisher struct {
	mu   sync.Mutex
	subs []chan Update
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make([]chan Update, 0)}
}

// Subscribe registers a new consumer.
func (p *Publisher) Subscribe() <-chan Update {
	ch := make(chan Update, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Publish broadcasts u to all subscribers.
func (p *Publisher) Publish(u Update) {
	p.mu.Lock()
	subs := p.subs
	p.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- u:
		default:
		}
	}
}
