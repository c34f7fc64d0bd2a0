package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"
)

const (
	NumConnections   = "NumConnections"
	NumActiveClients = "NumActiveClients"
	NumMessages      = "NumMessages"
	NumRoomsCreated  = "NumRoomsCreated"
	DroppedMessages  = "DroppedMessages"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
}

type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan *metricsUpdateReq
	stopOnce   sync.Once
	done       chan struct{}

	mu      sync.RWMutex
	stopped bool
}

type metricsUpdateReq struct {
	name  string
	value int
}

// Handler serves the current metrics as a JSON object.
func (su *StatsUpdater) Handler() http.Handler {
	return http.HandlerFunc(su.expvarHandler)
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater creates a new stats updater instance. The map is not
// published to the global expvar registry so several updaters can coexist.
func NewStatsUpdater() *StatsUpdater {
	su := &StatsUpdater{
		vars:       new(expvar.Map).Init(),
		updateChan: make(chan *metricsUpdateReq, 512),
		done:       make(chan struct{}),
	}
	su.initializeMetrics()

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
}

func (su *StatsUpdater) updateMetrics() {
	defer close(su.done)
	for req := range su.updateChan {
		metric, ok := su.vars.Get(req.name).(*expvar.Int)
		if !ok {
			continue
		}

		metric.Add(int64(req.value))
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.update(name, 1)
}

func (su *StatsUpdater) Decr(name string) {
	su.update(name, -1)
}

// update never blocks; updates are dropped when the channel is full or the
// updater has been stopped.
func (su *StatsUpdater) update(name string, value int) {
	su.mu.RLock()
	defer su.mu.RUnlock()
	if su.stopped {
		return
	}

	select {
	case su.updateChan <- &metricsUpdateReq{name: name, value: value}:
	default:
	}
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

// Get returns the current value of a registered counter.
func (su *StatsUpdater) Get(name string) (int64, bool) {
	metric, ok := su.vars.Get(name).(*expvar.Int)
	if !ok {
		return 0, false
	}
	return metric.Value(), true
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

// Stop closes the update channel and waits for queued updates to apply.
// Run must have been called.
func (su *StatsUpdater) Stop() {
	su.stopOnce.Do(func() {
		su.mu.Lock()
		su.stopped = true
		close(su.updateChan)
		su.mu.Unlock()
		<-su.done
	})
}
