package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics counts persisted exchanges.
type ChatMetrics struct {
	recorded *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewChatMetrics registers the chat metrics on the provided registerer.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	if reg == nil {
		return &ChatMetrics{}
	}
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_qa_pairs_recorded_total",
		Help: "QA pairs persisted by category.",
	}, []string{"category"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_requests_total",
		Help: "Chat requests by result code.",
	}, []string{"result"})
	reg.MustRegister(recorded, requests)
	return &ChatMetrics{recorded: recorded, requests: requests}
}

// IncRecorded counts one persisted QA pair.
func (m *ChatMetrics) IncRecorded(category string) {
	if m == nil || m.recorded == nil {
		return
	}
	m.recorded.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncRequest counts a finished chat request; result is "ok" or an error code.
func (m *ChatMetrics) IncRequest(result string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(result)).Inc()
}
