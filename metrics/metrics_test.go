package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dan13ram/xbridge-engine/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SetActiveMonitors(3)
		m.ObserveTransition(models.PhaseCompleted)
		m.ObservePollError(models.ProviderWormhole)
		m.ObserveTransfer(models.ChainEthereum, models.ChainSolana, true)
		m.ObserveDelivery(models.ChannelWebhook, false)
		m.ObserveTerminal(&models.BridgeTransaction{})
	})
}

func TestMetrics(t *testing.T) {
	m := New("xbridge")

	m.SetActiveMonitors(2)
	m.ObserveTransition(models.PhaseSourceConfirmed)
	m.ObserveTransition(models.PhaseSourceConfirmed)
	m.ObservePollError(models.ProviderCeler)
	m.ObserveTransfer(models.ChainEthereum, models.ChainSolana, false)
	m.ObserveDelivery(models.ChannelPush, true)
	m.ObserveTerminal(&models.BridgeTransaction{Phase: models.PhaseCompleted, Asset: "USDC"})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.activeMonitors))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.transitions.WithLabelValues("SOURCE_CONFIRMED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.pollErrors.WithLabelValues("celer")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transfers.WithLabelValues("ethereum", "solana", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveries.WithLabelValues("push", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.terminal.WithLabelValues("COMPLETED", "USDC")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "xbridge_active_monitors 2"))
}
