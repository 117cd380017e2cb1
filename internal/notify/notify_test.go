package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
)

func crashImpact() *scenario.Impact {
	base := portfolio.Aggregate([]pricing.Contract{
		{Ticker: "SPY", Type: pricing.Call, Spot: 100, Strike: 100, Maturity: 0.5, Volatility: 0.2, Rate: 0.05, Quantity: 10},
		{Ticker: "QQQ", Type: pricing.Put, Spot: 300, Strike: 280, Maturity: 0.5, Volatility: 0.25, Rate: 0.05, Quantity: -2},
	})
	crash, _ := scenario.Lookup("crash")
	return scenario.RunStress(base, crash)
}

func TestBreached(t *testing.T) {
	impact := &scenario.Impact{PnL: -15, PnLPct: -15}
	if !Breached(impact, 10) {
		t.Error("expected a 15% loss to breach a 10% threshold")
	}
	if Breached(impact, 20) {
		t.Error("expected a 15% loss not to breach a 20% threshold")
	}
	if Breached(&scenario.Impact{PnL: 5, PnLPct: 5}, 1) {
		t.Error("gains never breach")
	}
	if Breached(nil, 1) {
		t.Error("nil impact never breaches")
	}
}

func TestFormatStressMessage(t *testing.T) {
	msg := FormatStressMessage(crashImpact(), 10)
	for _, want := range []string{"Base value:", "Shocked value:", "P&L:", "Threshold: -10.00%", "Largest losses:", "SPY Call"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatStressMessage_LosersOrdered(t *testing.T) {
	position := func(ticker string, value float64) portfolio.OptionMetrics {
		return portfolio.OptionMetrics{
			Contract:   pricing.Contract{Ticker: ticker, Type: pricing.Call, Strike: 100},
			TotalValue: value,
		}
	}
	base := &portfolio.Portfolio{Positions: []portfolio.OptionMetrics{
		position("AAA", 100), position("BBB", 100), position("CCC", 100), position("DDD", 100), position("EEE", 100),
	}}
	shocked := &portfolio.Portfolio{Positions: []portfolio.OptionMetrics{
		position("AAA", 90), position("BBB", 40), position("CCC", 70), position("DDD", 95), position("EEE", 120),
	}}

	msg := FormatStressMessage(scenario.Compare("drop", base, shocked), 10)

	_, list, ok := strings.Cut(msg, "Largest losses:\n")
	if !ok {
		t.Fatalf("message has no losers section:\n%s", msg)
	}
	lines := strings.Split(strings.TrimSpace(list), "\n")
	want := []string{"- BBB Call 100.00: -60.00", "- CCC Call 100.00: -30.00", "- AAA Call 100.00: -10.00", "... and 1 more"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), list)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestClient_SendStressBreach(t *testing.T) {
	var gotTitle, gotPriority, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/risk-alerts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &Config{Enabled: true, Server: srv.URL + "/", Topic: "risk-alerts", Priority: "default", Tags: "chart_with_downwards_trend", Token: "tk", LossThresholdPct: 1}
	client := NewClient(cfg, zap.NewNop())

	sent, err := client.SendStressBreach(context.Background(), crashImpact())
	if err != nil {
		t.Fatalf("SendStressBreach failed: %v", err)
	}
	if !sent {
		t.Fatal("expected the crash scenario to breach a 1% threshold")
	}
	if !strings.HasPrefix(gotTitle, "Stress breach: crash") {
		t.Errorf("unexpected title %q", gotTitle)
	}
	if gotPriority != "high" || gotAuth != "Bearer tk" {
		t.Errorf("unexpected headers priority=%q auth=%q", gotPriority, gotAuth)
	}
	if !strings.Contains(gotBody, "P&L:") {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := &Config{Enabled: true, Server: srv.URL, Topic: "t", LossThresholdPct: 1}
	if _, err := NewClient(cfg, zap.NewNop()).SendStressBreach(context.Background(), crashImpact()); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestNew_Disabled(t *testing.T) {
	n := New(&Config{Enabled: false}, zap.NewNop())
	if _, ok := n.(*NoopNotifier); !ok {
		t.Fatalf("expected NoopNotifier, got %T", n)
	}
	sent, err := n.SendStressBreach(context.Background(), crashImpact())
	if sent || err != nil {
		t.Errorf("noop should never send, got %v, %v", sent, err)
	}
}
