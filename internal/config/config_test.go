package config

import (
	"testing"
	"time"
)

func TestParsePorts(t *testing.T) {
	ports, err := parsePorts("587, 465,2525")
	if err != nil {
		t.Fatalf("parsePorts: %v", err)
	}
	want := []int{587, 465, 2525}
	if len(ports) != len(want) {
		t.Fatalf("ports = %v, want %v", ports, want)
	}
	for i := range want {
		if ports[i] != want[i] {
			t.Errorf("ports[%d] = %d, want %d", i, ports[i], want[i])
		}
	}

	if _, err := parsePorts("587,abc"); err == nil {
		t.Error("non-numeric port accepted")
	}
}

func TestParseProviders(t *testing.T) {
	providers, err := parseProviders("API, smtp")
	if err != nil {
		t.Fatalf("parseProviders: %v", err)
	}
	if len(providers) != 2 || providers[0] != MailProviderAPI || providers[1] != MailProviderSMTP {
		t.Errorf("providers = %v", providers)
	}

	if _, err := parseProviders("carrier-pigeon"); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestPricingAmountFor(t *testing.T) {
	pricing := PricingConfig{BeginnerAmount: 150000, IntermediateAmount: 250000, AdvancedAmount: 350000}

	cases := []struct {
		level string
		want  int64
	}{
		{"BEGINNER", 150000},
		{"intermediate", 250000},
		{" advanced ", 350000},
		{"", 150000},
	}
	for _, tc := range cases {
		if got := pricing.AmountFor(tc.level); got != tc.want {
			t.Errorf("AmountFor(%q) = %d, want %d", tc.level, got, tc.want)
		}
	}

	free := PricingConfig{FreeMode: true, AdvancedAmount: 350000}
	if got := free.AmountFor("ADVANCED"); got != 0 {
		t.Errorf("free mode AmountFor = %d, want 0", got)
	}
}

func TestMailConfigDefaults(t *testing.T) {
	var m MailConfig
	if m.RetryBackoff() != 500*time.Millisecond {
		t.Errorf("zero backoff = %v, want 500ms default", m.RetryBackoff())
	}
	if m.Timeout() != 15*time.Second {
		t.Errorf("zero timeout = %v, want 15s default", m.Timeout())
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port == "" {
		t.Error("app port default missing")
	}
	if len(cfg.Mail.SMTPPorts) == 0 {
		t.Error("smtp port defaults missing")
	}
	if cfg.Outbox.BatchSize <= 0 {
		t.Error("outbox batch size default missing")
	}
}
