package payment

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]Status{
		"approved":     StatusApproved,
		"authorized":   StatusApproved,
		"rejected":     StatusRejected,
		"cancelled":    StatusRejected,
		"charged_back": StatusRejected,
		"in_process":   StatusPending,
		"":             StatusPending,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestMockPreferenceRoundTrip(t *testing.T) {
	pref := MockPreferenceID(1760000000000, "league:l1:tx:t_1")
	ts, ref, ok := ParseMockPreference(pref)
	if !ok {
		t.Fatalf("expected %q to parse", pref)
	}
	if ts != "1760000000000" || ref != "league:l1:tx:t_1" {
		t.Fatalf("unexpected parts: ts=%s ref=%s", ts, ref)
	}
	if got := MockPaymentID(ts, "t_1"); got != "mock_pay_1760000000000_t_1" {
		t.Fatalf("unexpected payment id: %s", got)
	}
}

func TestParseMockPreference_Rejects(t *testing.T) {
	for _, raw := range []string{"", "pref_123", "mock_pref_abc_tx1", "mock_pref_123_", "real_pref_1_tx"} {
		if _, _, ok := ParseMockPreference(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
