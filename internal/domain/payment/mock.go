package payment

import (
	"strconv"
	"strings"
)

const (
	mockPreferencePrefix = "mock_pref_"
	mockPaymentPrefix    = "mock_pay_"
)

// MockPreferenceID builds the preference id issued by the mock gateway:
// mock_pref_<ts>_<externalReference>.
func MockPreferenceID(ts int64, externalRef string) string {
	return mockPreferencePrefix + strconv.FormatInt(ts, 10) + "_" + externalRef
}

// MockPaymentID is the payment id assigned when a mock preference completes:
// mock_pay_<ts>_<transactionID>. Two preferences issued in the same
// millisecond still complete under distinct ids.
func MockPaymentID(ts, transactionID string) string {
	return mockPaymentPrefix + ts + "_" + transactionID
}

// ParseMockPreference splits a mock preference id into its timestamp and
// external reference. The reference itself may contain underscores.
func ParseMockPreference(preferenceID string) (ts, externalRef string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(preferenceID), "_", 4)
	if len(parts) != 4 || parts[0]+"_"+parts[1]+"_" != mockPreferencePrefix {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return "", "", false
	}
	return parts[2], parts[3], true
}
