package transaction

import (
	"fmt"
	"strings"
)

// ExternalReference is the correlation key handed to the payment gateway.
// League buy-ins carry the league too: "league:<league>:tx:<tx>".
func ExternalReference(tx Transaction) string {
	if tx.LeagueID != "" {
		return fmt.Sprintf("league:%s:tx:%s", tx.LeagueID, tx.ID)
	}
	return tx.ID
}

// ParseExternalReference extracts the transaction id from a reference built
// by ExternalReference.
func ParseExternalReference(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if !strings.HasPrefix(ref, "league:") {
		if strings.Contains(ref, ":") {
			return "", false
		}
		return ref, true
	}

	parts := strings.Split(ref, ":")
	if len(parts) != 4 || parts[2] != "tx" || parts[1] == "" || parts[3] == "" {
		return "", false
	}
	return parts[3], true
}
