package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/bilardeando/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const (
	dbMaxOpenConns    = 20
	dbMaxIdleConns    = 5
	dbConnMaxLifetime = 30 * time.Minute
	dbPingTimeout     = 5 * time.Second

	maxTracedQueryLength = 512
	preparedBinaryParam  = "disable_prepared_binary_result"
)

// dsnInfo is what the app needs to know about DB_URL. Both URL
// (postgres://...) and key=value DSNs are accepted.
type dsnInfo struct {
	DSN  string
	Name string
	Host string
	// Safe is DSN with the password removed, for logs.
	Safe string
}

func parseDSN(raw string, disablePreparedBinary bool) dsnInfo {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		if disablePreparedBinary {
			q := u.Query()
			if q.Get(preparedBinaryParam) == "" {
				q.Set(preparedBinaryParam, "yes")
				u.RawQuery = q.Encode()
			}
		}
		return dsnInfo{
			DSN:  u.String(),
			Name: strings.TrimPrefix(u.Path, "/"),
			Host: u.Hostname(),
			Safe: u.Redacted(),
		}
	}

	info := dsnInfo{DSN: raw}
	hasFlag := false
	safe := make([]string, 0, 8)
	for _, token := range strings.Fields(raw) {
		key, value, _ := strings.Cut(token, "=")
		value = strings.Trim(value, `"'`)
		switch key {
		case "dbname":
			info.Name = value
		case "host":
			info.Host = value
		case "password":
			token = "password=xxxxx"
		case preparedBinaryParam:
			hasFlag = true
		}
		safe = append(safe, token)
	}
	if disablePreparedBinary && !hasFlag && raw != "" {
		info.DSN = raw + " " + preparedBinaryParam + "=yes"
	}
	info.Safe = strings.Join(safe, " ")
	return info
}

// DatabaseURL returns the postgres DSN with driver flags applied.
func DatabaseURL(cfg config.Config) string {
	return parseDSN(cfg.DBURL, cfg.DBDisablePreparedBinary).DSN
}

// OpenDB opens a traced postgres pool and verifies it with a ping.
func OpenDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	info := parseDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", info.DSN,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(info.Name),
		otelsql.WithAttributes(attribute.String("server.address", info.Host)),
		otelsql.WithQueryFormatter(formatQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres %s: %w", info.Safe, err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", info.Safe, err)
	}
	return db, nil
}

// formatQueryForTrace collapses whitespace so multi-line queries read as
// one line in span attributes, and caps the length.
func formatQueryForTrace(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) <= maxTracedQueryLength {
		return q
	}
	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(q[cut]) {
		cut--
	}
	return q[:cut] + "..."
}
