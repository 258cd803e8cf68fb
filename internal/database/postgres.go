package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL, which holds account records and the
// operational audit tables (rate-limit violations, blocked IPs, unlock audit).
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
func InitPostgresTables() error {
	queries := []string{
		// Accounts: public profile data only, keyed by the uid every other
		// store uses.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(20) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Rate-limit violations, kept for admin visibility.
		`CREATE TABLE IF NOT EXISTS violations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			ip_address VARCHAR(255) NOT NULL,
			type VARCHAR(50) NOT NULL,
			message TEXT NOT NULL,
			action_taken VARCHAR(50) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS blocked_ips (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMP NOT NULL,
			ip_address VARCHAR(255) NOT NULL,
			reason TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Every remote-unlock attempt, allowed or refused. Coaches acting on
		// trainees out-of-band deserve an audit trail.
		`CREATE TABLE IF NOT EXISTS unlock_audit (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			trainee_id VARCHAR(64) NOT NULL,
			coach_id VARCHAR(64) NOT NULL,
			ip_address VARCHAR(255),
			outcome VARCHAR(20) NOT NULL,
			reason VARCHAR(100)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_violations_ip_address ON violations(ip_address)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_created_at ON violations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_blocked_ips_ip_address ON blocked_ips(ip_address)`,
		`CREATE INDEX IF NOT EXISTS idx_blocked_ips_is_active ON blocked_ips(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_unlock_audit_trainee_id ON unlock_audit(trainee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_unlock_audit_created_at ON unlock_audit(created_at)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection.
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
