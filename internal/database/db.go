package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the registry tables when they do not exist yet.
// The permits table is deliberately wide (one row per permit) with JSON
// columns for the embedded lists; (year, sequence_number) carries the
// unique key that backs the correlative guarantee.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			email VARCHAR(190) NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'CLERK',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_refresh_token_hash (token_hash),
			KEY idx_refresh_user (user_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS year_counters (
			year INT NOT NULL,
			last_issued_number INT NOT NULL DEFAULT 0,
			PRIMARY KEY (year)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS permits (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			year INT NOT NULL,
			sequence_number INT NOT NULL,
			state VARCHAR(16) NOT NULL DEFAULT 'ISSUED',
			version INT NOT NULL DEFAULT 1,
			father_name VARCHAR(200) NOT NULL DEFAULT '',
			father_doc_type VARCHAR(20) NOT NULL DEFAULT 'DNI',
			father_doc_number VARCHAR(30) NOT NULL DEFAULT '',
			father_dni VARCHAR(30) NOT NULL DEFAULT '',
			father_nationality VARCHAR(60) NOT NULL DEFAULT '',
			father_civil_status VARCHAR(30) NOT NULL DEFAULT '',
			father_address VARCHAR(250) NOT NULL DEFAULT '',
			father_district VARCHAR(100) NOT NULL DEFAULT '',
			father_province VARCHAR(100) NOT NULL DEFAULT '',
			father_department VARCHAR(100) NOT NULL DEFAULT '',
			mother_name VARCHAR(200) NOT NULL DEFAULT '',
			mother_doc_type VARCHAR(20) NOT NULL DEFAULT 'DNI',
			mother_doc_number VARCHAR(30) NOT NULL DEFAULT '',
			mother_dni VARCHAR(30) NOT NULL DEFAULT '',
			mother_nationality VARCHAR(60) NOT NULL DEFAULT '',
			mother_civil_status VARCHAR(30) NOT NULL DEFAULT '',
			mother_address VARCHAR(250) NOT NULL DEFAULT '',
			mother_district VARCHAR(100) NOT NULL DEFAULT '',
			mother_province VARCHAR(100) NOT NULL DEFAULT '',
			mother_department VARCHAR(100) NOT NULL DEFAULT '',
			minor_name VARCHAR(200) NOT NULL DEFAULT '',
			minor_doc_number VARCHAR(30) NOT NULL DEFAULT '',
			minor_dni VARCHAR(30) NOT NULL DEFAULT '',
			minor_birth_date VARCHAR(10) NOT NULL DEFAULT '',
			minor_sex CHAR(1) NOT NULL DEFAULT 'M',
			siblings_json TEXT NOT NULL,
			companions_json TEXT NOT NULL,
			receivers_json TEXT NOT NULL,
			travel_kind VARCHAR(20) NOT NULL DEFAULT 'NACIONAL',
			travel_origin VARCHAR(100) NOT NULL DEFAULT '',
			travel_destination VARCHAR(100) NOT NULL DEFAULT '',
			vias_json TEXT NOT NULL,
			travel_company VARCHAR(150) NOT NULL DEFAULT '',
			departure_date VARCHAR(10) NOT NULL DEFAULT '',
			return_date VARCHAR(10) NOT NULL DEFAULT '',
			travel_escort VARCHAR(20) NOT NULL DEFAULT '',
			travel_signer VARCHAR(10) NOT NULL DEFAULT '',
			motive VARCHAR(500) NOT NULL DEFAULT '',
			event_city VARCHAR(100) NOT NULL DEFAULT '',
			event_date VARCHAR(30) NOT NULL DEFAULT '',
			organizer VARCHAR(200) NOT NULL DEFAULT '',
			document_path VARCHAR(300) NOT NULL DEFAULT '',
			void_reason VARCHAR(300) NOT NULL DEFAULT '',
			voided_by VARCHAR(190) NOT NULL DEFAULT '',
			voided_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_permits_correlative (year, sequence_number),
			KEY idx_permits_father_doc (father_doc_number),
			KEY idx_permits_mother_doc (mother_doc_number),
			KEY idx_permits_minor_doc (minor_doc_number)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS suppressed_identities (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			role VARCHAR(10) NOT NULL,
			doc_number VARCHAR(30) NOT NULL,
			reason VARCHAR(300) NOT NULL DEFAULT '',
			created_by VARCHAR(190) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_suppressed_role_doc (role, doc_number)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS query_log (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			user_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
