package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema crea las tablas si no existen. Idempotente: se ejecuta en cada arranque.
const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	company_id    TEXT NOT NULL REFERENCES companies(id),
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS roles (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, name)
);

CREATE TABLE IF NOT EXISTS role_permissions (
	role_id        TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
	permission_key TEXT NOT NULL,
	granted        BOOLEAN NOT NULL,
	PRIMARY KEY (role_id, permission_key)
);

CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	name       TEXT NOT NULL,
	tier       TEXT NOT NULL,
	status     TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	owner_id   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS clients_company_owner ON clients (company_id, owner_id);

CREATE SEQUENCE IF NOT EXISTS request_number_seq;

CREATE TABLE IF NOT EXISTS requests (
	id              TEXT PRIMARY KEY,
	company_id      TEXT NOT NULL REFERENCES companies(id),
	request_number  TEXT NOT NULL UNIQUE,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL,
	status          TEXT NOT NULL,
	priority        TEXT NOT NULL,
	client_id       TEXT NOT NULL REFERENCES clients(id),
	product_id      TEXT,
	estimated_hours NUMERIC(12,4) NOT NULL DEFAULT 0,
	actual_hours    NUMERIC(12,4) NOT NULL DEFAULT 0 CHECK (actual_hours >= 0),
	created_by      TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS requests_company_status ON requests (company_id, status);
CREATE INDEX IF NOT EXISTS requests_client ON requests (client_id);

CREATE TABLE IF NOT EXISTS request_assignees (
	request_id TEXT NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id),
	PRIMARY KEY (request_id, user_id)
);
CREATE INDEX IF NOT EXISTS request_assignees_user ON request_assignees (user_id);

CREATE TABLE IF NOT EXISTS request_activities (
	id            TEXT PRIMARY KEY,
	request_id    TEXT NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
	seq           BIGINT NOT NULL,
	activity_type TEXT NOT NULL,
	description   TEXT NOT NULL,
	actor_id      TEXT NOT NULL,
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (request_id, seq)
);

CREATE TABLE IF NOT EXISTS time_entries (
	id                 TEXT PRIMARY KEY,
	company_id         TEXT NOT NULL REFERENCES companies(id),
	request_id         TEXT NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
	user_id            TEXT NOT NULL,
	status             TEXT NOT NULL,
	started_at         TIMESTAMPTZ NOT NULL,
	segment_started_at TIMESTAMPTZ NOT NULL,
	ended_at           TIMESTAMPTZ,
	duration           NUMERIC(12,4) NOT NULL DEFAULT 0,
	description        TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
-- Como máximo una entrada abierta por (solicitud, usuario).
CREATE UNIQUE INDEX IF NOT EXISTS time_entries_one_open
	ON time_entries (request_id, user_id) WHERE status IN ('ACTIVE', 'PAUSED');
`

// EnsureSchema aplica el esquema.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return wrap("aplicar esquema", err)
	}
	return nil
}
