package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Sentinel store (PostgreSQL).
var Migrations = migrate.NewGroup("sentinel")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_capabilities",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_capabilities (
    id              TEXT PRIMARY KEY,
    code            TEXT NOT NULL,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    sensitivity     TEXT NOT NULL DEFAULT 'normal',
    requires_audit  BOOLEAN NOT NULL DEFAULT FALSE,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(code)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_capabilities_active ON sentinel_capabilities (active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_capabilities`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_groups",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_groups (
    id              TEXT PRIMARY KEY,
    code            TEXT NOT NULL,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(code)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_groups`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_group_capabilities",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_group_capabilities (
    group_id        TEXT NOT NULL REFERENCES sentinel_groups(id) ON DELETE CASCADE,
    capability_id   TEXT NOT NULL REFERENCES sentinel_capabilities(id) ON DELETE CASCADE,

    PRIMARY KEY (group_id, capability_id)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_group_caps_group ON sentinel_group_capabilities (group_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_group_caps_cap ON sentinel_group_capabilities (capability_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_group_capabilities`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_memberships (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    group_id        TEXT NOT NULL REFERENCES sentinel_groups(id) ON DELETE CASCADE,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    expires_at      TIMESTAMPTZ,
    assigned_by     TEXT NOT NULL DEFAULT '',
    assigned_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    metadata        JSONB NOT NULL DEFAULT '{}',

    UNIQUE(user_id, group_id)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_memberships_user ON sentinel_memberships (user_id, active);
CREATE INDEX IF NOT EXISTS idx_sentinel_memberships_expiry ON sentinel_memberships (expires_at) WHERE expires_at IS NOT NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20260101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_grants (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    capability_code TEXT NOT NULL,
    kind            TEXT NOT NULL,
    start_at        TIMESTAMPTZ NOT NULL,
    end_at          TIMESTAMPTZ,
    reason          TEXT NOT NULL,
    authorized_by   TEXT NOT NULL,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sentinel_grants_user ON sentinel_grants (user_id, active);
CREATE INDEX IF NOT EXISTS idx_sentinel_grants_cap ON sentinel_grants (capability_code);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_audit_entries",
			Version: "20260101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_audit_entries (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    capability_code TEXT NOT NULL,
    outcome         TEXT NOT NULL,
    stage           TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    resource_id     TEXT NOT NULL DEFAULT '',
    request_ip      TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sentinel_audit_user ON sentinel_audit_entries (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_sentinel_audit_cap ON sentinel_audit_entries (capability_code, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_audit_entries`)
				return err
			},
		},
	)
}
