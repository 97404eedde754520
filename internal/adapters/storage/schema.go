package storage

// Schema is the table layout used by SQLStore. It is applied automatically for
// SQLite; Postgres deployments apply it with their own tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS roles (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	job_level TEXT NOT NULL DEFAULT '',
	purpose   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS role_variables (
	role_id    TEXT NOT NULL,
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	weight     DOUBLE PRECISION NOT NULL,
	min_value  DOUBLE PRECISION NOT NULL,
	max_value  DOUBLE PRECISION NOT NULL,
	rule       TEXT NOT NULL DEFAULT '',
	group_name TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (role_id, position)
);
CREATE TABLE IF NOT EXISTS employees (
	id          TEXT PRIMARY KEY,
	full_name   TEXT NOT NULL DEFAULT '',
	department  TEXT NOT NULL DEFAULT '',
	division    TEXT NOT NULL DEFAULT '',
	directorate TEXT NOT NULL DEFAULT '',
	job_level   TEXT NOT NULL DEFAULT '',
	position    TEXT NOT NULL DEFAULT '',
	rating      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS employee_values (
	employee_id TEXT NOT NULL,
	variable    TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (employee_id, variable)
);
CREATE TABLE IF NOT EXISTS employee_strengths (
	employee_id TEXT NOT NULL,
	rank        INTEGER NOT NULL,
	theme       TEXT NOT NULL,
	PRIMARY KEY (employee_id, rank)
);
CREATE TABLE IF NOT EXISTS match_results (
	role_id          TEXT NOT NULL,
	employee_id      TEXT NOT NULL,
	role_version     INTEGER NOT NULL,
	final_match_rate DOUBLE PRECISION NOT NULL,
	rank             INTEGER NOT NULL DEFAULT 0,
	scored_at        BIGINT NOT NULL,
	PRIMARY KEY (role_id, employee_id)
);
CREATE TABLE IF NOT EXISTS match_contributions (
	role_id        TEXT NOT NULL,
	employee_id    TEXT NOT NULL,
	position       INTEGER NOT NULL,
	variable       TEXT NOT NULL,
	group_name     TEXT NOT NULL DEFAULT '',
	raw            DOUBLE PRECISION NOT NULL,
	imputed        BOOLEAN NOT NULL DEFAULT FALSE,
	missing        BOOLEAN NOT NULL DEFAULT FALSE,
	sub_score      DOUBLE PRECISION NOT NULL,
	weight         DOUBLE PRECISION NOT NULL,
	weighted_score DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (role_id, employee_id, position)
);
CREATE TABLE IF NOT EXISTS match_group_rates (
	role_id     TEXT NOT NULL,
	employee_id TEXT NOT NULL,
	group_name  TEXT NOT NULL,
	rate        DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (role_id, employee_id, group_name)
);
CREATE TABLE IF NOT EXISTS success_patterns (
	role_id      TEXT PRIMARY KEY,
	role_version INTEGER NOT NULL,
	top_quantile DOUBLE PRECISION NOT NULL,
	top_size     INTEGER NOT NULL,
	rest_size    INTEGER NOT NULL,
	body         TEXT NOT NULL,
	extracted_at BIGINT NOT NULL
);
`
