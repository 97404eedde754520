package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 5 * time.Second

// SQLStore implements Source and Sink over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    logger.Logger
	now    func() time.Time
}

// Open connects to the database. SQLite databases get the schema created on open.
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if log == nil {
		log = logger.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver, log: log, now: time.Now}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
		if _, err := db.ExecContext(ctx, Schema); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	log.Info(ctx, "storage connected", logger.String("driver", driver))
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) exec(ctx context.Context, x execer, query string, args ...any) error {
	_, err := x.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// withTx runs fn in a transaction, rolling back on error.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FetchRoleDefinition implements Source.
func (s *SQLStore) FetchRoleDefinition(ctx context.Context, roleID string) (loader.RoleRecord, error) {
	rec := loader.RoleRecord{ID: roleID}
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT name, job_level, purpose FROM roles WHERE id = ?"), roleID).
		Scan(&rec.Name, &rec.JobLevel, &rec.Purpose)
	if err == sql.ErrNoRows {
		return loader.RoleRecord{}, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
	}
	if err != nil {
		return loader.RoleRecord{}, fmt.Errorf("query role %s: %w", roleID, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT name, weight, min_value, max_value, rule, group_name
		FROM role_variables WHERE role_id = ? ORDER BY position`), roleID)
	if err != nil {
		return loader.RoleRecord{}, fmt.Errorf("query role variables %s: %w", roleID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var v loader.RoleVariableRecord
		if err := rows.Scan(&v.Name, &v.Weight, &v.Min, &v.Max, &v.Rule, &v.Group); err != nil {
			return loader.RoleRecord{}, fmt.Errorf("scan role variable: %w", err)
		}
		rec.Variables = append(rec.Variables, v)
	}
	if err := rows.Err(); err != nil {
		return loader.RoleRecord{}, fmt.Errorf("iterate role variables: %w", err)
	}
	return rec, nil
}

// RoleIDs lists every stored role id.
func (s *SQLStore) RoleIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM roles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchEmployees implements Source. Every stored employee forms the cohort of
// every role, as each employee is matched against each role profile.
func (s *SQLStore) FetchEmployees(ctx context.Context, _ string) ([]loader.EmployeeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, full_name, department, division, directorate, job_level, position, rating
		FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	var out []loader.EmployeeRecord
	index := make(map[string]int)
	for rows.Next() {
		var r loader.EmployeeRecord
		if err := rows.Scan(&r.ID, &r.FullName, &r.Org.Department, &r.Org.Division, &r.Org.Directorate, &r.Org.JobLevel, &r.Org.Position, &r.Rating); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		r.Values = make(map[string]any)
		index[r.ID] = len(out)
		out = append(out, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}

	vrows, err := s.db.QueryContext(ctx, "SELECT employee_id, variable, value FROM employee_values")
	if err != nil {
		return nil, fmt.Errorf("query employee values: %w", err)
	}
	for vrows.Next() {
		var id, name string
		var v float64
		if err := vrows.Scan(&id, &name, &v); err != nil {
			_ = vrows.Close()
			return nil, fmt.Errorf("scan employee value: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Values[name] = v
		}
	}
	_ = vrows.Close()
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee values: %w", err)
	}

	srows, err := s.db.QueryContext(ctx, "SELECT employee_id, theme FROM employee_strengths ORDER BY employee_id, rank")
	if err != nil {
		return nil, fmt.Errorf("query employee strengths: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var id, theme string
		if err := srows.Scan(&id, &theme); err != nil {
			return nil, fmt.Errorf("scan employee strength: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Strengths = append(out[i].Strengths, theme)
		}
	}
	return out, srows.Err()
}

// SaveRole upserts a role definition and replaces its variables.
func (s *SQLStore) SaveRole(ctx context.Context, rec loader.RoleRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `INSERT INTO roles (id, name, job_level, purpose) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, job_level = excluded.job_level, purpose = excluded.purpose`,
			rec.ID, rec.Name, rec.JobLevel, rec.Purpose); err != nil {
			return fmt.Errorf("upsert role %s: %w", rec.ID, err)
		}
		if err := s.exec(ctx, tx, "DELETE FROM role_variables WHERE role_id = ?", rec.ID); err != nil {
			return fmt.Errorf("clear role variables %s: %w", rec.ID, err)
		}
		for i, v := range rec.Variables {
			if err := s.exec(ctx, tx, `INSERT INTO role_variables (role_id, position, name, weight, min_value, max_value, rule, group_name)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, rec.ID, i, v.Name, v.Weight, v.Min, v.Max, v.Rule, v.Group); err != nil {
				return fmt.Errorf("insert role variable %s/%s: %w", rec.ID, v.Name, err)
			}
		}
		return nil
	})
}

// SaveEmployees upserts employees with their values and strengths.
// Only numeric values are stored; records are expected to have passed the loader.
func (s *SQLStore) SaveEmployees(ctx context.Context, profiles []model.EmployeeProfile) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range profiles {
			if err := s.exec(ctx, tx, `INSERT INTO employees (id, full_name, department, division, directorate, job_level, position, rating)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET full_name = excluded.full_name, department = excluded.department,
					division = excluded.division, directorate = excluded.directorate, job_level = excluded.job_level,
					position = excluded.position, rating = excluded.rating`,
				p.ID, p.FullName, p.Org.Department, p.Org.Division, p.Org.Directorate, p.Org.JobLevel, p.Org.Position, p.Rating); err != nil {
				return fmt.Errorf("upsert employee %s: %w", p.ID, err)
			}
			if err := s.exec(ctx, tx, "DELETE FROM employee_values WHERE employee_id = ?", p.ID); err != nil {
				return fmt.Errorf("clear values %s: %w", p.ID, err)
			}
			for name, v := range p.Values {
				if err := s.exec(ctx, tx, "INSERT INTO employee_values (employee_id, variable, value) VALUES (?, ?, ?)", p.ID, name, v); err != nil {
					return fmt.Errorf("insert value %s/%s: %w", p.ID, name, err)
				}
			}
			if err := s.exec(ctx, tx, "DELETE FROM employee_strengths WHERE employee_id = ?", p.ID); err != nil {
				return fmt.Errorf("clear strengths %s: %w", p.ID, err)
			}
			for i, th := range p.Strengths {
				if err := s.exec(ctx, tx, "INSERT INTO employee_strengths (employee_id, rank, theme) VALUES (?, ?, ?)", p.ID, i+1, th); err != nil {
					return fmt.Errorf("insert strength %s/%d: %w", p.ID, i+1, err)
				}
			}
		}
		return nil
	})
}

// Persist implements Sink. Stored results of each role in results are replaced as a whole.
func (s *SQLStore) Persist(ctx context.Context, results []model.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	scoredAt := s.now().UnixMilli()
	roles := make(map[string]struct{})
	for _, r := range results {
		roles[r.RoleID] = struct{}{}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for role := range roles {
			if err := s.exec(ctx, tx, "DELETE FROM match_contributions WHERE role_id = ?", role); err != nil {
				return fmt.Errorf("clear contributions %s: %w", role, err)
			}
			if err := s.exec(ctx, tx, "DELETE FROM match_group_rates WHERE role_id = ?", role); err != nil {
				return fmt.Errorf("clear group rates %s: %w", role, err)
			}
			if err := s.exec(ctx, tx, "DELETE FROM match_results WHERE role_id = ?", role); err != nil {
				return fmt.Errorf("clear results %s: %w", role, err)
			}
		}
		for _, r := range results {
			if err := s.exec(ctx, tx, `INSERT INTO match_results (role_id, employee_id, role_version, final_match_rate, rank, scored_at)
				VALUES (?, ?, ?, ?, ?, ?)`, r.RoleID, r.EmployeeID, r.RoleVersion, r.FinalMatchRate, r.Rank, scoredAt); err != nil {
				return fmt.Errorf("insert result %s/%s: %w", r.RoleID, r.EmployeeID, err)
			}
			for i, c := range r.Contributions {
				if err := s.exec(ctx, tx, `INSERT INTO match_contributions
					(role_id, employee_id, position, variable, group_name, raw, imputed, missing, sub_score, weight, weighted_score)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					r.RoleID, r.EmployeeID, i, c.Variable, c.Group, c.Raw, c.Imputed, c.Missing, c.SubScore, c.Weight, c.WeightedScore); err != nil {
					return fmt.Errorf("insert contribution %s/%s/%s: %w", r.RoleID, r.EmployeeID, c.Variable, err)
				}
			}
			for group, rate := range r.GroupRates {
				if err := s.exec(ctx, tx, `INSERT INTO match_group_rates (role_id, employee_id, group_name, rate)
					VALUES (?, ?, ?, ?)`, r.RoleID, r.EmployeeID, group, rate); err != nil {
					return fmt.Errorf("insert group rate %s/%s/%s: %w", r.RoleID, r.EmployeeID, group, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "persist results failed", logger.Int("results", len(results)), logger.Error(err))
		return err
	}
	return nil
}

// FetchResults reads the stored results of a role ordered by rank, then employee id.
func (s *SQLStore) FetchResults(ctx context.Context, roleID string) ([]model.MatchResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT employee_id, role_version, final_match_rate, rank
		FROM match_results WHERE role_id = ? ORDER BY rank, employee_id`), roleID)
	if err != nil {
		return nil, fmt.Errorf("query results %s: %w", roleID, err)
	}
	var out []model.MatchResult
	index := make(map[string]int)
	for rows.Next() {
		r := model.MatchResult{RoleID: roleID}
		if err := rows.Scan(&r.EmployeeID, &r.RoleVersion, &r.FinalMatchRate, &r.Rank); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan result: %w", err)
		}
		index[r.EmployeeID] = len(out)
		out = append(out, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, s.rebind(`SELECT employee_id, variable, group_name, raw, imputed, missing, sub_score, weight, weighted_score
		FROM match_contributions WHERE role_id = ? ORDER BY employee_id, position`), roleID)
	if err != nil {
		return nil, fmt.Errorf("query contributions %s: %w", roleID, err)
	}
	defer crows.Close()
	for crows.Next() {
		var id string
		var c model.Contribution
		if err := crows.Scan(&id, &c.Variable, &c.Group, &c.Raw, &c.Imputed, &c.Missing, &c.SubScore, &c.Weight, &c.WeightedScore); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Contributions = append(out[i].Contributions, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributions: %w", err)
	}

	grows, err := s.db.QueryContext(ctx, s.rebind(`SELECT employee_id, group_name, rate
		FROM match_group_rates WHERE role_id = ? ORDER BY employee_id, group_name`), roleID)
	if err != nil {
		return nil, fmt.Errorf("query group rates %s: %w", roleID, err)
	}
	defer grows.Close()
	for grows.Next() {
		var id, group string
		var rate float64
		if err := grows.Scan(&id, &group, &rate); err != nil {
			return nil, fmt.Errorf("scan group rate: %w", err)
		}
		if i, ok := index[id]; ok {
			if out[i].GroupRates == nil {
				out[i].GroupRates = make(map[string]float64)
			}
			out[i].GroupRates[group] = rate
		}
	}
	return out, grows.Err()
}

type patternBody struct {
	Variables []model.Separation      `json:"variables"`
	Themes    []model.ThemePrevalence `json:"themes,omitempty"`
}

// PersistPattern implements Sink.
func (s *SQLStore) PersistPattern(ctx context.Context, p model.SuccessPattern) error {
	body, err := json.Marshal(patternBody{Variables: p.Variables, Themes: p.Themes})
	if err != nil {
		return fmt.Errorf("encode pattern %s: %w", p.RoleID, err)
	}
	err = s.exec(ctx, s.db, `INSERT INTO success_patterns (role_id, role_version, top_quantile, top_size, rest_size, body, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (role_id) DO UPDATE SET role_version = excluded.role_version, top_quantile = excluded.top_quantile,
			top_size = excluded.top_size, rest_size = excluded.rest_size, body = excluded.body, extracted_at = excluded.extracted_at`,
		p.RoleID, p.RoleVersion, p.TopQuantile, p.TopSize, p.RestSize, string(body), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert pattern %s: %w", p.RoleID, err)
	}
	return nil
}

// FetchPattern reads the stored success pattern of a role.
func (s *SQLStore) FetchPattern(ctx context.Context, roleID string) (model.SuccessPattern, bool, error) {
	p := model.SuccessPattern{RoleID: roleID}
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT role_version, top_quantile, top_size, rest_size, body
		FROM success_patterns WHERE role_id = ?`), roleID).Scan(&p.RoleVersion, &p.TopQuantile, &p.TopSize, &p.RestSize, &body)
	if err == sql.ErrNoRows {
		return model.SuccessPattern{}, false, nil
	}
	if err != nil {
		return model.SuccessPattern{}, false, fmt.Errorf("query pattern %s: %w", roleID, err)
	}
	var pb patternBody
	if err := json.Unmarshal([]byte(body), &pb); err != nil {
		return model.SuccessPattern{}, false, fmt.Errorf("decode pattern %s: %w", roleID, err)
	}
	p.Variables, p.Themes = pb.Variables, pb.Themes
	return p, true, nil
}
