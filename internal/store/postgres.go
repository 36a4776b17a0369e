package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/benefitsnav/screener-cli/internal/db"
	"github.com/benefitsnav/screener-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"list_programs":  `SELECT id, jurisdiction, name, code, pathway, description FROM programs WHERE jurisdiction = $1 ORDER BY name ASC`,
	"list_rules":     `SELECT id, program_id, name, version, logic, effective_date, end_date, description FROM rules WHERE program_id = $1 ORDER BY effective_date ASC, version ASC`,
	"list_fpl":       `SELECT year, household_size, jurisdiction, annual_amount_cents, multiplier FROM fpl_records WHERE year = $1 ORDER BY jurisdiction ASC, household_size ASC`,
	"get_screening":  `SELECT id, profile, matches, explanation, created_at FROM screenings WHERE id = $1`,
	"save_screening": `INSERT INTO screenings (id, jurisdiction, profile, matches, explanation, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS programs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	jurisdiction TEXT NOT NULL,
	name         TEXT NOT NULL,
	code         TEXT NOT NULL,
	pathway      TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rules (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	program_id     TEXT NOT NULL REFERENCES programs(id),
	name           TEXT NOT NULL,
	version        TEXT NOT NULL,
	logic          JSONB NOT NULL,
	effective_date TIMESTAMPTZ NOT NULL,
	end_date       TIMESTAMPTZ,
	description    TEXT NOT NULL DEFAULT '',
	UNIQUE (program_id, version)
);

CREATE TABLE IF NOT EXISTS fpl_records (
	year                INTEGER NOT NULL,
	household_size      INTEGER NOT NULL,
	jurisdiction        TEXT NOT NULL DEFAULT '',
	annual_amount_cents BIGINT NOT NULL,
	multiplier          DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (year, household_size, jurisdiction)
);

CREATE TABLE IF NOT EXISTS questions (
	id                TEXT PRIMARY KEY,
	text              TEXT NOT NULL,
	answer_key        TEXT NOT NULL UNIQUE,
	input_type        TEXT NOT NULL,
	display_condition TEXT NOT NULL DEFAULT '',
	ord               INTEGER NOT NULL,
	status            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS screenings (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	jurisdiction TEXT NOT NULL,
	profile      JSONB NOT NULL,
	matches      JSONB NOT NULL,
	explanation  TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_programs_jurisdiction ON programs(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_rules_program_id ON rules(program_id);
CREATE INDEX IF NOT EXISTS idx_screenings_jurisdiction ON screenings(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_screenings_created_at ON screenings(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProgram(ctx context.Context, program *model.ProgramDefinition) error {
	if program.ID == "" {
		program.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO programs (id, jurisdiction, name, code, pathway, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   jurisdiction = $2, name = $3, code = $4, pathway = $5, description = $6`,
		program.ID, program.Jurisdiction, program.Name, program.Code, string(program.Pathway), program.Description,
	)
	return eris.Wrapf(err, "postgres: upsert program %s", program.Code)
}

func (s *PostgresStore) ListPrograms(ctx context.Context, jurisdiction string) ([]model.ProgramDefinition, error) {
	query := `SELECT id, jurisdiction, name, code, pathway, description FROM programs WHERE true`
	args := []any{}
	if jurisdiction != "" {
		query += ` AND jurisdiction = $1`
		args = append(args, jurisdiction)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list programs")
	}
	defer rows.Close()

	var programs []model.ProgramDefinition
	for rows.Next() {
		var p model.ProgramDefinition
		var pathway string
		if err := rows.Scan(&p.ID, &p.Jurisdiction, &p.Name, &p.Code, &pathway, &p.Description); err != nil {
			return nil, eris.Wrap(err, "postgres: scan program")
		}
		p.Pathway = model.Pathway(pathway)
		programs = append(programs, p)
	}
	return programs, eris.Wrap(rows.Err(), "postgres: list programs iterate")
}

func (s *PostgresStore) UpsertRule(ctx context.Context, rule *model.EligibilityRule) error {
	if err := rule.Logic.Validate(); err != nil {
		return eris.Wrapf(err, "postgres: rule %q", rule.Name)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	logicJSON, err := json.Marshal(rule.Logic)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal rule logic")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO rules (id, program_id, name, version, logic, effective_date, end_date, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (program_id, version) DO UPDATE SET
		   name = $3, logic = $5, effective_date = $6, end_date = $7, description = $8`,
		rule.ID, rule.ProgramID, rule.Name, rule.Version, logicJSON,
		rule.EffectiveDate.UTC(), rule.EndDate, rule.Description,
	)
	return eris.Wrapf(err, "postgres: upsert rule %s/%s", rule.ProgramID, rule.Version)
}

func (s *PostgresStore) ListRules(ctx context.Context, programID string) ([]*model.EligibilityRule, error) {
	query := `SELECT id, program_id, name, version, logic, effective_date, end_date, description FROM rules WHERE true`
	args := []any{}
	if programID != "" {
		query += ` AND program_id = $1`
		args = append(args, programID)
	}
	query += ` ORDER BY effective_date ASC, version ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rules")
	}
	defer rows.Close()

	var rules []*model.EligibilityRule
	for rows.Next() {
		var r model.EligibilityRule
		var logicJSON []byte
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.Name, &r.Version, &logicJSON, &r.EffectiveDate, &r.EndDate, &r.Description); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rule")
		}
		if err := json.Unmarshal(logicJSON, &r.Logic); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal logic for rule %s", r.ID)
		}
		rules = append(rules, &r)
	}
	return rules, eris.Wrap(rows.Err(), "postgres: list rules iterate")
}

func (s *PostgresStore) ReplaceFPLYear(ctx context.Context, year int, records []model.FederalPovertyRecord) (int, error) {
	var rows [][]any
	for _, r := range records {
		if r.Year != year {
			continue
		}
		rows = append(rows, []any{r.Year, r.HouseholdSize, r.Jurisdiction, r.AnnualAmount, r.Multiplier})
	}

	// Delete and load share one transaction so a mid-load failure never
	// leaves the year empty.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: begin fpl replace for year %d", year)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM fpl_records WHERE year = $1`, year); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear fpl year %d", year)
	}

	n, err := db.BulkUpsertTx(ctx, tx, db.UpsertConfig{
		Table:        "fpl_records",
		Columns:      []string{"year", "household_size", "jurisdiction", "annual_amount_cents", "multiplier"},
		ConflictKeys: []string{"year", "household_size", "jurisdiction"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: load fpl year %d", year)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: commit fpl year %d", year)
	}
	return int(n), nil
}

func (s *PostgresStore) ListFPLRecords(ctx context.Context, year int) ([]model.FederalPovertyRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT year, household_size, jurisdiction, annual_amount_cents, multiplier
		 FROM fpl_records WHERE year = $1
		 ORDER BY jurisdiction ASC, household_size ASC`,
		year,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list fpl records")
	}
	defer rows.Close()

	var records []model.FederalPovertyRecord
	for rows.Next() {
		var r model.FederalPovertyRecord
		if err := rows.Scan(&r.Year, &r.HouseholdSize, &r.Jurisdiction, &r.AnnualAmount, &r.Multiplier); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fpl record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list fpl records iterate")
}

func (s *PostgresStore) ReplaceQuestions(ctx context.Context, questions []model.ScreeningQuestion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace questions")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions`); err != nil {
		return eris.Wrap(err, "postgres: clear questions")
	}

	for _, q := range questions {
		_, err := tx.Exec(ctx,
			`INSERT INTO questions (id, text, answer_key, input_type, display_condition, ord, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.ID, q.Text, q.AnswerKey, q.InputType, q.DisplayCondition, q.Order, q.Status,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert question %s", q.AnswerKey)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace questions")
}

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]model.ScreeningQuestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, answer_key, input_type, display_condition, ord, status
		 FROM questions ORDER BY ord ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()

	var questions []model.ScreeningQuestion
	for rows.Next() {
		var q model.ScreeningQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.AnswerKey, &q.InputType, &q.DisplayCondition, &q.Order, &q.Status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan question")
		}
		questions = append(questions, q)
	}
	return questions, eris.Wrap(rows.Err(), "postgres: list questions iterate")
}

func (s *PostgresStore) SaveScreening(ctx context.Context, record *model.ScreeningRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	profileJSON, err := json.Marshal(record.Profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}
	matchesJSON, err := json.Marshal(record.Matches)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal matches")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO screenings (id, jurisdiction, profile, matches, explanation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.Profile.Jurisdiction, profileJSON, matchesJSON,
		record.Explanation, record.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert screening")
}

func (s *PostgresStore) GetScreening(ctx context.Context, id string) (*model.ScreeningRecord, error) {
	var rec model.ScreeningRecord
	var profileJSON, matchesJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, profile, matches, explanation, created_at FROM screenings WHERE id = $1`,
		id,
	).Scan(&rec.ID, &profileJSON, &matchesJSON, &rec.Explanation, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("screening not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get screening %s", id)
	}

	if err := json.Unmarshal(profileJSON, &rec.Profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	if err := json.Unmarshal(matchesJSON, &rec.Matches); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal matches")
	}
	return &rec, nil
}

func (s *PostgresStore) ListScreenings(ctx context.Context, filter ScreeningFilter) ([]model.ScreeningRecord, error) {
	query := `SELECT id, profile, matches, explanation, created_at FROM screenings WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Jurisdiction != "" {
		query += fmt.Sprintf(` AND jurisdiction = $%d`, argIdx)
		args = append(args, filter.Jurisdiction)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list screenings")
	}
	defer rows.Close()

	var records []model.ScreeningRecord
	for rows.Next() {
		var rec model.ScreeningRecord
		var profileJSON, matchesJSON []byte
		if err := rows.Scan(&rec.ID, &profileJSON, &matchesJSON, &rec.Explanation, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan screening")
		}
		if err := json.Unmarshal(profileJSON, &rec.Profile); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal profile")
		}
		if err := json.Unmarshal(matchesJSON, &rec.Matches); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal matches")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list screenings iterate")
}
