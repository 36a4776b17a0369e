package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS programs (
	id           TEXT PRIMARY KEY,
	jurisdiction TEXT NOT NULL,
	name         TEXT NOT NULL,
	code         TEXT NOT NULL,
	pathway      TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rules (
	id             TEXT PRIMARY KEY,
	program_id     TEXT NOT NULL REFERENCES programs(id),
	name           TEXT NOT NULL,
	version        TEXT NOT NULL,
	logic          TEXT NOT NULL,
	effective_date DATETIME NOT NULL,
	end_date       DATETIME,
	description    TEXT NOT NULL DEFAULT '',
	UNIQUE (program_id, version)
);

CREATE TABLE IF NOT EXISTS fpl_records (
	year                INTEGER NOT NULL,
	household_size      INTEGER NOT NULL,
	jurisdiction        TEXT NOT NULL DEFAULT '',
	annual_amount_cents INTEGER NOT NULL,
	multiplier          REAL NOT NULL DEFAULT 0,
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
	id           TEXT PRIMARY KEY,
	jurisdiction TEXT NOT NULL,
	profile      TEXT NOT NULL,
	matches      TEXT NOT NULL,
	explanation  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_programs_jurisdiction ON programs(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_rules_program_id ON rules(program_id);
CREATE INDEX IF NOT EXISTS idx_screenings_jurisdiction ON screenings(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_screenings_created_at ON screenings(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProgram(ctx context.Context, program *model.ProgramDefinition) error {
	if program.ID == "" {
		program.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO programs (id, jurisdiction, name, code, pathway, description)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   jurisdiction = excluded.jurisdiction, name = excluded.name,
		   code = excluded.code, pathway = excluded.pathway, description = excluded.description`,
		program.ID, program.Jurisdiction, program.Name, program.Code, string(program.Pathway), program.Description,
	)
	return eris.Wrapf(err, "sqlite: upsert program %s", program.Code)
}

func (s *SQLiteStore) ListPrograms(ctx context.Context, jurisdiction string) ([]model.ProgramDefinition, error) {
	query := `SELECT id, jurisdiction, name, code, pathway, description FROM programs`
	var args []any
	if jurisdiction != "" {
		query += ` WHERE jurisdiction = ?`
		args = append(args, jurisdiction)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list programs")
	}
	defer rows.Close()

	var programs []model.ProgramDefinition
	for rows.Next() {
		var p model.ProgramDefinition
		var pathway string
		if err := rows.Scan(&p.ID, &p.Jurisdiction, &p.Name, &p.Code, &pathway, &p.Description); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan program")
		}
		p.Pathway = model.Pathway(pathway)
		programs = append(programs, p)
	}
	return programs, eris.Wrap(rows.Err(), "sqlite: list programs iterate")
}

func (s *SQLiteStore) UpsertRule(ctx context.Context, rule *model.EligibilityRule) error {
	if err := rule.Logic.Validate(); err != nil {
		return eris.Wrapf(err, "sqlite: rule %q", rule.Name)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	logicJSON, err := json.Marshal(rule.Logic)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal rule logic")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rules (id, program_id, name, version, logic, effective_date, end_date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (program_id, version) DO UPDATE SET
		   name = excluded.name, logic = excluded.logic,
		   effective_date = excluded.effective_date, end_date = excluded.end_date,
		   description = excluded.description`,
		rule.ID, rule.ProgramID, rule.Name, rule.Version, string(logicJSON),
		rule.EffectiveDate.UTC(), nullableTime(rule.EndDate), rule.Description,
	)
	return eris.Wrapf(err, "sqlite: upsert rule %s/%s", rule.ProgramID, rule.Version)
}

func (s *SQLiteStore) ListRules(ctx context.Context, programID string) ([]*model.EligibilityRule, error) {
	query := `SELECT id, program_id, name, version, logic, effective_date, end_date, description FROM rules`
	var args []any
	if programID != "" {
		query += ` WHERE program_id = ?`
		args = append(args, programID)
	}
	query += ` ORDER BY effective_date ASC, version ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rules")
	}
	defer rows.Close()

	var rules []*model.EligibilityRule
	for rows.Next() {
		var r model.EligibilityRule
		var logicJSON string
		var endDate sql.NullTime
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.Name, &r.Version, &logicJSON, &r.EffectiveDate, &endDate, &r.Description); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rule")
		}
		if err := json.Unmarshal([]byte(logicJSON), &r.Logic); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal logic for rule %s", r.ID)
		}
		if endDate.Valid {
			t := endDate.Time
			r.EndDate = &t
		}
		rules = append(rules, &r)
	}
	return rules, eris.Wrap(rows.Err(), "sqlite: list rules iterate")
}

func (s *SQLiteStore) ReplaceFPLYear(ctx context.Context, year int, records []model.FederalPovertyRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace fpl year")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fpl_records WHERE year = ?`, year); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear fpl year %d", year)
	}

	count := 0
	for _, r := range records {
		if r.Year != year {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fpl_records (year, household_size, jurisdiction, annual_amount_cents, multiplier)
			 VALUES (?, ?, ?, ?, ?)`,
			r.Year, r.HouseholdSize, r.Jurisdiction, r.AnnualAmount, r.Multiplier,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert fpl row size %d", r.HouseholdSize)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace fpl year")
	}
	return count, nil
}

func (s *SQLiteStore) ListFPLRecords(ctx context.Context, year int) ([]model.FederalPovertyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, household_size, jurisdiction, annual_amount_cents, multiplier
		 FROM fpl_records WHERE year = ?
		 ORDER BY jurisdiction ASC, household_size ASC`,
		year,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list fpl records")
	}
	defer rows.Close()

	var records []model.FederalPovertyRecord
	for rows.Next() {
		var r model.FederalPovertyRecord
		if err := rows.Scan(&r.Year, &r.HouseholdSize, &r.Jurisdiction, &r.AnnualAmount, &r.Multiplier); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan fpl record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list fpl records iterate")
}

func (s *SQLiteStore) ReplaceQuestions(ctx context.Context, questions []model.ScreeningQuestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace questions")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return eris.Wrap(err, "sqlite: clear questions")
	}

	for _, q := range questions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, text, answer_key, input_type, display_condition, ord, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.Text, q.AnswerKey, q.InputType, q.DisplayCondition, q.Order, q.Status,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert question %s", q.AnswerKey)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace questions")
}

func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]model.ScreeningQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, answer_key, input_type, display_condition, ord, status
		 FROM questions ORDER BY ord ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()

	var questions []model.ScreeningQuestion
	for rows.Next() {
		var q model.ScreeningQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.AnswerKey, &q.InputType, &q.DisplayCondition, &q.Order, &q.Status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan question")
		}
		questions = append(questions, q)
	}
	return questions, eris.Wrap(rows.Err(), "sqlite: list questions iterate")
}

func (s *SQLiteStore) SaveScreening(ctx context.Context, record *model.ScreeningRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	profileJSON, err := json.Marshal(record.Profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}
	matchesJSON, err := json.Marshal(record.Matches)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal matches")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO screenings (id, jurisdiction, profile, matches, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Profile.Jurisdiction, string(profileJSON), string(matchesJSON),
		record.Explanation, record.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert screening")
}

func (s *SQLiteStore) GetScreening(ctx context.Context, id string) (*model.ScreeningRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, profile, matches, explanation, created_at FROM screenings WHERE id = ?`,
		id,
	)
	rec, err := scanScreening(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("screening not found: %s", id)
	}
	return rec, err
}

func (s *SQLiteStore) ListScreenings(ctx context.Context, filter ScreeningFilter) ([]model.ScreeningRecord, error) {
	query := `SELECT id, profile, matches, explanation, created_at FROM screenings WHERE 1=1`
	var args []any

	if filter.Jurisdiction != "" {
		query += ` AND jurisdiction = ?`
		args = append(args, filter.Jurisdiction)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list screenings")
	}
	defer rows.Close()

	var records []model.ScreeningRecord
	for rows.Next() {
		rec, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list screenings iterate")
}

// helpers

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanScreening(row scannable) (*model.ScreeningRecord, error) {
	var rec model.ScreeningRecord
	var profileJSON, matchesJSON string

	err := row.Scan(&rec.ID, &profileJSON, &matchesJSON, &rec.Explanation, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan screening")
	}

	if err := json.Unmarshal([]byte(profileJSON), &rec.Profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	if err := json.Unmarshal([]byte(matchesJSON), &rec.Matches); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal matches")
	}
	return &rec, nil
}
