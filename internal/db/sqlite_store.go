package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/coffee-research/coffee/internal/api"
	"github.com/coffee-research/coffee/internal/codec"
	"github.com/coffee-research/coffee/internal/services"
)

// SQLiteStore persists surveys and submissions as codec documents next to a
// few indexed columns.
type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		slog.Error("sqlite store", slog.String("op", prefix), slog.String("error", err.Error()))
	}
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// --- surveys ---

func (s *SQLiteStore) AddSurvey(ss *services.StoredSurvey) error {
	doc, err := codec.EncodeSurvey(ss.Survey)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO surveys (id, owner_id, title, document, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET owner_id = excluded.owner_id, title = excluded.title, document = excluded.document`,
		ss.ID, ss.OwnerID, ss.Survey.Title, string(doc), formatTime(ss.CreatedAt))
	s.logErr("add survey", err)
	return err
}

func (s *SQLiteStore) GetSurvey(id string) (*services.StoredSurvey, error) {
	row := s.db.QueryRow(`SELECT id, owner_id, document, created_at FROM surveys WHERE id = ?`, id)
	ss, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ss, err
}

func (s *SQLiteStore) ListSurveysByOwner(ownerID string) ([]*services.StoredSurvey, error) {
	rows, err := s.db.Query(`SELECT id, owner_id, document, created_at FROM surveys WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.StoredSurvey{}
	for rows.Next() {
		ss, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(sc scanner) (*services.StoredSurvey, error) {
	var (
		ss        services.StoredSurvey
		doc       string
		createdAt string
	)
	if err := sc.Scan(&ss.ID, &ss.OwnerID, &doc, &createdAt); err != nil {
		return nil, err
	}
	survey, err := codec.DecodeSurvey([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", ss.ID, err)
	}
	ss.Survey = survey
	ss.CreatedAt = parseTime(createdAt)
	return &ss, nil
}

// --- submissions ---

func (s *SQLiteStore) AddSubmission(sub *services.StoredSubmission) error {
	doc, err := codec.EncodeSubmission(&sub.Submission)
	if err != nil {
		return err
	}
	var exclusive sql.NullString
	if sub.Exclusive {
		exclusive = toNullString(sub.Submission.Identifier)
	}
	_, err = s.db.Exec(`INSERT INTO submissions (id, survey_id, respondent, exclusive_respondent, submitted_at, document, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.SurveyID, toNullString(sub.Submission.Identifier), exclusive, formatTime(sub.Submission.SubmissionDate), string(doc), formatTime(sub.CreatedAt))
	if isUniqueViolation(err) && exclusive.Valid {
		return services.NewConflictError("respondent already submitted")
	}
	s.logErr("add submission", err)
	return err
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *SQLiteStore) HasSubmission(surveyID, respondent string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM submissions WHERE survey_id = ? AND respondent = ?`, surveyID, respondent).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListSubmissions(surveyID string) ([]*services.StoredSubmission, error) {
	rows, err := s.db.Query(`SELECT id, survey_id, document, created_at, exclusive_respondent IS NOT NULL FROM submissions WHERE survey_id = ? ORDER BY created_at, id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.StoredSubmission{}
	for rows.Next() {
		var (
			sub       services.StoredSubmission
			doc       string
			createdAt string
		)
		if err := rows.Scan(&sub.ID, &sub.SurveyID, &doc, &createdAt, &sub.Exclusive); err != nil {
			return nil, err
		}
		decoded, err := codec.DecodeSubmission([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("submission %s: %w", sub.ID, err)
		}
		sub.Submission = *decoded
		sub.CreatedAt = parseTime(createdAt)
		out = append(out, &sub)
	}
	return out, rows.Err()
}

// --- users ---

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PassHash, formatTime(u.CreatedAt))
	s.logErr("add user", err)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	var (
		u         services.User
		createdAt string
	)
	err := s.db.QueryRow(`SELECT id, name, email, pass_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PassHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
