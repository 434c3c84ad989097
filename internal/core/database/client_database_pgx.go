package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/audiencelab-io/audiencelab/internal/config"
	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(pingCtx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Personas

// InsertPersonas writes a batch in a single transaction. The profile goes
// into a JSONB column; generation metadata stays relational for the
// user/audience indexes.
func (c *DatabaseClient) InsertPersonas(ctx context.Context, personas []models.Persona) error {
	if len(personas) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO personas
			(persona_id, user_id, audience_id, audience_group, profile, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range personas {
		p := &personas[i]
		profile, err := json.Marshal(p.PersonaProfile)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal profile %s: %w", p.PersonaID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.PersonaID, p.UserID, p.AudienceID, p.AudienceGroup, profile, p.LastUpdated,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) ListPersonas(ctx context.Context, userID, audienceID string) ([]models.Persona, error) {
	const q = `
		SELECT persona_id, user_id, audience_id, audience_group, profile, last_updated
		FROM personas
		WHERE user_id = $1 AND audience_id = $2
		ORDER BY last_updated DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID, audienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetPersona(ctx context.Context, userID, personaID string) (*models.Persona, error) {
	const q = `
		SELECT persona_id, user_id, audience_id, audience_group, profile, last_updated
		FROM personas
		WHERE persona_id = $1
	`
	row := c.db.QueryRowContext(ctx, q, personaID)
	p, err := scanPersona(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, core.ErrNotOwner
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersona(r rowScanner) (*models.Persona, error) {
	var p models.Persona
	var profile []byte
	if err := r.Scan(&p.PersonaID, &p.UserID, &p.AudienceID, &p.AudienceGroup, &profile, &p.LastUpdated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profile, &p.PersonaProfile); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", p.PersonaID, err)
	}
	return &p, nil
}

// Saved audiences

func (c *DatabaseClient) CreateUserAudience(ctx context.Context, aud *models.UserAudience, embedding []float32) error {
	if aud == nil {
		return errors.New("nil audience")
	}
	const q = `
		INSERT INTO user_audiences
			(id, user_id, name, description, audience_id, projected_personas_count, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($9, now()))
	`
	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	_, err := c.db.ExecContext(ctx, q,
		aud.ID, aud.UserID, aud.Name, aud.Description, aud.AudienceID,
		aud.ProjectedPersonasCount, vec, aud.CreatedAt, aud.UpdatedAt)
	if isUniqueViolation(err) {
		// The pre-insert name check is not atomic with the write; the
		// constraint is what actually decides concurrent saves.
		return core.ErrNameTaken
	}
	return err
}

func (c *DatabaseClient) GetUserAudienceByName(ctx context.Context, userID, name string) (*models.UserAudience, error) {
	const q = `
		SELECT id, user_id, name, description, audience_id, projected_personas_count, created_at, updated_at
		FROM user_audiences
		WHERE user_id = $1 AND name = $2
	`
	return c.queryOneAudience(ctx, q, userID, name)
}

func (c *DatabaseClient) GetUserAudience(ctx context.Context, userID, id string) (*models.UserAudience, error) {
	const q = `
		SELECT id, user_id, name, description, audience_id, projected_personas_count, created_at, updated_at
		FROM user_audiences
		WHERE user_id = $1 AND id = $2
	`
	return c.queryOneAudience(ctx, q, userID, id)
}

func (c *DatabaseClient) queryOneAudience(ctx context.Context, q string, args ...any) (*models.UserAudience, error) {
	var a models.UserAudience
	err := c.db.QueryRowContext(ctx, q, args...).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Description, &a.AudienceID,
		&a.ProjectedPersonasCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListUserAudiences fetches limit+1 rows newest-first; the extra row, when
// present, becomes the continuation cursor (the last returned row's id).
func (c *DatabaseClient) ListUserAudiences(ctx context.Context, userID string, limit int, cursor string) ([]models.UserAudience, string, error) {
	if limit < 1 {
		limit = 20
	}
	q := `
		SELECT id, user_id, name, description, audience_id, projected_personas_count, created_at, updated_at
		FROM user_audiences
		WHERE user_id = $1
	`
	args := []any{userID}
	if cursor != "" {
		q += ` AND (created_at, id) < (SELECT created_at, id FROM user_audiences WHERE id = $2)`
		args = append(args, cursor)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit+1)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []models.UserAudience
	for rows.Next() {
		var a models.UserAudience
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Description, &a.AudienceID,
			&a.ProjectedPersonasCount, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, "", err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (c *DatabaseClient) DeleteUserAudience(ctx context.Context, userID, id string) error {
	aud, err := c.GetUserAudience(ctx, userID, id)
	if err != nil {
		return err
	}
	if aud == nil {
		return core.ErrNotFound
	}
	_, err = c.db.ExecContext(ctx, `DELETE FROM user_audiences WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}

// SearchSimilarAudiences finds the user's nearest saved audiences by
// description embedding.
func (c *DatabaseClient) SearchSimilarAudiences(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.UserAudience, error) {
	const q = `
		SELECT id, user_id, name, description, audience_id, projected_personas_count, created_at, updated_at
		FROM user_audiences
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, userID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserAudience
	for rows.Next() {
		var a models.UserAudience
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Description, &a.AudienceID,
			&a.ProjectedPersonasCount, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Sessions

// CreateSession deactivates all of the user's sessions and inserts the new
// one as active, in one transaction, preserving the single-active invariant.
func (c *DatabaseClient) CreateSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, updated_at = now() WHERE user_id = $1 AND is_active`,
		session.UserID,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	const q = `
		INSERT INTO sessions (id, user_id, title, description, audience_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, COALESCE($6, now()), COALESCE($7, now()))
	`
	if _, err := tx.ExecContext(ctx, q,
		session.ID, session.UserID, session.Title, session.Description,
		session.AudienceID, session.CreatedAt, session.UpdatedAt,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *DatabaseClient) ActivateSession(ctx context.Context, userID, sessionID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := checkSessionOwner(ctx, tx, userID, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, updated_at = now() WHERE user_id = $1 AND is_active AND id <> $2`,
		userID, sessionID,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET is_active = TRUE, updated_at = now() WHERE id = $1`,
		sessionID,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *DatabaseClient) UpdateSession(ctx context.Context, userID, sessionID, title, description string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := checkSessionOwner(ctx, tx, userID, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET title = $2, description = $3, updated_at = now() WHERE id = $1`,
		sessionID, title, description,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteSession removes the session. If it was the active one, no other
// session is auto-activated; the user picks the next one explicitly.
func (c *DatabaseClient) DeleteSession(ctx context.Context, userID, sessionID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := checkSessionOwner(ctx, tx, userID, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func checkSessionOwner(ctx context.Context, tx *sql.Tx, userID, sessionID string) error {
	var owner string
	err := tx.QueryRowContext(ctx, `SELECT user_id FROM sessions WHERE id = $1`, sessionID).Scan(&owner)
	if err == sql.ErrNoRows {
		return core.ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return core.ErrNotOwner
	}
	return nil
}

func (c *DatabaseClient) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	const q = `
		SELECT id, user_id, title, description, audience_id, is_active, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Title, &s.Description, &s.AudienceID,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	const q = `
		SELECT id, user_id, title, description, audience_id, is_active, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var s models.Session
	err := c.db.QueryRowContext(ctx, q, sessionID).Scan(
		&s.ID, &s.UserID, &s.Title, &s.Description, &s.AudienceID,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, core.ErrNotOwner
	}
	return &s, nil
}

// Briefs

func (c *DatabaseClient) CreateBrief(ctx context.Context, brief *models.MarketingBrief) error {
	if brief == nil {
		return errors.New("nil brief")
	}
	const q = `
		INSERT INTO briefs (id, user_id, file_name, storage_url, text, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		brief.ID, brief.UserID, brief.FileName, brief.StorageURL, brief.Text, brief.CreatedAt)
	return err
}

func (c *DatabaseClient) GetBrief(ctx context.Context, userID, id string) (*models.MarketingBrief, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, text, created_at
		FROM briefs
		WHERE id = $1
	`
	var b models.MarketingBrief
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.FileName, &b.StorageURL, &b.Text, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, core.ErrNotOwner
	}
	return &b, nil
}

func (c *DatabaseClient) DeleteBrief(ctx context.Context, userID, id string) error {
	if _, err := c.GetBrief(ctx, userID, id); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM briefs WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}

func (c *DatabaseClient) ListBriefs(ctx context.Context, userID string) ([]models.MarketingBrief, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, text, created_at
		FROM briefs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MarketingBrief
	for rows.Next() {
		var b models.MarketingBrief
		if err := rows.Scan(&b.ID, &b.UserID, &b.FileName, &b.StorageURL, &b.Text, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
