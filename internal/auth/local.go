package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/model"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 6

// Options configures a Local provider.
type Options struct {
	SessionPath       string
	SessionTTL        time.Duration
	MaxFailedAttempts int
	Lockout           time.Duration
	BcryptCost        int
	Now               func() time.Time
	Logger            *zap.SugaredLogger
}

// Local keeps accounts in the store database and persists the signed-in
// session as a signed token file.
type Local struct {
	db       *sql.DB
	opts     Options
	secret   []byte
	validate *validator.Validate
	log      *zap.SugaredLogger
	state    listeners
}

var _ Provider = (*Local)(nil)

// NewLocal creates a provider over db, which must carry the accounts and
// meta tables.
func NewLocal(db *sql.DB, opts Options) (*Local, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.MaxFailedAttempts <= 0 {
		opts.MaxFailedAttempts = 5
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	l := &Local{
		db:       db,
		opts:     opts,
		validate: validator.New(),
		log:      logger.OrNop(opts.Logger).With("component", "auth"),
	}
	secret, err := l.loadSecret(context.Background())
	if err != nil {
		return nil, err
	}
	l.secret = secret
	return l, nil
}

func (l *Local) loadSecret(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	if _, err := l.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO meta (key, value) VALUES ('session_secret', ?)", hex.EncodeToString(buf),
	); err != nil {
		return nil, fmt.Errorf("storing session secret: %w", err)
	}
	var stored string
	if err := l.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = 'session_secret'").Scan(&stored); err != nil {
		return nil, fmt.Errorf("reading session secret: %w", err)
	}
	return hex.DecodeString(stored)
}

// Current returns the signed-in identity.
func (l *Local) Current() model.Identity { return l.state.get() }

// OnIdentityChange registers fn for later identity transitions.
func (l *Local) OnIdentityChange(fn func(model.Identity)) func() { return l.state.add(fn) }

// Restore re-establishes the identity from the persisted session. Invalid
// or expired sessions are discarded and leave the provider signed out.
func (l *Local) Restore(ctx context.Context) (model.Identity, error) {
	uid, err := l.readSession()
	if err != nil {
		l.log.Infow("discarding persisted session", "error", err)
		_ = l.clearSession()
		return model.Identity{}, nil
	}
	if uid == "" {
		return model.Identity{}, nil
	}

	acct, err := l.accountByUID(ctx, uid)
	if errors.Is(err, sql.ErrNoRows) {
		_ = l.clearSession()
		return model.Identity{}, nil
	}
	if err != nil {
		return model.Identity{}, apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	id := acct.identity()
	l.state.set(id)
	return id, nil
}

// SignIn checks credentials, applying the failed-attempt lockout.
func (l *Local) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	email = normalizeEmail(email)
	if err := l.checkEmail(email); err != nil {
		return model.Identity{}, err
	}

	acct, err := l.accountByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Identity{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return model.Identity{}, apperr.Wrap(apperr.ErrUnknownAuth, err)
	}

	now := l.now()
	if acct.lockedUntil.After(now) {
		return model.Identity{}, apperr.ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(password)) != nil {
		return model.Identity{}, l.recordFailure(ctx, acct, now)
	}

	if _, err := l.db.ExecContext(ctx,
		"UPDATE accounts SET failed_attempts = 0, locked_until = NULL, updated_at = ? WHERE uid = ?",
		stamp(now), acct.uid,
	); err != nil {
		return model.Identity{}, apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	return l.establish(acct.identity())
}

func (l *Local) recordFailure(ctx context.Context, acct account, now time.Time) error {
	failed := acct.failedAttempts + 1
	var lockedUntil any
	result := apperr.ErrInvalidCredentials
	if failed >= l.opts.MaxFailedAttempts {
		lockedUntil = stamp(now.Add(l.opts.Lockout))
		failed = 0
		result = apperr.ErrTooManyAttempts
		l.log.Warnw("account locked after failed sign-ins", "uid", acct.uid)
	}
	if _, err := l.db.ExecContext(ctx,
		"UPDATE accounts SET failed_attempts = ?, locked_until = ?, updated_at = ? WHERE uid = ?",
		failed, lockedUntil, stamp(now), acct.uid,
	); err != nil {
		return apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	return result
}

// SignUp creates an account and signs it in.
func (l *Local) SignUp(ctx context.Context, email, password, displayName string) (model.Identity, error) {
	email = normalizeEmail(email)
	if err := l.checkEmail(email); err != nil {
		return model.Identity{}, err
	}
	if len(password) < MinPasswordLength {
		return model.Identity{}, apperr.ErrWeakPassword
	}
	if taken, err := l.emailTaken(ctx, email, ""); err != nil {
		return model.Identity{}, apperr.Wrap(apperr.ErrUnknownAuth, err)
	} else if taken {
		return model.Identity{}, apperr.ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.opts.BcryptCost)
	if err != nil {
		return model.Identity{}, apperr.Wrap(apperr.ErrUnknownAuth, err)
	}

	acct := account{uid: uuid.NewString(), email: email, displayName: strings.TrimSpace(displayName)}
	now := stamp(l.now())
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO accounts (uid, email, password_hash, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		acct.uid, acct.email, string(hash), acct.displayName, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return model.Identity{}, apperr.ErrEmailInUse
		}
		return model.Identity{}, apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	l.log.Infow("account created", "uid", acct.uid)
	return l.establish(acct.identity())
}

func (l *Local) establish(id model.Identity) (model.Identity, error) {
	if err := l.writeSession(id.UID, id.Email); err != nil {
		// The sign-in itself succeeded; it just won't survive a restart.
		l.log.Warnw("persisting session failed", "error", err)
	}
	l.state.set(id)
	return id, nil
}

// SignOut forgets the persisted session and clears the identity.
func (l *Local) SignOut(ctx context.Context) error {
	if err := l.clearSession(); err != nil {
		l.log.Warnw("clearing session failed", "error", err)
	}
	l.state.set(model.Identity{})
	return nil
}

// Reauthenticate confirms the current user's password.
func (l *Local) Reauthenticate(ctx context.Context, currentPassword string) error {
	cur := l.Current()
	if cur.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	acct, err := l.accountByUID(ctx, cur.UID)
	if err != nil {
		return apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(currentPassword)) != nil {
		return apperr.ErrInvalidCredentials
	}
	return nil
}

// ChangePassword replaces the current user's password.
func (l *Local) ChangePassword(ctx context.Context, newPassword string) error {
	cur := l.Current()
	if cur.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	if len(newPassword) < MinPasswordLength {
		return apperr.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), l.opts.BcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	if _, err := l.db.ExecContext(ctx,
		"UPDATE accounts SET password_hash = ?, updated_at = ? WHERE uid = ?",
		string(hash), stamp(l.now()), cur.UID,
	); err != nil {
		return apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	return nil
}

// UpdateEmail changes the current user's sign-in email.
func (l *Local) UpdateEmail(ctx context.Context, email string) error {
	cur := l.Current()
	if cur.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	email = normalizeEmail(email)
	if err := l.checkEmail(email); err != nil {
		return err
	}
	if strings.EqualFold(email, cur.Email) {
		return nil
	}
	if taken, err := l.emailTaken(ctx, email, cur.UID); err != nil {
		return apperr.Wrap(apperr.ErrUnknownAuth, err)
	} else if taken {
		return apperr.ErrEmailInUse
	}
	if _, err := l.db.ExecContext(ctx,
		"UPDATE accounts SET email = ?, updated_at = ? WHERE uid = ?",
		email, stamp(l.now()), cur.UID,
	); err != nil {
		if isUniqueConstraintError(err) {
			return apperr.ErrEmailInUse
		}
		return apperr.Wrap(apperr.ErrUnknownAuth, err)
	}
	cur.Email = email
	_, err := l.establish(cur)
	return err
}

func (l *Local) checkEmail(email string) error {
	if err := l.validate.Var(email, "required,email"); err != nil {
		return apperr.ErrInvalidEmail
	}
	return nil
}

type account struct {
	uid            string
	email          string
	passwordHash   string
	displayName    string
	failedAttempts int
	lockedUntil    time.Time
}

func (a account) identity() model.Identity {
	return model.Identity{UID: a.uid, Email: a.email, DisplayName: a.displayName}
}

const accountColumns = "uid, email, password_hash, display_name, failed_attempts, locked_until"

func (l *Local) accountByEmail(ctx context.Context, email string) (account, error) {
	return scanAccount(l.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ?", email))
}

func (l *Local) accountByUID(ctx context.Context, uid string) (account, error) {
	return scanAccount(l.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE uid = ?", uid))
}

func scanAccount(row *sql.Row) (account, error) {
	var a account
	var locked sql.NullString
	if err := row.Scan(&a.uid, &a.email, &a.passwordHash, &a.displayName, &a.failedAttempts, &locked); err != nil {
		return account{}, err
	}
	if locked.Valid {
		a.lockedUntil, _ = time.Parse(time.RFC3339Nano, locked.String)
	}
	return a, nil
}

func (l *Local) emailTaken(ctx context.Context, email, exceptUID string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE email = ? AND uid != ?", email, exceptUID).Scan(&n)
	return n > 0, err
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
