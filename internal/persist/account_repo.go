package persist

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("persist: invalid account credentials")

type AccountRow struct {
	Name         string
	PasswordHash string
	AccountToken uint32
	Banned       bool
	CreatedAt    time.Time
	LastActive   *time.Time
}

// AccountRepo resolves the opaque account_token carried in the handshake
// envelope to an account, and mints that token out-of-band from a
// name/password pair validated against a bcrypt hash.
type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// ResolveToken looks up the account owning token. Returns nil, nil if no
// account (or a banned one) holds it — the caller treats that as a
// handshake rejection, not a server error.
func (r *AccountRepo) ResolveToken(ctx context.Context, token uint32) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, password_hash, account_token, banned, created_at, last_active
		 FROM accounts WHERE account_token = $1 AND NOT banned`, int64(token),
	).Scan(&row.Name, &row.PasswordHash, &row.AccountToken, &row.Banned, &row.CreatedAt, &row.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Create registers a new account with a bcrypt-hashed password and no
// token assigned yet.
func (r *AccountRepo) Create(ctx context.Context, name, rawPassword string) (*AccountRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &AccountRow{Name: name, PasswordHash: string(hash), CreatedAt: now, LastActive: &now}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (name, password_hash, last_active) VALUES ($1, $2, $3)`,
		row.Name, row.PasswordHash, row.LastActive,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// MintToken validates rawPassword against name's stored hash and, on
// success, assigns and returns a fresh account_token for the handshake
// envelope to carry. Nothing in the server or the bot harness calls it (the
// harness takes its tokens from its -token-start flag) — the wire protocol
// itself never carries a password.
func (r *AccountRepo) MintToken(ctx context.Context, name, rawPassword string) (uint32, error) {
	var hash string
	err := r.db.Pool.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE name = $1 AND NOT banned`, name).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) != nil {
		return 0, ErrInvalidCredentials
	}

	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	token := binary.BigEndian.Uint32(buf[:])

	_, err = r.db.Pool.Exec(ctx, `UPDATE accounts SET account_token = $2, last_active = NOW() WHERE name = $1`, name, int64(token))
	if err != nil {
		return 0, err
	}
	return token, nil
}
