package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/xtreino/platform/internal/identity"
	"github.com/xtreino/platform/internal/user/domain"
	userrepo "github.com/xtreino/platform/internal/user/repository"
	userservice "github.com/xtreino/platform/internal/user/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	svc := userservice.New(userservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  userrepo.Provide(),
	})
	return svc, db, node
}

func seedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, email, uid string, tokens int64) int64 {
	t.Helper()

	id := node.Generate().Int64()
	if err := db.Exec(
		`INSERT INTO users (id, uid, email, tokens, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'user', ?, ?)`,
		id, uid, email, tokens, time.Now().UTC(), time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedPaidTokenOrder(t *testing.T, db *gorm.DB, node *snowflake.Node, column, value string, amount int64) {
	t.Helper()

	id := node.Generate().Int64()
	if err := db.Exec(fmt.Sprintf(
		`INSERT INTO orders (id, title, amount_cents, currency, quantity, status, kind, external_reference, token_amount, %s, created_at)
		 VALUES (?, 'Tokens', 100, 'BRL', 1, 'paid', 'tokens', ?, ?, ?, ?)`, column),
		id, fmt.Sprintf("tok-%d", id), amount, value, time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestEnsureProfileCreatesOnFirstAccess(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := identity.WithIdentity(context.Background(), identity.Identity{Email: "New@Example.com", UID: "uid-9"})

	profile, err := svc.EnsureProfile(ctx)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if profile.Email != "new@example.com" {
		t.Fatalf("expected normalized email, got %s", profile.Email)
	}
	if profile.Role != domain.RoleUser {
		t.Fatalf("expected default role, got %s", profile.Role)
	}

	// Second access reuses the row.
	again, err := svc.EnsureProfile(ctx)
	if err != nil {
		t.Fatalf("ensure profile again: %v", err)
	}
	if again.ID != profile.ID {
		t.Fatalf("expected same profile, got %s and %s", profile.ID, again.ID)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM users").Scan(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one user, got %d", count)
	}
}

func TestEnsureProfileSurvivesFirstAccessRace(t *testing.T) {
	svc, db, node := newService(t)
	racedID := node.Generate().Int64()

	// A concurrent first request lands its row between our lookup and our
	// insert; the unique email index rejects the second insert and the
	// surviving row is read back.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("test_first_access_race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		if err := db.Exec(
			`INSERT INTO users (id, uid, email, tokens, role, created_at, updated_at)
			 VALUES (?, 'uid-raced', 'raced@example.com', 0, 'user', ?, ?)`,
			racedID, time.Now().UTC(), time.Now().UTC(),
		).Error; err != nil {
			t.Errorf("raced insert: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	ctx := identity.WithIdentity(context.Background(), identity.Identity{Email: "raced@example.com", UID: "uid-raced"})
	profile, err := svc.EnsureProfile(ctx)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if profile.ID != snowflake.ID(racedID).String() {
		t.Fatalf("expected the surviving row %d, got %s", racedID, profile.ID)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM users WHERE email = 'raced@example.com'").Scan(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one user, got %d", count)
	}
}

func TestCreditTokensPrefersEmailOverUID(t *testing.T) {
	svc, db, node := newService(t)

	emailID := seedUser(t, db, node, "buyer@example.com", "uid-a", 0)
	seedUser(t, db, node, "other@example.com", "uid-b", 0)

	user, err := svc.CreditTokens(context.Background(), "buyer@example.com", "uid-b", 3)
	if err != nil {
		t.Fatalf("credit tokens: %v", err)
	}
	if user.ID != emailID {
		t.Fatalf("expected email match to win, got user %d", user.ID)
	}

	var tokens int64
	if err := db.Raw("SELECT tokens FROM users WHERE id = ?", emailID).Scan(&tokens).Error; err != nil {
		t.Fatalf("scan tokens: %v", err)
	}
	if tokens != 3 {
		t.Fatalf("expected 3 tokens, got %d", tokens)
	}
}

func TestCreditTokensValidatesAmountAndTarget(t *testing.T) {
	svc, _, _ := newService(t)

	if _, err := svc.CreditTokens(context.Background(), "a@x.com", "", 0); err != domain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.CreditTokens(context.Background(), "ghost@x.com", "", 2); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncTokenBalanceRaisesDriftedBalance(t *testing.T) {
	svc, db, node := newService(t)

	userID := seedUser(t, db, node, "buyer@example.com", "uid-a", 1)
	// Confirmed purchases written across both identity generations.
	seedPaidTokenOrder(t, db, node, "buyer_email", "buyer@example.com", 5)
	seedPaidTokenOrder(t, db, node, "customer", "buyer@example.com", 3)
	seedPaidTokenOrder(t, db, node, "user_id", "uid-a", 2)

	if err := svc.SyncTokenBalance(context.Background(), userID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var tokens int64
	if err := db.Raw("SELECT tokens FROM users WHERE id = ?", userID).Scan(&tokens).Error; err != nil {
		t.Fatalf("scan tokens: %v", err)
	}
	if tokens != 10 {
		t.Fatalf("expected balance raised to 10, got %d", tokens)
	}
}

func TestSyncTokenBalanceNeverLowers(t *testing.T) {
	svc, db, node := newService(t)

	userID := seedUser(t, db, node, "buyer@example.com", "uid-a", 50)
	seedPaidTokenOrder(t, db, node, "buyer_email", "buyer@example.com", 5)

	if err := svc.SyncTokenBalance(context.Background(), userID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var tokens int64
	if err := db.Raw("SELECT tokens FROM users WHERE id = ?", userID).Scan(&tokens).Error; err != nil {
		t.Fatalf("scan tokens: %v", err)
	}
	if tokens != 50 {
		t.Fatalf("expected balance untouched at 50, got %d", tokens)
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_usr_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			uid TEXT,
			email TEXT,
			display_name TEXT,
			phone TEXT,
			team TEXT,
			tokens BIGINT NOT NULL DEFAULT 0,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_users_email ON users(email)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			amount_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'BRL',
			quantity INT NOT NULL DEFAULT 1,
			status TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			external_reference TEXT NOT NULL,
			buyer_email TEXT,
			buyer_uid TEXT,
			customer TEXT,
			user_id TEXT,
			token_amount BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	return db
}
