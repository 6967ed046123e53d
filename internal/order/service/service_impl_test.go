package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/xtreino/platform/internal/identity"
	"github.com/xtreino/platform/internal/order/domain"
	orderrepo "github.com/xtreino/platform/internal/order/repository"
	orderservice "github.com/xtreino/platform/internal/order/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	svc := orderservice.New(orderservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  orderrepo.Provide(),
	})
	return svc, db, node
}

func callerCtx(email, uid string) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{Email: email, UID: uid})
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Title: "3 Tokens", UnitPrice: 3})
	if err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := callerCtx("buyer@example.com", "uid-1")

	if _, err := svc.Create(ctx, domain.CreateRequest{UnitPrice: 3}); err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "3 Tokens"}); err != domain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "x", UnitPrice: 1, Kind: "mystery"}); err != domain.ErrInvalidKind {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestCreateDerivesKindSpecificReference(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := callerCtx("buyer@example.com", "uid-1")

	tokens, err := svc.Create(ctx, domain.CreateRequest{Title: "10 Tokens XTreino", UnitPrice: 10, Kind: domain.KindTokens})
	if err != nil {
		t.Fatalf("create tokens order: %v", err)
	}
	if tokens.ExternalReference[:4] != domain.RefPrefixTokens {
		t.Fatalf("expected tok- prefix, got %s", tokens.ExternalReference)
	}
	if tokens.TokenAmount != 10 {
		t.Fatalf("expected token amount 10, got %d", tokens.TokenAmount)
	}

	digital, err := svc.Create(ctx, domain.CreateRequest{Title: "Imagens de Call", UnitPrice: 15, Kind: domain.KindDigitalProduct})
	if err != nil {
		t.Fatalf("create digital order: %v", err)
	}
	// Digital references embed the order id for the reconciliation fallback.
	if digital.ExternalReference != domain.RefPrefixDigital+digital.ID {
		t.Fatalf("expected reference dig-%s, got %s", digital.ID, digital.ExternalReference)
	}
}

func TestListMineFallsBackAcrossOwnerColumns(t *testing.T) {
	svc, db, node := newService(t)

	// A historical order carries the email only in the legacy customer
	// column, under a different casing convention.
	seed := func(column, value string) int64 {
		id := node.Generate().Int64()
		err := db.Exec(fmt.Sprintf(
			`INSERT INTO orders (id, title, amount_cents, currency, quantity, status, kind, external_reference, %s, created_at)
			 VALUES (?, ?, 100, 'BRL', 1, 'pending', 'plain', ?, ?, ?)`, column),
			id, "Pedido", fmt.Sprintf("ord-%d", id), value, time.Now().UTC(),
		).Error
		if err != nil {
			t.Fatalf("seed order: %v", err)
		}
		return id
	}

	legacyID := seed("customer", "legacy@example.com")

	items, err := svc.ListMine(callerCtx("legacy@example.com", "uid-legacy"), 10)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(items) != 1 || items[0].ID != snowflake.ID(legacyID).String() {
		t.Fatalf("expected legacy order, got %+v", items)
	}

	// Once a modern column matches, legacy columns are not consulted.
	modernID := seed("buyer_email", "legacy@example.com")
	items, err = svc.ListMine(callerCtx("legacy@example.com", "uid-legacy"), 10)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(items) != 1 || items[0].ID != snowflake.ID(modernID).String() {
		t.Fatalf("expected only the buyer_email match, got %+v", items)
	}

	// UID-keyed orders are found when no email column matches.
	uidID := seed("user_id", "uid-old")
	items, err = svc.ListMine(callerCtx("nobody@example.com", "uid-old"), 10)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(items) != 1 || items[0].ID != snowflake.ID(uidID).String() {
		t.Fatalf("expected user_id match, got %+v", items)
	}
}

func TestSummaryGroupsByStatusAndKind(t *testing.T) {
	svc, db, node := newService(t)

	insert := func(status, kind string) {
		id := node.Generate().Int64()
		if err := db.Exec(
			`INSERT INTO orders (id, title, amount_cents, currency, quantity, status, kind, external_reference, created_at)
			 VALUES (?, 'Pedido', 100, 'BRL', 1, ?, ?, ?, ?)`,
			id, status, kind, fmt.Sprintf("ord-%d", id), time.Now().UTC(),
		).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}
	insert(domain.StatusPaid, domain.KindTokens)
	insert(domain.StatusPaid, domain.KindTokens)
	insert(domain.StatusPending, domain.KindPlain)

	rows, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(rows))
	}

	byKey := map[string]int64{}
	for _, row := range rows {
		byKey[row.Status+"/"+row.Kind] = row.Count
	}
	if byKey["paid/tokens"] != 2 || byKey["pending/plain"] != 1 {
		t.Fatalf("unexpected summary: %v", byKey)
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_ord_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			amount_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'BRL',
			quantity INT NOT NULL DEFAULT 1,
			status TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			external_reference TEXT NOT NULL,
			preference_id TEXT,
			buyer_email TEXT,
			buyer_uid TEXT,
			customer TEXT,
			user_id TEXT,
			product_id BIGINT,
			product_options TEXT,
			token_amount BIGINT NOT NULL DEFAULT 0,
			payment_id TEXT,
			payment_status TEXT,
			paid_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_orders_external_reference ON orders(external_reference)`,
		`CREATE TABLE registrations (
			id BIGINT PRIMARY KEY,
			event_name TEXT NOT NULL,
			event_date TIMESTAMP,
			buyer_email TEXT,
			buyer_uid TEXT,
			amount_cents BIGINT NOT NULL,
			status TEXT NOT NULL,
			external_reference TEXT NOT NULL,
			payment_id TEXT,
			payment_status TEXT,
			paid_at TIMESTAMP,
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
