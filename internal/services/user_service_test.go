package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/intervoice/backend/internal/models"
	pgrepo "github.com/intervoice/backend/internal/repositories/postgres"
	"github.com/intervoice/backend/internal/utils"
)

func newUserService(t *testing.T) UserService {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewUserService(pgrepo.NewUserRepo(db))
}

func TestSyncFromClaimsCreatesAndRefreshes(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	first, err := svc.SyncFromClaims(ctx, IdentityClaims{
		Subject: "auth0|abc123",
		Email:   "dev@example.com",
		Name:    "Dev One",
	})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a local id")
	}
	if first.LastLoginAt == nil {
		t.Fatal("expected last_login_at to be set")
	}

	// a later login with updated profile attributes keeps the same local id
	second, err := svc.SyncFromClaims(ctx, IdentityClaims{
		Subject: "auth0|abc123",
		Email:   "dev@example.com",
		Name:    "Dev Renamed",
		Picture: "https://example.com/p.png",
	})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("local id changed across logins: %q vs %q", first.ID, second.ID)
	}
	if second.Name != "Dev Renamed" || second.Picture == "" {
		t.Fatalf("profile attributes not refreshed: %+v", second)
	}
}

func TestSyncFromClaimsRequiresSubject(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.SyncFromClaims(context.Background(), IdentityClaims{Email: "x@y.z"}); !utils.IsCode(err, utils.CodeUnauthorized) {
		t.Fatalf("got %v, want UNAUTHORIZED", err)
	}
}

func TestGetBySubjectNotFound(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.GetBySubject(context.Background(), "auth0|nobody"); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("got %v, want NOT_FOUND", err)
	}
}
