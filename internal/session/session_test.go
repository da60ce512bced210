package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
	"github.com/rsilvagit/go-empleo/internal/httpclient"
	"github.com/rsilvagit/go-empleo/internal/model"
	"github.com/rsilvagit/go-empleo/internal/session"
)

var _ httpclient.TokenSource = (*session.Session)(nil)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return token
}

func validToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{
		"sub":      "ana@example.com",
		"fullName": "Ana Pérez",
		"id":       7,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
}

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := session.NewRedisStore("redis://"+mr.Addr()+"/0", "ana")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

// ── Stores ─────────────────────────────────────────────────────────────────

func TestRedisStore_RoundTripWithTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Fatalf("empty Load err = %v, want ErrNoToken", err)
	}
	if err := store.Save(ctx, "tkn", session.DefaultTTL); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := mr.TTL("goempleo:session:ana"); got != session.DefaultTTL {
		t.Errorf("TTL = %s, want %s", got, session.DefaultTTL)
	}
	if tkn, err := store.Load(ctx); err != nil || tkn != "tkn" {
		t.Errorf("Load = %q, %v", tkn, err)
	}

	mr.FastForward(session.DefaultTTL + time.Second)
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("Load after expiry err = %v, want ErrNoToken", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	store.Save(ctx, "tkn", time.Hour)

	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("goempleo:session:ana") {
		t.Error("key still present after Delete")
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := session.NewRedisStore("not-a-url", "x"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestMemoryStore(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	store.Save(ctx, "tkn", time.Hour)
	if tkn, err := store.Load(ctx); err != nil || tkn != "tkn" {
		t.Errorf("Load = %q, %v", tkn, err)
	}
	store.Delete(ctx)
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

// ── Session ────────────────────────────────────────────────────────────────

func TestInit_RestoresUserFromToken(t *testing.T) {
	store, _ := newRedisStore(t)
	store.Save(context.Background(), validToken(t), time.Hour)

	s := session.New(store, 0, zap.NewNop())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	u := s.User()
	if u == nil || u.Email != "ana@example.com" || u.FullName != "Ana Pérez" || u.ID != 7 {
		t.Fatalf("User = %+v", u)
	}
	if s.Token() == "" || !s.Guard("/dashboard").Allow {
		t.Error("restored session not authenticated")
	}
}

func TestInit_DiscardsBadTokens(t *testing.T) {
	cases := map[string]func(t *testing.T) string{
		"garbage": func(*testing.T) string { return "not.a.jwt" },
		"expired": func(t *testing.T) string {
			return signToken(t, jwt.MapClaims{"sub": "ana@example.com", "exp": time.Now().Add(-time.Hour).Unix()})
		},
		"no subject": func(t *testing.T) string {
			return signToken(t, jwt.MapClaims{"fullName": "Ana"})
		},
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			store, mr := newRedisStore(t)
			store.Save(context.Background(), token(t), time.Hour)

			s := session.New(store, 0, zap.NewNop())
			if err := s.Init(context.Background()); err != nil {
				t.Fatalf("Init: %v", err)
			}
			if s.User() != nil || s.Token() != "" {
				t.Error("bad token accepted")
			}
			if mr.Exists("goempleo:session:ana") {
				t.Error("bad token not deleted")
			}
		})
	}
}

func TestEstablishAndLogout(t *testing.T) {
	store, mr := newRedisStore(t)
	s := session.New(store, session.DefaultTTL, zap.NewNop())
	ctx := context.Background()
	token := signToken(t, jwt.MapClaims{
		"sub": "ana@example.com",
		"id":  "12",
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	})

	u, err := s.Establish(ctx, model.Credentials{Token: token, TokenType: "Bearer"},
		&model.User{ProfessionalTitle: "Ingeniera de Datos", Company: "Acme"})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if u.ID != 12 || u.ProfessionalTitle != "Ingeniera de Datos" || u.Company != "Acme" {
		t.Errorf("user = %+v", u)
	}
	if ttl := mr.TTL("goempleo:session:ana"); ttl > 2*time.Hour || ttl < time.Hour {
		t.Errorf("TTL = %s, want capped by token expiry", ttl)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s.User() != nil || mr.Exists("goempleo:session:ana") {
		t.Error("Logout left state behind")
	}
}

func TestEstablish_RejectsUndecodableToken(t *testing.T) {
	s := session.New(session.NewMemoryStore(), 0, zap.NewNop())
	_, err := s.Establish(context.Background(), model.Credentials{Token: "opaque"}, nil)
	if !apperrors.Is(err, apperrors.ErrTypeProtocol) {
		t.Errorf("err = %v, want PROTOCOL", err)
	}
}

func TestGuard_RedirectsAnonymous(t *testing.T) {
	s := session.New(session.NewMemoryStore(), 0, zap.NewNop())
	d := s.Guard("/empleos/15")
	if d.Allow || d.Redirect != "/login?next=%2Fempleos%2F15" {
		t.Errorf("Decision = %+v", d)
	}
}

func TestUser_ReturnsCopy(t *testing.T) {
	s := session.New(session.NewMemoryStore(), 0, zap.NewNop())
	if _, err := s.Establish(context.Background(), model.Credentials{Token: validToken(t)}, nil); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	s.User().FullName = "changed"
	if s.User().FullName != "Ana Pérez" {
		t.Error("User exposed internal state")
	}
}

// ── Account data ───────────────────────────────────────────────────────────

func TestRedisStore_AccountData(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if p, err := store.LoadProfile(ctx, "ana@example.com"); err != nil || p != nil {
		t.Fatalf("empty LoadProfile = %+v, %v", p, err)
	}
	if err := store.SaveProfile(ctx, "ana@example.com", model.User{Email: "ana@example.com", ProfessionalTitle: "Tech Lead"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if p, err := store.LoadProfile(ctx, "ana@example.com"); err != nil || p.ProfessionalTitle != "Tech Lead" {
		t.Errorf("LoadProfile = %+v, %v", p, err)
	}

	store.RecordApplied(ctx, "ana@example.com", "12")
	store.RecordApplied(ctx, "ana@example.com", "12")
	ids, err := store.AppliedJobs(ctx, "ana@example.com")
	if err != nil || len(ids) != 1 || ids[0] != "12" {
		t.Errorf("AppliedJobs = %v, %v", ids, err)
	}

	store.Save(ctx, "tkn", time.Hour)
	store.Delete(ctx)
	if !mr.Exists("goempleo:profile:ana@example.com") || !mr.Exists("goempleo:applied:ana@example.com") {
		t.Error("logout removed account data")
	}
}

func TestUpdateUser_PersistsAcrossSessions(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	first := session.New(store, 0, zap.NewNop())
	if _, err := first.UpdateUser(ctx, func(*model.User) {}); !apperrors.Is(err, apperrors.ErrTypeUnauthorized) {
		t.Errorf("anonymous update err = %v, want UNAUTHORIZED", err)
	}
	if _, err := first.Establish(ctx, model.Credentials{Token: validToken(t)}, nil); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if _, err := first.UpdateUser(ctx, func(u *model.User) { u.ProfessionalTitle = "Tech Lead" }); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	next := session.New(store, 0, zap.NewNop())
	if err := next.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if u := next.User(); u == nil || u.ProfessionalTitle != "Tech Lead" || u.FullName != "Ana Pérez" {
		t.Errorf("restored user = %+v", u)
	}
}

func TestEstablish_KeepsStoredProfile(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	store.SaveProfile(ctx, "ana@example.com", model.User{ProfessionalTitle: "Ingeniera de Datos", Company: "Acme"})

	s := session.New(store, 0, zap.NewNop())
	u, err := s.Establish(ctx, model.Credentials{Token: validToken(t)}, &model.User{Company: "Globex"})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if u.ProfessionalTitle != "Ingeniera de Datos" || u.Company != "Globex" {
		t.Errorf("user = %+v", u)
	}
	if p, _ := store.LoadProfile(ctx, "ana@example.com"); p == nil || p.Company != "Globex" {
		t.Errorf("stored profile = %+v", p)
	}
}
