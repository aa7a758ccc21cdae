//go:build integration
// +build integration

package test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
)

func TestJWTIntegrationHardeningChecks(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	manager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Minute,
		SigningMethod: jwt.MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "jwtdata",
		Audience:      "api",
		Leeway:        30 * time.Second,
		KeyID:         "k1",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	access, err := manager.CreateAccess("u1", "0", "s1", json.RawMessage(`{"role":"admin"}`))
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	claims, err := manager.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess valid token failed: %v", err)
	}
	if string(claims.UserData) != `{"role":"admin"}` {
		t.Fatalf("unexpected userDataInJWT claim: %s", claims.UserData)
	}

	badClaims := jwt.AccessClaims{
		UID: "u1",
		SID: "s1",
		RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    "jwtdata",
			Audience:  gjwt.ClaimStrings{"api"},
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
		},
	}

	badToken := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, badClaims)
	badToken.Header["kid"] = "unknown"
	signedBad, err := badToken.SignedString(priv)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := manager.ParseAccess(signedBad); err == nil {
		t.Fatal("expected unknown kid token to fail")
	}
}

func TestJWTIntegrationTokenCarriesCurrentPayload(t *testing.T) {
	store, rdb, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	ctx := context.Background()
	if err := store.Save(ctx, makeSession("0", "u9", "h-token", ""), time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	cfg := jwtdata.DefaultConfig()
	cfg.Session.RedisPrefix = testPrefix
	cfg.JWT.Enabled = true
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub

	engine, err := jwtdata.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.SetPayload(ctx, "h-token", json.RawMessage(`{"plan":"pro"}`)); err != nil {
		t.Fatalf("SetPayload failed: %v", err)
	}

	token, err := engine.IssueAccessToken(ctx, "h-token")
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	claims, err := engine.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.UID != "u9" || claims.SID != "h-token" {
		t.Fatalf("unexpected identity claims: uid=%s sid=%s", claims.UID, claims.SID)
	}
	if string(claims.UserData) != `{"plan":"pro"}` {
		t.Fatalf("unexpected userDataInJWT claim: %s", claims.UserData)
	}

	if _, err := engine.IssueAccessToken(ctx, "absent"); !errors.Is(err, jwtdata.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
