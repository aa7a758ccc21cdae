package test

import (
	"testing"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/protocol"
)

func TestDefaultConfigPresetValidates(t *testing.T) {
	cfg := jwtdata.DefaultConfig()

	if cfg.Protocol.Default != protocol.Latest() {
		t.Fatalf("expected latest protocol default, got %v", cfg.Protocol.Default)
	}
	if len(cfg.Protocol.Supported) != len(protocol.All()) {
		t.Fatalf("expected every protocol version supported, got %v", cfg.Protocol.Supported)
	}
	if cfg.JWT.Enabled {
		t.Fatal("expected token issuance disabled in preset baseline")
	}
	if cfg.MultiTenant.Enabled {
		t.Fatal("expected multi-tenancy disabled in preset baseline")
	}
	if cfg.Session.MaxPayloadBytes <= 0 {
		t.Fatal("expected a positive payload limit")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestLegacyOnlyConfigIsValid(t *testing.T) {
	cfg := jwtdata.DefaultConfig()
	cfg.Protocol.Supported = []protocol.Version{protocol.Version10}
	cfg.Protocol.Default = protocol.Version10

	// A 1.0-only deployment is legal; the payload endpoints reject every call.
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected legacy-only config to validate, got %v", err)
	}
	if cfg.Protocol.Default.SupportsPayloadAccess() {
		t.Fatal("1.0 must not support payload access")
	}
}
