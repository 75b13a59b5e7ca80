package store_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"piqrypt/internal/chain"
	"piqrypt/internal/crypto"
	"piqrypt/internal/session"
	"piqrypt/internal/store"
	"piqrypt/internal/verify"
)

const passphrase = "Tr1cky-passphrase!"

func TestIdentityRoundTrip(t *testing.T) {
	s := store.NewFileStore(t.TempDir())

	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := s.SaveIdentity(passphrase, id); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	got, err := s.LoadIdentity(passphrase)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if got.AgentID != id.AgentID {
		t.Fatalf("agent id %s != %s", got.AgentID, id.AgentID)
	}
	if !bytes.Equal(got.PrivateKey, id.PrivateKey) || !bytes.Equal(got.PublicKey, id.PublicKey) {
		t.Fatal("key material changed across the round trip")
	}

	// Loaded identity must still sign verifiably.
	sig, err := crypto.Sign(got, []byte("probe"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !crypto.Verify(id.PublicKey, []byte("probe"), sig) {
		t.Fatal("signature by loaded identity does not verify")
	}
}

func TestLoadIdentity_WrongPassphrase(t *testing.T) {
	s := store.NewFileStore(t.TempDir())
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := s.SaveIdentity(passphrase, id); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	if _, err := s.LoadIdentity("wrong-one"); err == nil {
		t.Fatal("wrong passphrase decrypted the identity")
	}
}

func TestChainRoundTrip(t *testing.T) {
	s := store.NewFileStore(t.TempDir())

	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	c := chain.New(id.PublicKey)
	for i := 0; i < 3; i++ {
		if _, err := c.Append(id, "action", crypto.SHA256Hex([]byte{byte(i)}), chain.Extra{}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if err := s.SaveChain(id.AgentID, c.Events()); err != nil {
		t.Fatalf("SaveChain: %v", err)
	}
	events, ok, err := s.LoadChain(id.AgentID)
	if err != nil || !ok {
		t.Fatalf("LoadChain: ok=%v err=%v", ok, err)
	}
	if res := chain.Verify(id.PublicKey, events); !res.OK {
		t.Fatalf("stored chain does not verify: %+v", res)
	}

	restored := chain.Load(id.PublicKey, events)
	if restored.TailHash() != c.TailHash() {
		t.Fatal("tail hash changed across the round trip")
	}
}

func TestLoadChain_Missing(t *testing.T) {
	s := store.NewFileStore(t.TempDir())
	if _, ok, err := s.LoadChain("nobody"); err != nil || ok {
		t.Fatalf("missing chain: ok=%v err=%v", ok, err)
	}
}

func TestAuditRoundTripVerifies(t *testing.T) {
	members := make([]*session.Member, 2)
	for i := range members {
		id, err := crypto.GenerateIdentity()
		if err != nil {
			t.Fatalf("GenerateIdentity: %v", err)
		}
		members[i] = session.NewMember(id)
	}
	coord, err := session.New(session.Config{}, members...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := coord.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := coord.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	dir := t.TempDir()
	s := store.NewFileStore(dir)
	path := filepath.Join(dir, "session-audit.json")
	if err := s.SaveAudit(path, coord.Export()); err != nil {
		t.Fatalf("SaveAudit: %v", err)
	}
	audit, err := s.LoadAudit(path)
	if err != nil {
		t.Fatalf("LoadAudit: %v", err)
	}

	v := verify.Session(audit)
	if !v.OK {
		t.Fatalf("audit no longer verifies after disk round trip: %+v", v.Errors)
	}
	if audit.SessionID != coord.ID() {
		t.Fatal("session id changed across the round trip")
	}
}
