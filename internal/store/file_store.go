package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"piqrypt/internal/domain"
	"piqrypt/internal/util/memzero"
)

const idFile = "identity.enc"

// FileStore persists identities, chains and audits on disk.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory must exist.
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

var (
	_ domain.IdentityStore = (*FileStore)(nil)
	_ domain.ChainStore    = (*FileStore)(nil)
	_ domain.AuditStore    = (*FileStore)(nil)
)

// ---------- Identity ----------

// SaveIdentity encrypts the key pair with the passphrase and writes it to
// the store directory.
func (s *FileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	blob, err := encrypt(passphrase, raw)
	if err != nil {
		return err
	}
	memzero.Zero(raw)
	return os.WriteFile(filepath.Join(s.dir, idFile), blob, 0o600)
}

// LoadIdentity decrypts and returns the stored key pair.
func (s *FileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(filepath.Join(s.dir, idFile))
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := decrypt(passphrase, blob)
	if err != nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		memzero.Zero(raw)
		return domain.Identity{}, err
	}
	memzero.Zero(raw)
	return id, nil
}

// ---------- Chains ----------

func (s *FileStore) chainPath(id domain.AgentID) string {
	return filepath.Join(s.dir, fmt.Sprintf("chain-%s.json", id))
}

// SaveChain writes an agent's full chain. Events carry their own
// signatures, so chains are stored in the clear.
func (s *FileStore) SaveChain(id domain.AgentID, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.chainPath(id), events, 0o600)
}

// LoadChain reads an agent's chain; ok is false when none is stored.
func (s *FileStore) LoadChain(id domain.AgentID) ([]domain.Event, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.Event
	if err := readJSON(s.chainPath(id), &events); err != nil {
		return nil, false, err
	}
	if events == nil {
		return nil, false, nil
	}
	return events, true, nil
}

// ---------- Audits ----------

// SaveAudit writes a session audit to an explicit path, matching the
// export affordance of the CLI.
func (s *FileStore) SaveAudit(path string, audit domain.SessionAudit) error {
	return writeJSON(path, audit, 0o600)
}

// LoadAudit reads a session audit from path.
func (s *FileStore) LoadAudit(path string) (domain.SessionAudit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SessionAudit{}, err
	}
	var audit domain.SessionAudit
	if err := json.Unmarshal(data, &audit); err != nil {
		return domain.SessionAudit{}, fmt.Errorf("audit parse failed (%s): %w", path, err)
	}
	return audit, nil
}

// ---------- helpers ----------

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any, mode os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, mode)
}

// scrypt envelope (parameters fixed here; tune as needed)
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

type envelope struct {
	Salt  []byte
	Nonce []byte
	CT    []byte
}

func encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, salt)
	return json.Marshal(envelope{Salt: salt, Nonce: nonce, CT: ct})
}

func decrypt(passphrase string, blob []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), env.Salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, env.Nonce, env.CT, env.Salt)
}
