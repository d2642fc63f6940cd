package pathoram

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestAESGCMEncryptor(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	enc, err := NewAESGCMEncryptor(key)
	if err != nil {
		t.Fatalf("NewAESGCMEncryptor failed: %v", err)
	}

	plaintext := []byte("hello world 1234") // 16 bytes

	ciphertext, err := enc.Encrypt(1, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Ciphertext should be longer due to nonce + tag
	if len(ciphertext) != len(plaintext)+enc.Overhead() {
		t.Errorf("ciphertext length = %d, want %d", len(ciphertext), len(plaintext)+enc.Overhead())
	}

	decrypted, err := enc.Decrypt(1, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypt mismatch: got %x, want %x", decrypted, plaintext)
	}

	// Wrong blockID should fail authentication
	if _, err := enc.Decrypt(999, ciphertext); err != ErrDecryptionFailed {
		t.Errorf("Decrypt with wrong blockID should fail, got %v", err)
	}

	// Each encryption should produce different ciphertext (random nonce)
	ct1, _ := enc.Encrypt(1, plaintext)
	ct2, _ := enc.Encrypt(1, plaintext)
	if bytes.Equal(ct1, ct2) {
		t.Error("Two encryptions of same plaintext should differ (random nonce)")
	}
}

func TestAESGCMEncryptor_BadKey(t *testing.T) {
	if _, err := NewAESGCMEncryptor(make([]byte, 16)); err == nil {
		t.Error("16-byte key should be rejected")
	}
}

func TestNoOpEncryptor(t *testing.T) {
	enc := NoOpEncryptor{}

	plaintext := []byte("test data")

	ct, err := enc.Encrypt(1, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !bytes.Equal(ct, plaintext) {
		t.Error("NoOpEncryptor should return plaintext unchanged")
	}

	pt, err := enc.Decrypt(1, ct)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Error("NoOpEncryptor Decrypt should return input unchanged")
	}

	if enc.Overhead() != 0 {
		t.Errorf("Overhead() = %d, want 0", enc.Overhead())
	}
}

func TestEngineWithEncryption(t *testing.T) {
	key := make([]byte, 32)
	rand.Read(key)

	cfg := Config{Height: 3, BlockSize: 32, BucketSize: 4}
	cfg, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	_, totalBuckets, numBlocks := cfg.TreeParams()

	enc, err := NewAESGCMEncryptor(key)
	if err != nil {
		t.Fatalf("NewAESGCMEncryptor failed: %v", err)
	}
	// Storage slots must make room for the nonce and tag
	storage := NewInMemoryStorage(totalBuckets, cfg.BucketSize, cfg.BlockSize+enc.Overhead())

	oram, err := New(cfg, storage, NewArrayPositionMap(numBlocks), enc)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data := make([]byte, 32)
	copy(data, []byte("secret test data"))
	if err := oram.Write(0, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := oram.Read(0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read mismatch: got %x, want %x", got, data)
	}

	// Verify storage contains ciphertext, not plaintext
	for i := 0; i < storage.NumBuckets(); i++ {
		bucket, _ := storage.ReadBucket(i)
		for _, b := range bucket {
			if b.ID != EmptyBlockID && bytes.Contains(b.Data, []byte("secret")) {
				t.Error("storage contains plaintext - encryption not working!")
			}
		}
	}
}
