package crypto

import (
	"bytes"
	"testing"
)

// cheap keeps the tests fast.
var cheap = Params{Time: 1, MemoryKiB: 1024, Threads: 1}

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestNewHasher_FillsDefaults(t *testing.T) {
	t.Parallel()

	h := NewHasher(Params{})
	if h.p != DefaultParams {
		t.Fatalf("params=%+v, want %+v", h.p, DefaultParams)
	}
	h = NewHasher(cheap)
	if h.p.Time != 1 || h.p.KeyLen != DefaultParams.KeyLen || h.p.SaltLen != DefaultParams.SaltLen {
		t.Fatalf("unexpected params %+v", h.p)
	}
}

func TestHash_FreshSaltEachTime(t *testing.T) {
	t.Parallel()

	h := NewHasher(cheap)
	h1, s1, err := h.Hash("p@ssw0rd")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, s2, err := h.Hash("p@ssw0rd")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if len(s1) != DefaultParams.SaltLen || len(h1) != int(DefaultParams.KeyLen) {
		t.Fatalf("len salt=%d hash=%d", len(s1), len(h1))
	}
	if bytes.Equal(s1, s2) || bytes.Equal(h1, h2) {
		t.Fatalf("salts or hashes repeat")
	}
	if !bytes.Equal(h.derive("p@ssw0rd", s1), h1) {
		t.Fatalf("hash not deterministic for same salt")
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	h := NewHasher(cheap)
	hash, salt, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !h.Verify("correct horse battery staple", salt, hash) {
		t.Fatalf("expected true for correct password")
	}
	if h.Verify("wrong", salt, hash) {
		t.Fatalf("expected false for wrong password")
	}
	if h.Verify("correct horse battery staple", []byte("wrong-salt"), hash) {
		t.Fatalf("expected false for wrong salt")
	}
	if h.Verify("", salt, nil) {
		t.Fatalf("expected false for empty stored hash")
	}
}
