package approval

import "testing"

func TestNewTokenShapeAndHash(t *testing.T) {
	token, hash, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	if len(token) != 32 {
		t.Fatalf("token length %d, want 32 hex chars", len(token))
	}
	if len(hash) != 64 {
		t.Fatalf("hash length %d, want 64 hex chars", len(hash))
	}
	if hash != HashToken(token) {
		t.Fatal("hash does not match HashToken(token)")
	}
	if !hashMatches(hash, token) {
		t.Fatal("hashMatches rejected its own token")
	}
	if hashMatches(hash, token+"0") {
		t.Fatal("hashMatches accepted a modified token")
	}
}

func TestNewTokenUnique(t *testing.T) {
	a, _, err := NewToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := NewToken()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two tokens collided")
	}
}
