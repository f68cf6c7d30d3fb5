package security

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// dummyHash is a bcrypt hash of a throwaway value, compared against when the
// stored hash is absent so that "no such user" and "wrong password" take the
// same time.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// VerifyPassword compares a plaintext password with a stored bcrypt hash.
// A nil or malformed hash is verification failure, never an error.
func VerifyPassword(hash *string, plain string) bool {
	if hash == nil || *hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(plain)) == nil
}
