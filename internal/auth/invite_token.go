package auth

import "golang.org/x/crypto/bcrypt"

// HashInviteSecret hashes the secret half of an emailed invite token so the
// stored row is useless to anyone who reads the database.
func HashInviteSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareInviteSecret verifies a presented secret against its stored hash.
func CompareInviteSecret(hashed, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
}
