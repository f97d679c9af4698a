package pkg

import "golang.org/x/crypto/bcrypt"

const apiTokenHashCost = 12

// HashAPIToken produces the bcrypt hash stored in GYMSTATS_API_TOKEN_HASH.
func HashAPIToken(token string) (string, error) {
	return hashWithCost(token, apiTokenHashCost)
}

func hashWithCost(secret string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	return BytesToString(bytes), err
}

func CheckAPIToken(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
