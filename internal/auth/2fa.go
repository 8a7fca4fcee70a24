package auth

import (
	"log"
	"os"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

type Authenticator struct{}

// GenerateSecret uses SHA1 for Google Authenticator compatibility. The
// issuer shown in the authenticator app is the store name when one is
// configured, so cashiers with several employers can tell entries apart.
func (g *Authenticator) GenerateSecret(accountEmail string) (string, string, error) {
	issuer := os.Getenv("BUSINESS_NAME")
	if issuer == "" {
		issuer = "PosAdmin"
	}

	secret, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountEmail,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		log.Println("Error during totp secret generation: ", err)
		return "", "", ErrInternalError
	}

	return secret.URL(), secret.Secret(), nil
}

// GenerateCode is a no-op for TOTP: the authenticator app produces the code.
func (g *Authenticator) GenerateCode(secret string) (string, error) {
	return "", nil
}

func (g *Authenticator) VerifyCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
