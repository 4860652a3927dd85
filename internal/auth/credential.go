package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
	emailRE    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

func ValidateUsername(s string) bool {
	return usernameRE.MatchString(s)
}

// ValidatePassword accepts 3 to 20 characters of any kind.
func ValidatePassword(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 3 && n <= 20
}

// ValidateEmail accepts an empty address since email is optional at signup.
func ValidateEmail(s string) bool {
	return s == "" || emailRE.MatchString(s)
}

func PasswordsMatch(p, verify string) bool {
	return p == verify
}

// Digest returns "username|hex(sha256(username+password))". It is the stored
// credential and the session token. The hash is unsalted and single pass;
// the format is kept so digests and cookies issued earlier stay valid.
func Digest(username, password string) string {
	sum := sha256.Sum256([]byte(username + password))
	return username + "|" + hex.EncodeToString(sum[:])
}

// IssueToken returns the cookie value for a freshly authenticated user.
func IssueToken(username, password string) string {
	return Digest(username, password)
}

// Verify reports whether (username, password) produces the hash fragment of
// storedDigest. The fragment's format selects the scheme, so sha256 and bcrypt
// digests can live side by side.
func Verify(username, password, storedDigest string) bool {
	_, frag, ok := strings.Cut(storedDigest, "|")
	if !ok || frag == "" {
		return false
	}
	if isBcrypt(frag) {
		return bcrypt.CompareHashAndPassword([]byte(frag), []byte(username+password)) == nil
	}
	_, want, _ := strings.Cut(Digest(username, password), "|")
	return frag == want
}

func isBcrypt(frag string) bool {
	return strings.HasPrefix(frag, "$2a$") || strings.HasPrefix(frag, "$2b$") || strings.HasPrefix(frag, "$2y$")
}

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Digester produces new credential digests with the configured scheme.
type Digester struct {
	Scheme string
	Cost   int
}

func NewDigester(scheme string, cost int) (Digester, error) {
	switch scheme {
	case "", SchemeSHA256:
		return Digester{Scheme: SchemeSHA256}, nil
	case SchemeBcrypt:
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return Digester{}, fmt.Errorf("bcrypt cost %d out of range", cost)
		}
		return Digester{Scheme: SchemeBcrypt, Cost: cost}, nil
	}
	return Digester{}, fmt.Errorf("unknown digest scheme %q", scheme)
}

func (d Digester) Digest(username, password string) (string, error) {
	if d.Scheme != SchemeBcrypt {
		return Digest(username, password), nil
	}
	// bcrypt only reads the first 72 bytes
	b, err := bcrypt.GenerateFromPassword([]byte(username+password), d.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt digest: %w", err)
	}
	return username + "|" + string(b), nil
}
