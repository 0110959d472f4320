package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for refresh tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"
    "fmt"
    "strconv"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned for any token that fails parsing, signature
// or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT access token along with its expiry.  Clients
// send it as a Bearer token on every /v1 call.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken is the long-lived token used to obtain new access tokens.
// Raw goes to the client once; the database stores only its SHA-256 hash.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// AccessClaims is what the JWT middleware extracts from a valid token.
type AccessClaims struct {
    UserID uint64
    Role   string
}

// NewAccessToken builds and signs an HS256 JWT carrying sub (user id), role,
// exp and iat.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  strconv.FormatUint(userID, 10),
        "role": role,
        "typ":  "access",
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, expiry and token type and returns the
// subject and role.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    claims, err := parseHS256(secret, raw)
    if err != nil {
        return AccessClaims{}, err
    }
    if typ, _ := claims["typ"].(string); typ != "access" {
        return AccessClaims{}, ErrInvalidToken
    }
    uid, err := uintClaim(claims["sub"])
    if err != nil || uid == 0 {
        return AccessClaims{}, ErrInvalidToken
    }
    role, _ := claims["role"].(string)
    if role == "" {
        return AccessClaims{}, ErrInvalidToken
    }
    return AccessClaims{UserID: uid, Role: role}, nil
}

// parseHS256 rejects anything not signed with HMAC-SHA256 and the secret.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// uintClaim accepts the numeric forms a JSON claim can decode into.
func uintClaim(v interface{}) (uint64, error) {
    switch t := v.(type) {
    case float64:
        if t < 0 {
            return 0, ErrInvalidToken
        }
        return uint64(t), nil
    case string:
        return strconv.ParseUint(t, 10, 64)
    }
    return 0, ErrInvalidToken
}

// NewRefreshToken returns a random 96-character hex token and its expiry.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
