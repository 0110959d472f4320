package utils

import (
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// CheckInToken is the payload printed as a QR code on a guest's card.
type CheckInToken struct {
    Token string    `json:"token"`
    URL   string    `json:"url"`
    Exp   time.Time `json:"expires"`
}

// NewCheckInToken signs {sid, typ:"checkin", exp, iat} for a seat.  The URL
// is baseURL with the token appended as the "token" query parameter.
func NewCheckInToken(secret string, seatID uint64, ttl time.Duration, baseURL string) (CheckInToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sid": strconv.FormatUint(seatID, 10),
        "typ": "checkin",
        "exp": exp.Unix(),
        "iat": now.Unix(),
    }).SignedString([]byte(secret))
    if err != nil {
        return CheckInToken{}, err
    }

    sep := "?"
    if strings.Contains(baseURL, "?") {
        sep = "&"
    }
    return CheckInToken{
        Token: signed,
        URL:   baseURL + sep + "token=" + url.QueryEscape(signed),
        Exp:   exp,
    }, nil
}

// ParseCheckInToken verifies a check-in token and returns its seat id.
func ParseCheckInToken(secret, raw string) (uint64, error) {
    claims, err := parseHS256(secret, strings.TrimSpace(raw))
    if err != nil {
        return 0, err
    }
    if typ, _ := claims["typ"].(string); typ != "checkin" {
        return 0, ErrInvalidToken
    }
    sid, err := uintClaim(claims["sid"])
    if err != nil || sid == 0 {
        return 0, ErrInvalidToken
    }
    return sid, nil
}
