package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LinkSigner issues tamper-proof share links for archived requests. A link
// embeds the archive id and an expiry, signed with HMAC-SHA256.
type LinkSigner struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// NewLinkSigner constructs a signer with the provided secret, TTL and base URL.
func NewLinkSigner(secret string, ttl time.Duration, baseURL string) *LinkSigner {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &LinkSigner{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Sign returns a token and absolute URL referencing archiveID.
func (s *LinkSigner) Sign(archiveID string) (token, url string, expiresAt time.Time, err error) {
	if archiveID == "" {
		return "", "", time.Time{}, fmt.Errorf("archive id required")
	}
	if len(s.secret) == 0 {
		return "", "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt = s.now().Add(s.ttl).UTC().Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	token = strings.Join([]string{exp, s.mac(archiveID, exp)}, ".")
	url = fmt.Sprintf("%s/%s?token=%s", s.baseURL, archiveID, token)
	return token, url, expiresAt, nil
}

// Verify checks that token was issued for archiveID and has not expired.
func (s *LinkSigner) Verify(archiveID, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid token format")
	}
	expUnix, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp")
	}
	expected := s.mac(archiveID, parts[0])
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return fmt.Errorf("invalid token signature")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return fmt.Errorf("token expired")
	}
	return nil
}

func (s *LinkSigner) mac(archiveID, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(archiveID + "|" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
