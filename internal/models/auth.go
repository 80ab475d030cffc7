package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims identifies the authenticated member. Authority is always
// resolved from the stored member record, never from the token.
type JWTClaims struct {
	MemberID string `json:"member_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}
