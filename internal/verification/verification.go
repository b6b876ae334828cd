// Package verification issues and checks email verification codes. Codes are
// signed JWTs carrying the member id and the email being verified; a used
// store makes each code single-use.
package verification

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "membergate/pkg/domain-errors"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/sentinel"
)

// Claims is the verification code payload. The email claim pins the code to
// the address it was issued for, so a profile email change invalidates
// outstanding codes.
type Claims struct {
	MemberID string `json:"member_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// UsedStore tracks consumed code ids. MarkUsed returns
// sentinel.ErrAlreadyUsed when the id was consumed before.
type UsedStore interface {
	MarkUsed(ctx context.Context, codeID string, ttl time.Duration) error
}

// Issuer creates and verifies email verification codes.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	used       UsedStore
}

func NewIssuer(signingKey string, ttl time.Duration, used UsedStore) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     "membergate",
		ttl:        ttl,
		used:       used,
	}
}

// Issue signs a verification code for the member's current email address.
func (i *Issuer) Issue(memberID id.MemberID, email string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		MemberID: memberID.String(),
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign verification code")
	}
	return signed, nil
}

// Consume validates the code, checks it targets the given member and email,
// and burns it. Every failure maps to CodeValidation so the caller cannot
// distinguish expired from forged codes.
func (i *Issuer) Consume(ctx context.Context, code string, memberID id.MemberID, email string) error {
	parsed, err := jwt.ParseWithClaims(code, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeValidation, "verification code has expired")
		}
		return dErrors.New(dErrors.CodeValidation, "invalid verification code")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return dErrors.New(dErrors.CodeValidation, "invalid verification code")
	}
	if claims.MemberID != memberID.String() || claims.Email != email {
		return dErrors.New(dErrors.CodeValidation, "verification code does not match member")
	}

	if err := i.used.MarkUsed(ctx, claims.ID, i.ttl); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeValidation, "verification code already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "record verification code use")
	}
	return nil
}
