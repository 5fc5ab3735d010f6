// Package tokens mints LiveKit access tokens. Issuance is a pure signing
// operation: nothing is read from or written to the room store.
package tokens

import (
	"errors"
	"time"

	"github.com/livekit/protocol/auth"
)

var (
	ErrNotConfigured   = errors.New("livekit api key or secret is not configured")
	ErrMissingIdentity = errors.New("caller identity is required")
	ErrMissingRoom     = errors.New("room id is required")
)

const defaultDisplayName = "User"

type Issuer struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
}

func NewIssuer(apiKey, apiSecret string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	return &Issuer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       ttl,
	}, nil
}

// Issue returns a signed, time-bounded join credential for the room. The
// identity must come from the upstream authentication layer, never from
// the request body.
func (i *Issuer) Issue(identity, roomID, displayName string) (string, error) {
	if identity == "" {
		return "", ErrMissingIdentity
	}
	if roomID == "" {
		return "", ErrMissingRoom
	}
	if displayName == "" {
		displayName = defaultDisplayName
	}

	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomID,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)

	at := auth.NewAccessToken(i.apiKey, i.apiSecret).
		SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(displayName).
		SetValidFor(i.ttl)

	return at.ToJWT()
}
