package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/livekit/protocol/auth"
)

const (
	testAPIKey    = "APIabcdef1234567"
	testAPISecret = "secretsecretsecretsecretsecret12"
)

func TestNewIssuerRequiresKeys(t *testing.T) {
	if _, err := NewIssuer("", testAPISecret, time.Hour); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing key: err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewIssuer(testAPIKey, "", time.Hour); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing secret: err = %v, want ErrNotConfigured", err)
	}
}

func TestIssueValidation(t *testing.T) {
	issuer, err := NewIssuer(testAPIKey, testAPISecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issuer.Issue("", "lesson-1", ""); !errors.Is(err, ErrMissingIdentity) {
		t.Errorf("missing identity: err = %v, want ErrMissingIdentity", err)
	}
	if _, err := issuer.Issue("user-1", "", ""); !errors.Is(err, ErrMissingRoom) {
		t.Errorf("missing room: err = %v, want ErrMissingRoom", err)
	}
}

func TestIssueGrants(t *testing.T) {
	issuer, err := NewIssuer(testAPIKey, testAPISecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	jwt, err := issuer.Issue("user-1", "lesson-1", "Alice")
	if err != nil {
		t.Fatal(err)
	}

	verifier, err := auth.ParseAPIToken(jwt)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if verifier.APIKey() != testAPIKey {
		t.Errorf("api key = %q, want %q", verifier.APIKey(), testAPIKey)
	}

	grants, err := verifier.Verify(testAPISecret)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	if grants.Identity != "user-1" {
		t.Errorf("identity = %q, want user-1", grants.Identity)
	}
	if grants.Name != "Alice" {
		t.Errorf("name = %q, want Alice", grants.Name)
	}
	if grants.Video == nil || !grants.Video.RoomJoin {
		t.Fatal("token must carry a room join grant")
	}
	if grants.Video.Room != "lesson-1" {
		t.Errorf("room = %q, want lesson-1", grants.Video.Room)
	}
	if grants.Video.CanPublish == nil || !*grants.Video.CanPublish {
		t.Error("token must allow publishing")
	}
	if grants.Video.CanSubscribe == nil || !*grants.Video.CanSubscribe {
		t.Error("token must allow subscribing")
	}
}

func TestIssueDefaultDisplayName(t *testing.T) {
	issuer, err := NewIssuer(testAPIKey, testAPISecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	jwt, err := issuer.Issue("user-1", "lesson-1", "")
	if err != nil {
		t.Fatal(err)
	}

	verifier, err := auth.ParseAPIToken(jwt)
	if err != nil {
		t.Fatal(err)
	}
	grants, err := verifier.Verify(testAPISecret)
	if err != nil {
		t.Fatal(err)
	}
	if grants.Name != defaultDisplayName {
		t.Errorf("name = %q, want the default %q", grants.Name, defaultDisplayName)
	}
}
