package deeplink

import (
	"errors"
	"testing"
)

func TestKindFromParams(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]string
		want   Kind
	}{
		{"token", map[string]string{"token": "abc"}, KindToken},
		{"otp", map[string]string{"email": "a@b.com", "otp": "123456"}, KindOTP},
		{"otp missing email", map[string]string{"otp": "123456"}, KindNone},
		{"email only", map[string]string{"email": "a@b.com"}, KindNone},
		{"invalid token", map[string]string{"error": "INVALID_TOKEN"}, KindInvalidToken},
		{"invalid token wins", map[string]string{"error": "invalid_token", "token": "abc"}, KindInvalidToken},
		{"token wins over otp", map[string]string{"token": "abc", "email": "a@b.com", "otp": "123456"}, KindToken},
		{"blank values", map[string]string{"token": "  ", "email": " ", "otp": ""}, KindNone},
		{"nil", nil, KindNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromParams(tc.params).Kind(); got != tc.want {
				t.Fatalf("Kind() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	link, err := Parse("ugc://reset-password?email=User%40Example.com&otp=123456")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if link.Kind() != KindOTP || link.Email != "User@Example.com" || link.OTP != "123456" {
		t.Fatalf("unexpected link %+v", link)
	}

	if _, err := Parse("   "); !errors.Is(err, ErrMalformedLink) {
		t.Fatalf("expected ErrMalformedLink, got %v", err)
	}
	if _, err := Parse("http://[::1"); !errors.Is(err, ErrMalformedLink) {
		t.Fatalf("expected ErrMalformedLink for bad URL, got %v", err)
	}
}

func TestBuildRoundTrip(t *testing.T) {
	raw, err := Build("https://app.example.com/reset-password", Link{Token: "t-1"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	link, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if link.Kind() != KindToken || link.Token != "t-1" {
		t.Fatalf("unexpected link %+v from %s", link, raw)
	}
}
