package deeplink

import (
	"errors"
	"net/url"
	"strings"
)

// Parameter names understood in reset links.
const (
	ParamToken = "token"
	ParamEmail = "email"
	ParamOTP   = "otp"
	ParamError = "error"
)

// ErrorInvalidToken is the error value a backend redirects with when the
// token in a link was rejected before the app opened.
const ErrorInvalidToken = "INVALID_TOKEN"

// ErrMalformedLink is returned by Parse for input that is not a URL.
var ErrMalformedLink = errors.New("malformed reset link")

// Kind classifies a reset link.
type Kind uint8

const (
	// KindNone means no usable reset material is present.
	KindNone Kind = iota
	// KindToken is a token-based reset.
	KindToken
	// KindOTP is an email + one-time-code reset.
	KindOTP
	// KindInvalidToken is a link the backend already marked as invalid.
	KindInvalidToken
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindOTP:
		return "otp"
	case KindInvalidToken:
		return "invalid_token"
	default:
		return "none"
	}
}

// Link holds decoded, trimmed reset parameters.
type Link struct {
	Token string
	Email string
	OTP   string
	Error string
}

// Kind reports which shape l carries. An explicit INVALID_TOKEN error wins
// over any other parameter, and a token wins over an {email, otp} pair.
func (l Link) Kind() Kind {
	switch {
	case strings.EqualFold(l.Error, ErrorInvalidToken):
		return KindInvalidToken
	case l.Token != "":
		return KindToken
	case l.Email != "" && l.OTP != "":
		return KindOTP
	default:
		return KindNone
	}
}

// Params renders l back into navigation parameters, omitting empty values.
func (l Link) Params() map[string]string {
	out := make(map[string]string, 4)
	if l.Token != "" {
		out[ParamToken] = l.Token
	}
	if l.Email != "" {
		out[ParamEmail] = l.Email
	}
	if l.OTP != "" {
		out[ParamOTP] = l.OTP
	}
	if l.Error != "" {
		out[ParamError] = l.Error
	}
	return out
}

// FromParams decodes navigation parameters.
func FromParams(params map[string]string) Link {
	return Link{
		Token: strings.TrimSpace(params[ParamToken]),
		Email: strings.TrimSpace(params[ParamEmail]),
		OTP:   strings.TrimSpace(params[ParamOTP]),
		Error: strings.TrimSpace(params[ParamError]),
	}
}

// FromValues decodes a URL query.
func FromValues(values url.Values) Link {
	return Link{
		Token: strings.TrimSpace(values.Get(ParamToken)),
		Email: strings.TrimSpace(values.Get(ParamEmail)),
		OTP:   strings.TrimSpace(values.Get(ParamOTP)),
		Error: strings.TrimSpace(values.Get(ParamError)),
	}
}

// Parse decodes a full link such as
// "ugc://reset-password?email=a%40b.com&otp=123456" or an https universal link.
func Parse(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, ErrMalformedLink
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, errors.Join(ErrMalformedLink, err)
	}
	return FromValues(u.Query()), nil
}

// Build renders a link with base as scheme, host and path.
func Build(base string, l Link) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Join(ErrMalformedLink, err)
	}
	q := u.Query()
	for k, v := range l.Params() {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
