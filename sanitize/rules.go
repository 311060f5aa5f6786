package sanitize

import "github.com/MrEthical07/authflow/identity"

// Context selects the message set a call site may produce.
type Context uint8

const (
	// SignIn covers password sign-in failures.
	SignIn Context = iota
	// SignUp covers account creation failures.
	SignUp
	// ResetRequest covers the initial reset-code request. Every outcome maps to
	// the same message.
	ResetRequest
	// Resend covers re-sending a reset code after a failed send.
	Resend
	// Reset covers the final password change with a code or token.
	Reset
)

func (c Context) String() string {
	switch c {
	case SignIn:
		return "sign_in"
	case SignUp:
		return "sign_up"
	case ResetRequest:
		return "reset_request"
	case Resend:
		return "resend"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}

type rule struct {
	needles []string
	message string
}

type contextRules struct {
	codes    map[identity.Code]string
	rules    []rule
	fallback string
}

var rateLimitRule = rule{
	needles: []string{"too many", "rate limit"},
	message: MsgTooManyAttempts,
}

var table = map[Context]contextRules{
	SignIn: {
		codes: map[identity.Code]string{
			identity.CodeInvalidCredentials: MsgInvalidCredentials,
			identity.CodeRateLimited:        MsgTooManyAttempts,
		},
		rules: []rule{
			{
				needles: []string{
					"user not found",
					"no user",
					"invalid password",
					"wrong password",
					"invalid credentials",
					"invalidaccountid",
					"invalidsecret",
				},
				message: MsgInvalidCredentials,
			},
			rateLimitRule,
		},
		fallback: MsgSignInFailed,
	},
	SignUp: {
		codes: map[identity.Code]string{
			identity.CodeAccountExists: MsgSignUpFailed,
			identity.CodeInvalidEmail:  MsgInvalidEmail,
			identity.CodeWeakPassword:  MsgWeakPassword,
			identity.CodeRateLimited:   MsgTooManyAttempts,
		},
		rules: []rule{
			{
				needles: []string{"already exists", "already registered", "account exists", "duplicate", "already in use"},
				message: MsgSignUpFailed,
			},
			{
				needles: []string{"invalid email", "email format", "email address is invalid"},
				message: MsgInvalidEmail,
			},
			{
				needles: []string{"weak password", "password too short", "password is too", "password must", "password policy"},
				message: MsgWeakPassword,
			},
			rateLimitRule,
		},
		fallback: MsgSignUpFailed,
	},
	ResetRequest: {
		fallback: MsgResetRequested,
	},
	Resend: {
		fallback: MsgCodeResentSafe,
	},
	Reset: {
		codes: map[identity.Code]string{
			identity.CodeInvalidCode:  MsgInvalidCode,
			identity.CodeExpiredCode:  MsgInvalidCode,
			identity.CodeWeakPassword: MsgWeakPassword,
		},
		rules: []rule{
			{
				needles: []string{"expired", "invalid code", "invalid otp", "invalid token", "token", "otp", "code"},
				message: MsgInvalidCode,
			},
			{
				needles: []string{"weak", "too short", "password must", "password policy", "at least"},
				message: MsgWeakPassword,
			},
		},
		fallback: MsgResetFailed,
	},
}

// Messages returns every message ctx can produce, in the base locale.
func Messages(ctx Context) []string {
	entry, ok := table[ctx]
	if !ok {
		return []string{MsgSignInFailed}
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(entry.rules)+2)
	add := func(msg string) {
		if _, dup := seen[msg]; dup {
			return
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	for _, msg := range entry.codes {
		add(msg)
	}
	for _, r := range entry.rules {
		add(r.message)
	}
	add(entry.fallback)
	return out
}
