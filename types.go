package authflow

import "github.com/MrEthical07/authflow/deeplink"

// Route names a screen the host application can show.
type Route string

const (
	RouteSignIn        Route = "sign-in"
	RouteSignUp        Route = "sign-up"
	RouteRequestReset  Route = "request-password-reset"
	RouteVerifyCode    Route = "verify-reset-code"
	RouteResetPassword Route = "reset-password"
	RouteHome          Route = "home"
)

// Navigation parameter keys. They match the reset link parameters so a deep
// link can be handed to a screen unchanged.
const (
	ParamEmail = deeplink.ParamEmail
	ParamOTP   = deeplink.ParamOTP
	ParamToken = deeplink.ParamToken
	ParamError = deeplink.ParamError
)

// Params are navigation parameters.
type Params map[string]string

// Navigator switches screens. Navigate is called at most once per settled
// action and must not block for long.
type Navigator interface {
	Navigate(route Route, params Params)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route Route, params Params)

// Navigate implements [Navigator].
func (f NavigatorFunc) Navigate(route Route, params Params) { f(route, params) }

// SignInInput is the credential input of the sign-in screen.
type SignInInput struct {
	Email    string
	Password string
}

// SignUpInput is the credential input of the sign-up screen.
type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ResetFlow is the material a password reset is completed with. It is either
// a [TokenFlow] or an [OTPFlow], never both.
type ResetFlow interface {
	resetFlow()
}

// TokenFlow is a reset that arrived through a link carrying a token.
type TokenFlow struct {
	Token string
}

// OTPFlow is a reset completed with the emailed one-time code.
type OTPFlow struct {
	Email string
	OTP   string
}

func (TokenFlow) resetFlow() {}
func (OTPFlow) resetFlow()   {}

// ResetFlowFromLink returns the flow a decoded reset link carries. It reports
// false for a link with no usable material or one already marked invalid.
func ResetFlowFromLink(l deeplink.Link) (ResetFlow, bool) {
	switch l.Kind() {
	case deeplink.KindToken:
		return TokenFlow{Token: l.Token}, true
	case deeplink.KindOTP:
		return OTPFlow{Email: l.Email, OTP: l.OTP}, true
	default:
		return nil, false
	}
}

// Result is the settled outcome of a screen action.
//
// Message is safe to show as is: it is either a local validation message or a
// sanitized identity failure. Err carries the underlying error for programmatic
// checks with errors.Is and errors.As and must not be displayed.
type Result struct {
	OK      bool
	Message string
	Err     error

	// Abandoned is set when the screen closed before the action settled. The
	// outcome was discarded and no navigation happened.
	Abandoned bool
	// Busy is set when another action of the same screen was still running.
	Busy bool
}
