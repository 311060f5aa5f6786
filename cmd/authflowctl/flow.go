package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/deeplink"
	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/identity/client"
	"github.com/MrEthical07/authflow/identity/httpapi"
	promexport "github.com/MrEthical07/authflow/metrics/export/prometheus"
)

// flowSession is one controller bound to a remote backend for the lifetime of
// a command.
type flowSession struct {
	ctrl   *authflow.Controller
	client *client.Client
	out    io.Writer
	last   authflow.Route
	params authflow.Params
}

func openFlow(cmd *cobra.Command, g *globalOptions, opts ...client.Option) (*flowSession, error) {
	cfg, err := authflow.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if g.lang != "" {
		cfg.Language = g.lang
	}

	logger := g.logger(cmd)
	opts = append(opts, client.WithLogger(logger))
	svc := client.New(httpapi.NewRemote(g.server, nil), opts...)

	fs := &flowSession{client: svc, out: cmd.OutOrStdout()}
	nav := authflow.NavigatorFunc(func(route authflow.Route, params authflow.Params) {
		fs.last, fs.params = route, params
		logger.Debug("navigate", "route", string(route), "params", formatParams(params))
	})

	b := authflow.New().
		WithConfig(cfg).
		WithService(svc).
		WithNavigator(nav).
		WithLogger(logger)
	if g.verbose {
		b = b.WithAuditSink(authflow.NewSlogSink(logger))
	}
	if fs.ctrl, err = b.Build(); err != nil {
		return nil, err
	}
	return fs, nil
}

// finish prints the outcome of res and closes the controller. A failed result
// becomes the command error so the exit status reflects it.
func (fs *flowSession) finish(g *globalOptions, res authflow.Result) error {
	defer fs.ctrl.Close()

	if res.Message != "" {
		fmt.Fprintln(fs.out, res.Message)
	}
	if fs.last != "" {
		fmt.Fprintf(fs.out, "-> %s %s\n", fs.last, formatParams(fs.params))
	}
	if g.metrics {
		fmt.Fprint(fs.out, promexport.NewPrometheusExporter(fs.ctrl).Render())
	}

	switch {
	case res.OK:
		return nil
	case res.Err != nil:
		return res.Err
	default:
		return errors.New("action did not complete")
	}
}

func formatParams(params authflow.Params) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}

func newSignInCmd(g *globalOptions) *cobra.Command {
	var in authflow.SignInInput
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := openFlow(cmd, g)
			if err != nil {
				return err
			}
			res := fs.ctrl.OpenSignIn().SignIn(in)
			if res.OK {
				fmt.Fprintln(fs.out, "access token:", fs.client.AccessToken())
			}
			return fs.finish(g, res)
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	return cmd
}

func newSignUpCmd(g *globalOptions) *cobra.Command {
	var in authflow.SignUpInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.ConfirmPassword == "" {
				in.ConfirmPassword = in.Password
			}
			fs, err := openFlow(cmd, g)
			if err != nil {
				return err
			}
			res := fs.ctrl.OpenSignUp().SignUp(in)
			if res.OK {
				fmt.Fprintln(fs.out, "access token:", fs.client.AccessToken())
			}
			return fs.finish(g, res)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	return cmd
}

func newSignOutCmd(g *globalOptions) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Revoke the session behind an access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			fs, err := openFlow(cmd, g, client.WithSession(token, identity.LoginMethodPassword))
			if err != nil {
				return err
			}
			if err := fs.ctrl.SignOut(cmd.Context()); err != nil {
				fs.ctrl.Close()
				return err
			}
			return fs.finish(g, authflow.Result{OK: true})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token printed by signin or signup")
	return cmd
}

func newResetCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Password reset flow",
	}
	cmd.AddCommand(newResetRequestCmd(g), newResetConfirmCmd(g))
	return cmd
}

func newResetRequestCmd(g *globalOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Ask for a reset code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := openFlow(cmd, g)
			if err != nil {
				return err
			}
			return fs.finish(g, fs.ctrl.OpenRequestReset().RequestPasswordReset(email))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

type resetConfirmOptions struct {
	link     string
	token    string
	email    string
	otp      string
	password string
	confirm  string
}

// params builds the navigation parameters the reset screens would receive
// from a deep link.
func (o *resetConfirmOptions) params() (authflow.Params, error) {
	if o.link != "" {
		link, err := deeplink.Parse(o.link)
		if err != nil {
			return nil, err
		}
		return authflow.Params(link.Params()), nil
	}
	p := authflow.Params{}
	if o.token != "" {
		p[authflow.ParamToken] = o.token
	}
	if o.email != "" {
		p[authflow.ParamEmail] = o.email
	}
	if o.otp != "" {
		p[authflow.ParamOTP] = o.otp
	}
	return p, nil
}

func newResetConfirmCmd(g *globalOptions) *cobra.Command {
	o := &resetConfirmOptions{}
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Set a new password with a reset code or link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := o.params()
			if err != nil {
				return err
			}
			if o.confirm == "" {
				o.confirm = o.password
			}
			fs, err := openFlow(cmd, g)
			if err != nil {
				return err
			}

			if link := deeplink.FromParams(params); link.Kind() == deeplink.KindOTP {
				verify := fs.ctrl.OpenVerifyCode(params)
				if !verify.AutoSubmitted() {
					msg := verify.Message()
					verify.Close()
					return fs.finish(g, authflow.Result{Message: msg})
				}
				verify.Close()
				params = fs.params
			}

			screen := fs.ctrl.OpenResetPassword(params)
			if screen.InvalidLink() {
				msg := screen.Message()
				screen.Close()
				return fs.finish(g, authflow.Result{Message: msg, Err: authflow.ErrInvalidLink})
			}
			res := screen.ResetPassword(o.password, o.confirm)
			screen.Close()
			return fs.finish(g, res)
		},
	}
	cmd.Flags().StringVar(&o.link, "link", "", "reset link from the email")
	cmd.Flags().StringVar(&o.token, "token", "", "reset token")
	cmd.Flags().StringVar(&o.email, "email", "", "account email (with --otp)")
	cmd.Flags().StringVar(&o.otp, "otp", "", "6-digit reset code")
	cmd.Flags().StringVar(&o.password, "password", "", "new password")
	cmd.Flags().StringVar(&o.confirm, "confirm", "", "new password confirmation (defaults to --password)")
	cmd.MarkFlagsMutuallyExclusive("link", "token", "otp")
	return cmd
}
