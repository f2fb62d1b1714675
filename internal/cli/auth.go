package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efisher/whoopsync/internal/adapter/driven/whoop"
	"github.com/efisher/whoopsync/internal/domain/model"
)

// bootstrapTokens serves the just-exchanged access token before any
// credential row exists, so the profile fetch that registers the user can
// authenticate.
type bootstrapTokens string

func (b bootstrapTokens) ValidAccessToken(_ context.Context, _ int64) (string, error) {
	return string(b), nil
}

// NewAuthCommand creates the auth command, the interactive OAuth
// authorization flow.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Whoop account",
		Long: `Run the OAuth authorization flow: print the consent URL, wait for
the authorization code pasted back from the redirect, then register the
account and store its tokens encrypted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd)
		},
	}
}

func runAuth(cmd *cobra.Command) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.cfg.HasOAuthCredentials() {
		return fmt.Errorf("WHOOPSYNC_CLIENT_ID and WHOOPSYNC_CLIENT_SECRET must be set")
	}

	authURL, state, verifier, err := app.oauth.AuthorizationURL()
	if err != nil {
		return fmt.Errorf("build authorization URL: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Visit the following URL and authorize access:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+authURL)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Confirm the redirect carries state=%s, then paste the code below.\n", state)
	fmt.Fprint(out, "Authorization code: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	ctx := cmd.Context()
	tokens, err := app.oauth.Exchange(ctx, code, verifier)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	// Identify the account before storing anything.
	client := whoop.NewClient(0, bootstrapTokens(tokens.AccessToken), app.limiter,
		whoop.WithBaseURL(app.cfg.APIBaseURL))
	profile, err := client.FetchProfile(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	user, err := app.users.Upsert(ctx, model.User{
		WhoopUserID: strconv.FormatInt(profile.UserID, 10),
		Email:       profile.Email,
	})
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	if err := app.tokens.SaveToken(ctx, user.ID, tokens); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nAuthorized %s %s <%s> as user %d\n",
		profile.FirstName, profile.LastName, profile.Email, user.ID)
	return nil
}
