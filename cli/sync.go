// ABOUTME: Sync CLI commands
// ABOUTME: Runs pull and push cycles and the Google OAuth flow
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/shadecal/models"
	"github.com/harperreed/shadecal/sync"
)

const googleCallbackAddr = "localhost:8085"

// SyncPullCommand pulls provider events into the local appointment book.
func SyncPullCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	res, err := env.Engine().Pull(context.Background(), *user)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	printResult(env.Out, "Pulled", res)
	return nil
}

// SyncPushCommand pushes upcoming local appointments to the provider.
func SyncPushCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	res, err := env.Engine().Push(context.Background(), *user)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	printResult(env.Out, "Pushed", res)
	return nil
}

// SyncGoogleCommand pulls events from a directly linked Google calendar.
func SyncGoogleCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("google", flag.ContinueOnError)
	user := fs.String("user", "", "User ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	ctx := context.Background()
	integ, err := env.Store.GetIntegration(ctx, *user, models.ProviderGoogle)
	if err != nil {
		return err
	}
	if integ == nil {
		return fmt.Errorf("no google calendar linked for %s. Run 'shadecal integration connect --provider google' first", *user)
	}

	token, err := sync.LoadToken(*user)
	if err != nil {
		return fmt.Errorf("no authentication token found. Run 'shadecal integration connect --provider google' first: %w", err)
	}

	oauthConfig := sync.NewOAuthConfig(env.Config.GoogleClientID, env.Config.GoogleClientSecret)
	service, err := sync.NewCalendarService(ctx, oauthConfig, token)
	if err != nil {
		return fmt.Errorf("failed to create Calendar client: %w", err)
	}

	source := sync.NewGoogleSource(service, integ.CalendarID, env.Logger)
	res, err := env.Engine().PullGoogle(ctx, *user, source)
	if err != nil {
		return fmt.Errorf("google sync failed: %w", err)
	}
	printResult(env.Out, "Imported", res)
	return nil
}

func printResult(out io.Writer, verb string, res sync.Result) {
	_, _ = fmt.Fprintf(out, "%s %d events\n", okStyle.Render("✓ "+verb), res.Total)
	_, _ = fmt.Fprintf(out, "  Created: %d\n", res.Synced)
	_, _ = fmt.Fprintf(out, "  Updated: %d\n", res.Updated)
	_, _ = fmt.Fprintf(out, "  Deleted: %d\n", res.Deleted)
	_, _ = fmt.Fprintf(out, "  Skipped: %d\n", res.Skipped)
	if res.Failed > 0 {
		_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("  Failed:  %d", res.Failed)))
	}
}

// authorizeGoogle runs the OAuth consent flow in the browser and stores the
// resulting token for userID.
func authorizeGoogle(ctx context.Context, env *Env, userID string) error {
	if env.Config.GoogleClientID == "" || env.Config.GoogleClientSecret == "" {
		return models.NewConfigurationError("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	config := sync.NewOAuthConfig(env.Config.GoogleClientID, env.Config.GoogleClientSecret)

	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: googleCallbackAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := config.AuthCodeURL(userID, oauth2.AccessTypeOffline)

	_, _ = fmt.Fprintln(env.Out, "Opening browser for Google OAuth...")
	_, _ = fmt.Fprintf(env.Out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		if err := sync.SaveToken(userID, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		_, _ = fmt.Fprintf(env.Out, "%s\n", okStyle.Render("✓ Authenticated successfully"))
		_, _ = fmt.Fprintf(env.Out, "✓ Tokens saved to %s\n", sync.TokenPath(userID))
		return nil
	case err := <-errChan:
		return fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
