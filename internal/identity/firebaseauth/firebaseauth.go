// Package firebaseauth bridges Firebase Authentication to the session
// tracker: verified sign-ins become identity transitions, sign-outs
// clear the tracker. Token refresh and transient provider failures are
// Firebase's concern; only terminal state changes are relayed.
package firebaseauth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/Sophiedev-dev/WiseNkap/internal/core"
	applog "github.com/Sophiedev-dev/WiseNkap/internal/log"
	"github.com/Sophiedev-dev/WiseNkap/internal/session"
)

type Provider struct {
	auth    *auth.Client
	tracker *session.Tracker
	logger  *applog.Logger
}

// New initializes the Firebase Admin SDK for the given project.
// credentialsFile may be empty to use application default credentials.
func New(ctx context.Context, projectID, credentialsFile string, tracker *session.Tracker, logger *applog.Logger) (*Provider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase auth: %w", err)
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Provider{
		auth:    client,
		tracker: tracker,
		logger:  logger.WithComponent(applog.ComponentAuth),
	}, nil
}

// SignIn verifies an ID token issued by Firebase (email/password and
// Google sign-in both end in the same token) and makes the verified
// identity the active one.
func (p *Provider) SignIn(ctx context.Context, idToken string) (core.Identity, error) {
	tok, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return core.Identity{}, fmt.Errorf("verify id token: %w", err)
	}

	id := core.Identity{UID: core.UserID(tok.UID)}
	if user, err := p.auth.GetUser(ctx, tok.UID); err != nil {
		// Display name is cosmetic; the verified UID is enough.
		p.logger.WarnContext(ctx, "Could not load user record",
			applog.FieldUID, tok.UID, applog.FieldError, err)
	} else {
		id.DisplayName = user.DisplayName
	}

	p.tracker.Set(id)
	return id, nil
}

// SignOut clears the active identity. Revoking refresh tokens upstream
// is left to Firebase.
func (p *Provider) SignOut() {
	p.tracker.Clear()
}
