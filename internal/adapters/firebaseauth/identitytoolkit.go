package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// errRejected marks a sign-in the Identity Toolkit refused (bad password, unknown email, disabled user).
var errRejected = errors.New("identity toolkit rejected sign-in")

// identityToolkit calls the client-facing relyingparty endpoints that the Admin SDK does not expose.
type identityToolkit struct {
	rp *identitytoolkit.RelyingpartyService
}

type signInResponse struct {
	LocalID     string
	IDToken     string
	DisplayName string
	IsNewUser   bool
}

// newIdentityToolkit builds the relyingparty client. An empty endpoint uses
// the public one; emulators take
// http://host:9099/www.googleapis.com/identitytoolkit/v3/relyingparty/.
func newIdentityToolkit(ctx context.Context, apiKey, endpoint string) (*identityToolkit, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create identity toolkit client: %w", err)
	}
	return &identityToolkit{rp: svc.Relyingparty}, nil
}

func (c *identityToolkit) signInWithPassword(ctx context.Context, email, password string) (signInResponse, error) {
	resp, err := c.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return signInResponse{}, toolkitError("verifyPassword", err)
	}
	return checked("verifyPassword", signInResponse{
		LocalID:     resp.LocalId,
		IDToken:     resp.IdToken,
		DisplayName: resp.DisplayName,
	})
}

// signInWithIdp signs in (creating the account on first use) with a provider id_token.
func (c *identityToolkit) signInWithIdp(ctx context.Context, providerID, idToken, requestURI string) (signInResponse, error) {
	postBody := url.Values{}
	postBody.Set("id_token", idToken)
	postBody.Set("providerId", providerID)
	resp, err := c.rp.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:            postBody.Encode(),
		RequestUri:          requestURI,
		ReturnSecureToken:   true,
		ReturnIdpCredential: true,
	}).Context(ctx).Do()
	if err != nil {
		return signInResponse{}, toolkitError("verifyAssertion", err)
	}
	return checked("verifyAssertion", signInResponse{
		LocalID:     resp.LocalId,
		IDToken:     resp.IdToken,
		DisplayName: resp.DisplayName,
		IsNewUser:   resp.IsNewUser,
	})
}

// toolkitError maps 400 responses to errRejected; the message carries codes
// such as EMAIL_NOT_FOUND or INVALID_PASSWORD.
func toolkitError(method string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", errRejected, gerr.Message)
	}
	return fmt.Errorf("%s: %w", method, err)
}

func checked(method string, out signInResponse) (signInResponse, error) {
	if out.IDToken == "" || out.LocalID == "" {
		return signInResponse{}, fmt.Errorf("%s: response missing idToken or localId", method)
	}
	return out, nil
}
