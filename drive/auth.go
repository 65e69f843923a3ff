package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/Jumpaku/go-cloudindex"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Scope returns the narrowest OAuth scope an indexing run needs: metadata
// access when no links are created, full access when permissions are
// written.
func Scope(sharing bool) string {
	if sharing {
		return driveapi.DriveScope
	}
	return driveapi.DriveMetadataReadonlyScope
}

// NewService builds a drive service. With a credentials file it uses the
// OAuth client configured there together with a previously cached token;
// acquiring that token is left to the vendor's tooling. With an empty
// credentials file it falls back to application default credentials.
func NewService(ctx context.Context, credentialsFile, tokenFile, scope string) (*driveapi.Service, error) {
	client, err := newHTTPClient(ctx, credentialsFile, tokenFile, scope)
	if err != nil {
		return nil, err
	}
	service, err := driveapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, cloudindex.NewAuthError("failed to create drive service", err)
	}
	return service, nil
}

func newHTTPClient(ctx context.Context, credentialsFile, tokenFile, scope string) (*http.Client, error) {
	if credentialsFile == "" {
		client, err := google.DefaultClient(ctx, scope)
		if err != nil {
			return nil, cloudindex.NewAuthError("failed to load application default credentials", err)
		}
		return client, nil
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, cloudindex.NewIOError(fmt.Sprintf("failed to read credentials file '%s'", credentialsFile), err)
	}
	config, err := google.ConfigFromJSON(data, scope)
	if err != nil {
		return nil, cloudindex.NewAuthError("failed to parse credentials file", err)
	}
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, cloudindex.NewAuthError(fmt.Sprintf("failed to load cached token from '%s'", tokenFile), err)
	}
	return config.Client(ctx, token), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}
