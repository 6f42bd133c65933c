package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"modbox/backend/internal/config"
)

// Clients bundles the Firebase-backed service clients the server runs on.
type Clients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	Bucket    *storage.BucketHandle
	BucketID  string
	// CredentialsJSON is the rectified service account key, reusable for
	// further Google API clients.
	CredentialsJSON []byte
}

// Connect initializes the Firebase app from the KEY_DATA service account JSON
// and opens the Firestore, Auth, and Storage clients.
func Connect(ctx context.Context, cfg config.Config) (*Clients, error) {
	if cfg.KeyData == "" {
		return nil, fmt.Errorf("KEY_DATA environment variable not set")
	}
	credentials, err := rectifyKeyData(cfg.KeyData)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, option.WithCredentialsJSON(credentials))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening firestore client: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening auth client: %w", err)
	}
	storageClient, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening storage client: %w", err)
	}
	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("opening default bucket: %w", err)
	}

	return &Clients{
		Firestore:       fs,
		Auth:            authClient,
		Bucket:          bucket,
		BucketID:        cfg.StorageBucket,
		CredentialsJSON: credentials,
	}, nil
}

// rectifyKeyData restores the literal newlines of the private key, which
// get escaped when the service account JSON is passed through an env var.
func rectifyKeyData(raw string) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshalling key data: %w", err)
	}
	if key, ok := parsed["private_key"].(string); ok {
		parsed["private_key"] = strings.ReplaceAll(key, "\\n", "\n")
	}
	rectified, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("marshalling key data: %w", err)
	}
	return rectified, nil
}
