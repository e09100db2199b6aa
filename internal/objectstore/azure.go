package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// Azure stores objects in Azure Blob Storage using shared-key credentials.
type Azure struct {
	client *azblob.Client
}

// NewAzure creates an Azure backend for the given storage account. endpoint
// overrides the blob service URL, e.g. for an emulator.
func NewAzure(accountName, accountKey, endpoint string) (*Azure, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("Azure account name and key are required")
	}
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := strings.TrimSuffix(endpoint, "/")
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &Azure{client: client}, nil
}

func (a *Azure) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	container, key, err := ParseAzurePath(uri)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.DownloadStream(ctx, container, key, nil)
	if err != nil {
		return nil, fmt.Errorf("download blob %q: %w", uri, err)
	}
	return resp.Body, nil
}

func (a *Azure) Put(ctx context.Context, uri string, data []byte) error {
	container, key, err := ParseAzurePath(uri)
	if err != nil {
		return err
	}
	if _, err := a.client.UploadBuffer(ctx, container, key, data, nil); err != nil {
		return fmt.Errorf("upload blob %q: %w", uri, err)
	}
	return nil
}
