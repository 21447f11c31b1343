package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// AttachmentsClient implements grist.AttachmentsClient.
type AttachmentsClient struct {
	httpClient *http.Client
}

// NewAttachmentsClient creates a new attachments client.
func NewAttachmentsClient(httpClient *http.Client) *AttachmentsClient {
	return &AttachmentsClient{
		httpClient: httpClient,
	}
}

// List implements grist.AttachmentsClient.List. Unlike records, sort
// and limit travel as ordinary query parameters here.
func (c *AttachmentsClient) List(ctx context.Context, docID string, opts *grist.ListOptions) ([]grist.Attachment, error) {
	path := fmt.Sprintf("/docs/%s/attachments", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, opts.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}

	var envelope struct {
		Records []grist.Attachment `json:"records"`
	}

	err = decodeJSON(resp, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing attachments list: %w", err)
	}

	return envelope.Records, nil
}

// Get implements grist.AttachmentsClient.Get.
func (c *AttachmentsClient) Get(ctx context.Context, docID string, attachmentID int) (*grist.AttachmentFields, error) {
	path := fmt.Sprintf("/docs/%s/attachments/%d", defaultDocID(c.httpClient, docID), attachmentID)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting attachment: %w", err)
	}

	var fields grist.AttachmentFields

	err = decodeJSON(resp, &fields)
	if err != nil {
		return nil, fmt.Errorf("parsing attachment: %w", err)
	}

	return &fields, nil
}

// Upload implements grist.AttachmentsClient.Upload.
func (c *AttachmentsClient) Upload(ctx context.Context, docID string, paths ...string) ([]int, error) {
	handles := make([]*os.File, 0, len(paths))

	defer func() {
		for _, handle := range handles {
			_ = handle.Close()
		}
	}()

	files := make([]grist.UploadFile, 0, len(paths))

	for _, path := range paths {
		handle, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening attachment: %w", err)
		}

		handles = append(handles, handle)
		files = append(files, grist.UploadFile{Name: filepath.Base(path), Reader: handle})
	}

	return c.UploadStream(ctx, docID, files...)
}

// UploadStream implements grist.AttachmentsClient.UploadStream.
func (c *AttachmentsClient) UploadStream(ctx context.Context, docID string, files ...grist.UploadFile) ([]int, error) {
	path := fmt.Sprintf("/docs/%s/attachments", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Upload(ctx, path, files...)
	if err != nil {
		return nil, fmt.Errorf("uploading attachments: %w", err)
	}

	var ids []int

	err = decodeJSON(resp, &ids)
	if err != nil {
		return nil, fmt.Errorf("parsing attachment ids: %w", err)
	}

	return ids, nil
}

// Download implements grist.AttachmentsClient.Download.
func (c *AttachmentsClient) Download(ctx context.Context, docID string, attachmentID int, dst io.Writer) error {
	path := fmt.Sprintf("/docs/%s/attachments/%d/download", defaultDocID(c.httpClient, docID), attachmentID)

	_, err := c.httpClient.Download(ctx, path, nil, dst)
	if err != nil {
		return fmt.Errorf("downloading attachment: %w", err)
	}

	return nil
}

// DownloadAll implements grist.AttachmentsClient.DownloadAll. An empty
// format means the server default, a tar archive.
func (c *AttachmentsClient) DownloadAll(ctx context.Context, docID string, dst io.Writer, format string) error {
	path := fmt.Sprintf("/docs/%s/attachments/archive", defaultDocID(c.httpClient, docID))

	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}

	_, err := c.httpClient.Download(ctx, path, query, dst)
	if err != nil {
		return fmt.Errorf("downloading attachments archive: %w", err)
	}

	return nil
}

// RestoreAll implements grist.AttachmentsClient.RestoreAll. Only
// attachments missing from the doc are added; the archive must be tar.
func (c *AttachmentsClient) RestoreAll(ctx context.Context, docID string, archive io.Reader) error {
	path := fmt.Sprintf("/docs/%s/attachments/archive", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Upload(ctx, path, grist.UploadFile{Name: "attachments.tar", Reader: archive})
	if err != nil {
		return fmt.Errorf("restoring attachments: %w", err)
	}

	return nil
}

// Store implements grist.AttachmentsClient.Store.
func (c *AttachmentsClient) Store(ctx context.Context, docID string) (*grist.AttachmentStore, error) {
	path := fmt.Sprintf("/docs/%s/attachments/store", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting attachment store: %w", err)
	}

	var store grist.AttachmentStore

	err = decodeJSON(resp, &store)
	if err != nil {
		return nil, fmt.Errorf("parsing attachment store: %w", err)
	}

	return &store, nil
}

// SetStore implements grist.AttachmentsClient.SetStore.
func (c *AttachmentsClient) SetStore(ctx context.Context, docID, storeType string) error {
	path := fmt.Sprintf("/docs/%s/attachments/store", defaultDocID(c.httpClient, docID))

	_, err := c.httpClient.Post(ctx, path, grist.AttachmentStore{Type: storeType})
	if err != nil {
		return fmt.Errorf("setting attachment store: %w", err)
	}

	return nil
}

// StoreSettings implements grist.AttachmentsClient.StoreSettings.
func (c *AttachmentsClient) StoreSettings(ctx context.Context, docID string) (map[string]interface{}, error) {
	path := fmt.Sprintf("/docs/%s/attachments/store/settings", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting store settings: %w", err)
	}

	var settings map[string]interface{}

	err = decodeJSON(resp, &settings)
	if err != nil {
		return nil, fmt.Errorf("parsing store settings: %w", err)
	}

	return settings, nil
}

// TransferAll implements grist.AttachmentsClient.TransferAll.
func (c *AttachmentsClient) TransferAll(ctx context.Context, docID string) (*grist.TransferStatus, error) {
	path := fmt.Sprintf("/docs/%s/attachments/transferAll", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("starting attachment transfer: %w", err)
	}

	var status grist.TransferStatus

	err = decodeJSON(resp, &status)
	if err != nil {
		return nil, fmt.Errorf("parsing transfer status: %w", err)
	}

	return &status, nil
}

// TransferStatus implements grist.AttachmentsClient.TransferStatus.
func (c *AttachmentsClient) TransferStatus(ctx context.Context, docID string) (*grist.TransferStatus, error) {
	path := fmt.Sprintf("/docs/%s/attachments/transferStatus", defaultDocID(c.httpClient, docID))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting transfer status: %w", err)
	}

	var status grist.TransferStatus

	err = decodeJSON(resp, &status)
	if err != nil {
		return nil, fmt.Errorf("parsing transfer status: %w", err)
	}

	return &status, nil
}
