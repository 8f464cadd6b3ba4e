package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

const (
	BucketQuotationAttachments = "quotation-attachments"
	BucketDeliveryPhotos       = "delivery-photos"

	maxFileNameLength = 120
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true}

// StorageClient defines what we need from Supabase storage.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

const storageTimeout = 10 * time.Second

var defaultStorageClient = &http.Client{Timeout: storageTimeout}

// HTTPClient is a StorageClient backed by the Supabase storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, SecretKey: secretKey, Client: &http.Client{Timeout: storageTimeout}}
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return defaultStorageClient
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign
	Path           string `json:"path"`
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, path)

	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		// Invalid Compact JWS means the anon key was sent instead of service_role.
		if resp.StatusCode == 400 || resp.StatusCode == 403 {
			if strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized") {
				return "", fmt.Errorf("supabase storage requires the service_role key, not the anon key (body: %s)", bodyStr)
			}
		}
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// Service hands out signed upload URLs for vendor files.
type Service struct {
	Client      StorageClient
	SupabaseURL string
	Now         func() time.Time
}

type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// QuotationAttachmentURL signs an upload for a file attached to a quotation.
func (s *Service) QuotationAttachmentURL(ctx context.Context, vendorID uuid.UUID, fileName string) (*UploadResult, error) {
	return s.GetSignedUploadURL(ctx, BucketQuotationAttachments, vendorID, fileName)
}

// DeliveryPhotoURL signs an upload for proof of delivery. Only image files are accepted.
func (s *Service) DeliveryPhotoURL(ctx context.Context, vendorID uuid.UUID, fileName string) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !imageExtensions[ext] {
		return nil, apperrors.Validation("delivery photo must be a jpg, png, webp or heic image")
	}
	return s.GetSignedUploadURL(ctx, BucketDeliveryPhotos, vendorID, fileName)
}

// GetSignedUploadURL stores files under <owner>/<unix millis>-<name> in bucket.
func (s *Service) GetSignedUploadURL(ctx context.Context, bucket string, ownerID uuid.UUID, fileName string) (*UploadResult, error) {
	name := cleanFileName(fileName)
	if name == "" {
		return nil, apperrors.Validation("file_name is required")
	}
	if s.Client == nil {
		return nil, apperrors.New(apperrors.CodeDependency, "storage is not configured")
	}
	path := fmt.Sprintf("%s/%d-%s", ownerID, s.now().UnixMilli(), name)

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "failed to generate upload URL")
	}

	publicBase := strings.TrimRight(s.SupabaseURL, "/")
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", publicBase, bucket, path),
		Path:      path,
	}, nil
}

func cleanFileName(fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "_")
	return validation.SanitizeString(name, maxFileNameLength)
}
