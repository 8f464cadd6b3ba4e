package uploads

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"givehub-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	bucket string
	path   string
	err    error
}

func (f *fakeStorage) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	f.bucket, f.path = bucket, path
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.test/upload?token=t", nil
}

func fixedNow() time.Time { return time.UnixMilli(1700000000000) }

func TestQuotationAttachmentURL(t *testing.T) {
	storage := &fakeStorage{}
	svc := &Service{Client: storage, SupabaseURL: "https://proj.supabase.co/", Now: fixedNow}
	vendor := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	res, err := svc.QuotationAttachmentURL(context.Background(), vendor, "../../etc/price list.pdf")
	require.NoError(t, err)
	assert.Equal(t, BucketQuotationAttachments, storage.bucket)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111/1700000000000-price_list.pdf", res.Path)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/quotation-attachments/"+res.Path, res.PublicURL)
	assert.Equal(t, "https://storage.test/upload?token=t", res.UploadURL)
}

func TestDeliveryPhotoURL_RequiresImage(t *testing.T) {
	svc := &Service{Client: &fakeStorage{}, Now: fixedNow}

	_, err := svc.DeliveryPhotoURL(context.Background(), uuid.New(), "invoice.pdf")
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	res, err := svc.DeliveryPhotoURL(context.Background(), uuid.New(), "box.JPG")
	require.NoError(t, err)
	assert.Contains(t, res.Path, "-box.JPG")
}

func TestGetSignedUploadURL_StorageFailure(t *testing.T) {
	svc := &Service{Client: &fakeStorage{err: errors.New("boom")}}
	_, err := svc.QuotationAttachmentURL(context.Background(), uuid.New(), "a.pdf")
	assert.Equal(t, apperrors.CodeDependency, apperrors.CodeOf(err))
}

func TestHTTPClient_SignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/upload/sign/delivery-photos/u/1-a.png", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"url":"storage/v1/object/upload/sign/delivery-photos/u/1-a.png?token=abc"}`)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	url, err := c.CreateSignedUploadURL(context.Background(), "delivery-photos", "u/1-a.png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/delivery-photos/u/1-a.png?token=abc", url)
}

func TestHTTPClient_ServiceRoleHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"Invalid Compact JWS"}`)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "anon"}
	_, err := c.CreateSignedUploadURL(context.Background(), "b", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_role")
}

func TestHTTPClient_MissingConfig(t *testing.T) {
	_, err := (&HTTPClient{}).CreateSignedUploadURL(context.Background(), "b", "p")
	assert.Error(t, err)
}

func TestHTTPClient_ConcurrentSigning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"signedUrl":"https://signed.test/x"}`)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CreateSignedUploadURL(context.Background(), "b", "p")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Nil(t, c.Client)
	assert.NotNil(t, NewHTTPClient(srv.URL, "secret").Client)
}
