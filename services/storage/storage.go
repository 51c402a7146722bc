package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"sponsorly/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStorage implements StorageService on Cloudinary. Object IDs
// have the form "<resourceType>:<deliveryType>:<format>:<publicID>" since
// deletes and download URLs need all four.
type CloudinaryStorage struct {
	cld        *cloudinary.Cloudinary
	httpClient *http.Client
}

// NewCloudinaryStorage creates a Cloudinary-backed store.
func NewCloudinaryStorage(cld *cloudinary.Cloudinary, cloudName string) *CloudinaryStorage {
	utils.GetLogger().Debug("initializing Cloudinary storage", zap.String("cloudName", cloudName))
	return &CloudinaryStorage{
		cld:        cld,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// privatePrefix holds files that are only handed out through signed URLs.
const privatePrefix = "reports/"

// resourceTypeFor picks the Cloudinary resource type from the extension.
func resourceTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
		return "image"
	case ".mp4", ".mov", ".webm", ".avi":
		return "video"
	}
	return "raw"
}

func deliveryTypeFor(folder string) api.DeliveryType {
	if strings.HasPrefix(folder+"/", privatePrefix) {
		return api.Authenticated
	}
	return api.Upload
}

// cloudinaryRef is a parsed object ID.
type cloudinaryRef struct {
	ResourceType string
	DeliveryType api.DeliveryType
	Format       string
	PublicID     string
}

func (r cloudinaryRef) String() string {
	return strings.Join([]string{r.ResourceType, string(r.DeliveryType), r.Format, r.PublicID}, ":")
}

// parseRef also accepts the older "<resourceType>:<publicID>" form.
func parseRef(id string) cloudinaryRef {
	parts := strings.SplitN(id, ":", 4)
	switch len(parts) {
	case 4:
		return cloudinaryRef{ResourceType: parts[0], DeliveryType: api.DeliveryType(parts[1]), Format: parts[2], PublicID: parts[3]}
	case 2:
		return cloudinaryRef{ResourceType: parts[0], DeliveryType: api.Upload, PublicID: parts[1]}
	}
	return cloudinaryRef{ResourceType: "raw", DeliveryType: api.Upload, PublicID: id}
}

func (s *CloudinaryStorage) Upload(ctx context.Context, r io.Reader, folder, filename string) (Object, error) {
	resourceType := resourceTypeFor(filename)
	delivery := deliveryTypeFor(folder)
	publicID := objectName("", filename)
	if resourceType != "raw" {
		// Cloudinary appends the format for media types itself.
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: resourceType,
		Type:         delivery,
	})
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return Object{}, fmt.Errorf("cloudinary: no public ID returned")
	}
	ref := cloudinaryRef{ResourceType: resourceType, DeliveryType: delivery, Format: result.Format, PublicID: result.PublicID}
	if resourceType == "raw" {
		ref.Format = ""
	}
	obj := Object{ID: ref.String()}
	if delivery == api.Upload {
		obj.URL = result.SecureURL
	}
	return obj, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, id string) error {
	ref := parseRef(id)
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     ref.PublicID,
		Type:         string(ref.DeliveryType),
		ResourceType: ref.ResourceType,
	}); err != nil {
		return fmt.Errorf("cloudinary: failed to delete file: %w", err)
	}
	return nil
}

// SignedURL returns a private download URL signed by the SDK that stops
// working after expires.
func (s *CloudinaryStorage) SignedURL(_ context.Context, id string, expires time.Duration) (string, error) {
	return privateDownloadURL(s.cld, parseRef(id), time.Now().Add(expires))
}

func privateDownloadURL(cld *cloudinary.Cloudinary, ref cloudinaryRef, expiresAt time.Time) (string, error) {
	u, err := cld.Upload.PrivateDownloadURL(uploader.PrivateDownloadURLParams{
		PublicID:     ref.PublicID,
		Format:       ref.Format,
		DeliveryType: string(ref.DeliveryType),
		ExpiresAt:    &expiresAt,
		ResourceType: api.AssetType(ref.ResourceType),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to sign download URL: %w", err)
	}
	return u, nil
}

// Open streams an object through a short-lived private download URL.
func (s *CloudinaryStorage) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	ref := parseRef(id)
	url, err := privateDownloadURL(s.cld, ref, time.Now().Add(5*time.Minute))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: failed to fetch %s: %w", ref.PublicID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cloudinary: fetch %s returned %s", ref.PublicID, resp.Status)
	}
	return resp.Body, nil
}
