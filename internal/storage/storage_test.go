package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"catalog-service/internal/domain"
)

var (
	pngHeader  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegHeader = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestReadCover(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		maxBytes int64
		wantType string
		wantErr  error
	}{
		{"png", pngHeader, 1024, "image/png", nil},
		{"jpeg", jpegHeader, 1024, "image/jpeg", nil},
		{"plain text", []byte("hello, not an image"), 1024, "", ErrCoverUnsupported},
		{"too large", pngHeader, 8, "", ErrCoverTooLarge},
		{"empty", nil, 1024, "", domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cover, err := ReadCover(bytes.NewReader(tt.data), "poster.png", tt.maxBytes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("cover errors must be validation errors, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadCover: %v", err)
			}
			if cover.ContentType != tt.wantType {
				t.Errorf("content type = %s, want %s", cover.ContentType, tt.wantType)
			}
			if !strings.HasPrefix(cover.Key, CoverPrefix) || !strings.HasSuffix(cover.Key, "_poster.png") {
				t.Errorf("key = %s", cover.Key)
			}
		})
	}
}

func TestCoverKey_Sanitizes(t *testing.T) {
	key := CoverKey(`C:\Users\me\Meu Filme (2024)!.jpg`)
	if !strings.HasPrefix(key, CoverPrefix) {
		t.Fatalf("key = %s", key)
	}
	if !strings.HasSuffix(key, "_Meu_Filme__2024__.jpg") {
		t.Errorf("key = %s", key)
	}
	if strings.Count(key, "/") != 1 {
		t.Errorf("path traversal survived: %s", key)
	}
	if CoverKey("") == CoverKey("") {
		t.Error("keys must be unique")
	}
}

type fakeS3 struct {
	calls  int
	err    error
	inputs []*s3.PutObjectInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3CoverStore_Upload(t *testing.T) {
	fake := &fakeS3{}
	store := newS3CoverStore(fake, S3Config{Bucket: "filmes-capas", Region: "sa-east-1"}, discardLogger())

	got, err := store.Upload(context.Background(), "covers/abc_my poster.png", "image/png", pngHeader)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	want := "https://filmes-capas.s3.sa-east-1.amazonaws.com/covers/abc_my_poster.png"
	if got != want {
		t.Errorf("url = %s, want %s", got, want)
	}
	in := fake.inputs[0]
	if *in.Bucket != "filmes-capas" || *in.ContentType != "image/png" || *in.CacheControl != coverCacheControl {
		t.Errorf("unexpected input: bucket=%s type=%s cache=%s", *in.Bucket, *in.ContentType, *in.CacheControl)
	}
	if *in.ContentLength != int64(len(pngHeader)) {
		t.Errorf("content length = %d", *in.ContentLength)
	}
}

func TestS3CoverStore_PublicBaseURL(t *testing.T) {
	store := newS3CoverStore(&fakeS3{}, S3Config{Bucket: "b", Region: "r", PublicBaseURL: "https://cdn.example.com/"}, discardLogger())
	if got := store.PublicURL("covers/x.png"); got != "https://cdn.example.com/covers/x.png" {
		t.Errorf("got %s", got)
	}
}

func TestS3CoverStore_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeS3{err: errors.New("connection refused")}
	store := newS3CoverStore(fake, S3Config{Bucket: "b", Region: "r", BreakerFailures: 2}, discardLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.Upload(ctx, "covers/a.png", "image/png", pngHeader); err == nil || errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("attempt %d: expected plain upload error, got %v", i, err)
		}
	}
	_, err := store.Upload(ctx, "covers/a.png", "image/png", pngHeader)
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected breaker to reject, got %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("open breaker must not call S3, calls = %d", fake.calls)
	}
}

func TestMemoryCoverStore(t *testing.T) {
	store := NewMemoryCoverStore("")
	url, err := store.Upload(context.Background(), "covers/a b.png", "image/png", pngHeader)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "memory://covers/covers/a_b.png" {
		t.Errorf("url = %s", url)
	}
	obj, ok := store.Object("covers/a_b.png")
	if !ok || obj.ContentType != "image/png" || store.Len() != 1 {
		t.Errorf("object not stored: %+v ok=%v", obj, ok)
	}
}
