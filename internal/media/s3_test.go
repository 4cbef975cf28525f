package media

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, io.EOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testStore(fake *fakeS3) *Store {
	return &Store{
		cfg:    Config{Bucket: "media", PublicURL: "https://cdn.bykirken.no/"},
		client: fake,
	}
}

func TestUploadAndFetch(t *testing.T) {
	fake := newFakeS3()
	st := testStore(fake)
	ctx := context.Background()

	key, err := st.Upload(ctx, "sermons", "preken.MP3", "audio/mpeg", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(key, "sermons/") {
		t.Errorf("key = %q, want sermons/ prefix", key)
	}
	if !strings.HasSuffix(key, ".mp3") {
		t.Errorf("key = %q, want lowercased extension", key)
	}

	body, err := st.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "audio-bytes" {
		t.Errorf("body = %q", data)
	}
}

func TestDelete(t *testing.T) {
	fake := newFakeS3()
	st := testStore(fake)
	ctx := context.Background()

	key, err := st.Upload(ctx, "events", "cover.jpg", "image/jpeg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := fake.objects[key]; ok {
		t.Error("object should be gone")
	}
}

func TestPublicURL(t *testing.T) {
	st := testStore(newFakeS3())

	got := st.PublicURL("sermons/abc.mp3")
	if got != "https://cdn.bykirken.no/sermons/abc.mp3" {
		t.Errorf("url = %q", got)
	}
}

func TestUnconfigured(t *testing.T) {
	st := NewStore(Config{})
	if st.Configured() {
		t.Error("empty config should not be configured")
	}
	if _, err := st.Upload(context.Background(), "x", "y.jpg", "image/jpeg", strings.NewReader("")); err == nil {
		t.Error("expected error when unconfigured")
	}
}
