package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/changzer/choppy/shared/exception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.body = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(objects objectAPI) *S3Store {
	return &S3Store{
		objects: objects,
		bucket:  "avatars",
		ttl:     time.Minute,
		now:     func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) },
		newID:   func() string { return "0f8e" },
	}
}

func TestObjectKey(t *testing.T) {
	store := newTestStore(&fakeObjects{})
	assert.Equal(t, "avatars/2024/03/09/0f8e.png", store.ObjectKey("Me.PNG"))
	assert.Equal(t, "avatars/2024/03/09/0f8e", store.ObjectKey("noext"))
}

func TestPutAvatar(t *testing.T) {
	objects := &fakeObjects{}
	store := newTestStore(objects)

	key, err := store.PutAvatar(context.Background(), "me.jpg", "image/jpeg", 4, strings.NewReader("jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "avatars/2024/03/09/0f8e.jpg", key)
	assert.Equal(t, "avatars", aws.ToString(objects.input.Bucket))
	assert.Equal(t, key, aws.ToString(objects.input.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(objects.input.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(objects.input.ContentLength))
	assert.Equal(t, "jpeg", objects.body)
}

func TestPutAvatarError(t *testing.T) {
	store := newTestStore(&fakeObjects{err: errors.New("connection refused")})

	_, err := store.PutAvatar(context.Background(), "me.jpg", "", 0, strings.NewReader("x"))
	assert.ErrorContains(t, err, "connection refused")
}

func TestAvatarURLWithoutPresigner(t *testing.T) {
	store := newTestStore(&fakeObjects{})
	_, err := store.AvatarURL(context.Background(), "k")
	assert.ErrorIs(t, err, exception.ErrIllegalState)
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured{}.PutAvatar(context.Background(), "a.png", "", 0, nil)
	assert.ErrorIs(t, err, exception.ErrIllegalState)
	_, err = Unconfigured{}.AvatarURL(context.Background(), "a")
	assert.ErrorIs(t, err, exception.ErrIllegalState)
}
