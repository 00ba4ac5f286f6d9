package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/ichigozero/taskapi/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	objects      map[string][]byte
	contentTypes map[string]string

	// notFound is returned for missing keys.
	notFound error
}

func newFakeClient(notFound error) *fakeClient {
	return &fakeClient{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		notFound:     notFound,
	}
}

func (c *fakeClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	c.objects[k] = data
	c.contentTypes[k] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := c.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, c.notFound
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (c *fakeClient) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(c.objects, aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestAvatarRepository(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(&types.NoSuchKey{})
	repo := NewAvatarRepository(client, "avatars-bucket")

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, usersvc.ErrAvatarNotFound)

	require.NoError(t, repo.Put(ctx, 1, []byte("png bytes")))
	assert.Contains(t, client.objects, "avatars-bucket/avatars/1.png")
	assert.Equal(t, "image/png", client.contentTypes["avatars-bucket/avatars/1.png"])

	data, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, usersvc.ErrAvatarNotFound)
}

func TestAvatarRepositoryGenericNotFound(t *testing.T) {
	client := newFakeClient(&smithy.GenericAPIError{Code: "NoSuchKey", Message: "The specified key does not exist."})
	repo := NewAvatarRepository(client, "b")

	_, err := repo.Get(context.Background(), 1)
	assert.ErrorIs(t, err, usersvc.ErrAvatarNotFound)
}

func TestAvatarRepositoryOtherErrors(t *testing.T) {
	client := newFakeClient(&smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"})
	repo := NewAvatarRepository(client, "b")

	_, err := repo.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, usersvc.ErrAvatarNotFound)
}
