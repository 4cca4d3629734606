package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwwzy/PantryAgent/internal/contract"
)

func TestClassify_Table(t *testing.T) {
	for _, ext := range []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm"} {
		c, err := Classify("clip." + ext)
		require.NoError(t, err, ext)
		assert.Equal(t, KindAudio, c.Kind, ext)
	}
	for _, ext := range []string{"jpg", "jpeg", "png", "gif", "webp"} {
		c, err := Classify("/tmp/photo." + ext)
		require.NoError(t, err, ext)
		assert.Equal(t, KindImage, c.Kind, ext)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c, err := Classify(" Voice.WAV ")
	require.NoError(t, err)
	assert.Equal(t, KindAudio, c.Kind)
}

func TestClassify_Unsupported(t *testing.T) {
	for _, p := range []string{"clip.avi", "note.ogg", "archive", "doc.pdf", ""} {
		_, err := Classify(p)
		assert.ErrorIs(t, err, contract.ErrUnsupportedMediaKind, p)
	}
}

func TestNewRef(t *testing.T) {
	ref, err := NewRef("shelf.png")
	require.NoError(t, err)
	assert.Equal(t, &Ref{Path: "shelf.png", Kind: KindImage}, ref)

	_, err = NewRef("clip.avi")
	assert.ErrorIs(t, err, contract.ErrUnsupportedMediaKind)
}

func writeSized(t *testing.T, name string, size int64) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return p
}

func TestValidate_Order(t *testing.T) {
	// 不存在的文件即使格式错误也报 FileNotFound
	_, err := AudioClass.Validate(filepath.Join(t.TempDir(), "missing.avi"))
	assert.ErrorIs(t, err, contract.ErrFileNotFound)

	// 格式错误优先于大小
	big := writeSized(t, "huge.png", 30*megabyte)
	_, err = AudioClass.Validate(big)
	assert.ErrorIs(t, err, contract.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "mp3, mp4, mpeg, mpga, m4a, wav, webm")

	_, err = ImageClass.Validate(big)
	assert.ErrorIs(t, err, contract.ErrFileTooLarge)
	assert.Contains(t, err.Error(), "30.00 MB")
	assert.Contains(t, err.Error(), "20 MB")
}

func TestValidate_OK(t *testing.T) {
	p := writeSized(t, "clip.wav", 2*megabyte)
	info, err := AudioClass.Validate(p)
	require.NoError(t, err)
	assert.Equal(t, int64(2*megabyte), info.Size())

	exact := writeSized(t, "limit.jpg", 20*megabyte)
	_, err = ImageClass.Validate(exact)
	assert.NoError(t, err)
}

func TestValidate_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "folder.wav")
	require.NoError(t, os.Mkdir(dir, 0o755))
	_, err := AudioClass.Validate(dir)
	assert.True(t, errors.Is(err, contract.ErrFileNotFound))
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMEType("a.jpg"))
	assert.Equal(t, "image/webp", MIMEType("a.WEBP"))
	assert.Equal(t, "audio/wav", MIMEType("a.wav"))
	assert.Equal(t, "application/octet-stream", MIMEType("a.bin"))
}
