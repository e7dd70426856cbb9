package media

import (
	"encoding/hex"
	"strings"
	"sync"

	"lukechampine.com/blake3"
)

const blobURLPrefix = "blob:rehearse/"

// Blob is a finalized recording.
type Blob struct {
	Data     []byte
	MIMEType string
	URL      string
}

// Empty reports whether the recording captured nothing.
func (b Blob) Empty() bool {
	return len(b.Data) == 0 || (b.MIMEType == MIMEWAV && len(b.Data) <= wavHeaderSize)
}

// IsAudio reports whether the blob carries a plain audio payload.
func (b Blob) IsAudio() bool {
	return strings.HasPrefix(b.MIMEType, "audio/")
}

// Library keeps this process's blobs addressable by URL.
type Library struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewLibrary() *Library {
	return &Library{blobs: map[string]Blob{}}
}

// Put registers data and returns the blob with its URL.
func (l *Library) Put(data []byte, mimeType string) Blob {
	blob := Blob{Data: data, MIMEType: mimeType, URL: BlobURL(data)}
	l.mu.Lock()
	l.blobs[blob.URL] = blob
	l.mu.Unlock()
	return blob
}

func (l *Library) Get(url string) (Blob, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	blob, ok := l.blobs[url]
	return blob, ok
}

// Drop forgets one blob.
func (l *Library) Drop(url string) {
	l.mu.Lock()
	delete(l.blobs, url)
	l.mu.Unlock()
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blobs)
}

// Reset forgets all blobs.
func (l *Library) Reset() {
	l.mu.Lock()
	l.blobs = map[string]Blob{}
	l.mu.Unlock()
}

// BlobURL derives a content-addressed URL from the first 16 bytes of the blake3 digest.
func BlobURL(data []byte) string {
	hasher := blake3.New(32, nil)
	_, _ = hasher.Write(data)
	sum := hasher.Sum(nil)
	return blobURLPrefix + hex.EncodeToString(sum[:16])
}
