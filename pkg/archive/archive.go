package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

var (
	ErrExists      = errors.New("archive already exists")
	ErrNotFound    = errors.New("archive not found")
	ErrInvalidName = errors.New("invalid archive name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*\.zip$`)

func ValidName(name string) bool {
	return validName.MatchString(name) && !strings.Contains(name, "..")
}

// Member is one file inside an archive.
type Member struct {
	Name string
	Data []byte
}

type Object struct {
	Name     string
	Location string
	Size     int
}

type Store interface {
	// Put writes a new archive and returns ErrExists if the name is taken.
	Put(ctx context.Context, name string, data []byte) (Object, error)
	// DownloadURL returns a direct link, or "" when the archive is only
	// reachable through Opener.
	DownloadURL(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, name string) error
}

// Opener is implemented by stores that can stream archives themselves.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
}

// Sweeper is implemented by stores that need retention applied by the app.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// Build writes members in order into a deflate compressed zip.
func Build(members []Member, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, m := range members {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:     m.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(m.Data); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Read returns the members of a zip in stored order.
func Read(data []byte) ([]Member, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: f.Name, Data: body})
	}

	return members, nil
}
