package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v81/github"
)

// ErrNotAFile is returned when the requested path is a directory.
var ErrNotAFile = errors.New("path is not a file")

// Source identifies a file in a repository.
type Source struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // branch, tag or commit; empty means the default branch
}

func (s Source) String() string {
	if s.Ref == "" {
		return fmt.Sprintf("%s/%s/%s", s.Owner, s.Repo, s.Path)
	}
	return fmt.Sprintf("%s/%s/%s@%s", s.Owner, s.Repo, s.Path, s.Ref)
}

// FetchedFile is a downloaded file.
type FetchedFile struct {
	Path     string // where it was written
	Size     int64
	BlobSHA  string // git blob sha reported by GitHub
	Checksum string // hex sha256 of the bytes written
}

// Fetcher downloads single files from GitHub repositories
type Fetcher struct {
	client *Client
}

// NewFetcher creates a new file fetcher
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads src and writes it to dest atomically: the file is written
// next to dest and renamed once complete, so an interrupted download never
// leaves a truncated dataset behind.
func (f *Fetcher) Fetch(ctx context.Context, src Source, dest string) (*FetchedFile, error) {
	body, sha, err := f.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".dataset-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), body)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to download %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}

	return &FetchedFile{
		Path:     dest,
		Size:     n,
		BlobSHA:  sha,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// open returns the file body. Files up to 1MB come inline from the contents
// API; larger ones are streamed from their download URL.
func (f *Fetcher) open(ctx context.Context, src Source) (io.ReadCloser, string, error) {
	var opts *github.RepositoryContentGetOptions
	if src.Ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: src.Ref}
	}

	fileContent, dirContents, _, err := f.client.Repositories.GetContents(ctx, src.Owner, src.Repo, src.Path, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get content of %s: %w", src, err)
	}
	if fileContent == nil {
		if dirContents != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNotAFile, src)
		}
		return nil, "", fmt.Errorf("no file content returned for %s", src)
	}

	if fileContent.GetEncoding() == "base64" && fileContent.Content != nil {
		content, err := fileContent.GetContent()
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode content of %s: %w", src, err)
		}
		return io.NopCloser(strings.NewReader(content)), fileContent.GetSHA(), nil
	}

	body, _, err := f.client.Repositories.DownloadContents(ctx, src.Owner, src.Repo, src.Path, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", src, err)
	}
	return body, fileContent.GetSHA(), nil
}
