package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"
)

// Uploader is the part of S3Bucket used for mirroring
type Uploader interface {
	Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) error
}

var downloadClient = &http.Client{Timeout: 30 * time.Second}

// MirrorImages downloads each URL and uploads it under prefix, at most five
// at a time. It returns original URL -> object key for the ones that worked.
func MirrorImages(ctx context.Context, up Uploader, urls []string, prefix string) map[string]string {
	urlToKey := make(map[string]string)
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Limit concurrency
	semaphore := make(chan struct{}, 5)

	for i, url := range urls {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			objectKey := fmt.Sprintf("%s/%d_%s", prefix, i, imageName(url))
			if err := downloadAndUpload(ctx, up, url, objectKey); err != nil {
				return
			}

			mu.Lock()
			urlToKey[url] = objectKey
			mu.Unlock()
		}(i, url)
	}

	wg.Wait()
	return urlToKey
}

func imageName(url string) string {
	name := path.Base(strings.SplitN(url, "?", 2)[0])
	if name == "" || name == "." || name == "/" || len(name) > 200 {
		return "image.jpg"
	}
	return name
}

func downloadAndUpload(ctx context.Context, up Uploader, url, objectKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := downloadClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return up.Upload(ctx, objectKey, bytes.NewReader(bodyBytes), contentType)
}
