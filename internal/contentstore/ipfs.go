package contentstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"go.uber.org/zap"
)

// MaxBlobSize bounds a single fetch. Metadata documents are a few hundred bytes.
const MaxBlobSize = 1 << 20

// IPFS talks to an IPFS node through its HTTP API.
type IPFS struct {
	sh     *shell.Shell
	url    string
	logger *zap.SugaredLogger
}

// NewIPFS connects to the HTTP API at url, e.g. http://localhost:5001.
func NewIPFS(url string, timeout time.Duration, logger *zap.SugaredLogger) *IPFS {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	client := &http.Client{Timeout: timeout}
	return &IPFS{
		sh:     shell.NewShellWithClient(url, client),
		url:    url,
		logger: logger,
	}
}

// Fetch returns the bytes stored under locator, a CID or /ipfs/ path.
func (s *IPFS) Fetch(ctx context.Context, locator string) ([]byte, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, ErrEmptyLocator
	}

	resp, err := s.sh.Request("cat", locator).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cat %s: %w", locator, err)
	}
	defer resp.Close()
	if resp.Error != nil {
		return nil, fmt.Errorf("failed to cat %s: %w", locator, resp.Error)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Output, MaxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", locator, err)
	}
	if len(data) > MaxBlobSize {
		return nil, fmt.Errorf("content %s exceeds %d bytes", locator, MaxBlobSize)
	}

	s.logger.Debugw("Fetched content", "cid", locator, "bytes", len(data))
	return data, nil
}

// Put adds and pins data and returns its CID.
func (s *IPFS) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cid, err := s.sh.Add(bytes.NewReader(data), shell.Pin(true))
	if err != nil {
		return "", fmt.Errorf("failed to add content to %s: %w", s.url, err)
	}

	s.logger.Infow("Published content", "cid", cid, "bytes", len(data))
	return cid, nil
}

var _ Store = (*IPFS)(nil)
