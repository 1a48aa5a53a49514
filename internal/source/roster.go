package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/schema"
)

// RosterFetcher 花名册数据来源
type RosterFetcher interface {
	Fetch(ctx context.Context) (*model.Roster, error)
}

// HTTPRosterFetcher 从远端地址拉取花名册文件
type HTTPRosterFetcher struct {
	url        string
	client     *http.Client
	normalizer *schema.Normalizer
}

// NewHTTPRosterFetcher 创建远端花名册来源
func NewHTTPRosterFetcher(url string, normalizer *schema.Normalizer) *HTTPRosterFetcher {
	return &HTTPRosterFetcher{
		url:        url,
		client:     &http.Client{Timeout: 30 * time.Second},
		normalizer: normalizer,
	}
}

// Fetch 拉取并归一花名册
func (f *HTTPRosterFetcher) Fetch(ctx context.Context) (*model.Roster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, errors.SourceUnavailable(f.url, err.Error())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.SourceUnavailable(f.url, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.SourceUnavailable(f.url, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, errors.SourceUnavailable(f.url, err.Error())
	}

	table, err := readBytes(f.url, body)
	if err != nil {
		return nil, err
	}
	return f.normalizer.NormalizeEmployees(table)
}

// FileRosterFetcher 从本地文件读取花名册
type FileRosterFetcher struct {
	path       string
	normalizer *schema.Normalizer
}

// NewFileRosterFetcher 创建本地花名册来源
func NewFileRosterFetcher(path string, normalizer *schema.Normalizer) *FileRosterFetcher {
	return &FileRosterFetcher{path: path, normalizer: normalizer}
}

// Fetch 读取并归一花名册
func (f *FileRosterFetcher) Fetch(ctx context.Context) (*model.Roster, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.SourceUnavailable(f.path, err.Error())
	}
	defer file.Close()

	table, err := ReadTable(f.path, file)
	if err != nil {
		return nil, err
	}
	return f.normalizer.NormalizeEmployees(table)
}

func readBytes(name string, data []byte) (schema.Table, error) {
	return ReadTable(name, bytes.NewReader(data))
}
