package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

// ── API Source ──────────────────────────────────────────────
// Fetches a JSON document from a REST endpoint and normalises it into a
// flat table: one row per record, nested objects flattened into dot-joined
// column names.

const maxAPIResponseBytes = 64 << 20

// APISource fetches records from a fixed URL.
type APISource struct {
	URL      string
	DataPath string // optional dot-separated path to the records array
	Timeout  time.Duration
	Client   *http.Client
}

// NewAPISource returns an api source for url.
func NewAPISource(url, dataPath string, timeout time.Duration) *APISource {
	return &APISource{
		URL:      url,
		DataPath: dataPath,
		Timeout:  timeout,
		Client:   &http.Client{},
	}
}

func (s *APISource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  etl.SourceAPI,
		Label: "HTTP API",
		ConfigFields: []etl.ConfigField{
			{Key: "url", Label: "URL", Value: s.URL, Help: "Endpoint fetched with GET"},
			{Key: "dataPath", Label: "Data Path", Value: s.DataPath, Help: "Dot-separated path to the records array (e.g. 'data.items')"},
			{Key: "timeout", Label: "Timeout", Value: s.Timeout.String()},
		},
	}
}

func (s *APISource) Extract(ctx context.Context) (*etl.Dataset, error) {
	if s.URL == "" {
		return nil, domain.ErrValidation("api source url is not configured")
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{
			Message: "request " + s.URL,
			Timeout: isTimeout(ctx, err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &domain.UpstreamError{
			Message: fmt.Sprintf("upstream %s returned %d: %s", s.URL, resp.StatusCode, strings.TrimSpace(string(body))),
			Status:  resp.StatusCode,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, &domain.UpstreamError{
			Message: "read response body",
			Status:  resp.StatusCode,
			Timeout: isTimeout(ctx, err),
			Err:     err,
		}
	}

	ds, err := NormalizeJSON(data, s.DataPath)
	if err != nil {
		return nil, &domain.UpstreamError{Message: "decode response", Status: resp.StatusCode, Err: err}
	}
	return ds, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ── Normalisation ──────────────────────────────────────────

// NormalizeJSON flattens a JSON array of objects (or a single object) into a
// dataset. Nested objects become dot-joined columns, arrays are kept as JSON
// text, keys missing from a record become null. Columns appear in the order
// their keys are first seen.
func NormalizeJSON(data []byte, dataPath string) (*etl.Dataset, error) {
	var keys []string
	if dataPath != "" {
		keys = strings.Split(dataPath, ".")
	}
	value, typ, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		if dataPath != "" && errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, fmt.Errorf("data path %q not found", dataPath)
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}

	c := newCollector()
	switch typ {
	case jsonparser.Array:
		var recErr error
		i := 0
		_, err = jsonparser.ArrayEach(value, func(item []byte, t jsonparser.ValueType, _ int, _ error) {
			defer func() { i++ }()
			if recErr != nil {
				return
			}
			if t != jsonparser.Object {
				recErr = fmt.Errorf("record %d is a %s, expected an object", i, t)
				return
			}
			recErr = c.addRecord(item)
		})
		if err == nil {
			err = recErr
		}
	case jsonparser.Object:
		err = c.addRecord(value)
	default:
		err = fmt.Errorf("expected a JSON array or object, got %s", typ)
	}
	if err != nil {
		return nil, err
	}
	return c.dataset()
}

// collector accumulates flattened records while tracking key order.
type collector struct {
	names []string
	seen  map[string]bool
	rows  []map[string]any
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

func (c *collector) addRecord(obj []byte) error {
	row := make(map[string]any)
	if err := c.flatten("", obj, row); err != nil {
		return err
	}
	c.rows = append(c.rows, row)
	return nil
}

func (c *collector) flatten(prefix string, obj []byte, row map[string]any) error {
	return jsonparser.ObjectEach(obj, func(key, value []byte, t jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return fmt.Errorf("parse key: %w", err)
		}
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		if t == jsonparser.Object {
			return c.flatten(name, value, row)
		}

		v, err := scalarValue(value, t)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if !c.seen[name] {
			c.seen[name] = true
			c.names = append(c.names, name)
		}
		row[name] = v
		return nil
	})
}

func scalarValue(value []byte, t jsonparser.ValueType) (any, error) {
	switch t {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number:
		if n, err := strconv.ParseInt(string(value), 10, 64); err == nil {
			return n, nil
		}
		return jsonparser.ParseFloat(value)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Array:
		return string(value), nil
	default:
		return nil, fmt.Errorf("unexpected json value type %s", t)
	}
}

func (c *collector) dataset() (*etl.Dataset, error) {
	rows := make([][]any, len(c.rows))
	for i, rec := range c.rows {
		row := make([]any, len(c.names))
		for j, name := range c.names {
			row[j] = rec[name]
		}
		rows[i] = row
	}
	return etl.NewDatasetFromRows(c.names, rows)
}
