package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/promptveil/promptveil/internal/page"
)

// DefaultBaseURL is the local redaction service address.
const DefaultBaseURL = "http://127.0.0.1:5000"

const defaultTimeout = 15 * time.Second

// OCROptions are the layout/recognition tuning fields forwarded with an
// image mask request.
type OCROptions struct {
	Langs          string  `yaml:"langs"`
	Fast           bool    `yaml:"fast"`
	MaxSide        int     `yaml:"max_side"`
	Relaxed        bool    `yaml:"relaxed"`
	Upscale        float64 `yaml:"upscale"`
	Conf           float64 `yaml:"conf"`
	NameConf       float64 `yaml:"name_conf"`
	NameMode       string  `yaml:"name_mode"`
	CardNumPad     int     `yaml:"cardnum_pad"`
	BlurMargin     int     `yaml:"blur_margin"`
	BlurKSize      int     `yaml:"blur_ksize"`
	NameBottomOnly bool    `yaml:"name_bottom_only"`
}

// DefaultOCROptions returns the service's documented defaults.
func DefaultOCROptions() OCROptions {
	return OCROptions{
		Langs:      "eng+kor",
		Fast:       true,
		MaxSide:    1200,
		Relaxed:    true,
		Upscale:    1.3,
		Conf:       25,
		NameConf:   8,
		NameMode:   "loose",
		CardNumPad: 24,
		BlurMargin: 20,
		BlurKSize:  61,
	}
}

// Client talks to the redaction service. Stateless and safe for
// concurrent use; the three channel calls of one cycle run in parallel
// through the same client.
type Client struct {
	base string
	http *http.Client
	ocr  OCROptions
}

// NewClient creates a client for the service at base. An empty base
// uses DefaultBaseURL; a zero timeout uses the default.
func NewClient(base string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
		ocr:  DefaultOCROptions(),
	}
}

// SetOCROptions overrides the image-mask tuning fields.
func (c *Client) SetOCROptions(o OCROptions) { c.ocr = o }

// BaseURL returns the service address the client targets.
func (c *Client) BaseURL() string { return c.base }

// ScanText runs text redaction. The returned result carries the
// original and redacted text plus detected entities and types.
func (c *Client) ScanText(ctx context.Context, text string) (*ScanResult, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/scan", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp scanResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("scan rejected: %s", resp.Error)
	}

	return &ScanResult{
		OriginalText: resp.OriginalText,
		RedactedText: resp.RedactedText,
		Entities:     resp.Entities,
		Types:        resp.Types,
	}, nil
}

// MaskImage runs image redaction over the service's OCR pipeline.
func (c *Client) MaskImage(ctx context.Context, f page.File) (*MaskResult, error) {
	fields := map[string]string{
		"langs":            c.ocr.Langs,
		"fast":             strconv.FormatBool(c.ocr.Fast),
		"max_side":         strconv.Itoa(c.ocr.MaxSide),
		"relaxed":          strconv.FormatBool(c.ocr.Relaxed),
		"upscale":          strconv.FormatFloat(c.ocr.Upscale, 'f', -1, 64),
		"conf":             strconv.FormatFloat(c.ocr.Conf, 'f', -1, 64),
		"name_conf":        strconv.FormatFloat(c.ocr.NameConf, 'f', -1, 64),
		"name_mode":        c.ocr.NameMode,
		"cardnum_pad":      strconv.Itoa(c.ocr.CardNumPad),
		"blur_margin":      strconv.Itoa(c.ocr.BlurMargin),
		"blur_ksize":       strconv.Itoa(c.ocr.BlurKSize),
		"name_bottom_only": strconv.FormatBool(c.ocr.NameBottomOnly),
	}
	res, err := c.mask(ctx, "/ocr-mask", f, fields)
	if err != nil {
		return nil, fmt.Errorf("ocr-mask: %w", err)
	}
	return res, nil
}

// MaskFile runs structured-data-file redaction (csv/json/jsonl).
func (c *Client) MaskFile(ctx context.Context, f page.File) (*MaskResult, error) {
	res, err := c.mask(ctx, "/file-mask", f, nil)
	if err != nil {
		return nil, fmt.Errorf("file-mask: %w", err)
	}
	return res, nil
}

func (c *Client) mask(ctx context.Context, path string, f page.File, fields map[string]string) (*MaskResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(f.Data); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp maskResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("rejected: %s", resp.Error)
	}

	masked, err := base64.StdEncoding.DecodeString(resp.MaskedBase64)
	if err != nil {
		return nil, fmt.Errorf("bad masked payload: %w", err)
	}

	return &MaskResult{
		Original: f,
		Redacted: page.File{
			Name: resp.MaskedName,
			MIME: resp.MaskedMIME,
			Data: masked,
		},
		Types:      resp.Types,
		TotalCount: resp.TotalCount,
		Preview:    resp.Preview,
	}, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("bad response body: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
