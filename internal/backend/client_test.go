package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptveil/promptveil/internal/page"
)

func TestScanText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scan" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("wrong content type: %s", ct)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if in["text"] != "call me at 010-1234-5678" {
			t.Errorf("wrong text: %q", in["text"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":            true,
			"original_text": in["text"],
			"redacted_text": "call me at [PHONE]",
			"entities": []map[string]any{
				{"type": "PHONE", "value": "010-1234-5678", "start": 11, "end": 24},
			},
			"types": []string{"PHONE"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	res, err := c.ScanText(context.Background(), "call me at 010-1234-5678")
	if err != nil {
		t.Fatalf("ScanText failed: %v", err)
	}
	if res.RedactedText != "call me at [PHONE]" {
		t.Errorf("wrong redacted text: %q", res.RedactedText)
	}
	if res.OriginalText != "call me at 010-1234-5678" {
		t.Errorf("wrong original text: %q", res.OriginalText)
	}
	if len(res.Entities) != 1 || res.Entities[0].Type != "PHONE" {
		t.Errorf("wrong entities: %v", res.Entities)
	}
}

func TestScanTextServiceRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "text too long"})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 0).ScanText(context.Background(), "x"); err == nil {
		t.Fatal("expected an error for ok=false")
	}
}

func TestScanTextHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 0).ScanText(context.Background(), "x"); err == nil {
		t.Fatal("expected an error for HTTP 500")
	}
}

func TestMaskImageSendsTuningFields(t *testing.T) {
	masked := []byte{0xFF, 0xD8, 0x01, 0x02}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr-mask" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("bad multipart body: %v", err)
		}
		for field, want := range map[string]string{
			"langs":       "eng+kor",
			"fast":        "true",
			"max_side":    "1200",
			"relaxed":     "true",
			"upscale":     "1.3",
			"conf":        "25",
			"name_conf":   "8",
			"name_mode":   "loose",
			"cardnum_pad": "24",
			"blur_margin": "20",
			"blur_ksize":  "61",
		} {
			if got := r.FormValue(field); got != want {
				t.Errorf("field %s: got %q, want %q", field, got, want)
			}
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "card.jpg" {
			t.Errorf("wrong filename: %s", hdr.Filename)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":            true,
			"masked_base64": base64.StdEncoding.EncodeToString(masked),
			"masked_mime":   "image/jpeg",
			"masked_name":   "masked_card.jpg",
			"types":         []string{"CC"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	res, err := c.MaskImage(context.Background(), page.File{
		Name: "card.jpg",
		MIME: "image/jpeg",
		Data: []byte{0xFF, 0xD8},
	})
	if err != nil {
		t.Fatalf("MaskImage failed: %v", err)
	}
	if !bytes.Equal(res.Redacted.Data, masked) {
		t.Errorf("masked bytes corrupted: %v", res.Redacted.Data)
	}
	if res.Redacted.Name != "masked_card.jpg" || res.Redacted.MIME != "image/jpeg" {
		t.Errorf("wrong redacted file meta: %+v", res.Redacted)
	}
	if res.Original.Name != "card.jpg" {
		t.Errorf("original not carried: %+v", res.Original)
	}
}

func TestMaskFilePreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file-mask" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":            true,
			"masked_base64": base64.StdEncoding.EncodeToString([]byte("a,[EMAIL]\n")),
			"masked_mime":   "text/csv",
			"masked_name":   "masked_users.csv",
			"original_name": "users.csv",
			"types":         []string{"EMAIL"},
			"total_count":   1,
			"preview": []map[string]any{
				{"kind": "row", "index": 1, "original": "a@b.example", "masked": "[EMAIL]"},
			},
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, 0).MaskFile(context.Background(), page.File{
		Name: "users.csv",
		MIME: "text/csv",
		Data: []byte("a,a@b.example\n"),
	})
	if err != nil {
		t.Fatalf("MaskFile failed: %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("wrong total count: %d", res.TotalCount)
	}
	if len(res.Preview) != 1 || res.Preview[0].Kind != "row" {
		t.Errorf("wrong preview: %v", res.Preview)
	}
}

func TestSubmitReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report/preview_gpt" {
			t.Errorf("wrong path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		if r.PostFormValue("original_text") != "orig" {
			t.Errorf("wrong original_text: %q", r.PostFormValue("original_text"))
		}
		if r.PostFormValue("answer_text") != "ans" {
			t.Errorf("wrong answer_text: %q", r.PostFormValue("answer_text"))
		}
		var types []string
		if err := json.Unmarshal([]byte(r.PostFormValue("types")), &types); err != nil {
			t.Fatalf("types not JSON: %v", err)
		}
		if len(types) != 1 || types[0] != "CC" {
			t.Errorf("wrong types: %v", types)
		}
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).SubmitReport(context.Background(), Report{
		OriginalText: "orig",
		RedactedText: "red",
		AnswerText:   "ans",
		Types:        []string{"CC"},
	})
	if err != nil {
		t.Fatalf("SubmitReport failed: %v", err)
	}
}

func TestDefaultOCROptionsMatchService(t *testing.T) {
	o := DefaultOCROptions()
	if o.Langs != "eng+kor" || o.MaxSide != 1200 || o.BlurKSize != 61 {
		t.Errorf("unexpected defaults: %+v", o)
	}
}
