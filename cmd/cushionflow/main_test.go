package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadImageDetectsPNG(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	path := filepath.Join(t.TempDir(), "chat.png")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	data, mimeType, err := readImage(path, "")
	if err != nil {
		t.Fatalf("readImage() error = %v", err)
	}
	if !bytes.Equal(data, png) || mimeType != "image/png" {
		t.Fatalf("unexpected image: %q %v", mimeType, data)
	}

	_, mimeType, err = readImage(path, " image/webp ")
	if err != nil {
		t.Fatalf("readImage() error = %v", err)
	}
	if mimeType != "image/webp" {
		t.Fatalf("explicit media type not used: %q", mimeType)
	}
}

func TestReadImageMissingFile(t *testing.T) {
	if _, _, err := readImage(filepath.Join(t.TempDir(), "nope.png"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOptionsCommandPrintsEnumerations(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"options"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got struct {
		RecipientStyles       []string `json:"recipientStyles"`
		DefaultRecipientStyle string   `json:"defaultRecipientStyle"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, out.String())
	}
	if len(got.RecipientStyles) != 16 || got.DefaultRecipientStyle != "INFP" {
		t.Fatalf("unexpected options: %+v", got)
	}
}
