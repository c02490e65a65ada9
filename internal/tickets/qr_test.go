package tickets

import (
	"bytes"
	"testing"
)

func TestGenerateQR(t *testing.T) {
	qrBytes, err := GenerateQR("event1", "ABCD2345")
	if err != nil {
		t.Fatalf("Failed to generate QR code: %v", err)
	}

	if len(qrBytes) == 0 {
		t.Error("Generated QR code is empty")
	}

	// The output must be a PNG image
	pngHeader := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(qrBytes, pngHeader) {
		t.Error("Expected QR code output to be a PNG image")
	}
}

func TestGenerateQRDifferentCodes(t *testing.T) {
	qr1, err := GenerateQR("event1", "ABCD2345")
	if err != nil {
		t.Fatalf("Failed to generate first QR code: %v", err)
	}

	qr2, err := GenerateQR("event1", "WXYZ6789")
	if err != nil {
		t.Fatalf("Failed to generate second QR code: %v", err)
	}

	if bytes.Equal(qr1, qr2) {
		t.Error("QR codes for different ticket codes should be different")
	}
}
