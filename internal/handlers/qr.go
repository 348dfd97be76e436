package handlers

import (
	"net/http"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// UPIQR serves the payment QR. Scanning it opens the UPI app with the
// configured payee preselected.
func UPIQR(upiID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if upiID == "" {
			http.NotFound(w, r)
			return
		}
		uri := "upi://pay?pa=" + url.QueryEscape(upiID)

		png, err := qrcode.Encode(uri, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to generate qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
