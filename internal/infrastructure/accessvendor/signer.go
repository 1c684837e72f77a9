package accessvendor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderAppKey    = "X-Ca-Key"
	HeaderTimestamp = "X-Ca-Timestamp"
	HeaderNonce     = "X-Ca-Nonce"
	HeaderSignature = "X-Ca-Signature"
)

// Signer builds the HMAC-SHA256 headers the vendor requires on the token
// endpoint.
type Signer struct {
	now   func() time.Time
	nonce func() string
}

func NewSigner() Signer {
	return Signer{now: time.Now, nonce: uuid.NewString}
}

// StringToSign is method, path, timestamp (ms), nonce and app key joined by
// newlines.
func StringToSign(method, path, timestamp, nonce, appKey string) string {
	return strings.Join([]string{strings.ToUpper(method), path, timestamp, nonce, appKey}, "\n")
}

func Signature(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Sign sets the authentication headers on req.
func (s Signer) Sign(req *http.Request, appKey, appSecret string) {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	nonce := s.nonce()
	payload := StringToSign(req.Method, req.URL.Path, ts, nonce, appKey)

	req.Header.Set(HeaderAppKey, appKey)
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderSignature, Signature(appSecret, payload))
}
