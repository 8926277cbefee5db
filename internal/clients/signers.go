package clients

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func signHMAC256Hex(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func signHMAC256Base64(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CoinbaseSigner signs Coinbase v2 API key requests:
// hex(HMAC-SHA256(secret, timestamp + METHOD + requestPath + body)).
type CoinbaseSigner struct {
	apiKey     string
	apiSecret  string
	apiVersion string
	now        func() time.Time
}

// NewCoinbaseSigner creates a signer pinned to an API version.
func NewCoinbaseSigner(apiKey, apiSecret string) *CoinbaseSigner {
	return &CoinbaseSigner{apiKey: apiKey, apiSecret: apiSecret, apiVersion: "2021-02-18", now: time.Now}
}

func (s *CoinbaseSigner) Sign(req *http.Request, body []byte) error {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	message := ts + req.Method + req.URL.RequestURI() + string(body)

	req.Header.Set("CB-VERSION", s.apiVersion)
	req.Header.Set("CB-ACCESS-KEY", s.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", signHMAC256Hex(message, s.apiSecret))
	req.Header.Set("CB-ACCESS-TIMESTAMP", ts)
	return nil
}

// KucoinSigner signs KuCoin v2 API key requests. Both the request and the
// passphrase are signed with the secret.
type KucoinSigner struct {
	apiKey     string
	apiSecret  string
	passphrase string
	now        func() time.Time
}

// NewKucoinSigner creates a KuCoin signer.
func NewKucoinSigner(apiKey, apiSecret, passphrase string) *KucoinSigner {
	return &KucoinSigner{apiKey: apiKey, apiSecret: apiSecret, passphrase: passphrase, now: time.Now}
}

func (s *KucoinSigner) Sign(req *http.Request, body []byte) error {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	message := ts + req.Method + req.URL.RequestURI() + string(body)

	req.Header.Set("KC-API-KEY", s.apiKey)
	req.Header.Set("KC-API-SIGN", signHMAC256Base64(message, s.apiSecret))
	req.Header.Set("KC-API-TIMESTAMP", ts)
	req.Header.Set("KC-API-PASSPHRASE", signHMAC256Base64(s.passphrase, s.apiSecret))
	req.Header.Set("KC-API-KEY-VERSION", "2")
	return nil
}

// NewtonSigner signs Newton requests:
// clientID:base64(HMAC-SHA256(secret, METHOD:contentType:path:sha256(body):timestamp)).
type NewtonSigner struct {
	clientID     string
	clientSecret string
	now          func() time.Time
}

// NewNewtonSigner creates a Newton signer.
func NewNewtonSigner(clientID, clientSecret string) *NewtonSigner {
	return &NewtonSigner{clientID: clientID, clientSecret: clientSecret, now: time.Now}
}

func (s *NewtonSigner) Sign(req *http.Request, body []byte) error {
	ts := strconv.FormatInt(s.now().Unix(), 10)

	var contentType, hashedBody string
	if len(body) > 0 {
		contentType = req.Header.Get("Content-Type")
		sum := sha256.Sum256(body)
		hashedBody = hex.EncodeToString(sum[:])
	}

	message := strings.Join([]string{req.Method, contentType, req.URL.Path, hashedBody, ts}, ":")

	req.Header.Set("NewtonAPIAuth", s.clientID+":"+signHMAC256Base64(message, s.clientSecret))
	req.Header.Set("NewtonDate", ts)
	return nil
}
