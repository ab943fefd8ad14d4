// Package auth provides JWT verification helpers.
package auth

import (
    "crypto"
    "crypto/hmac"
    "crypto/rsa"
    "crypto/sha256"
    "encoding/base64"
    "encoding/json"
    "errors"
    "math/big"
    "net/http"
    "strings"
    "sync"
    "time"
)

// Verifier validates bearer tokens and extracts carrier/role claims.
// Modes: dev (no verify, token is "carrier:role"), hmac (HS256),
// jwks (RS256 against a JWKS URL).
type Verifier struct {
    Mode         string
    HMACSecret   []byte
    JWKSURL      string
    CarrierClaim string
    RoleClaim    string
    DriverClaim  string
    http         *http.Client
    mu           sync.RWMutex
    jwks         jwks
    lastFetch    time.Time
    cacheTTL     time.Duration
}

type jwks struct {
    Keys []jwk `json:"keys"`
}
type jwk struct {
    Kty string `json:"kty"`
    Kid string `json:"kid"`
    N   string `json:"n"`
    E   string `json:"e"`
    Alg string `json:"alg"`
}

type Principal struct {
    Carrier  string
    Role     string
    DriverID string
}

func NewVerifier(mode, hmacSecret, jwksURL string) *Verifier {
    mode = strings.ToLower(strings.TrimSpace(mode))
    if mode == "" {
        mode = "dev"
    }
    return &Verifier{
        Mode:         mode,
        HMACSecret:   []byte(hmacSecret),
        JWKSURL:      jwksURL,
        CarrierClaim: "carrier",
        RoleClaim:    "role",
        DriverClaim:  "sub",
        http:         &http.Client{Timeout: 5 * time.Second},
        cacheTTL:     10 * time.Minute,
    }
}

func (v *Verifier) Verify(token string) (Principal, error) {
    if v.Mode == "dev" {
        parts := strings.Split(token, ":")
        if len(parts) >= 2 {
            return Principal{Carrier: parts[0], Role: parts[1]}, nil
        }
        return Principal{}, errors.New("invalid dev token; expected carrier:role")
    }
    segs := strings.Split(token, ".")
    if len(segs) != 3 {
        return Principal{}, errors.New("invalid JWT")
    }
    headerJSON, err := b64urlDecode(segs[0])
    if err != nil {
        return Principal{}, err
    }
    payloadJSON, err := b64urlDecode(segs[1])
    if err != nil {
        return Principal{}, err
    }
    sig, err := b64urlDecode(segs[2])
    if err != nil {
        return Principal{}, err
    }
    var hdr map[string]any
    if err := json.Unmarshal(headerJSON, &hdr); err != nil {
        return Principal{}, err
    }
    var claims map[string]any
    if err := json.Unmarshal(payloadJSON, &claims); err != nil {
        return Principal{}, err
    }
    alg, _ := hdr["alg"].(string)
    kid, _ := hdr["kid"].(string)
    signingInput := []byte(segs[0] + "." + segs[1])
    switch v.Mode {
    case "hmac":
        if alg != "HS256" {
            return Principal{}, errors.New("unsupported alg for hmac")
        }
        mac := hmac.New(sha256.New, v.HMACSecret)
        mac.Write(signingInput)
        if !hmac.Equal(mac.Sum(nil), sig) {
            return Principal{}, errors.New("bad signature")
        }
    case "jwks":
        if alg != "RS256" {
            return Principal{}, errors.New("unsupported alg for jwks")
        }
        pub, err := v.getRSAPublicKey(kid)
        if err != nil {
            return Principal{}, err
        }
        h := sha256.Sum256(signingInput)
        if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig); err != nil {
            return Principal{}, errors.New("bad signature")
        }
    default:
        return Principal{}, errors.New("unsupported auth mode")
    }
    if exp, ok := claims["exp"].(float64); ok && time.Now().Unix() > int64(exp) {
        return Principal{}, errors.New("token expired")
    }
    carrier, _ := claims[v.CarrierClaim].(string)
    role, _ := claims[v.RoleClaim].(string)
    driver, _ := claims[v.DriverClaim].(string)
    if carrier == "" {
        return Principal{}, errors.New("missing carrier claim")
    }
    if role == "" {
        role = "driver"
    }
    return Principal{Carrier: carrier, Role: strings.ToLower(role), DriverID: driver}, nil
}

func b64urlDecode(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

func (v *Verifier) getRSAPublicKey(kid string) (*rsa.PublicKey, error) {
    v.mu.RLock()
    cached := v.jwks
    stale := time.Since(v.lastFetch) > v.cacheTTL
    v.mu.RUnlock()
    if len(cached.Keys) == 0 || stale {
        if err := v.fetchJWKS(); err != nil {
            return nil, err
        }
        v.mu.RLock()
        cached = v.jwks
        v.mu.RUnlock()
    }
    for _, k := range cached.Keys {
        if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
            nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
            if err != nil {
                return nil, err
            }
            eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
            if err != nil {
                return nil, err
            }
            var e int
            for _, b := range eBytes {
                e = (e << 8) | int(b)
            }
            n := new(big.Int).SetBytes(nBytes)
            return &rsa.PublicKey{N: n, E: e}, nil
        }
    }
    return nil, errors.New("kid not found in JWKS")
}

func (v *Verifier) fetchJWKS() error {
    if v.JWKSURL == "" {
        return errors.New("jwks url not configured")
    }
    req, _ := http.NewRequest(http.MethodGet, v.JWKSURL, nil)
    resp, err := v.http.Do(req)
    if err != nil {
        return err
    }
    defer func() { _ = resp.Body.Close() }()
    var j jwks
    if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
        return err
    }
    v.mu.Lock()
    v.jwks = j
    v.lastFetch = time.Now()
    v.mu.Unlock()
    return nil
}
