package auth

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "testing"
)

func signHS256(t *testing.T, secret, headerJSON, payloadJSON string) string {
    t.Helper()
    enc := base64.RawURLEncoding
    input := enc.EncodeToString([]byte(headerJSON)) + "." + enc.EncodeToString([]byte(payloadJSON))
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(input))
    return input + "." + enc.EncodeToString(mac.Sum(nil))
}

func TestVerifyDevToken(t *testing.T) {
    v := NewVerifier("dev", "", "")
    p, err := v.Verify("car1:dispatcher")
    if err != nil {
        t.Fatal(err)
    }
    if p.Carrier != "car1" || p.Role != "dispatcher" {
        t.Fatalf("unexpected principal: %+v", p)
    }
    if _, err := v.Verify("justonepart"); err == nil {
        t.Fatal("malformed dev token should fail")
    }
}

func TestVerifyHS256(t *testing.T) {
    v := NewVerifier("hmac", "topsecret", "")
    tok := signHS256(t, "topsecret", `{"alg":"HS256","typ":"JWT"}`, `{"carrier":"car1","role":"Driver","sub":"drv7"}`)
    p, err := v.Verify(tok)
    if err != nil {
        t.Fatal(err)
    }
    if p.Carrier != "car1" || p.Role != "driver" || p.DriverID != "drv7" {
        t.Fatalf("unexpected principal: %+v", p)
    }
}

func TestVerifyHS256BadSignature(t *testing.T) {
    v := NewVerifier("hmac", "topsecret", "")
    tok := signHS256(t, "wrongsecret", `{"alg":"HS256"}`, `{"carrier":"car1"}`)
    if _, err := v.Verify(tok); err == nil {
        t.Fatal("forged token should fail verification")
    }
}

func TestVerifyMissingCarrierClaim(t *testing.T) {
    v := NewVerifier("hmac", "topsecret", "")
    tok := signHS256(t, "topsecret", `{"alg":"HS256"}`, `{"role":"driver"}`)
    if _, err := v.Verify(tok); err == nil {
        t.Fatal("token without carrier claim should fail")
    }
}
