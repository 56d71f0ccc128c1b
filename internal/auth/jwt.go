package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/domain"
)

// JWK is one entry of a JSON Web Key Set.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is a JSON Web Key Set document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWTValidator validates bearer tokens against any JWKS-publishing issuer
// (§6: "the core receives a verified user_id" — the issuer is
// deployment-specific, not tied to a particular identity provider).
type JWTValidator struct {
	jwksURL       string
	issuer        string
	audience      string
	logger        *zap.Logger
	keys          map[string]*rsa.PublicKey
	keysMu        sync.RWMutex
	lastFetchTime time.Time
}

// NewJWTValidator constructs a JWTValidator. audience may be empty, in
// which case the audience claim is not checked.
func NewJWTValidator(jwksURL, issuer, audience string, logger *zap.Logger) *JWTValidator {
	return &JWTValidator{
		jwksURL:  jwksURL,
		issuer:   issuer,
		audience: audience,
		logger:   logger,
		keys:     make(map[string]*rsa.PublicKey),
	}
}

// FetchJWKS retrieves and caches the issuer's signing keys.
func (v *JWTValidator) FetchJWKS() error {
	v.logger.Info("fetching JWKS", zap.String("url", v.jwksURL))

	resp, err := http.Get(v.jwksURL)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	v.keysMu.Lock()
	defer v.keysMu.Unlock()

	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pubKey, err := jwkToRSAPublicKey(key)
		if err != nil {
			v.logger.Warn("failed to convert JWK to RSA public key", zap.String("kid", key.Kid), zap.Error(err))
			continue
		}
		v.keys[key.Kid] = pubKey
	}

	v.lastFetchTime = time.Now()
	v.logger.Info("JWKS fetched", zap.Int("key_count", len(v.keys)))
	return nil
}

func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{N: n, E: e}, nil
}

func (v *JWTValidator) getPublicKey(kid string) (*rsa.PublicKey, error) {
	v.keysMu.RLock()
	key, exists := v.keys[kid]
	v.keysMu.RUnlock()
	if exists {
		return key, nil
	}

	if time.Since(v.lastFetchTime) > 5*time.Minute {
		if err := v.FetchJWKS(); err != nil {
			return nil, fmt.Errorf("refresh JWKS: %w", err)
		}
		v.keysMu.RLock()
		key, exists = v.keys[kid]
		v.keysMu.RUnlock()
		if exists {
			return key, nil
		}
	}

	return nil, fmt.Errorf("public key not found for kid: %s", kid)
}

// ValidateToken verifies signature, issuer, optional audience, expiry, and
// token_use, returning the extracted UserClaims (§6).
func (v *JWTValidator) ValidateToken(tokenString string) (*domain.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid not found in token header")
		}
		return v.getPublicKey(kid)
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*domain.UserClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	issuer, err := claims.GetIssuer()
	if err != nil || issuer != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, issuer)
	}

	if v.audience != "" {
		audience, err := claims.GetAudience()
		if err != nil || !containsString(audience, v.audience) {
			return nil, fmt.Errorf("invalid audience")
		}
	}

	if claims.IsExpired() {
		return nil, fmt.Errorf("token has expired")
	}
	if !claims.IsAccessToken() && !claims.IsIDToken() {
		return nil, fmt.Errorf("invalid token use: %s", claims.TokenUse)
	}

	return claims, nil
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
