package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/tidwall/gjson"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
)

const (
	DefaultQuickAuthIssuer  = "https://auth.farcaster.xyz"
	DefaultQuickAuthJWKSURL = "https://auth.farcaster.xyz/.well-known/jwks.json"

	clockSkew = 30 * time.Second
)

// KeySource supplies the identity provider's current signing keys.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// JWKSCache keeps the provider key set fresh in the background.
type JWKSCache struct {
	cache *jwk.Cache
	url   string
}

func NewJWKSCache(ctx context.Context, url string, client *http.Client) (*JWKSCache, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("jwks url is required")
	}

	cache := jwk.NewCache(ctx)
	opts := []jwk.RegisterOption{jwk.WithMinRefreshInterval(15 * time.Minute)}
	if client != nil {
		opts = append(opts, jwk.WithHTTPClient(client))
	}
	if err := cache.Register(url, opts...); err != nil {
		return nil, fmt.Errorf("register jwks url: %w", err)
	}

	return &JWKSCache{cache: cache, url: url}, nil
}

func (c *JWKSCache) Keys(ctx context.Context) (jwk.Set, error) {
	set, err := c.cache.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	return set, nil
}

// StaticKeys serves a fixed key set.
type StaticKeys struct {
	Set jwk.Set
}

func (s StaticKeys) Keys(context.Context) (jwk.Set, error) {
	if s.Set == nil {
		return nil, fmt.Errorf("static key set is nil")
	}
	return s.Set, nil
}

// QuickAuthVerifier checks Farcaster Quick Auth tokens. Claims are read from
// the verified payload directly because sub carries the fid as a JSON number.
type QuickAuthVerifier struct {
	keys     KeySource
	issuer   string
	audience string
	now      func() time.Time
}

func NewQuickAuthVerifier(keys KeySource, issuer, audience string) *QuickAuthVerifier {
	if strings.TrimSpace(issuer) == "" {
		issuer = DefaultQuickAuthIssuer
	}
	return &QuickAuthVerifier{
		keys:     keys,
		issuer:   issuer,
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}
}

func (v *QuickAuthVerifier) Verify(ctx context.Context, token string) (model.UserProfile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.UserProfile{}, ErrUnauthorized
	}
	if v.keys == nil {
		return model.UserProfile{}, fmt.Errorf("quick auth key source is nil")
	}

	set, err := v.keys.Keys(ctx)
	if err != nil {
		return model.UserProfile{}, err
	}

	payload, err := jws.Verify([]byte(token), jws.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)))
	if err != nil {
		return model.UserProfile{}, ErrUnauthorized
	}
	if !gjson.ValidBytes(payload) {
		return model.UserProfile{}, ErrUnauthorized
	}
	claims := gjson.ParseBytes(payload)

	if claims.Get("iss").String() != v.issuer {
		return model.UserProfile{}, ErrUnauthorized
	}
	if v.audience != "" && !audienceMatches(claims.Get("aud"), v.audience) {
		return model.UserProfile{}, ErrUnauthorized
	}

	now := v.now()
	exp := claims.Get("exp")
	if !exp.Exists() || now.After(time.Unix(exp.Int(), 0).Add(clockSkew)) {
		return model.UserProfile{}, ErrUnauthorized
	}
	if nbf := claims.Get("nbf"); nbf.Exists() && now.Add(clockSkew).Before(time.Unix(nbf.Int(), 0)) {
		return model.UserProfile{}, ErrUnauthorized
	}

	fid := claimInt(claims.Get("sub"))
	if fid <= 0 {
		fid = claimInt(claims.Get("fid"))
	}
	if fid <= 0 {
		return model.UserProfile{}, ErrUnauthorized
	}

	return model.UserProfile{
		FID:           fid,
		Username:      claims.Get("username").String(),
		DisplayName:   claims.Get("displayName").String(),
		PfpURL:        claims.Get("pfpUrl").String(),
		WalletAddress: claims.Get("address").String(),
	}, nil
}

func audienceMatches(aud gjson.Result, want string) bool {
	if aud.IsArray() {
		for _, item := range aud.Array() {
			if item.String() == want {
				return true
			}
		}
		return false
	}
	return aud.String() == want
}

func claimInt(v gjson.Result) int64 {
	switch v.Type {
	case gjson.Number:
		return v.Int()
	case gjson.String:
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
