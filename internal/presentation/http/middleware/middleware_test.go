package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/config"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	infraRepo "github.com/sangkips/foodbridge-api/internal/infrastructure/repository"
	"github.com/sangkips/foodbridge-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryIdempotencyRepo struct {
	keys map[string]*entity.IdempotencyKey
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{}}
}

func (r *memoryIdempotencyRepo) GetByKey(ctx context.Context, key, subject string) (*entity.IdempotencyKey, error) {
	return r.keys[subject+"|"+key], nil
}

func (r *memoryIdempotencyRepo) Reserve(ctx context.Context, ikey *entity.IdempotencyKey) error {
	id := ikey.Subject + "|" + ikey.Key
	if _, ok := r.keys[id]; ok {
		return errors.New("duplicate key")
	}
	stored := *ikey
	stored.ResponseCode = 0
	stored.ResponseBody = ""
	r.keys[id] = &stored
	return nil
}

func (r *memoryIdempotencyRepo) Complete(ctx context.Context, ikey *entity.IdempotencyKey) error {
	stored, ok := r.keys[ikey.Subject+"|"+ikey.Key]
	if !ok {
		return errors.New("not reserved")
	}
	stored.ResponseCode = ikey.ResponseCode
	stored.ResponseBody = ikey.ResponseBody
	return nil
}

func (r *memoryIdempotencyRepo) Release(ctx context.Context, key, subject string) error {
	delete(r.keys, subject+"|"+key)
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(ctx context.Context) error {
	for k, v := range r.keys {
		if v.IsExpired() {
			delete(r.keys, k)
		}
	}
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyRequired(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0
	status := http.StatusBadGateway

	router := gin.New()
	mw := IdempotencyRequired(IdempotencyConfig{Repo: repo})
	handler := func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"calls": calls})
	}
	router.POST("/a", mw, handler)
	router.POST("/b", mw, handler)

	headers := map[string]string{IdempotencyKeyHeader: "k1"}

	t.Run("failed responses are not stored", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/a", headers)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Empty(t, repo.keys)
	})

	t.Run("successful response is replayed", func(t *testing.T) {
		status = http.StatusOK
		first := serve(router, http.MethodPost, "/a", headers)
		require.Equal(t, http.StatusOK, first.Code)

		replay := serve(router, http.MethodPost, "/a", headers)
		assert.Equal(t, http.StatusOK, replay.Code)
		assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
		assert.Equal(t, first.Body.String(), replay.Body.String())
		assert.Equal(t, 2, calls)
	})

	t.Run("key reused on another endpoint conflicts", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/b", headers)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"Idempotency-Key was already used for a different request"`)
	})

	t.Run("expired key is replaced", func(t *testing.T) {
		for _, k := range repo.keys {
			k.ExpiresAt = time.Now().Add(-time.Minute)
		}
		w := serve(router, http.MethodPost, "/b", headers)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
		require.Len(t, repo.keys, 1)
		for _, k := range repo.keys {
			assert.Equal(t, "POST /b", k.Endpoint)
		}
	})
}

// lookupBlindRepo hides stored keys from GetByKey, like a request that looked
// the key up just before a concurrent duplicate reserved it.
type lookupBlindRepo struct {
	*memoryIdempotencyRepo
}

func (lookupBlindRepo) GetByKey(ctx context.Context, key, subject string) (*entity.IdempotencyKey, error) {
	return nil, nil
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0

	router := gin.New()
	router.POST("/a", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	// the first request has reserved the key and is still running
	require.NoError(t, repo.Reserve(context.Background(), &entity.IdempotencyKey{
		Key:       "k1",
		Subject:   "ip:192.0.2.1",
		Endpoint:  "POST /a",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	w := serve(router, http.MethodPost, "/a", map[string]string{IdempotencyKeyHeader: "k1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already in progress")
	assert.Equal(t, 0, calls)
	require.Len(t, repo.keys, 1)
	for _, k := range repo.keys {
		assert.True(t, k.IsPending())
	}
}

func TestIdempotencyReservationLostToConcurrentRequest(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0

	router := gin.New()
	router.POST("/a", IdempotencyRequired(IdempotencyConfig{Repo: lookupBlindRepo{repo}}), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	headers := map[string]string{IdempotencyKeyHeader: "k1"}
	require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/a", headers).Code)

	w := serve(router, http.MethodPost, "/a", headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already in progress")
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	repo := newMemoryIdempotencyRepo()

	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/a", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		panic("mailer exploded")
	})

	w := serve(router, http.MethodPost, "/a", map[string]string{IdempotencyKeyHeader: "k1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, repo.keys)
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "s3cret"
	donorID := uuid.New()

	sign := func(donor string) string {
		token, err := utils.SignToken(secret, &utils.AuthClaims{
			Email:   "kitchen@example.com",
			DonorID: donor,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user_9",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		require.NoError(t, err)
		return "Bearer " + token
	}

	router := gin.New()
	router.Use(AuthMiddleware(utils.NewTokenValidator(secret)))
	router.GET("/whoami", func(c *gin.Context) {
		scoped, ok := infraRepo.GetDonorID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"sub": c.GetString("user_id"), "scoped": ok, "donor": scoped.String()})
	})

	w := serve(router, http.MethodGet, "/whoami", map[string]string{"Authorization": sign(donorID.String())})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sub":"user_9"`)
	assert.Contains(t, w.Body.String(), `"donor":"`+donorID.String()+`"`)

	w = serve(router, http.MethodGet, "/whoami", map[string]string{"Authorization": sign("")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scoped":false`)

	w = serve(router, http.MethodGet, "/whoami", map[string]string{"Authorization": sign("restaurant-7")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(router, http.MethodGet, "/whoami", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid authorization header format")
}

func TestAuthMiddlewareOpenMode(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(nil))
	router.GET("/open", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/open", nil).Code)
}

func TestCORSExposesReceiptHeaders(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(&config.CORSConfig{AllowedHeaders: []string{"Authorization"}}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/x", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	exposed := w.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "X-Receipts-Failed")
	assert.Contains(t, exposed, "Content-Disposition")

	preflight := serve(router, http.MethodOptions, "/x", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "Idempotency-Key",
	})
	assert.Equal(t, http.StatusNoContent, preflight.Code)
}

func TestClientRateLimiterKeysByCaller(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1, CleanupInterval: time.Hour, EntryTTL: time.Hour})
	defer rl.Stop()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if sub := c.GetHeader("X-Test-Sub"); sub != "" {
			c.Set("user_id", sub)
		}
	}, rl.Middleware())
	router.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/r", map[string]string{"X-Test-Sub": "a"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/r", map[string]string{"X-Test-Sub": "a"}).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/r", map[string]string{"X-Test-Sub": "b"}).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/r", nil).Code)
	assert.Equal(t, 3, rl.Stats()["active_clients"])
}
