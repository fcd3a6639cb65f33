package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), tag("a"), tag("b"), tag("c"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestRateKeys(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/randomness", nil)
	r.RemoteAddr = "198.51.100.7:5000"
	assert.Equal(t, "198.51.100.7", IPOnlyRateKey(r))
	assert.Equal(t, "198.51.100.7", ForwardedIPRateKey(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	assert.Equal(t, "198.51.100.7", IPOnlyRateKey(r))
	assert.Equal(t, "203.0.113.5", ForwardedIPRateKey(r))

	r.Header.Set("X-Forwarded-For", ", 10.0.0.1")
	assert.Equal(t, "198.51.100.7", ForwardedIPRateKey(r))

	r.RemoteAddr = "pipe"
	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "pipe", IPOnlyRateKey(r))
}
