package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFromQueryEmpty(t *testing.T) {
	assert.Equal(t, "posts:q:default", KeyFromQuery("posts", url.Values{}))
}

func TestKeyFromQueryIsOrderIndependent(t *testing.T) {
	a, _ := url.ParseQuery("page=2&limit=5")
	b, _ := url.ParseQuery("limit=5&page=2")

	assert.Equal(t, KeyFromQuery("posts", a), KeyFromQuery("posts", b))
}

func TestKeyFromQueryDistinguishesValues(t *testing.T) {
	a, _ := url.ParseQuery("page=2&limit=5")
	b, _ := url.ParseQuery("page=3&limit=5")

	assert.NotEqual(t, KeyFromQuery("posts", a), KeyFromQuery("posts", b))
}

func TestKeyFromQueryJoinsRepeatedParams(t *testing.T) {
	v, _ := url.ParseQuery("category=drinks&category=snacks")

	assert.Equal(t, "products:q:category=drinks,snacks", KeyFromQuery("products", v))
}
